package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/pmdash/internal/cli/formatter"
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/importer"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects", "p"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(
		newProjectAddCmd(app),
		newProjectListCmd(app),
		newProjectSwitchCmd(app),
		newProjectShowCmd(app),
		newProjectUpdateCmd(app),
		newProjectRemoveCmd(app),
		newProjectImportCmd(app),
	)

	return cmd
}

func newProjectAddCmd(app *App) *cobra.Command {
	var info domain.ProjectInfo
	var contract string
	var activate bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if info.Name == "" {
				if !app.interactive() {
					return fmt.Errorf(`required flag(s) "name" not set`)
				}
				if err := app.runForm(projectForm(&info, &contract)); err != nil {
					return fmt.Errorf("project form: %w", err)
				}
				info.Name = strings.TrimSpace(info.Name)
				if info.Name == "" {
					return fmt.Errorf("project name is required")
				}
			}

			for _, d := range []struct{ flag, value string }{{"start", info.StartDate}, {"end", info.EndDate}} {
				if d.value == "" {
					continue
				}
				if _, err := time.Parse(domain.DateLayout, d.value); err != nil {
					return fmt.Errorf("invalid %s date %q (expected YYYY-MM-DD)", d.flag, d.value)
				}
			}

			p := domain.NewProject(uuid.New().String(), info)
			if contract != "" {
				amount, err := decimal.NewFromString(contract)
				if err != nil {
					return fmt.Errorf("invalid contract amount %q: %w", contract, err)
				}
				if amount.IsNegative() {
					return fmt.Errorf("contract amount must not be negative")
				}
				p.Budget.ContractAmount = amount
			}

			app.Store.AddProject(p)
			if activate {
				app.Store.SwitchProject(p.ID)
			}
			if app.Store.ActiveID() == p.ID {
				app.recordActivity("created project", domain.KindProjects, p.ID)
			}
			app.finishWrites(cmd)

			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.DisplayName(), p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&info.Name, "name", "", "Project name (prompted for when interactive)")
	cmd.Flags().StringVar(&info.Client, "client", "", "Client")
	cmd.Flags().StringVar(&info.Manager, "manager", "", "Project manager")
	cmd.Flags().StringVar(&info.StartDate, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&info.EndDate, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&info.Location, "location", "", "Site or office location")
	cmd.Flags().StringVar(&contract, "contract", "", "Contract amount")
	cmd.Flags().BoolVar(&activate, "switch", true, "Make the new project active")

	return cmd
}

func newProjectListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := app.Store.Snapshot()
			if len(st.Projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectList(st.Projects, st.ActiveProjectID))
			return nil
		},
	}
}

func newProjectSwitchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "switch ID",
		Short: "Make a project the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.resolveProjectID(args[0])
			if err != nil {
				return err
			}
			app.Store.SwitchProject(id)
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to %s\n", app.Store.Active().DisplayName())
			return nil
		},
	}
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "show [ID]",
		Aliases: []string{"inspect"},
		Short:   "Show project details (default: active project)",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.projectArg(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatProjectDetail(p, app.now()))
			return nil
		},
	}
}

func newProjectUpdateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update [ID]",
		Short: "Update project info fields (name, client, manager, startDate, endDate, location)",
		Args:  cobra.MaximumNArgs(1),
	}
	patch := newPatchFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(patch) == 0 {
			return fmt.Errorf("nothing to update; pass --set field=value")
		}
		p, err := app.projectArg(args)
		if err != nil {
			return err
		}
		if err := app.Store.UpdateProjectInfo(p.ID, patch); err != nil {
			return err
		}
		app.finishWrites(cmd)
		fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s\n", p.ID)
		return nil
	}

	return cmd
}

func newProjectRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "delete"},
		Short:   "Delete a project and everything in it",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := app.resolveProjectID(args[0])
			if err != nil {
				return err
			}
			p, _ := app.Store.Project(id)
			app.Store.DeleteProject(id)
			app.finishWrites(cmd)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", p.DisplayName())
			return nil
		},
	}
}

func newProjectImportCmd(app *App) *cobra.Command {
	var activate bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Create a project from a JSON (with comments) seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := importer.LoadSeed(args[0])
			if err != nil {
				return err
			}
			p, err := importer.Import(seed)
			if err != nil {
				return err
			}

			app.Store.AddProject(p)
			if activate {
				app.Store.SwitchProject(p.ID)
			}
			if app.Store.ActiveID() == p.ID {
				app.recordActivity("imported project", domain.KindProjects, p.ID)
			}
			app.finishWrites(cmd)

			fmt.Fprintf(cmd.OutOrStdout(), "Imported project %s (%s): %d tasks, %d milestones, %d members, %d issues, %d risks, %d expenses\n",
				p.DisplayName(), p.ID, len(p.Tasks), len(p.Milestones), len(p.Members), len(p.Issues), len(p.Risks), len(p.Budget.Expenses))
			return nil
		},
	}

	cmd.Flags().BoolVar(&activate, "switch", true, "Make the imported project active")
	return cmd
}

// projectArg returns the project named by args[0], or the active project.
func (a *App) projectArg(args []string) (domain.Project, error) {
	if len(args) == 0 {
		return a.requireActive()
	}
	id, err := a.resolveProjectID(args[0])
	if err != nil {
		return domain.Project{}, err
	}
	p, _ := a.Store.Project(id)
	return p, nil
}
