package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/alexanderramin/pmdash/internal/cli/formatter"
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/spf13/cobra"
)

// kindSpec describes a top-level shortcut command such as `pmdash task`.
type kindSpec struct {
	Use     string
	Aliases []string
	Kind    domain.EntityType

	// TitleField receives the positional argument of `add`.
	TitleField string
	// Defaults are applied before the user's --set values.
	Defaults domain.Patch
	// StampField, when set, defaults to today's date on add.
	StampField string
}

var entityCommandSpecs = []kindSpec{
	{
		Use: "task", Aliases: []string{"tasks", "t"}, Kind: domain.KindTasks, TitleField: "title",
		Defaults: domain.Patch{"status": string(domain.TaskNotStarted), "dependencies": []string{}},
	},
	{
		Use: "issue", Aliases: []string{"issues"}, Kind: domain.KindIssues, TitleField: "title",
		Defaults:   domain.Patch{"status": string(domain.IssueOpen), "severity": string(domain.SeverityMedium)},
		StampField: "openedAt",
	},
	{
		Use: "risk", Aliases: []string{"risks"}, Kind: domain.KindRisks, TitleField: "title",
		Defaults: domain.Patch{
			"status":      string(domain.RiskIdentified),
			"probability": string(domain.SeverityMedium),
			"impact":      string(domain.SeverityMedium),
		},
	},
	{
		Use: "member", Aliases: []string{"members"}, Kind: domain.KindMembers, TitleField: "name",
	},
	{
		Use: "milestone", Aliases: []string{"milestones", "ms"}, Kind: domain.KindMilestones, TitleField: "title",
		Defaults: domain.Patch{"status": string(domain.MilestonePlanned)},
	},
}

func newKindCmd(app *App, spec kindSpec) *cobra.Command {
	cmd := &cobra.Command{
		Use:     spec.Use,
		Aliases: spec.Aliases,
		Short:   fmt.Sprintf("Manage %s of the active project", spec.Kind),
	}

	add := &cobra.Command{
		Use:   fmt.Sprintf("add %s", strings.ToUpper(spec.TitleField)),
		Short: fmt.Sprintf("Add a %s", spec.Use),
		Args:  cobra.ExactArgs(1),
	}
	addPatch := newPatchFlags(add.Flags())
	add.RunE = func(cmd *cobra.Command, args []string) error {
		patch := maps.Clone(spec.Defaults)
		if patch == nil {
			patch = domain.Patch{}
		}
		if spec.StampField != "" {
			patch[spec.StampField] = app.now().Format(domain.DateLayout)
		}
		patch[spec.TitleField] = args[0]
		maps.Copy(patch, addPatch)
		return app.addEntity(cmd, spec.Kind, spec.Use, patch)
	}

	cmd.AddCommand(
		add,
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   fmt.Sprintf("List %s", spec.Kind),
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.listEntities(cmd, spec.Kind)
			},
		},
		&cobra.Command{
			Use:   "show ID",
			Short: fmt.Sprintf("Show one %s", spec.Use),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.showEntity(cmd, spec.Kind, spec.Use, args[0])
			},
		},
		newEntityUpdateCmd(app, spec.Kind, spec.Use),
		newEntityRemoveCmd(app, spec.Kind, spec.Use),
		&cobra.Command{
			Use:   "cycle ID",
			Short: "Advance the status to the next value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.cycleEntity(cmd, spec.Kind, spec.Use, args[0])
			},
		},
	)

	return cmd
}

func newEntityUpdateCmd(app *App, kind domain.EntityType, noun string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: fmt.Sprintf("Update fields of a %s", noun),
		Args:  cobra.ExactArgs(1),
	}
	patch := newPatchFlags(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return app.updateEntity(cmd, kind, noun, args[0], patch)
	}
	return cmd
}

func newEntityRemoveCmd(app *App, kind domain.EntityType, noun string) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove", "delete"},
		Short:   fmt.Sprintf("Delete a %s", noun),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.removeEntity(cmd, kind, noun, args[0])
		},
	}
}

// newEntityCmd exposes every collection through one command that takes the
// collection name as its first argument.
func newEntityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entity",
		Aliases: []string{"e"},
		Short:   "Manage any entity collection of the active project",
	}

	add := &cobra.Command{
		Use:   "add KIND",
		Short: "Add an entity built from --set fields",
		Args:  cobra.ExactArgs(1),
	}
	addPatch := newPatchFlags(add.Flags())
	add.RunE = func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return app.addEntity(cmd, kind, string(kind), maps.Clone(addPatch))
	}

	update := &cobra.Command{
		Use:   "update KIND ID",
		Short: "Update fields of an entity",
		Args:  cobra.ExactArgs(2),
	}
	updatePatch := newPatchFlags(update.Flags())
	update.RunE = func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}
		return app.updateEntity(cmd, kind, string(kind), args[1], updatePatch)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "kinds",
			Short: "List the entity collections",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				p := app.Store.Active()
				t := formatter.NewTable("KIND", "COUNT", "FIELDS")
				for _, kind := range slices.Concat(domain.CollectionTypes, []domain.EntityType{domain.KindExpenses}) {
					count := "-"
					if app.Store.ActiveID() != "" {
						count = fmt.Sprintf("%d", countKind(p, kind))
					}
					t.AddRow(string(kind), count, strings.Join(formatter.Columns(kind), ", "))
				}
				fmt.Fprintln(cmd.OutOrStdout(), t.Render())
				return nil
			},
		},
		&cobra.Command{
			Use:     "list KIND",
			Aliases: []string{"ls"},
			Short:   "List a collection",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				kind, err := parseKind(args[0])
				if err != nil {
					return err
				}
				return app.listEntities(cmd, kind)
			},
		},
		&cobra.Command{
			Use:   "show KIND ID",
			Short: "Show one entity",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				kind, err := parseKind(args[0])
				if err != nil {
					return err
				}
				return app.showEntity(cmd, kind, string(kind), args[1])
			},
		},
		add,
		update,
		&cobra.Command{
			Use:     "rm KIND ID",
			Aliases: []string{"remove", "delete"},
			Short:   "Delete an entity",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				kind, err := parseKind(args[0])
				if err != nil {
					return err
				}
				return app.removeEntity(cmd, kind, string(kind), args[1])
			},
		},
		&cobra.Command{
			Use:   "cycle KIND ID",
			Short: "Advance an entity's status to the next value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				kind, err := parseKind(args[0])
				if err != nil {
					return err
				}
				return app.cycleEntity(cmd, kind, string(kind), args[1])
			},
		},
	)

	return cmd
}

func parseKind(s string) (domain.EntityType, error) {
	kind, ok := domain.ParseEntityType(s)
	if !ok || !kind.IsCollection() {
		return "", fmt.Errorf("unknown entity kind %q (run `pmdash entity kinds`)", s)
	}
	return kind, nil
}

func countKind(p domain.Project, kind domain.EntityType) int {
	n := 0
	for _, rec := range p.Records() {
		if rec.Kind == kind {
			n++
		}
	}
	return n
}

func (a *App) addEntity(cmd *cobra.Command, kind domain.EntityType, noun string, patch domain.Patch) error {
	if _, err := a.requireActive(); err != nil {
		return err
	}
	ops, err := a.opsFor(kind)
	if err != nil {
		return err
	}
	id, err := ops.add(patch)
	if err != nil {
		return err
	}
	if kind != domain.KindActivities {
		a.recordActivity("added "+noun, kind, id)
	}
	a.finishWrites(cmd)
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s %s\n", noun, id)
	return nil
}

func (a *App) listEntities(cmd *cobra.Command, kind domain.EntityType) error {
	p, err := a.requireActive()
	if err != nil {
		return err
	}
	out, err := formatter.FormatEntityTable(p, kind, a.now())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func (a *App) showEntity(cmd *cobra.Command, kind domain.EntityType, noun, input string) error {
	p, err := a.requireActive()
	if err != nil {
		return err
	}
	id, err := a.resolveEntityID(kind, noun, input)
	if err != nil {
		return err
	}
	out, err := formatter.FormatEntity(p, kind, id, a.now())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func (a *App) updateEntity(cmd *cobra.Command, kind domain.EntityType, noun, input string, patch domain.Patch) error {
	if len(patch) == 0 {
		return fmt.Errorf("nothing to update; pass --set field=value")
	}
	if _, err := a.requireActive(); err != nil {
		return err
	}
	id, err := a.resolveEntityID(kind, noun, input)
	if err != nil {
		return err
	}
	ops, err := a.opsFor(kind)
	if err != nil {
		return err
	}
	if err := ops.update(id, patch); err != nil {
		return err
	}
	if kind != domain.KindActivities {
		a.recordActivity("updated "+noun, kind, id)
	}
	a.finishWrites(cmd)
	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %s\n", noun, id)
	return nil
}

func (a *App) removeEntity(cmd *cobra.Command, kind domain.EntityType, noun, input string) error {
	if _, err := a.requireActive(); err != nil {
		return err
	}
	id, err := a.resolveEntityID(kind, noun, input)
	if err != nil {
		return err
	}
	ops, err := a.opsFor(kind)
	if err != nil {
		return err
	}
	ops.remove(id)
	if kind != domain.KindActivities {
		a.recordActivity("deleted "+noun, kind, id)
	}
	a.finishWrites(cmd)
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", noun, id)
	return nil
}

func (a *App) cycleEntity(cmd *cobra.Command, kind domain.EntityType, noun, input string) error {
	if _, err := a.requireActive(); err != nil {
		return err
	}
	ops, err := a.opsFor(kind)
	if err != nil {
		return err
	}
	if ops.cycle == nil {
		return fmt.Errorf("%s have no status to cycle", kind)
	}
	id, err := a.resolveEntityID(kind, noun, input)
	if err != nil {
		return err
	}
	status, err := ops.cycle(id)
	if err != nil {
		return err
	}
	a.recordActivity(fmt.Sprintf("set %s status to %s", noun, status), kind, id)
	a.finishWrites(cmd)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s → %s\n", noun, formatter.TruncID(id), formatter.StatusPill(status))
	return nil
}

func (a *App) resolveEntityID(kind domain.EntityType, noun, input string) (string, error) {
	ops, err := a.opsFor(kind)
	if err != nil {
		return "", err
	}
	return resolveID(noun, ops.ids(), input)
}
