package cli

import (
	"fmt"

	"github.com/alexanderramin/pmdash/internal/cli/formatter"
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/spf13/cobra"
)

func newActivityCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "activity",
		Aliases: []string{"log", "feed"},
		Short:   "Show the active project's activity feed",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireActive(); err != nil {
				return err
			}
			entries := app.Store.RecentActivities(limit)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatActivityFeed(entries, app.now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	add := &cobra.Command{
		Use:   "add ACTION",
		Short: "Append a note to the activity feed",
		Args:  cobra.ExactArgs(1),
	}
	var kind, target string
	add.Flags().StringVar(&kind, "kind", "", "Entity kind the note is about")
	add.Flags().StringVar(&target, "target", "", "Entity ID the note is about")
	add.RunE = func(cmd *cobra.Command, args []string) error {
		if _, err := app.requireActive(); err != nil {
			return err
		}
		entry := domain.Activity{Action: args[0], Actor: app.Actor, TargetID: target}
		if kind != "" {
			k, ok := domain.ParseEntityType(kind)
			if !ok {
				return fmt.Errorf("unknown entity kind %q", kind)
			}
			entry.TargetType = k
		}
		id := app.Store.AddActivity(entry)
		app.finishWrites(cmd)
		fmt.Fprintf(cmd.OutOrStdout(), "Logged %s\n", id)
		return nil
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the activity feed",
		Args:  cobra.NoArgs,
		RunE:  cmd.RunE,
	}
	list.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	cmd.AddCommand(list, add)
	return cmd
}
