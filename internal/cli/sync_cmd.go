package cli

import (
	"fmt"

	"github.com/alexanderramin/pmdash/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replace local projects with the server's copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Agent == nil {
				return fmt.Errorf("no remote service configured")
			}

			// Queued local writes go first so the fetch sees them.
			app.finishWrites(cmd)

			stop := func() {}
			if app.interactive() {
				stop = formatter.StartSpinner(cmd.ErrOrStderr(), "Fetching projects...")
			}
			err := app.Agent.FetchRemoteState(cmd.Context())
			stop()
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			st := app.Store.Snapshot()
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d project(s)\n", len(st.Projects))
			return nil
		},
	}
}
