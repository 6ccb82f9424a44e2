package cli

import (
	"fmt"

	"github.com/alexanderramin/pmdash/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the project data over HTTP for other pmdash clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.OpenService == nil {
				return fmt.Errorf("serve is not available in this build")
			}
			svc, err := app.OpenService()
			if err != nil {
				return err
			}

			if addr == "" && app.Config != nil {
				addr = app.Config.ListenAddr
			}
			srv := server.New(svc, server.WithLogger(app.logger()))
			fmt.Fprintf(cmd.ErrOrStderr(), "Serving on http://%s\n", addr)
			return srv.Run(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
