package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/alexanderramin/pmdash/internal/cli/formatter"
	"github.com/alexanderramin/pmdash/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a commented default config (default ~/.pmdash/config.yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GlobalConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("writing config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			if cfg == nil {
				cfg = config.DefaultConfig()
			}
			remoteURL := cfg.RemoteURL
			if remoteURL == "" {
				remoteURL = "(in-process)"
			}
			t := formatter.NewTable("KEY", "VALUE")
			t.AddRow("db_path", cfg.DBPath)
			t.AddRow("server_db_path", cfg.ServerDBPath)
			t.AddRow("remote_url", remoteURL)
			t.AddRow("listen_addr", cfg.ListenAddr)
			t.AddRow("tenant", cfg.Tenant)
			t.AddRow("snapshot.format", cfg.Snapshot.Format)
			t.AddRow("snapshot.compress", strconv.FormatBool(cfg.Snapshot.Compress))
			t.AddRow("log.level", cfg.Log.Level)
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
