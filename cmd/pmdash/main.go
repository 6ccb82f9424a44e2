package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/alexanderramin/pmdash/internal/cli"
	"github.com/alexanderramin/pmdash/internal/config"
	"github.com/alexanderramin/pmdash/internal/db"
	"github.com/alexanderramin/pmdash/internal/localstate"
	"github.com/alexanderramin/pmdash/internal/remote"
	"github.com/alexanderramin/pmdash/internal/repository"
	"github.com/alexanderramin/pmdash/internal/store"
	"github.com/alexanderramin/pmdash/internal/syncagent"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configFlag(os.Args[1:]))
	if err != nil {
		return err
	}

	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// Local cache of the last known state
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	codec, err := cfg.SnapshotCodec()
	if err != nil {
		return err
	}
	persister := localstate.New(repository.NewSQLiteStateRepo(database), codec)

	projects := store.New(store.WithPersister(persister), store.WithLogger(logger))
	if err := projects.Load(ctx); err != nil {
		logger.Warn("could not restore local state", "error", err)
	}

	// The data service database opens on first use only.
	var (
		serverOnce sync.Once
		serverDB   *sql.DB
		local      *remote.Local
		serverErr  error
	)
	openLocal := func() (*remote.Local, error) {
		serverOnce.Do(func() {
			serverDB, serverErr = db.OpenDB(cfg.ServerDBPath)
			if serverErr != nil {
				serverErr = fmt.Errorf("opening service database: %w", serverErr)
				return
			}
			local = remote.NewLocal(serverDB, remote.WithLocalLogger(logger))
		})
		return local, serverErr
	}
	defer func() {
		if serverDB != nil {
			serverDB.Close()
		}
	}()

	var svc remote.Service
	if cfg.RemoteURL != "" {
		svc = remote.NewClient(cfg.RemoteURL, remote.WithClientLogger(logger))
	} else {
		l, err := openLocal()
		if err != nil {
			return err
		}
		svc = l
	}

	toasts := cli.NewToastRelay(os.Stderr)
	agent := syncagent.New(projects, svc, syncagent.Options{
		Tenant:   cfg.Tenant,
		Notifier: toasts,
		Observer: syncagent.NewSlogObserver(logger),
		Logger:   logger,
	})
	defer agent.Close()

	app := &cli.App{
		Store:  projects,
		Agent:  agent,
		Config: cfg,
		Logger: logger,
		Toasts: toasts,
		Actor:  currentUser(),
		OpenService: func() (remote.Service, error) {
			return openLocal()
		},
	}

	// Detect interactive terminal for spinners and the dashboard.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

// configFlag finds --config ahead of command parsing; the config decides
// how the commands are wired.
func configFlag(args []string) string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v
		}
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func currentUser() string {
	for _, key := range []string{"PMDASH_ACTOR", "USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}
