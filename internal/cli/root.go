package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/alexanderramin/pmdash/internal/cli/formatter"
	"github.com/alexanderramin/pmdash/internal/config"
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/remote"
	"github.com/alexanderramin/pmdash/internal/store"
	"github.com/alexanderramin/pmdash/internal/syncagent"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const defaultDrainTimeout = 10 * time.Second

// App holds everything CLI commands act on. The store is the only thing
// commands mutate; the agent carries those mutations to the remote service.
type App struct {
	Store  *store.ProjectStore
	Agent  *syncagent.Agent
	Config *config.Config
	Logger *slog.Logger

	// OpenService returns the data service `serve` exposes over HTTP.
	OpenService func() (remote.Service, error)

	// Toasts is the agent's notifier; the dashboard takes it over while
	// it runs.
	Toasts *ToastRelay

	// Actor is recorded on activity entries the CLI writes.
	Actor string

	// Now defaults to time.Now.
	Now func() time.Time

	// IsInteractive reports whether stdout is a terminal.
	IsInteractive func() bool

	// RunForm runs a prompt form; defaults to form.Run.
	RunForm func(form *huh.Form) error

	// DrainTimeout bounds how long a mutating command waits for its
	// writes to reach the remote service.
	DrainTimeout time.Duration

	// failedBase is the agent's failure count when the command started.
	failedBase uint64
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) runForm(form *huh.Form) error {
	if a.RunForm != nil {
		return a.RunForm(form)
	}
	return form.Run()
}

// NewRootCmd creates the top-level "pmdash" command and registers all
// subcommands against app.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "pmdash",
		Short:         "Multi-project management dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if app.Agent != nil {
				app.failedBase = app.Agent.FailedWrites()
			}
		},
	}

	// Parsed ahead of command construction by main; declared here so cobra
	// accepts it.
	root.PersistentFlags().String("config", "", "Config file (default ~/.pmdash/config.yaml)")

	root.AddCommand(
		newServeCmd(app),
		newSyncCmd(app),
		newWatchCmd(app),
		newProjectCmd(app),
		newBudgetCmd(app),
		newActivityCmd(app),
		newEntityCmd(app),
		newConfigCmd(app),
	)
	for _, spec := range entityCommandSpecs {
		root.AddCommand(newKindCmd(app, spec))
	}

	return root
}

// finishWrites waits for queued writes and reports the ones that failed.
// Failures never fail the command: the local change stands.
func (a *App) finishWrites(cmd *cobra.Command) {
	if a.Agent == nil {
		return
	}
	timeout := a.DrainTimeout
	if timeout <= 0 {
		timeout = defaultDrainTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	if err := a.Agent.Drain(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; changes are saved locally\n", err)
		return
	}
	if failed := a.Agent.FailedWrites() - a.failedBase; failed > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %d change(s) did not reach the server; they are saved locally\n", failed)
	}
}

// recordActivity appends to the active project's feed.
func (a *App) recordActivity(action string, kind domain.EntityType, id string) {
	a.Store.AddActivity(domain.Activity{Action: action, TargetType: kind, TargetID: id, Actor: a.Actor})
}

// requireActive fails when there is no project to act on.
func (a *App) requireActive() (domain.Project, error) {
	if a.Store.ActiveID() == "" {
		return domain.Project{}, fmt.Errorf("no active project; create one with `pmdash project add` or run `pmdash sync`")
	}
	return a.Store.Active(), nil
}

// ToastRelay prints toasts as single lines on a writer, or hands them to
// the dashboard while it runs.
type ToastRelay struct {
	mu     sync.Mutex
	w      io.Writer
	target func(syncagent.Toast)
}

var _ syncagent.Notifier = (*ToastRelay)(nil)

func NewToastRelay(w io.Writer) *ToastRelay {
	if w == nil {
		w = os.Stderr
	}
	return &ToastRelay{w: w}
}

func (r *ToastRelay) Notify(t syncagent.Toast) {
	r.mu.Lock()
	target, w := r.target, r.w
	r.mu.Unlock()

	if target != nil {
		target(t)
		return
	}
	title := formatter.StyleBlue.Render(t.Title)
	if t.Level == syncagent.LevelError {
		title = formatter.StyleRed.Render(t.Title)
	}
	fmt.Fprintf(w, "%s: %s\n", title, t.Message)
}

// redirect sends toasts to fn until the returned func is called.
func (r *ToastRelay) redirect(fn func(syncagent.Toast)) (restore func()) {
	r.mu.Lock()
	prev := r.target
	r.target = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		r.target = prev
		r.mu.Unlock()
	}
}
