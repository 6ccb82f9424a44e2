package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/pmdash/internal/cli/formatter"
	"github.com/alexanderramin/pmdash/internal/domain"
	"github.com/alexanderramin/pmdash/internal/store"
	"github.com/alexanderramin/pmdash/internal/syncagent"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	toastTTL      = 6 * time.Second
	maxToasts     = 3
	watchActivity = 50
)

// watchSections are the tabs of the dashboard, in display order.
var watchSections = []string{"Overview", "Tasks", "Issues", "Risks", "Milestones", "Budget", "Activity"}

type storeChangedMsg struct{ source store.Source }

type toastMsg syncagent.Toast

type toastExpiredMsg struct{}

type fetchDoneMsg struct{ err error }

type watchKeyMap struct {
	NextTab     key.Binding
	PrevTab     key.Binding
	NextProject key.Binding
	PrevProject key.Binding
	Refresh     key.Binding
	Quit        key.Binding
}

func defaultWatchKeys() watchKeyMap {
	return watchKeyMap{
		NextTab:     key.NewBinding(key.WithKeys("tab", "right", "l"), key.WithHelp("tab", "next view")),
		PrevTab:     key.NewBinding(key.WithKeys("shift+tab", "left", "h"), key.WithHelp("shift+tab", "prev view")),
		NextProject: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next project")),
		PrevProject: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev project")),
		Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k watchKeyMap) help() []key.Binding {
	return []key.Binding{k.NextTab, k.NextProject, k.PrevProject, k.Refresh, k.Quit}
}

// watchModel is a live dashboard of the active project. It re-renders from
// the store whenever the store changes, whatever the source.
type watchModel struct {
	app     *App
	keys    watchKeyMap
	vp      viewport.Model
	spin    spinner.Model
	section int
	width   int
	height  int
	syncing bool
	toasts  []syncagent.Toast
}

func newWatchModel(app *App) watchModel {
	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = formatter.StylePurple

	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true

	return watchModel{
		app:  app,
		keys: defaultWatchKeys(),
		vp:   vp,
		spin: spin,
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.vp.Width = msg.Width
		m.vp.Height = m.contentHeight()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.NextTab):
			m.section = (m.section + 1) % len(watchSections)
			m.vp.GotoTop()
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.PrevTab):
			m.section = (m.section + len(watchSections) - 1) % len(watchSections)
			m.vp.GotoTop()
			m.refresh()
			return m, nil
		case key.Matches(msg, m.keys.NextProject):
			m.stepProject(1)
			return m, nil
		case key.Matches(msg, m.keys.PrevProject):
			m.stepProject(-1)
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			if m.syncing || m.app.Agent == nil {
				return m, nil
			}
			m.syncing = true
			return m, m.fetch()
		}

	case storeChangedMsg:
		m.refresh()
		return m, nil

	case fetchDoneMsg:
		m.syncing = false
		m.refresh()
		return m, nil

	case toastMsg:
		t := syncagent.Toast(msg)
		if t.At.IsZero() {
			t.At = m.app.now()
		}
		m.toasts = append(m.toasts, t)
		if len(m.toasts) > maxToasts {
			m.toasts = m.toasts[len(m.toasts)-maxToasts:]
		}
		return m, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg{} })

	case toastExpiredMsg:
		now := m.app.now()
		kept := m.toasts[:0]
		for _, t := range m.toasts {
			if now.Sub(t.At) < toastTTL {
				kept = append(kept, t)
			}
		}
		m.toasts = kept
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return m, cmd
}

func (m watchModel) fetch() tea.Cmd {
	agent := m.app.Agent
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return fetchDoneMsg{err: agent.FetchRemoteState(ctx)}
	}
}

// stepProject activates the project delta places away in the list.
func (m *watchModel) stepProject(delta int) {
	st := m.app.Store.Snapshot()
	if len(st.Projects) == 0 {
		return
	}
	cur := 0
	for i, p := range st.Projects {
		if p.ID == st.ActiveProjectID {
			cur = i
			break
		}
	}
	next := (cur + delta + len(st.Projects)) % len(st.Projects)
	m.app.Store.SwitchProject(st.Projects[next].ID)
	m.vp.GotoTop()
	m.refresh()
}

func (m *watchModel) contentHeight() int {
	// header, tabs, blank, footer help, toasts
	h := m.height - 4 - maxToasts
	if h < 1 {
		h = 1
	}
	return h
}

func (m *watchModel) refresh() {
	m.vp.SetContent(m.sectionContent())
}

func (m watchModel) sectionContent() string {
	if m.app.Store.ActiveID() == "" {
		return formatter.Dim("No active project. Create one with `pmdash project add` or press r to sync.")
	}
	p := m.app.Store.Active()
	now := m.app.now()

	switch watchSections[m.section] {
	case "Overview":
		return formatter.FormatProjectDetail(p, now)
	case "Tasks":
		return entityTableOrError(p, domain.KindTasks, now)
	case "Issues":
		return entityTableOrError(p, domain.KindIssues, now)
	case "Risks":
		return entityTableOrError(p, domain.KindRisks, now)
	case "Milestones":
		return formatter.RenderTree(formatter.MilestoneTree(p))
	case "Budget":
		return formatter.FormatBudget(p)
	case "Activity":
		return formatter.FormatActivityFeed(m.app.Store.RecentActivities(watchActivity), now)
	}
	return ""
}

func entityTableOrError(p domain.Project, kind domain.EntityType, now time.Time) string {
	out, err := formatter.FormatEntityTable(p, kind, now)
	if err != nil {
		return formatter.StyleRed.Render(err.Error())
	}
	return out
}

func (m watchModel) View() string {
	var b strings.Builder

	title := "pmdash"
	if m.app.Store.ActiveID() != "" {
		title += " · " + m.app.Store.Active().DisplayName()
	}
	b.WriteString(formatter.Header(title))
	if m.syncing {
		b.WriteString("  " + m.spin.View() + formatter.Dim(" syncing"))
	} else if m.app.Agent != nil && m.app.Agent.Pending() > 0 {
		b.WriteString("  " + formatter.Dim(fmt.Sprintf("%d pending", m.app.Agent.Pending())))
	}
	b.WriteString("\n")

	tabs := make([]string, len(watchSections))
	for i, name := range watchSections {
		if i == m.section {
			tabs[i] = formatter.StyleBold.Underline(true).Render(name)
		} else {
			tabs[i] = formatter.Dim(name)
		}
	}
	b.WriteString(strings.Join(tabs, "  ") + "\n\n")

	b.WriteString(m.vp.View() + "\n")

	for _, t := range m.toasts {
		style := formatter.StyleBlue
		if t.Level == syncagent.LevelError {
			style = formatter.StyleRed
		}
		b.WriteString(style.Render(t.Title) + " " + t.Message + "\n")
	}

	help := make([]string, 0, len(m.keys.help()))
	for _, k := range m.keys.help() {
		h := k.Help()
		help = append(help, lipgloss.JoinHorizontal(lipgloss.Top, formatter.StyleBold.Render(h.Key), " ", formatter.Dim(h.Desc)))
	}
	b.WriteString(strings.Join(help, formatter.Dim(" · ")))

	return b.String()
}

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "watch",
		Aliases: []string{"dash", "ui"},
		Short:   "Live dashboard that follows changes from every client",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("watch needs an interactive terminal")
			}
			return runWatch(cmd.Context(), app, tea.WithAltScreen(), tea.WithMouseCellMotion())
		},
	}
}

// runWatch owns the agent for the lifetime of the dashboard.
func runWatch(ctx context.Context, app *App, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts = append(opts, tea.WithContext(ctx))
	prog := tea.NewProgram(newWatchModel(app), opts...)

	// Sends happen off the caller's goroutine: a store change made from
	// Update would otherwise block on the program's own event loop.
	stopListen := app.Store.Listen(func(ev store.Event) {
		go prog.Send(storeChangedMsg{source: ev.Source})
	})
	defer stopListen()

	if app.Toasts != nil {
		restore := app.Toasts.redirect(func(t syncagent.Toast) { go prog.Send(toastMsg(t)) })
		defer restore()
	}

	agentDone := make(chan struct{})
	if app.Agent != nil {
		go func() {
			defer close(agentDone)
			if err := app.Agent.Run(ctx); err != nil {
				app.logger().Warn("sync agent stopped", "error", err)
			}
		}()
	} else {
		close(agentDone)
	}

	_, err := prog.Run()
	cancel()
	<-agentDone

	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
