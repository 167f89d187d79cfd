// Package ui implements the interactive catalogue browser.
package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"xpipe-browser/internal/appconfig"
	"xpipe-browser/internal/catalogue"
	"xpipe-browser/internal/events"
	"xpipe-browser/internal/fuzzy"
	"xpipe-browser/internal/history"
	"xpipe-browser/internal/nav"
	"xpipe-browser/internal/util"
	"xpipe-browser/internal/xpipe"
)

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Confirm key.Binding
	Back    key.Binding
	Filter  key.Binding
	Refresh key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Confirm, k.Filter, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Confirm, k.Back},
		{k.Filter, k.Refresh, k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Back:    key.NewBinding(key.WithKeys("esc", "h"), key.WithHelp("esc", "back")),
		Filter:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "fuzzy filter")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refetch")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type launchResultMsg struct {
	name string
	err  error
}

type filterResultMsg struct {
	choice string
	err    error
}

type fetchResultMsg struct {
	cat catalogue.Catalogue
	err error
}

type modelUI struct {
	cfg     appconfig.Config
	client  *xpipe.Client
	fetcher *catalogue.Fetcher
	matcher *fuzzy.Matcher
	journal *events.Store

	machine    *nav.Machine
	lastOpened map[string]int64
	status     string
	warnings   []string
	// notice holds the full-screen session handoff message; while non-empty
	// the browser only waits for an acknowledging key press.
	notice string
	// busy marks an in-flight launch or fetch. The control flow issues at
	// most one network command at a time, so replies never race and a stale
	// catalogue cannot overwrite a fresher one.
	busy   bool
	width  int
	height int
	keys   keyMap
	help   help.Model
}

func newModel(cfg appconfig.Config, client *xpipe.Client, fetcher *catalogue.Fetcher, matcher *fuzzy.Matcher, journal *events.Store, machine *nav.Machine, warnings []string) modelUI {
	lastOpened, err := history.LastOpened()
	if err != nil {
		slog.Warn("failed to load history", "error", err)
	}
	return modelUI{
		cfg:        cfg,
		client:     client,
		fetcher:    fetcher,
		matcher:    matcher,
		journal:    journal,
		machine:    machine,
		lastOpened: lastOpened,
		warnings:   warnings,
		status:     "Select a target, then Enter to open a session. / filters via " + cfg.Matcher.Command + ".",
		keys:       defaultKeyMap(),
		help:       help.New(),
	}
}

func (m modelUI) Init() tea.Cmd { return nil }

func (m modelUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		// The handoff notice owns the screen until the user acknowledges it;
		// the browser never resumes on its own.
		if m.notice != "" {
			m.notice = ""
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.machine.Quit()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Down):
			m.machine.MoveDown()
		case key.Matches(msg, m.keys.Up):
			m.machine.MoveUp()
		case key.Matches(msg, m.keys.Back):
			m.machine.Back()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Confirm):
			if m.busy {
				return m, nil
			}
			if act := m.machine.Confirm(); act.Kind == nav.ActionLaunch {
				m.busy = true
				return m, m.launchCmd(act)
			}
		case key.Matches(msg, m.keys.Refresh):
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Refetching catalogue..."
			return m, m.fetchCmd()
		case key.Matches(msg, m.keys.Filter):
			if m.busy {
				return m, nil
			}
			names := m.machine.Visible()
			if len(names) == 0 {
				m.status = "Nothing to filter."
				return m, nil
			}
			cmd, out := m.matcher.Command(names)
			matcher := m.matcher
			return m, tea.ExecProcess(cmd, func(runErr error) tea.Msg {
				choice, err := matcher.Result(out, runErr)
				return filterResultMsg{choice: choice, err: err}
			})
		}
		return m, nil

	case filterResultMsg:
		if msg.err != nil {
			// Not an error worth surfacing: an aborted matcher run simply
			// means nothing was selected.
			slog.Warn("fuzzy filter produced no selection", "error", msg.err)
			_ = m.journal.Append(events.Event{Kind: events.KindFilterNoMatch, Message: msg.err.Error()})
			m.status = "Filter: no selection."
			return m, nil
		}
		if act := m.machine.Select(msg.choice); act.Kind == nav.ActionLaunch {
			m.busy = true
			return m, m.launchCmd(act)
		}
		m.status = fmt.Sprintf("Filter result %q did not match a target.", msg.choice)
		return m, nil

	case launchResultMsg:
		m.busy = false
		if msg.err != nil {
			_ = m.journal.Append(events.Event{Kind: events.KindLaunchFailed, Target: msg.name, Message: msg.err.Error()})
			m.notice = fmt.Sprintf("Failed to open terminal session for %s:\n\n%s", msg.name, msg.err.Error())
			return m, nil
		}
		_ = m.journal.Append(events.Event{Kind: events.KindLaunchOK, Target: msg.name})
		if err := history.Touch(msg.name); err != nil {
			slog.Warn("failed to record history", "error", err)
		} else {
			if m.lastOpened == nil {
				m.lastOpened = map[string]int64{}
			}
			m.lastOpened[msg.name] = time.Now().Unix()
		}
		m.notice = "Opened terminal session for: " + msg.name
		return m, nil

	case fetchResultMsg:
		m.busy = false
		if msg.err != nil {
			slog.Warn("catalogue refetch failed", "error", msg.err)
			_ = m.journal.Append(events.Event{Kind: events.KindFetchFailed, Message: msg.err.Error()})
			m.status = "Refetch failed; keeping current catalogue. See stderr for details."
			return m, nil
		}
		m.machine.SetCatalogue(msg.cat)
		_ = m.journal.Append(events.Event{Kind: events.KindFetchOK, Message: fmt.Sprintf("%d targets", msg.cat.Len())})
		m.status = fmt.Sprintf("Catalogue refreshed: %d targets.", msg.cat.Len())
		return m, nil
	}
	return m, nil
}

func (m modelUI) launchCmd(act nav.Action) tea.Cmd {
	client, dir := m.client, m.cfg.DefaultDirectory
	return func() tea.Msg {
		err := client.OpenTerminal(context.Background(), act.Target, dir)
		return launchResultMsg{name: act.Name, err: err}
	}
}

func (m modelUI) fetchCmd() tea.Cmd {
	fetcher, filter := m.fetcher, xpipe.Filter{Type: m.cfg.TypeFilter}
	return func() tea.Msg {
		cat, err := fetcher.Fetch(context.Background(), filter)
		return fetchResultMsg{cat: cat, err: err}
	}
}

func (m modelUI) View() string {
	if m.notice != "" {
		body := m.notice + "\n\nPress any key to return..."
		return m.renderPanel("Session", body, m.effectiveWidth(), lipgloss.Color("205"))
	}

	head := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Render("XPipe Connection Browser")
	cat := m.machine.Catalogue()
	subhead := fmt.Sprintf("targets=%d authed=%t mode=%s", cat.Len(), m.client.Authenticated(), m.cfg.ConfirmMode)

	listTitle := "Targets"
	if server := m.machine.DrillServer(); server != "" {
		listTitle = "Resources of " + server
	}
	list := m.renderList()
	detail := m.renderDetail()
	main := m.renderMainPanels(listTitle, list, detail)

	warn := ""
	if len(m.warnings) > 0 {
		warn = "Warnings: " + strings.Join(m.warnings, " | ")
	}
	status := m.renderPanel("Status", m.status, m.effectiveWidth(), lipgloss.Color("205"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		head,
		subhead,
		main,
		warn,
		status,
		m.help.View(m.keys),
	)
}

func (m modelUI) renderList() string {
	sel := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	b := strings.Builder{}
	visible := m.machine.Visible()
	for i, name := range visible {
		cursor := "  "
		line := name
		if i == m.machine.Cursor() {
			cursor = "> "
			line = sel.Render(name)
		}
		b.WriteString(cursor + line + "\n")
	}
	if len(visible) == 0 {
		b.WriteString("  (no targets; is the daemon running?)\n")
	}
	return b.String()
}

func (m modelUI) renderDetail() string {
	visible := m.machine.Visible()
	if len(visible) == 0 {
		return "Nothing selected.\n"
	}
	b := strings.Builder{}
	cat := m.machine.Catalogue()
	if server := m.machine.DrillServer(); server != "" {
		id := visible[m.machine.Cursor()]
		b.WriteString("Server: " + server + "\n")
		b.WriteString("Resource: " + id + "\n")
		b.WriteString("\nEnter opens a session against this resource; esc goes back.\n")
		return b.String()
	}
	name := visible[m.machine.Cursor()]
	b.WriteString("Name: " + name + "\n")
	b.WriteString("Primary: " + util.EmptyDash(cat.Primary(name)) + "\n")
	b.WriteString(fmt.Sprintf("Last opened: %s\n", util.Ago(m.lastOpened[name], time.Now())))
	ids := cat.Resources[name]
	b.WriteString(fmt.Sprintf("Resources (%d):\n", len(ids)))
	for _, id := range ids {
		b.WriteString("  - " + id + "\n")
	}
	return b.String()
}

func (m modelUI) renderMainPanels(listTitle, listPanel, detailPanel string) string {
	width := m.effectiveWidth()
	if width < 96 {
		return lipgloss.JoinVertical(
			lipgloss.Left,
			m.renderPanel(listTitle, listPanel, width, lipgloss.Color("39")),
			m.renderPanel("Details", detailPanel, width, lipgloss.Color("69")),
		)
	}
	leftWidth := width / 2
	rightWidth := width - leftWidth
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderPanel(listTitle, listPanel, leftWidth, lipgloss.Color("39")),
		m.renderPanel("Details", detailPanel, rightWidth, lipgloss.Color("69")),
	)
}

func (m modelUI) effectiveWidth() int {
	if m.width <= 0 {
		return 100
	}
	return m.width
}

func (m modelUI) renderPanel(title, body string, width int, accent lipgloss.Color) string {
	if width < 24 {
		width = 24
	}
	header := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(title)
	content := strings.TrimSuffix(body, "\n")
	panel := strings.TrimSpace(header + "\n" + content)
	return lipgloss.NewStyle().
		Width(width).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Render(panel)
}

func policyFor(mode appconfig.ConfirmMode) nav.ConfirmPolicy {
	if mode == appconfig.ConfirmFlat {
		return nav.FlatLaunch
	}
	return nav.DrillThenLaunch
}

// Bootstrap authenticates and fetches the initial catalogue, degrading to an
// empty catalogue on any failure. Both calls are synchronous: the handshake
// completes before the fetch, and the fetch before the render loop starts.
// Diagnostics go to stderr and the events journal, never the rendered view.
func Bootstrap(ctx context.Context, cfg appconfig.Config, client *xpipe.Client, fetcher *catalogue.Fetcher, journal *events.Store, apiKey string) catalogue.Catalogue {
	if err := client.Authenticate(ctx, apiKey); err != nil {
		slog.Error("handshake failed; starting with an empty catalogue", "error", err)
		_ = journal.Append(events.Event{Kind: events.KindHandshakeFailed, Message: err.Error()})
		return catalogue.Catalogue{}
	}
	_ = journal.Append(events.Event{Kind: events.KindHandshakeOK})
	cat, err := fetcher.Fetch(ctx, xpipe.Filter{Type: cfg.TypeFilter})
	if err != nil {
		slog.Error("catalogue fetch failed; starting with an empty catalogue", "error", err)
		_ = journal.Append(events.Event{Kind: events.KindFetchFailed, Message: err.Error()})
		return catalogue.Catalogue{}
	}
	_ = journal.Append(events.Event{Kind: events.KindFetchOK, Message: fmt.Sprintf("%d targets", cat.Len())})
	return cat
}

// Run starts the browser: bootstrap, then the Bubble Tea render loop.
func Run(cfg appconfig.Config, apiKey string, warnings []string) error {
	client := xpipe.New(cfg.BaseURL, cfg.ClientName)
	fetcher := catalogue.NewFetcher(client)
	journal := events.NewStore()
	cat := Bootstrap(context.Background(), cfg, client, fetcher, journal, apiKey)
	machine := nav.New(cat, policyFor(cfg.ConfirmMode))
	p := tea.NewProgram(newModel(cfg, client, fetcher, matcher(cfg), journal, machine, warnings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func matcher(cfg appconfig.Config) *fuzzy.Matcher {
	return fuzzy.New(cfg.Matcher.Command, cfg.Matcher.Args...)
}
