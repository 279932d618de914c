// Package tui is the operator-facing terminal dashboard over a running
// supervisor's control socket (SPEC_FULL.md §11): a single scrollable list
// of every child session, its state, workspace, and last excerpt,
// refreshed by polling. It replaces the teacher's multi-view project
// dashboard (plan/issues/logs/docs) with the one view this domain needs;
// the color palette and key-map shape are adapted from
// internal/tui/styles.go and internal/tui/keys.go, and the poll-on-a-tick
// idiom is grounded on internal/runtui/model.go's tickEvery.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrel-labs/orchsup/internal/control"
)

const pollInterval = 2 * time.Second

// Model is the dashboard's bubbletea model.
type Model struct {
	client *control.Client
	keys   KeyMap

	width  int
	height int

	orchestratorFilter string
	children            []control.WireChildSummary
	selected            int
	err                 error
}

// New constructs a dashboard Model polling client, optionally scoped to one
// orchestrator session (empty string means "every child").
func New(client *control.Client, orchestratorFilter string) Model {
	return Model{client: client, keys: DefaultKeyMap(), orchestratorFilter: orchestratorFilter}
}

type tickMsg struct{}

type childrenLoadedMsg struct {
	children []control.WireChildSummary
	err      error
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadChildren(), tickEvery(), tea.SetWindowTitle("orchsup"))
}

func (m Model) loadChildren() tea.Cmd {
	return func() tea.Msg {
		children, err := m.client.List(m.orchestratorFilter)
		return childrenLoadedMsg{children: children, err: err}
	}
}

func tickEvery() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadChildren(), tickEvery())

	case childrenLoadedMsg:
		m.children = msg.children
		m.err = msg.err
		if m.selected >= len(m.children) {
			m.selected = len(m.children) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.loadChildren()
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.children)-1 {
				m.selected++
			}
			return m, nil
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	width := m.width
	if width < 20 {
		width = 80
	}

	header := HeaderStyle.Width(width - 4).Render("orchsup dashboard")

	if m.err != nil {
		return lipgloss.JoinVertical(lipgloss.Left, header, ErrorStyle.Render(m.err.Error()))
	}
	if len(m.children) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header,
			EmptyStateStyle.Render("No child sessions yet."))
	}

	headerLine := TableHeaderStyle.Render(fmt.Sprintf("  %-24s %-14s %-14s %s", "Child", "State", "Orchestrator", "Title"))
	lines := []string{header, headerLine}

	for i, child := range m.children {
		row := fmt.Sprintf("  %-24s %-14s %-14s %s", child.ChildSessionID, StyledState(child.State), child.OrchestratorSessionID, child.Title)
		if i == m.selected {
			lines = append(lines, TableSelectedRowStyle.Render(row))
		} else {
			lines = append(lines, TableRowStyle.Render(row))
		}
	}

	if m.selected < len(m.children) {
		detail := m.children[m.selected]
		lines = append(lines, "",
			DetailLabelStyle.Render("Workspace:")+DetailValueStyle.Render(detail.WorkspaceDirectory),
			DetailLabelStyle.Render("Excerpt:")+DetailValueStyle.Render(truncateForDisplay(detail.Excerpt, width-20)),
		)
	}

	lines = append(lines, "", StatusBarStyle.Render(strings.Join([]string{"q quit", "r refresh", "j/k move"}, "  ")))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncateForDisplay(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
