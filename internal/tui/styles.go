package tui

import "github.com/charmbracelet/lipgloss"

// Color palette, carried from the teacher's Catppuccin Mocha theme. Trimmed
// to the colors the session dashboard actually uses.
var (
	ColorBase     = lipgloss.Color("#1e1e2e")
	ColorSurface0 = lipgloss.Color("#313244")
	ColorSurface2 = lipgloss.Color("#585b70")
	ColorOverlay0 = lipgloss.Color("#6c7086")
	ColorText     = lipgloss.Color("#cdd6f4")
	ColorSubtext0 = lipgloss.Color("#a6adc8")

	ColorRed    = lipgloss.Color("#f38ba8")
	ColorGreen  = lipgloss.Color("#a6e3a1")
	ColorYellow = lipgloss.Color("#f9e2af")
	ColorBlue   = lipgloss.Color("#89b4fa")
	ColorMauve  = lipgloss.Color("#cba6f7")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBase).
			Background(ColorBlue).
			Padding(0, 2).
			MarginBottom(1)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMauve).
				BorderBottom(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(ColorSurface2).
				Padding(0, 1)

	TableRowStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)

	TableSelectedRowStyle = lipgloss.NewStyle().
				Foreground(ColorBase).
				Background(ColorMauve).
				Bold(true).
				Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(ColorSubtext0).
			Background(ColorSurface0).
			Padding(0, 1)

	EmptyStateStyle = lipgloss.NewStyle().
			Foreground(ColorOverlay0).
			Italic(true).
			Padding(2, 4)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	DetailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMauve).
				Width(16)

	DetailValueStyle = lipgloss.NewStyle().
				Foreground(ColorText)
)

// StyledState renders a child session's tracking state with its status
// color, mirroring the teacher's StyledIssueStatus/StyledPriority helpers.
func StyledState(state string) string {
	switch state {
	case "created":
		return lipgloss.NewStyle().Foreground(ColorSubtext0).Render("CREATED")
	case "prompt_sent":
		return lipgloss.NewStyle().Foreground(ColorYellow).Bold(true).Render("PROMPT SENT")
	case "result_received":
		return lipgloss.NewStyle().Foreground(ColorGreen).Bold(true).Render("RESULT")
	case "error":
		return lipgloss.NewStyle().Foreground(ColorRed).Bold(true).Render("ERROR")
	default:
		return lipgloss.NewStyle().Foreground(ColorText).Render(state)
	}
}
