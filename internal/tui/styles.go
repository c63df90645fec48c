package tui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	failedStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	noticeStyle         = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#FFB86C"))
	titleStyle          = lipgloss.NewStyle().Bold(true).Underline(true)
	captionStyle        = lipgloss.NewStyle().Faint(true)
	barStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	statusStyle         = lipgloss.NewStyle().Faint(true)
	helpStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5A56E0")).
			Padding(0, 1)

	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableBorderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)
