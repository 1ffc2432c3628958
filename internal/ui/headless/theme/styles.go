package theme

import "github.com/charmbracelet/lipgloss"

var (
	PanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	FocusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	ErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	HelpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	MutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	SatelliteStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	RowStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	RowHoverStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("236"))
	RowCursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("27"))

	StatusUpdatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	StatusLoadingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	StatusErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	ButtonStyle        = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	ButtonFocusedStyle = ButtonStyle.BorderForeground(lipgloss.Color("10")).Foreground(lipgloss.Color("10"))
	ButtonHoverStyle   = ButtonStyle.BorderForeground(lipgloss.Color("15")).Foreground(lipgloss.Color("15"))
	SegmentBaseStyle   = lipgloss.NewStyle().Padding(0, 1)
	SegmentOnStyle     = SegmentBaseStyle.Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	SegmentOffStyle    = SegmentBaseStyle.Foreground(lipgloss.Color("245")).Background(lipgloss.Color("236"))
)
