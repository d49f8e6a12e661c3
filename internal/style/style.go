package style

import "github.com/charmbracelet/lipgloss"

var (
	Primary = lipgloss.Color("#7C3AED")
	Green   = lipgloss.Color("#10B981")
	Red     = lipgloss.Color("#EF4444")
	Yellow  = lipgloss.Color("#F59E0B")
	Dim     = lipgloss.Color("#6B7280")

	Banner = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Pass    = lipgloss.NewStyle().Foreground(Green).Bold(true)
	Fail    = lipgloss.NewStyle().Foreground(Red).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(Yellow)
	DimText = lipgloss.NewStyle().Foreground(Dim)

	Name = lipgloss.NewStyle().Bold(true).Width(20)

	ErrorBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Foreground(Red).
			Padding(0, 1).
			MarginTop(1)

	SuccessBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Green).
			Foreground(Green).
			Padding(0, 1).
			MarginTop(1)
)

// Verdict renders the PASS/FAIL tag for a check.
func Verdict(violated bool) string {
	if violated {
		return Fail.Render("✗ FAIL")
	}
	return Pass.Render("✓ PASS")
}
