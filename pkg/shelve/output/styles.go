package output

import "github.com/charmbracelet/lipgloss"

// Colors from the ANSI 256-color palette.
const (
	// ColorPrimary is used for titles and box borders.
	ColorPrimary = lipgloss.Color("39")
	// ColorSuccess marks moved and applied rows.
	ColorSuccess = lipgloss.Color("42")
	// ColorWarning marks duplicates and warnings.
	ColorWarning = lipgloss.Color("214")
	// ColorDanger marks failures.
	ColorDanger = lipgloss.Color("196")
	// ColorMuted is used for labels and secondary text.
	ColorMuted = lipgloss.Color("245")
)

// Box styles.
var (
	// HeaderBox frames the report title and summary fields.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox frames warnings below the table.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

// Text styles.
var (
	// TitleStyle is used for the report title.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// LabelStyle is used for summary field names.
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// ValueStyle is used for summary field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// SuccessStyle is used for moved, applied and created rows.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// WarningStyle is used for duplicate rows and warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// ErrorStyle is used for failed rows.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	// MutedStyle is used for everything else.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// TableHeaderStyle is used for column headings.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorMuted)
)

// statusStyle picks the style for a row status word.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case StatusMoved, StatusApplied, "created":
		return SuccessStyle
	case StatusDuplicate, "removed":
		return WarningStyle
	case StatusFailed:
		return ErrorStyle
	default:
		return MutedStyle
	}
}
