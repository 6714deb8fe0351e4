package console

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/matsen/calldesk/internal/call"
)

// DisplayTimeLayout is how CreatedAt is shown to people.
const DisplayTimeLayout = "2006-01-02 15:04:05"

// Separator is printed between records in list output.
const Separator = "---------------------------"

var (
	colorSubtext = lipgloss.Color("#a6adc8")
	colorBlue    = lipgloss.Color("#89b4fa")
	colorGreen   = lipgloss.Color("#a6e3a1")
	colorPeach   = lipgloss.Color("#fab387")
	colorRed     = lipgloss.Color("#f38ba8")
	colorYellow  = lipgloss.Color("#f9e2af")

	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorSubtext)
	idStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	noticeStyle = lipgloss.NewStyle().Foreground(colorPeach)

	statusStyles = map[call.Status]lipgloss.Style{
		call.StatusNew:        lipgloss.NewStyle().Bold(true).Foreground(colorRed),
		call.StatusInProgress: lipgloss.NewStyle().Bold(true).Foreground(colorPeach),
		call.StatusResolved:   lipgloss.NewStyle().Bold(true).Foreground(colorGreen),
	}
)

// StatusLabel renders a status with its color.
func StatusLabel(s call.Status) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

// Card renders one call as a labeled block.
func Card(c call.Call) string {
	rows := []struct{ label, value string }{
		{"Call ID:", idStyle.Render(fmt.Sprint(c.ID))},
		{"Caller Name:", c.CallerName},
		{"Contact Number:", c.ContactNumber},
		{"Description:", c.Description},
		{"Required Services:", c.RequiredServices},
		{"Status:", StatusLabel(c.Status)},
		{"Created At:", c.CreatedAt.Format(DisplayTimeLayout)},
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = labelStyle.Render(r.label) + " " + r.value
	}
	return strings.Join(lines, "\n")
}

// List renders calls separated by Separator, followed by a count line.
func List(calls []call.Call, countLabel string) string {
	var b strings.Builder
	for _, c := range calls {
		b.WriteString(Card(c))
		b.WriteString("\n" + Separator + "\n")
	}
	fmt.Fprintf(&b, "%s: %d", countLabel, len(calls))
	return b.String()
}

// Title renders a heading.
func Title(s string) string {
	return titleStyle.Render(s)
}

// Error renders an error line.
func Error(s string) string {
	return errorStyle.Render(s)
}

// Notice renders a warning that does not stop the current action.
func Notice(s string) string {
	return noticeStyle.Render(s)
}
