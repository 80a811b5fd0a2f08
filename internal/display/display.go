// Package display provides terminal formatting for permmatch output.
package display

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/daviddao/permmatch/internal/types"
)

var (
	// Styles
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	Warn     = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))

	AddStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	RemoveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
	ModifyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2563eb"))
)

// ScenarioDot returns a colored dot for a scenario. Unresolved rows get a
// hollow marker.
func ScenarioDot(s types.Scenario) string {
	switch s {
	case types.ScenarioAdd:
		return AddStyle.Render("●")
	case types.ScenarioRemove:
		return RemoveStyle.Render("●")
	case types.ScenarioModify:
		return ModifyStyle.Render("●")
	default:
		return Warn.Render("○")
	}
}

// ScenarioLabel returns a styled, padded scenario label.
func ScenarioLabel(s types.Scenario) string {
	label := fmt.Sprintf("%-6s", string(s))
	switch s {
	case types.ScenarioAdd:
		return AddStyle.Render(label)
	case types.ScenarioRemove:
		return RemoveStyle.Render(label)
	case types.ScenarioModify:
		return ModifyStyle.Render(label)
	default:
		return Warn.Render(fmt.Sprintf("%-6s", "?"))
	}
}

// ResultLine renders one match result on a single line.
func ResultLine(r types.MatchResult) string {
	who := Bold.Render(r.Employee.Label())
	row := Muted.Render(fmt.Sprintf("row %d", r.Employee.Row))
	if !r.Matched {
		return fmt.Sprintf("%s %s %s  %s  %s", ScenarioDot(""), ScenarioLabel(""), who, row, Warn.Render("needs decision"))
	}
	src := Dim.Render(r.Source.Label() + " · " + r.MessageRef)
	return fmt.Sprintf("%s %s %s  %s  %s", ScenarioDot(r.Scenario), ScenarioLabel(r.Scenario), who, row, src)
}

// TimeAgo formats an ISO date string as a relative time.
func TimeAgo(isoDate string) string {
	if isoDate == "" {
		return ""
	}

	var t time.Time
	var err error
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		t, err = time.Parse(layout, isoDate)
		if err == nil {
			break
		}
	}
	if err != nil {
		return isoDate[:min(10, len(isoDate))]
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// Truncate shortens s to maxLen runes, adding an ellipsis if needed.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(format string, args ...any) {
	fmt.Println(Success.Render("✓") + " " + fmt.Sprintf(format, args...))
}

// WarnMsg prints an amber marker + message to stderr.
func WarnMsg(format string, args ...any) {
	fmt.Fprintln(os.Stderr, Warn.Render("!")+" "+fmt.Sprintf(format, args...))
}

// ErrorMsg prints a red X + message to stderr.
func ErrorMsg(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ErrStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// Header prints a section header.
func Header(title string) {
	fmt.Println(Bold.Render(title))
}

// SubHeader prints a dim subsection label.
func SubHeader(title string) {
	fmt.Println(Muted.Render(title))
}

// Snippet prints an indented, wrapped evidence snippet under a result.
func Snippet(connector, text string) {
	if text == "" {
		return
	}
	prefix := "  │  "
	if connector == "└─" {
		prefix = "     "
	}
	fmt.Printf("  %s %s\n", Muted.Render(connector), Dim.Render("match"))
	fmt.Printf("%s%s\n", Muted.Render(prefix), Truncate(strings.TrimSpace(text), 120))
}
