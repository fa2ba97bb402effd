package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/k3a/html2text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2E7D32"))
	headingStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C62828"))
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#A5D6A7")).
			Padding(0, 1)
	indentStyle = lipgloss.NewStyle().PaddingLeft(4)
)

// titleCase capitalizes words; a Caser holds state, so one is made per call
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

const dateLayout = "Jan 2, 2006"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}

// plainText renders bodies that may contain HTML markup
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	return strings.TrimSpace(html2text.HTML2Text(s))
}

// blocks joins rendered sections with blank lines, skipping empty ones
func blocks(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}

func renderError(msg string) string {
	if msg == "" {
		return ""
	}
	return errorStyle.Render(msg)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
