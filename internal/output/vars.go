package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("37")) // dark green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")) // purple
)

var StyleSymbols = map[string]string{
	"pass":    "✓",
	"fail":    "✗",
	"warning": "!",
	"info":    "ℹ",
}

var out io.Writer = os.Stdout

// SetOutput redirects every Print* function, mainly for tests.
func SetOutput(w io.Writer) {
	out = w
}

func PrintSuccess(text string) {
	fmt.Fprintln(out, successStyle.Render(StyleSymbols["pass"]+" "+text))
}
func PrintError(text string) {
	fmt.Fprintln(out, errorStyle.Render(StyleSymbols["fail"]+" "+text))
}
func PrintWarning(text string) {
	fmt.Fprintln(out, warningStyle.Render(StyleSymbols["warning"]+" "+text))
}
func PrintInfo(text string) {
	fmt.Fprintln(out, infoStyle.Render(StyleSymbols["info"]+" "+text))
}
func FDetail(text string) string {
	return detailStyle.Render(text)
}
