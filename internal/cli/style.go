package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// palette holds the ANSI-256 color values used by the startup summary.
var (
	clrBrand  = lipgloss.Color("214") // orange
	clrGreen  = lipgloss.Color("114")
	clrYellow = lipgloss.Color("220")
	clrCyan   = lipgloss.Color("81")
	clrDim    = lipgloss.Color("245")
	clrWhite  = lipgloss.Color("255")
)

// styles wraps lipgloss renderers that respect TTY detection. When output is
// not a terminal (piped, redirected, --json), all styling is disabled and raw
// text is emitted.
type styles struct {
	enabled bool

	Brand   lipgloss.Style
	Dim     lipgloss.Style
	Header  lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	URL     lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
}

// newStyles creates a styles instance. Colors are enabled only when w points
// to a terminal file descriptor and jsonMode is false.
func newStyles(w io.Writer, jsonMode bool) styles {
	enabled := false
	if !jsonMode {
		if f, ok := w.(*os.File); ok {
			enabled = term.IsTerminal(int(f.Fd()))
		}
	}

	s := styles{enabled: enabled}
	if !enabled {
		noop := lipgloss.NewStyle()
		s.Brand = noop
		s.Dim = noop
		s.Header = noop
		s.Key = noop
		s.Value = noop
		s.URL = noop
		s.Warning = noop
		s.Success = noop
		return s
	}

	s.Brand = lipgloss.NewStyle().Foreground(clrBrand)
	s.Dim = lipgloss.NewStyle().Foreground(clrDim)
	s.Header = lipgloss.NewStyle().Bold(true).Foreground(clrBrand)
	s.Key = lipgloss.NewStyle().Foreground(clrDim)
	s.Value = lipgloss.NewStyle().Foreground(clrWhite)
	s.URL = lipgloss.NewStyle().Foreground(clrCyan).Underline(true)
	s.Warning = lipgloss.NewStyle().Foreground(clrYellow).Bold(true)
	s.Success = lipgloss.NewStyle().Foreground(clrGreen)
	return s
}

// banner returns the shopmcp startup banner.
func (s styles) banner() string {
	if !s.enabled {
		return "shopmcp"
	}
	return s.Brand.Render("shopmcp")
}

// kv formats a key-value pair like "  Key:  value".
func (s styles) kv(key, value string) string {
	if !s.enabled {
		return fmt.Sprintf("  %-12s %s", key+":", value)
	}
	return fmt.Sprintf("  %s %s",
		s.Key.Render(fmt.Sprintf("%-12s", key+":")),
		s.Value.Render(value),
	)
}

func (s styles) sectionHeader(title string) string {
	if !s.enabled {
		return title
	}
	return s.Header.Render(title)
}

func (s styles) dim(text string) string {
	if !s.enabled {
		return text
	}
	return s.Dim.Render(text)
}
