package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	mutedColor   = lipgloss.AdaptiveColor{Light: "#767676", Dark: "#8A8A8A"}
	successColor = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}
	warningColor = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#FFB74D"}
	errorColor   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"}
	accentColor  = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"}
)

// Styles are the semantic styles used by the renderers.
type Styles struct {
	Color   bool
	Dataset lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Accent  lipgloss.Style
}

// NewStyles builds styles bound to w. Without color every style renders its
// input unchanged.
func NewStyles(w io.Writer, color bool) Styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
		plain := r.NewStyle()
		return Styles{
			Dataset: plain,
			Muted:   plain,
			Success: plain,
			Warning: plain,
			Error:   plain,
			Accent:  plain,
		}
	}

	return Styles{
		Color:   color,
		Dataset: r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(mutedColor),
		Success: r.NewStyle().Foreground(successColor),
		Warning: r.NewStyle().Foreground(warningColor),
		Error:   r.NewStyle().Foreground(errorColor).Bold(true),
		Accent:  r.NewStyle().Foreground(accentColor),
	}
}
