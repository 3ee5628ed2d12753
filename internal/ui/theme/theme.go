// Package theme holds the TUI palette.
package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette, muted study-desk tones
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#10B981") // Emerald
	Error     = lipgloss.Color("#EF4444") // Red
	Text      = lipgloss.Color("#E2E8F0") // Light slate
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgCard    = lipgloss.Color("#1E293B") // Dark slate
	Border    = lipgloss.Color("#334155") // Slate
)

// FreshnessColor picks a bar colour for a freshness value in [0,1].
// Anything below threshold is due for remediation.
func FreshnessColor(freshness, threshold float64) color.Color {
	switch {
	case freshness < threshold:
		return Error
	case freshness < (1+threshold)/2:
		return Accent
	default:
		return Success
	}
}
