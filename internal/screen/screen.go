// Package screen defines the contract between the TUI router and the
// individual screens.
package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/cheatsheet/internal/ui/layout"
)

// Screen is one view on the router stack.
type Screen interface {
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the content area, excluding header and footer.
	View(width, height int) string

	Title() string
}

// KeyHintProvider lets a screen replace the default footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// BackHandler is implemented by screens that want Esc delivered to them
// instead of the router popping them, e.g. to confirm leaving a study
// session.
type BackHandler interface {
	HandlesBack() bool
}
