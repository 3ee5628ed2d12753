// Package app hosts the Bubble Tea program: the root model, the screen
// router and the frame around every screen.
package app

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cheatsheet/internal/router"
	"github.com/abhisek/cheatsheet/internal/screen"
	"github.com/abhisek/cheatsheet/internal/screens/home"
	"github.com/abhisek/cheatsheet/internal/tutorapp"
	"github.com/abhisek/cheatsheet/internal/ui/layout"
)

// Options configures the TUI.
type Options struct {
	Service *tutorapp.Service

	// Initial, when set, is pushed above the home screen on start, e.g.
	// to jump straight into a study session.
	Initial func(svc *tutorapp.Service) screen.Screen
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	svc    *tutorapp.Service
	router *router.Router
	stats  layout.HeaderStats
	init   tea.Cmd
	width  int
	height int
}

func newAppModel(opts Options) AppModel {
	homeScreen := home.New(opts.Service)
	m := AppModel{
		svc:    opts.Service,
		router: router.New(homeScreen),
	}
	cmds := []tea.Cmd{homeScreen.Init()}
	if opts.Initial != nil {
		cmds = append(cmds, m.router.Push(opts.Initial(opts.Service)))
	}
	m.init = tea.Batch(cmds...)
	return m
}

func (m AppModel) Init() tea.Cmd {
	return m.init
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case home.StatsMsg:
		if msg.Err == nil {
			m.stats = layout.HeaderStats{
				Concepts:     msg.Stats.Concepts,
				Due:          msg.Stats.Due,
				AvgFreshness: msg.Stats.AvgFreshness,
			}
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if bh, ok := m.router.Active().(screen.BackHandler); ok && bh.HandlesBack() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.stats, m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if kp, ok := active.(screen.KeyHintProvider); ok {
		if hints := kp.KeyHints(); len(hints) > 0 {
			return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
		}
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
