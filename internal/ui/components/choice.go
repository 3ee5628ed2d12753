package components

import (
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/cheatsheet/internal/ui/theme"
)

// Choice is an option list for single- and multi-choice questions.
// Single mode submits on Enter or a number key. Multi mode toggles with
// Space or a number key and submits on Enter once something is checked.
type Choice struct {
	Options   []string
	Multi     bool
	Cursor    int
	Checked   map[int]bool
	Submitted bool
}

// NewChoice creates a choice list.
func NewChoice(options []string, multi bool) Choice {
	return Choice{Options: options, Multi: multi, Checked: map[int]bool{}}
}

// Update handles navigation, toggling and submission.
func (c Choice) Update(msg tea.Msg) (Choice, tea.Cmd) {
	if c.Submitted {
		return c, nil
	}
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if c.Cursor > 0 {
			c.Cursor--
		}
		return c, nil
	case "down", "j":
		if c.Cursor < len(c.Options)-1 {
			c.Cursor++
		}
		return c, nil
	case "space", " ":
		if c.Multi {
			c.toggle(c.Cursor)
		}
		return c, nil
	case "enter":
		if c.Multi {
			c.Submitted = len(c.Checked) > 0
		} else {
			c.Checked = map[int]bool{c.Cursor: true}
			c.Submitted = true
		}
		return c, nil
	}

	if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(c.Options) {
		c.Cursor = n - 1
		if c.Multi {
			c.toggle(c.Cursor)
		} else {
			c.Checked = map[int]bool{c.Cursor: true}
			c.Submitted = true
		}
	}
	return c, nil
}

func (c *Choice) toggle(i int) {
	if c.Checked[i] {
		delete(c.Checked, i)
		return
	}
	c.Checked[i] = true
}

// Input returns the checked options as 1-based numbers, e.g. "1,3".
func (c Choice) Input() string {
	var nums []string
	for i := range c.Options {
		if c.Checked[i] {
			nums = append(nums, strconv.Itoa(i+1))
		}
	}
	return strings.Join(nums, ",")
}

// View renders the options. correct marks the right answers once the
// question is graded and may be nil.
func (c Choice) View(correct map[int]bool) string {
	var b strings.Builder
	for i, opt := range c.Options {
		prefix := "  "
		if i == c.Cursor && !c.Submitted {
			prefix = "▸ "
		}
		box := ""
		if c.Multi {
			box = "[ ] "
			if c.Checked[i] {
				box = "[x] "
			}
		}
		line := fmt.Sprintf("%s%d) %s%s", prefix, i+1, box, opt)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		switch {
		case correct != nil && correct[i]:
			style = lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
		case correct != nil && c.Checked[i]:
			style = lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
		case correct != nil:
			style = lipgloss.NewStyle().Foreground(theme.TextDim)
		case i == c.Cursor:
			style = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
