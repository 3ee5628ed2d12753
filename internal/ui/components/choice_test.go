package components

import (
	"testing"

	tea "charm.land/bubbletea/v2"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func TestChoice_SingleSubmitsOnNumber(t *testing.T) {
	c := NewChoice([]string{"a", "b", "c"}, false)
	c, _ = c.Update(keyPress('2'))

	if !c.Submitted {
		t.Fatal("expected submission on number key")
	}
	if got := c.Input(); got != "2" {
		t.Errorf("Input = %q, want %q", got, "2")
	}
}

func TestChoice_SingleSubmitsCursorOnEnter(t *testing.T) {
	c := NewChoice([]string{"a", "b", "c"}, false)
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyEnter})

	if got := c.Input(); got != "3" {
		t.Errorf("Input = %q, want %q", got, "3")
	}
}

func TestChoice_MultiToggles(t *testing.T) {
	c := NewChoice([]string{"a", "b", "c", "d"}, true)

	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if c.Submitted {
		t.Fatal("multi choice must not submit with nothing checked")
	}

	c, _ = c.Update(keyPress('3'))
	c, _ = c.Update(keyPress('1'))
	c, _ = c.Update(keyPress('4'))
	c, _ = c.Update(keyPress('4'))
	if c.Submitted {
		t.Fatal("number keys only toggle in multi mode")
	}

	c, _ = c.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !c.Submitted {
		t.Fatal("expected submission")
	}
	if got := c.Input(); got != "1,3" {
		t.Errorf("Input = %q, want %q", got, "1,3")
	}

	c, _ = c.Update(keyPress('2'))
	if got := c.Input(); got != "1,3" {
		t.Error("submitted choice must ignore further keys")
	}
}

func TestChoice_IgnoresOutOfRangeNumbers(t *testing.T) {
	c := NewChoice([]string{"a", "b"}, false)
	c, _ = c.Update(keyPress('7'))
	if c.Submitted {
		t.Error("out-of-range number must be ignored")
	}
}
