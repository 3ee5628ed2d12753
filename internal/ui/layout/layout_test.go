package layout

import (
	"strings"
	"testing"
)

func TestRenderHeaderShowsStats(t *testing.T) {
	out := RenderHeader("Study", HeaderStats{Concepts: 12, Due: 3, AvgFreshness: 0.666}, 100)
	for _, want := range []string{"Cheatsheet", "Study", "▤ 12", "⟳ 3 due", "67% fresh"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
}

func TestIsTooSmall(t *testing.T) {
	if !IsTooSmall(MinWidth-1, MinHeight) {
		t.Error("narrow terminal should be too small")
	}
	if IsTooSmall(MinWidth, MinHeight) {
		t.Error("minimum size should fit")
	}
}
