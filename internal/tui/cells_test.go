package tui

import (
	"strings"
	"testing"
)

func TestBuildRowCellsMarksCursor(t *testing.T) {
	cells := buildRowCells([]bool{true, false}, 1)
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[0].s != completeStyle.Render(" "+glyphComplete+" ") {
		t.Fatalf("expected complete style for first cell")
	}
	if cells[1].s != pendingStyle.Reverse(true).Render(" "+glyphIncomplete+" ") {
		t.Fatalf("expected cursor style for second cell")
	}
	if cells[0].width != 3 {
		t.Fatalf("unexpected width %d", cells[0].width)
	}
}

func TestWrapSegments(t *testing.T) {
	got := wrapSegments([]string{"space toggle", "s slots", "q quit"}, 22)
	if got != "space toggle  s slots\nq quit" {
		t.Fatalf("unexpected wrap: %q", got)
	}
	if wrapSegments([]string{"a", "b"}, 0) != "a  b" {
		t.Fatalf("zero width should not wrap")
	}
}

func TestFitLines(t *testing.T) {
	out := fitLines("ab\ncd\nef", 4, 2)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 || lines[0] != "ab  " || lines[1] != "cd  " {
		t.Fatalf("unexpected fit: %q", out)
	}
}

func TestTruncateName(t *testing.T) {
	if got := truncateName("The Empty Nester", 8); got != "The Emp…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateName("Shade", 8); got != "Shade" {
		t.Fatalf("short names stay intact, got %q", got)
	}
}
