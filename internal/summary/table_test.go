package summary

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Character", "Levels", "Rate"}
	rows := [][]string{
		{"The Warrior", "8/8", "100%"},
		{"Shade", "3/8", "38%"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true, 2: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Character    Levels  Rate" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "The Warrior     8/8  100%" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Shade           3/8   38%" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestDisplayWidthCountsWideRunes(t *testing.T) {
	if w := displayWidth("忍者"); w != 4 {
		t.Fatalf("expected width 4, got %d", w)
	}
	lines := formatTable([]string{"Name", "N"}, [][]string{{"忍者", "1"}}, nil)
	if lines[1] != "忍者  1" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}
