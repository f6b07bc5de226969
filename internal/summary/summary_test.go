package summary

import (
	"bytes"
	"strings"
	"testing"

	"github.com/TheLysdexicOne/pitkeeper/internal/model"
)

type names map[string]string

func (n names) Name(id string) string {
	if name, ok := n[id]; ok {
		return name
	}
	return id
}

func fullClear(difficulty model.DifficultyTier, tier model.FastTier) []model.LevelCompletion {
	out := make([]model.LevelCompletion, 0, model.MaxLevelID)
	for level := model.MinLevelID; level <= model.MaxLevelID; level++ {
		out = append(out, model.LevelCompletion{LevelID: level, Difficulty: difficulty, FastTier: tier})
	}
	return out
}

func sampleChars() []model.CharacterProgress {
	warrior := fullClear(model.DifficultyBase, 2)
	warrior = append(warrior, fullClear(model.DifficultyNGPlus, 1)...)
	return []model.CharacterProgress{
		{CharacterID: "char_default", CustomIndex: 0, LevelCompletions: warrior},
		{CharacterID: "char_shade", CustomIndex: 1, LevelCompletions: []model.LevelCompletion{
			{LevelID: 1, Difficulty: model.DifficultyBase, FastTier: 5},
			{LevelID: 2, Difficulty: model.DifficultyBase, FastTier: 1},
			{LevelID: 3, Difficulty: model.DifficultyNGPlus, FastTier: 4},
		}},
	}
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(sampleChars(), names{"char_default": "The Warrior"}, model.DifficultyBase, 2)
	if len(report.Characters) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(report.Characters))
	}
	warrior := report.Characters[0]
	if warrior.Name != "The Warrior" || warrior.Completed != 8 || warrior.Rate() != 1 {
		t.Fatalf("unexpected warrior row: %+v", warrior)
	}
	if !warrior.HasCleared || warrior.Cleared != model.DifficultyNGPlus {
		t.Fatalf("expected ng-plus cleared, got %+v", warrior)
	}
	shade := report.Characters[1]
	if shade.Name != "char_shade" || shade.Completed != 1 || shade.HasCleared {
		t.Fatalf("unexpected shade row: %+v", shade)
	}
	if shade.BestTiers[0] != 5 || shade.BestTiers[2] != 0 {
		t.Fatalf("unexpected best tiers: %v", shade.BestTiers)
	}
	if report.Completed() != 9 || report.Total() != 16 {
		t.Fatalf("unexpected totals: %d/%d", report.Completed(), report.Total())
	}
}

func TestSparklineScale(t *testing.T) {
	got := Sparkline([]model.FastTier{0, 11, 0})
	if got != " @ " {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if Sparkline(nil) != "" {
		t.Fatalf("expected empty sparkline")
	}
}

func TestRenderReport(t *testing.T) {
	var buf bytes.Buffer
	report := BuildReport(sampleChars(), names{"char_default": "The Warrior"}, model.DifficultyBase, 1)
	if err := RenderReport(&buf, report); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Base Level, Normal or better", "Levels completed: 10/16", "The Warrior", "New Game +"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(&buf, Report{}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "No characters found.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}

func TestTopCharacters(t *testing.T) {
	report := BuildReport(sampleChars(), nil, model.DifficultyBase, 1)
	top := TopCharacters(report, 5)
	if len(top) != 2 || top[0] != "char_default" || top[1] != "char_shade" {
		t.Fatalf("unexpected top: %v", top)
	}
	if TopCharacters(report, 0) != nil {
		t.Fatalf("expected nil for n=0")
	}
}
