package model

import "testing"

func TestDifficultyOrder(t *testing.T) {
	all := Difficulties()
	if len(all) != 10 {
		t.Fatalf("expected 10 difficulties, got %d", len(all))
	}
	for i, d := range all {
		if d.Index() != i {
			t.Fatalf("expected %s at %d, got %d", d, i, d.Index())
		}
	}
	if DifficultyBase.Prev() != DifficultyBase {
		t.Fatalf("prev of base should stay base")
	}
	if DifficultyNGPlus9.Next() != DifficultyNGPlus9 {
		t.Fatalf("next of ng-plus-9 should stay ng-plus-9")
	}
	if DifficultyBase.Next() != DifficultyNGPlus {
		t.Fatalf("unexpected next of base: %s", DifficultyBase.Next())
	}
}

func TestParseDifficulty(t *testing.T) {
	d, err := ParseDifficulty("ng-plus-3")
	if err != nil || d != DifficultyNGPlus3 {
		t.Fatalf("unexpected parse result: %q %v", d, err)
	}
	if _, err := ParseDifficulty("ng-plus-10"); err == nil {
		t.Fatalf("expected error for unknown difficulty")
	}
}

func TestFastTierLabels(t *testing.T) {
	cases := map[FastTier]string{
		0:  "Not completed",
		1:  "Normal",
		2:  "Fast",
		3:  "Fast +",
		4:  "Fast ++",
		5:  "Fast +3",
		11: "Fast +9",
	}
	for tier, want := range cases {
		if got := tier.Label(); got != want {
			t.Fatalf("tier %d: expected %q, got %q", tier, want, got)
		}
	}
	if FastTier(12).Valid() || FastTier(-1).Valid() {
		t.Fatalf("out of range tiers must be invalid")
	}
	if !FastTier(5).Satisfies(2) || FastTier(1).Satisfies(2) {
		t.Fatalf("unexpected Satisfies result")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := SaveSlotData{
		CharacterProgress: ProgressData{
			Characters: []CharacterProgress{{
				CharacterID:      "char_default",
				LevelCompletions: []LevelCompletion{{LevelID: 1, Difficulty: DifficultyBase, FastTier: 2}},
			}},
		},
	}
	cp := orig.Clone()
	cp.CharacterProgress.Characters[0].CustomIndex = 9
	cp.CharacterProgress.Characters[0].LevelCompletions[0].FastTier = 7
	if orig.CharacterProgress.Characters[0].CustomIndex != 0 {
		t.Fatalf("clone shares character slice")
	}
	if orig.CharacterProgress.Characters[0].LevelCompletions[0].FastTier != 2 {
		t.Fatalf("clone shares completion slice")
	}
}

func TestValidSlotAndLevel(t *testing.T) {
	for _, slot := range []int{1, 2, 3} {
		if !ValidSlot(slot) {
			t.Fatalf("slot %d should be valid", slot)
		}
	}
	for _, slot := range []int{0, 4, -1} {
		if ValidSlot(slot) {
			t.Fatalf("slot %d should be invalid", slot)
		}
	}
	if ValidLevel(0) || ValidLevel(9) || !ValidLevel(8) {
		t.Fatalf("unexpected level validation")
	}
}
