package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TheLysdexicOne/pitkeeper/internal/bus"
	"github.com/TheLysdexicOne/pitkeeper/internal/catalog"
	"github.com/TheLysdexicOne/pitkeeper/internal/kv"
	"github.com/TheLysdexicOne/pitkeeper/internal/model"
	"github.com/TheLysdexicOne/pitkeeper/internal/progress"
)

const testCharacters = `[
	{"Type":"1","Name":"The Warrior","Slug":"char_default"},
	{"Type":"2","Name":"Itchy Finger","Slug":"char_itchy_finger"},
	{"Type":"3","Name":"Repentant","Slug":"char_repentant"}
]`

const testLevels = `[
	{"Id":1,"Name":"Bone Yard","Slug":"bone_yard"},
	{"Id":2,"Name":"Snowy Shores","Slug":"snowy_shores"}
]`

func newTestModel(t *testing.T) (*Model, *progress.Store) {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCharacters), []byte(testLevels))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	st := progress.New(kv.NewMemory(), bus.New(), cat)
	tracker := progress.NewTracker(st)
	t.Cleanup(tracker.Close)
	return NewModel(tracker, cat), st
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m *Model, keys ...string) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

func TestToggleMarksSelectedCell(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "j", "l", "space")
	if !m.tracker.IsLevelComplete("char_itchy_finger", 2) {
		t.Fatalf("expected level 2 complete for second character")
	}
	press(t, m, "space")
	if m.tracker.IsLevelComplete("char_itchy_finger", 2) {
		t.Fatalf("expected toggle back to incomplete")
	}
}

func TestSelectionKeys(t *testing.T) {
	m, _ := newTestModel(t)
	press(t, m, "]", "]", "=", "=")
	if got := m.tracker.CurrentDifficulty(); got != model.DifficultyNGPlus2 {
		t.Fatalf("unexpected difficulty %s", got)
	}
	if got := m.tracker.CurrentTier(); got != 3 {
		t.Fatalf("unexpected tier %d", got)
	}
	press(t, m, "[", "[", "[", "-", "-", "-", "-")
	if got := m.tracker.CurrentDifficulty(); got != model.DifficultyBase {
		t.Fatalf("difficulty should clamp at base, got %s", got)
	}
	if got := m.tracker.CurrentTier(); got != model.FastTierNormal {
		t.Fatalf("tier should clamp at Normal, got %d", got)
	}
}

func TestReorderDefersPersist(t *testing.T) {
	m, st := newTestModel(t)
	cmd := press(t, m, "j", "K")
	if cmd == nil {
		t.Fatalf("expected a persist command")
	}
	if m.ids[0] != "char_itchy_finger" || m.row != 0 {
		t.Fatalf("local order should update immediately: %v row=%d", m.ids, m.row)
	}
	if got := st.Load(1).CharacterProgress.Characters[1].CustomIndex; got != 1 {
		t.Fatalf("order must not be persisted before the command runs, got index %d", got)
	}

	// A refresh while the write is pending keeps the local order.
	m.Update(RefreshMsg{})
	if m.ids[0] != "char_itchy_finger" {
		t.Fatalf("refresh clobbered pending order: %v", m.ids)
	}

	m.Update(cmd())
	if m.pendingOrders != 0 {
		t.Fatalf("expected no pending orders, got %d", m.pendingOrders)
	}
	sorted := m.tracker.SortedCharacters()
	if sorted[0].CharacterID != "char_itchy_finger" || sorted[1].CharacterID != "char_default" {
		t.Fatalf("unexpected persisted order: %+v", sorted)
	}
}

func TestStaleOrderWriteIsDropped(t *testing.T) {
	m, _ := newTestModel(t)
	first := press(t, m, "J")
	second := press(t, m, "J")
	m.Update(second())
	m.Update(first())
	got := []string{}
	for _, c := range m.tracker.SortedCharacters() {
		got = append(got, c.CharacterID)
	}
	want := "char_itchy_finger,char_repentant,char_default"
	if strings.Join(got, ",") != want {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestRefreshPicksUpForeignWrites(t *testing.T) {
	m, st := newTestModel(t)
	other := progress.NewTracker(st)
	defer other.Close()
	if err := other.UpdateCharacterOrder("char_repentant", -1); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	m.Update(RefreshMsg{})
	if m.ids[0] != "char_repentant" {
		t.Fatalf("expected refresh to apply foreign order, got %v", m.ids)
	}
}

func TestViewGridShowsState(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	press(t, m, "space")
	out := m.View()
	for _, want := range []string{"Save 1", "Base Level", "The Warrior", "Bone Yard", "1/24", "space toggle"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected QuitMsg")
	}
}
