// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// SlotCount is the number of save slots.
const SlotCount = 3

// Level ids run from MinLevelID to MaxLevelID inclusive.
const (
	MinLevelID = 1
	MaxLevelID = 8
)

// ValidSlot reports whether slot is one of the save slots.
func ValidSlot(slot int) bool {
	return slot >= 1 && slot <= SlotCount
}

// ValidLevel reports whether id names a level.
func ValidLevel(id int) bool {
	return id >= MinLevelID && id <= MaxLevelID
}

// DifficultyTier is a repeat-playthrough difficulty.
type DifficultyTier string

// Difficulty tiers in ascending order.
const (
	DifficultyBase    DifficultyTier = "base"
	DifficultyNGPlus  DifficultyTier = "ng-plus"
	DifficultyNGPlus2 DifficultyTier = "ng-plus-2"
	DifficultyNGPlus3 DifficultyTier = "ng-plus-3"
	DifficultyNGPlus4 DifficultyTier = "ng-plus-4"
	DifficultyNGPlus5 DifficultyTier = "ng-plus-5"
	DifficultyNGPlus6 DifficultyTier = "ng-plus-6"
	DifficultyNGPlus7 DifficultyTier = "ng-plus-7"
	DifficultyNGPlus8 DifficultyTier = "ng-plus-8"
	DifficultyNGPlus9 DifficultyTier = "ng-plus-9"
)

var difficulties = []DifficultyTier{
	DifficultyBase,
	DifficultyNGPlus,
	DifficultyNGPlus2,
	DifficultyNGPlus3,
	DifficultyNGPlus4,
	DifficultyNGPlus5,
	DifficultyNGPlus6,
	DifficultyNGPlus7,
	DifficultyNGPlus8,
	DifficultyNGPlus9,
}

var difficultyLabels = map[DifficultyTier]string{
	DifficultyBase:    "Base Level",
	DifficultyNGPlus:  "New Game +",
	DifficultyNGPlus2: "New Game ++",
	DifficultyNGPlus3: "New Game +3",
	DifficultyNGPlus4: "New Game +4",
	DifficultyNGPlus5: "New Game +5",
	DifficultyNGPlus6: "New Game +6",
	DifficultyNGPlus7: "New Game +7",
	DifficultyNGPlus8: "New Game +8",
	DifficultyNGPlus9: "New Game +9",
}

// Difficulties returns every tier in ascending order.
func Difficulties() []DifficultyTier {
	return append([]DifficultyTier(nil), difficulties...)
}

// ParseDifficulty converts a raw string into a known tier.
func ParseDifficulty(s string) (DifficultyTier, error) {
	d := DifficultyTier(s)
	if !d.Valid() {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Index returns the tier position, or -1 for unknown tiers.
func (d DifficultyTier) Index() int {
	for i, v := range difficulties {
		if v == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is a known tier.
func (d DifficultyTier) Valid() bool {
	return d.Index() >= 0
}

// Label returns the display name.
func (d DifficultyTier) Label() string {
	if label, ok := difficultyLabels[d]; ok {
		return label
	}
	return string(d)
}

// Next returns the following tier, staying on the last one.
func (d DifficultyTier) Next() DifficultyTier {
	i := d.Index()
	if i < 0 {
		return DifficultyBase
	}
	if i == len(difficulties)-1 {
		return d
	}
	return difficulties[i+1]
}

// Prev returns the preceding tier, staying on base.
func (d DifficultyTier) Prev() DifficultyTier {
	i := d.Index()
	if i <= 0 {
		return DifficultyBase
	}
	return difficulties[i-1]
}

// FastTier is a speed-based completion grade: 0 not completed, 1 Normal,
// 2 Fast, 3..11 Fast + through Fast +9.
type FastTier int

// Fast tier bounds.
const (
	FastTierNone   FastTier = 0
	FastTierNormal FastTier = 1
	FastTierFast   FastTier = 2
	FastTierMax    FastTier = 11
)

// Valid reports whether t is within 0..11.
func (t FastTier) Valid() bool {
	return t >= FastTierNone && t <= FastTierMax
}

// Satisfies reports whether t meets the required tier.
func (t FastTier) Satisfies(required FastTier) bool {
	return t >= required
}

// Label returns the display name.
func (t FastTier) Label() string {
	switch {
	case t <= FastTierNone:
		return "Not completed"
	case t == FastTierNormal:
		return "Normal"
	case t == FastTierFast:
		return "Fast"
	case t == 3:
		return "Fast +"
	case t == 4:
		return "Fast ++"
	case t <= FastTierMax:
		return fmt.Sprintf("Fast +%d", int(t)-2)
	default:
		return fmt.Sprintf("Tier %d", int(t))
	}
}

// LevelCompletion records the best fast tier reached on a level at one difficulty.
type LevelCompletion struct {
	LevelID    int            `json:"levelId" yaml:"levelId"`
	Difficulty DifficultyTier `json:"difficulty" yaml:"difficulty"`
	FastTier   FastTier       `json:"fastTier" yaml:"fastTier"`
}

// CharacterProgress holds completions and display order for one character.
type CharacterProgress struct {
	CharacterID      string            `json:"characterId" yaml:"characterId"`
	CustomIndex      int               `json:"customIndex" yaml:"customIndex"`
	LevelCompletions []LevelCompletion `json:"levelCompletions" yaml:"levelCompletions"`
}

// Completion returns the entry for a level and difficulty.
func (c CharacterProgress) Completion(levelID int, difficulty DifficultyTier) (LevelCompletion, bool) {
	for _, lc := range c.LevelCompletions {
		if lc.LevelID == levelID && lc.Difficulty == difficulty {
			return lc, true
		}
	}
	return LevelCompletion{}, false
}

// ProgressData is the versioned per-slot character progress.
type ProgressData struct {
	Version     int                 `json:"version" yaml:"version"`
	LastUpdated time.Time           `json:"lastUpdated" yaml:"lastUpdated"`
	Characters  []CharacterProgress `json:"characters" yaml:"characters"`
}

// SaveSlotData is the unit of persistence for one save slot.
type SaveSlotData struct {
	CharacterProgress ProgressData   `json:"characterProgress" yaml:"characterProgress"`
	LastDifficulty    DifficultyTier `json:"lastDifficulty" yaml:"lastDifficulty"`
	LastTier          FastTier       `json:"lastTier" yaml:"lastTier"`
	LastModified      int64          `json:"lastModified" yaml:"lastModified"`
	Name              string         `json:"name,omitempty" yaml:"name,omitempty"`
}

// Clone returns a deep copy.
func (s SaveSlotData) Clone() SaveSlotData {
	out := s
	out.CharacterProgress.Characters = make([]CharacterProgress, len(s.CharacterProgress.Characters))
	for i, c := range s.CharacterProgress.Characters {
		c.LevelCompletions = append([]LevelCompletion{}, c.LevelCompletions...)
		out.CharacterProgress.Characters[i] = c
	}
	return out
}

// DisplayName returns the slot name, falling back to "Save N".
func (s SaveSlotData) DisplayName(slot int) string {
	if s.Name != "" {
		return s.Name
	}
	return DefaultSlotName(slot)
}

// DefaultSlotName is the name given to a fresh slot.
func DefaultSlotName(slot int) string {
	return fmt.Sprintf("Save %d", slot)
}

// OrderUpdate reassigns one character's display order.
type OrderUpdate struct {
	CharacterID string
	CustomIndex int
}

// CompletionUpdate carries the supplied fields of a level completion write.
// A nil FastTier leaves an existing entry's tier untouched and defaults new
// entries to FastTierNone.
type CompletionUpdate struct {
	Difficulty DifficultyTier
	FastTier   *FastTier
}

// SlotInfo describes a save slot for listings.
type SlotInfo struct {
	Slot   int
	Active bool
	Data   SaveSlotData
}
