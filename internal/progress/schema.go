package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/TheLysdexicOne/pitkeeper/internal/model"
)

// CurrentVersion is the ProgressData schema version written by this package.
const CurrentVersion = 1

// Stored payloads are migrated as generic JSON documents by an ordered list
// of steps. Every step is idempotent and reports whether it changed the
// document.
type document = map[string]any

type step struct {
	name  string
	apply func(doc document, now time.Time) bool
}

var slotSteps = []step{
	{name: "hero-progress-to-character-progress", apply: heroProgressToCharacterProgress},
	{name: "heroes-to-characters", apply: func(doc document, now time.Time) bool {
		return heroesToCharacters(object(doc, "characterProgress"), now)
	}},
	{name: "progress-defaults", apply: func(doc document, now time.Time) bool {
		return progressDefaults(object(doc, "characterProgress"), now)
	}},
	{name: "slot-defaults", apply: slotDefaults},
}

var progressSteps = []step{
	{name: "heroes-to-characters", apply: heroesToCharacters},
	{name: "progress-defaults", apply: progressDefaults},
}

var errNotObject = errors.New("payload is not a JSON object")

// MigrateSlot decodes a stored save slot of any known shape into the current
// schema. migrated reports whether any step rewrote the payload.
func MigrateSlot(raw []byte, now time.Time) (model.SaveSlotData, bool, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return model.SaveSlotData{}, false, err
	}
	migrated := runSteps(slotSteps, doc, now)
	var out model.SaveSlotData
	if err := redecode(doc, &out); err != nil {
		return model.SaveSlotData{}, false, err
	}
	normalizeProgress(&out.CharacterProgress)
	return out, migrated, nil
}

// MigrateProgress decodes a stored ProgressData of any known shape.
func MigrateProgress(raw []byte, now time.Time) (model.ProgressData, error) {
	doc, err := decodeDocument(raw)
	if err != nil {
		return model.ProgressData{}, err
	}
	runSteps(progressSteps, doc, now)
	var out model.ProgressData
	if err := redecode(doc, &out); err != nil {
		return model.ProgressData{}, err
	}
	normalizeProgress(&out)
	return out, nil
}

func runSteps(steps []step, doc document, now time.Time) bool {
	changed := false
	for _, s := range steps {
		if s.apply(doc, now) {
			changed = true
		}
	}
	return changed
}

func decodeDocument(raw []byte) (document, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	doc, ok := v.(document)
	if !ok {
		return nil, errNotObject
	}
	return doc, nil
}

func redecode(doc document, target any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode migrated payload: %w", err)
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode migrated payload: %w", err)
	}
	return nil
}

// object returns doc[key] when it is an object, else nil.
func object(doc document, key string) document {
	if doc == nil {
		return nil
	}
	v, _ := doc[key].(document)
	return v
}

func present(doc document, key string) bool {
	v, ok := doc[key]
	return ok && v != nil
}

// heroProgressToCharacterProgress moves the pre-rename slot field.
func heroProgressToCharacterProgress(doc document, now time.Time) bool {
	if !present(doc, "heroProgress") || present(doc, "characterProgress") {
		return false
	}
	doc["characterProgress"] = doc["heroProgress"]
	delete(doc, "heroProgress")
	if s, _ := doc["lastDifficulty"].(string); s == "" {
		doc["lastDifficulty"] = string(model.DifficultyBase)
	}
	// An unset or zero tier meant Normal in the hero-keyed schema.
	if n, _ := doc["lastTier"].(float64); n == 0 {
		doc["lastTier"] = float64(model.FastTierNormal)
	}
	if n, _ := doc["lastModified"].(float64); n == 0 {
		doc["lastModified"] = float64(now.UnixMilli())
	}
	return true
}

// heroesToCharacters renames heroes[].heroId to characters[].characterId.
func heroesToCharacters(doc document, _ time.Time) bool {
	if doc == nil || !present(doc, "heroes") || present(doc, "characters") {
		return false
	}
	heroes, _ := doc["heroes"].([]any)
	characters := make([]any, 0, len(heroes))
	for i, h := range heroes {
		hero, ok := h.(document)
		if !ok {
			continue
		}
		customIndex, ok := hero["customIndex"].(float64)
		if !ok {
			customIndex = float64(i)
		}
		completions, ok := hero["levelCompletions"].([]any)
		if !ok {
			completions = []any{}
		}
		characters = append(characters, document{
			"characterId":      hero["heroId"],
			"customIndex":      customIndex,
			"levelCompletions": completions,
		})
	}
	doc["characters"] = characters
	delete(doc, "heroes")
	return true
}

// progressDefaults fills version, lastUpdated and completion lists.
func progressDefaults(doc document, now time.Time) bool {
	if doc == nil {
		return false
	}
	changed := false
	if n, _ := doc["version"].(float64); n == 0 {
		doc["version"] = float64(CurrentVersion)
		changed = true
	}
	if s, _ := doc["lastUpdated"].(string); !validTimestamp(s) {
		doc["lastUpdated"] = now.UTC().Format(time.RFC3339Nano)
		changed = true
	}
	chars, ok := doc["characters"].([]any)
	if !ok {
		doc["characters"] = []any{}
		return true
	}
	for _, c := range chars {
		ch, ok := c.(document)
		if !ok {
			continue
		}
		if _, ok := ch["levelCompletions"].([]any); !ok {
			ch["levelCompletions"] = []any{}
			changed = true
		}
	}
	return changed
}

// slotDefaults fills slot fields that a hand-edited or truncated payload may lack.
func slotDefaults(doc document, now time.Time) bool {
	changed := false
	if !present(doc, "characterProgress") {
		doc["characterProgress"] = document{
			"version":     float64(CurrentVersion),
			"lastUpdated": now.UTC().Format(time.RFC3339Nano),
			"characters":  []any{},
		}
		changed = true
	}
	if s, _ := doc["lastDifficulty"].(string); s == "" {
		doc["lastDifficulty"] = string(model.DifficultyBase)
		changed = true
	}
	if !present(doc, "lastTier") {
		doc["lastTier"] = float64(model.FastTierNormal)
		changed = true
	}
	if !present(doc, "lastModified") {
		doc["lastModified"] = float64(now.UnixMilli())
		changed = true
	}
	return changed
}

func validTimestamp(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse(time.RFC3339Nano, s)
	return err == nil
}

func normalizeProgress(p *model.ProgressData) {
	if p.Characters == nil {
		p.Characters = []model.CharacterProgress{}
	}
	for i := range p.Characters {
		if p.Characters[i].LevelCompletions == nil {
			p.Characters[i].LevelCompletions = []model.LevelCompletion{}
		}
	}
}
