// Package catalog provides the character and level tables extracted from the game data.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

//go:embed data/characters.json data/levels.json
var dataFS embed.FS

// CharacterData is one row of the extracted character table.
type CharacterData struct {
	Type           string `json:"Type"`
	Name           string `json:"Name"`
	Slug           string `json:"Slug"`
	StarterUpgrade string `json:"StarterUpgrade,omitempty"`
}

// Character is a playable character.
type Character struct {
	ID          string
	Type        string
	Name        string
	StarterBall string
}

// LevelData is one row of the extracted level table.
type LevelData struct {
	ID   int    `json:"Id"`
	Name string `json:"Name"`
	Slug string `json:"Slug"`
}

// Level is a playable level.
type Level struct {
	ID   int
	Name string
	Slug string
}

// Catalog holds the characters and levels known to the tracker.
type Catalog struct {
	characters []Character
	levels     []Level
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	chars, err := dataFS.ReadFile("data/characters.json")
	if err != nil {
		return nil, err
	}
	levels, err := dataFS.ReadFile("data/levels.json")
	if err != nil {
		return nil, err
	}
	return Parse(chars, levels)
}

// LoadFile reads an override character table from path and pairs it with
// the bundled levels.
func LoadFile(path string) (*Catalog, error) {
	chars, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	levels, err := dataFS.ReadFile("data/levels.json")
	if err != nil {
		return nil, err
	}
	cat, err := Parse(chars, levels)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cat, nil
}

// Parse builds a catalog from raw character and level tables.
func Parse(charactersJSON, levelsJSON []byte) (*Catalog, error) {
	var rawChars []CharacterData
	if err := json.Unmarshal(charactersJSON, &rawChars); err != nil {
		return nil, fmt.Errorf("decode characters: %w", err)
	}
	var rawLevels []LevelData
	if err := json.Unmarshal(levelsJSON, &rawLevels); err != nil {
		return nil, fmt.Errorf("decode levels: %w", err)
	}

	chars := make([]Character, 0, len(rawChars))
	seen := map[string]struct{}{}
	for _, c := range rawChars {
		if !playable(c) {
			continue
		}
		if _, dup := seen[c.Slug]; dup {
			continue
		}
		seen[c.Slug] = struct{}{}
		chars = append(chars, Character{
			ID:          c.Slug,
			Type:        c.Type,
			Name:        c.Name,
			StarterBall: c.StarterUpgrade,
		})
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("character table is empty")
	}
	sort.SliceStable(chars, func(i, j int) bool {
		return typeOrder(chars[i].Type) < typeOrder(chars[j].Type)
	})

	levels := make([]Level, 0, len(rawLevels))
	for _, l := range rawLevels {
		levels = append(levels, Level{ID: l.ID, Name: l.Name, Slug: l.Slug})
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i].ID < levels[j].ID })

	return &Catalog{characters: chars, levels: levels}, nil
}

// Placeholder rows and the influencer are not playable.
func playable(c CharacterData) bool {
	if strings.TrimSpace(c.Slug) == "" {
		return false
	}
	return c.Name != "???" && c.Slug != "char_influencer"
}

func typeOrder(t string) int {
	n, err := strconv.Atoi(strings.TrimSpace(t))
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return n
}

// AllCharacters returns playable characters in game order.
func (c *Catalog) AllCharacters() []Character {
	return append([]Character(nil), c.characters...)
}

// CharacterIDs returns the ids of AllCharacters.
func (c *Catalog) CharacterIDs() []string {
	ids := make([]string, len(c.characters))
	for i, ch := range c.characters {
		ids[i] = ch.ID
	}
	return ids
}

// CharacterByID looks up a character by slug.
func (c *Catalog) CharacterByID(id string) (Character, bool) {
	for _, ch := range c.characters {
		if ch.ID == id {
			return ch, true
		}
	}
	return Character{}, false
}

// FindCharacter resolves a slug or a case-insensitive display name.
func (c *Catalog) FindCharacter(query string) (Character, bool) {
	query = strings.TrimSpace(query)
	if ch, ok := c.CharacterByID(query); ok {
		return ch, true
	}
	for _, ch := range c.characters {
		if strings.EqualFold(ch.Name, query) || strings.EqualFold(strings.TrimPrefix(ch.Name, "The "), query) {
			return ch, true
		}
	}
	return Character{}, false
}

// Name returns the display name for id, or id itself when unknown.
func (c *Catalog) Name(id string) string {
	if ch, ok := c.CharacterByID(id); ok {
		return ch.Name
	}
	return id
}

// AllLevels returns levels ordered by id.
func (c *Catalog) AllLevels() []Level {
	return append([]Level(nil), c.levels...)
}

// LevelByID looks up a level.
func (c *Catalog) LevelByID(id int) (Level, bool) {
	for _, l := range c.levels {
		if l.ID == id {
			return l, true
		}
	}
	return Level{}, false
}
