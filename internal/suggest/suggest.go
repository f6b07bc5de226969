// Package suggest picks the next character and level to play.
package suggest

import (
	"math/rand"
	"time"

	"github.com/TheLysdexicOne/pitkeeper/internal/model"
)

// Pick is a suggested run.
type Pick struct {
	CharacterID string
	LevelID     int
	Difficulty  model.DifficultyTier
	Tier        model.FastTier
}

// Suggester chooses incomplete runs at random.
type Suggester struct {
	rnd *rand.Rand
}

// New returns a Suggester seeded with the current time.
func New() *Suggester {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a deterministic Suggester.
func NewSeeded(seed int64) *Suggester {
	return &Suggester{rnd: rand.New(rand.NewSource(seed))}
}

type candidate struct {
	character string
	level     int
	weight    float64
}

// Next picks a (character, level) pair not yet completed at difficulty and
// tier. Characters with fewer completed levels get weight 1+factor per
// missing level, so stragglers come up more often. ok is false when
// everything is complete.
func (s *Suggester) Next(chars []model.CharacterProgress, difficulty model.DifficultyTier, tier model.FastTier, factor float64) (Pick, bool) {
	if factor < 0 {
		factor = 0
	}
	var candidates []candidate
	total := 0.0
	for _, c := range chars {
		var open []int
		for level := model.MinLevelID; level <= model.MaxLevelID; level++ {
			lc, ok := c.Completion(level, difficulty)
			if ok && lc.FastTier.Satisfies(tier) {
				continue
			}
			open = append(open, level)
		}
		w := 1.0 + float64(len(open))*factor
		for _, level := range open {
			candidates = append(candidates, candidate{character: c.CharacterID, level: level, weight: w})
			total += w
		}
	}
	if len(candidates) == 0 {
		return Pick{}, false
	}

	r := s.rnd.Float64() * total
	acc := 0.0
	idx := len(candidates) - 1
	for i, c := range candidates {
		acc += c.weight
		if r <= acc {
			idx = i
			break
		}
	}
	chosen := candidates[idx]
	return Pick{
		CharacterID: chosen.character,
		LevelID:     chosen.level,
		Difficulty:  difficulty,
		Tier:        tier,
	}, true
}
