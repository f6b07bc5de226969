// Package summary builds completion reports for a save slot.
package summary

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/TheLysdexicOne/pitkeeper/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Namer resolves character ids to display names.
type Namer interface {
	Name(id string) string
}

// CharacterSummary is one row of a Report.
type CharacterSummary struct {
	ID        string
	Name      string
	Completed int
	// BestTiers holds the stored fast tier per level, index 0 for level 1.
	BestTiers []model.FastTier
	// Cleared is the highest difficulty with every level completed, if any.
	Cleared    model.DifficultyTier
	HasCleared bool
}

// Rate is the fraction of levels completed.
func (c CharacterSummary) Rate() float64 {
	levels := model.MaxLevelID - model.MinLevelID + 1
	return float64(c.Completed) / float64(levels)
}

// Report summarises progress at one difficulty and fast tier.
type Report struct {
	Difficulty model.DifficultyTier
	Tier       model.FastTier
	Characters []CharacterSummary
}

// Completed returns the completed level count across all characters.
func (r Report) Completed() int {
	total := 0
	for _, c := range r.Characters {
		total += c.Completed
	}
	return total
}

// Total returns the number of (character, level) pairs.
func (r Report) Total() int {
	return len(r.Characters) * (model.MaxLevelID - model.MinLevelID + 1)
}

// BuildReport computes per-character completion. chars should already be in
// display order.
func BuildReport(chars []model.CharacterProgress, names Namer, difficulty model.DifficultyTier, tier model.FastTier) Report {
	report := Report{
		Difficulty: difficulty,
		Tier:       tier,
		Characters: make([]CharacterSummary, 0, len(chars)),
	}
	for _, c := range chars {
		row := CharacterSummary{
			ID:        c.CharacterID,
			Name:      c.CharacterID,
			BestTiers: make([]model.FastTier, 0, model.MaxLevelID),
		}
		if names != nil {
			row.Name = names.Name(c.CharacterID)
		}
		for level := model.MinLevelID; level <= model.MaxLevelID; level++ {
			lc, ok := c.Completion(level, difficulty)
			best := model.FastTierNone
			if ok {
				best = lc.FastTier
			}
			row.BestTiers = append(row.BestTiers, best)
			if ok && best.Satisfies(tier) {
				row.Completed++
			}
		}
		row.Cleared, row.HasCleared = highestCleared(c)
		report.Characters = append(report.Characters, row)
	}
	return report
}

func highestCleared(c model.CharacterProgress) (model.DifficultyTier, bool) {
	diffs := model.Difficulties()
	for i := len(diffs) - 1; i >= 0; i-- {
		all := true
		for level := model.MinLevelID; level <= model.MaxLevelID; level++ {
			lc, ok := c.Completion(level, diffs[i])
			if !ok || !lc.FastTier.Satisfies(model.FastTierNormal) {
				all = false
				break
			}
		}
		if all {
			return diffs[i], true
		}
	}
	return "", false
}

// Sparkline renders tiers on a fixed 0..11 scale, one glyph per level.
func Sparkline(tiers []model.FastTier) string {
	var b strings.Builder
	for _, t := range tiers {
		pos := float64(t) / float64(model.FastTierMax)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderReport prints the overall summary and the per-character table.
func RenderReport(w io.Writer, report Report) error {
	if len(report.Characters) == 0 {
		_, err := fmt.Fprintln(w, "No characters found.")
		return err
	}
	total := report.Total()
	pct := 0.0
	if total > 0 {
		pct = float64(report.Completed()) / float64(total) * 100
	}
	if _, err := fmt.Fprintf(w, "%s, %s or better\n", report.Difficulty.Label(), report.Tier.Label()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Levels completed: %d/%d (%.1f%%)\n\n", report.Completed(), total, pct); err != nil {
		return err
	}

	headers := []string{"Character", "Levels", "Rate", "Tiers", "Cleared"}
	rows := make([][]string, 0, len(report.Characters))
	for _, c := range report.Characters {
		cleared := "-"
		if c.HasCleared {
			cleared = c.Cleared.Label()
		}
		rows = append(rows, []string{
			c.Name,
			fmt.Sprintf("%d/%d", c.Completed, len(c.BestTiers)),
			fmt.Sprintf("%.0f%%", c.Rate()*100),
			"[" + Sparkline(c.BestTiers) + "]",
			cleared,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{1: true, 2: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
