package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TheLysdexicOne/pitkeeper/internal/catalog"
	"github.com/TheLysdexicOne/pitkeeper/internal/model"
	"github.com/TheLysdexicOne/pitkeeper/internal/progress"
	"github.com/TheLysdexicOne/pitkeeper/internal/suggest"
	"github.com/TheLysdexicOne/pitkeeper/internal/summary"
)

// selection holds the --difficulty/--tier pair shared by several commands.
// Empty values fall back to the active slot's stored selection.
type selection struct {
	difficulty string
	tier       int
}

const tierUnset = -1

func (s *selection) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.difficulty, "difficulty", "d", "", "difficulty (base, ng-plus, ng-plus-2 .. ng-plus-9)")
	cmd.Flags().IntVarP(&s.tier, "tier", "t", tierUnset, "fast tier (0 none, 1 normal, 2 fast, 3-11 fast +N)")
}

func (s selection) resolve(t *progress.Tracker) (model.DifficultyTier, model.FastTier, error) {
	difficulty := t.CurrentDifficulty()
	if s.difficulty != "" {
		d, err := model.ParseDifficulty(strings.ToLower(strings.TrimSpace(s.difficulty)))
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", progress.ErrInvalidDifficulty, err)
		}
		difficulty = d
	}
	tier := t.CurrentTier()
	if s.tier != tierUnset {
		tier = model.FastTier(s.tier)
		if !tier.Valid() {
			return "", 0, fmt.Errorf("%w: %d", progress.ErrInvalidTier, s.tier)
		}
	}
	return difficulty, tier, nil
}

// parseLevel accepts a level id, slug or case-insensitive name.
func parseLevel(cat *catalog.Catalog, arg string) (catalog.Level, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.Atoi(arg); err == nil {
		if l, ok := cat.LevelByID(id); ok {
			return l, nil
		}
		return catalog.Level{}, fmt.Errorf("%w: %d", progress.ErrInvalidLevel, id)
	}
	for _, l := range cat.AllLevels() {
		if strings.EqualFold(l.Slug, arg) || strings.EqualFold(l.Name, arg) {
			return l, nil
		}
	}
	return catalog.Level{}, fmt.Errorf("%w: %q", progress.ErrInvalidLevel, arg)
}

func findCharacter(cat *catalog.Catalog, arg string) (catalog.Character, error) {
	ch, ok := cat.FindCharacter(arg)
	if !ok {
		return catalog.Character{}, fmt.Errorf("%w: %q", progress.ErrUnknownCharacter, arg)
	}
	return ch, nil
}

func newCompleteCmd() *cobra.Command {
	var (
		sel   selection
		clearTier bool
	)
	cmd := &cobra.Command{
		Use:   "complete <character> <level>",
		Short: "Record a level completion in the active slot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ch, err := findCharacter(a.cat, args[0])
			if err != nil {
				return err
			}
			level, err := parseLevel(a.cat, args[1])
			if err != nil {
				return err
			}
			tracker := progress.NewTracker(a.store)
			defer tracker.Close()

			difficulty, tier, err := sel.resolve(tracker)
			if err != nil {
				return err
			}
			if clearTier {
				tier = model.FastTierNone
			}
			update := model.CompletionUpdate{Difficulty: difficulty, FastTier: &tier}
			if err := tracker.UpdateLevelCompletion(ch.ID, level.ID, update); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s · %s · %s: %s\n", ch.Name, level.Name, difficulty.Label(), tier.Label())
			return err
		},
	}
	sel.bind(cmd)
	cmd.Flags().BoolVar(&clearTier, "clear", false, "mark the level as not completed")
	return cmd
}

func newSelectCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Show or change the active slot's difficulty and fast tier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			tracker := progress.NewTracker(a.store)
			defer tracker.Close()

			difficulty, tier, err := sel.resolve(tracker)
			if err != nil {
				return err
			}
			if difficulty != tracker.CurrentDifficulty() {
				if err := tracker.SetCurrentDifficulty(difficulty); err != nil {
					return err
				}
			}
			if tier != tracker.CurrentTier() {
				if err := tracker.SetCurrentTier(tier); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s · %s\n", difficulty.Label(), tier.Label())
			return err
		},
	}
	sel.bind(cmd)
	return cmd
}

func newOrderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order <character> <index>",
		Short: "Set a character's custom sort index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(strings.TrimSpace(args[1]))
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[1], err)
			}
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ch, err := findCharacter(a.cat, args[0])
			if err != nil {
				return err
			}
			tracker := progress.NewTracker(a.store)
			defer tracker.Close()

			if err := tracker.UpdateCharacterOrder(ch.ID, index); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, c := range tracker.SortedCharacters() {
				if _, err := fmt.Fprintf(out, "%3d  %s\n", i+1, a.cat.Name(c.CharacterID)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var (
		sel selection
		top int
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show completion for the active slot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			tracker := progress.NewTracker(a.store)
			defer tracker.Close()

			difficulty, tier, err := sel.resolve(tracker)
			if err != nil {
				return err
			}
			slot := tracker.ActiveSlot()
			out := cmd.OutOrStdout()
			if _, err := fmt.Fprintf(out, "Slot %d: %s\n", slot, tracker.Data().DisplayName(slot)); err != nil {
				return err
			}
			report := summary.BuildReport(tracker.SortedCharacters(), a.cat, difficulty, tier)
			if top > 0 {
				if _, err := fmt.Fprintf(out, "Top: %s\n", strings.Join(summary.TopCharacters(report, top), ", ")); err != nil {
					return err
				}
			}
			return summary.RenderReport(out, report)
		},
	}
	sel.bind(cmd)
	cmd.Flags().IntVar(&top, "top", 0, "also list the N most complete characters")
	return cmd
}

func newSuggestCmd() *cobra.Command {
	var sel selection
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Pick an unfinished character and level to play next",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			tracker := progress.NewTracker(a.store)
			defer tracker.Close()

			difficulty, tier, err := sel.resolve(tracker)
			if err != nil {
				return err
			}
			pick, ok := suggest.New().Next(tracker.SortedCharacters(), difficulty, tier, suggestWeight)
			out := cmd.OutOrStdout()
			if !ok {
				_, err = fmt.Fprintf(out, "Everything is complete at %s, %s.\n", difficulty.Label(), tier.Label())
				return err
			}
			levelName := strconv.Itoa(pick.LevelID)
			if l, found := a.cat.LevelByID(pick.LevelID); found {
				levelName = l.Name
			}
			_, err = fmt.Fprintf(out, "%s on %s (%s, %s)\n", a.cat.Name(pick.CharacterID), levelName, pick.Difficulty.Label(), pick.Tier.Label())
			return err
		},
	}
	sel.bind(cmd)
	cmd.Flags().Float64Var(&suggestWeight, "weight", defaultSuggestWeight, "extra weight per unfinished level")
	return cmd
}
