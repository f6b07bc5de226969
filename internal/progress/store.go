// Package progress persists per-save-slot character progress and keeps
// independent consumers in sync through a notification bus.
package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TheLysdexicOne/pitkeeper/internal/bus"
	"github.com/TheLysdexicOne/pitkeeper/internal/kv"
	"github.com/TheLysdexicOne/pitkeeper/internal/model"
)

// CharacterSource lists the character ids every slot must track.
type CharacterSource interface {
	CharacterIDs() []string
}

// Store reads and writes save slots. Storage and decode failures are logged
// and degrade to defaults; they never reach the caller of a read.
type Store struct {
	kv     kv.Storage
	bus    *bus.Bus
	chars  CharacterSource
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Store over the given backend, bus and character catalog.
func New(storage kv.Storage, b *bus.Bus, chars CharacterSource, opts ...Option) *Store {
	s := &Store{
		kv:     storage,
		bus:    b,
		chars:  chars,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Bus returns the notification bus shared by every Tracker of this store.
func (s *Store) Bus() *bus.Bus {
	return s.bus
}

// NewProgress returns progress with one empty entry per catalog character.
func (s *Store) NewProgress() model.ProgressData {
	ids := s.chars.CharacterIDs()
	chars := make([]model.CharacterProgress, len(ids))
	for i, id := range ids {
		chars[i] = model.CharacterProgress{
			CharacterID:      id,
			CustomIndex:      i,
			LevelCompletions: []model.LevelCompletion{},
		}
	}
	return model.ProgressData{
		Version:     CurrentVersion,
		LastUpdated: s.now().UTC(),
		Characters:  chars,
	}
}

// NewSlot returns the empty default for a slot.
func (s *Store) NewSlot(slot int) model.SaveSlotData {
	return model.SaveSlotData{
		CharacterProgress: s.NewProgress(),
		LastDifficulty:    model.DifficultyBase,
		LastTier:          model.FastTierNormal,
		LastModified:      s.now().UnixMilli(),
		Name:              model.DefaultSlotName(slot),
	}
}

// Load returns the slot contents. An empty slot yields a fresh default
// without writing it. A payload in the hero-keyed schema is rewritten and
// persisted before it is returned.
func (s *Store) Load(slot int) model.SaveSlotData {
	if !model.ValidSlot(slot) {
		s.logger.Warn("load of invalid save slot", zap.Int("slot", slot))
		return s.NewSlot(slot)
	}
	key := kv.SaveSlotKey(slot)
	raw, ok, err := s.kv.Get(key)
	if err != nil {
		s.logger.Error("failed to read save slot", zap.Int("slot", slot), zap.Error(err))
		return s.NewSlot(slot)
	}
	if !ok {
		return s.NewSlot(slot)
	}
	data, migrated, err := MigrateSlot([]byte(raw), s.now())
	if err != nil {
		s.logger.Error("failed to load save slot", zap.Int("slot", slot), zap.Error(err))
		return s.NewSlot(slot)
	}
	if migrated {
		if stamped, err := s.save(slot, data); err == nil {
			data = stamped
			s.logger.Info("migrated save slot to current schema", zap.Int("slot", slot))
		}
	}
	s.reconcile(&data.CharacterProgress)
	return data
}

// reconcile appends catalog characters missing from p. Existing entries are
// left untouched; new ones continue after the highest customIndex.
func (s *Store) reconcile(p *model.ProgressData) {
	existing := make(map[string]struct{}, len(p.Characters))
	next := 0
	for i, c := range p.Characters {
		existing[c.CharacterID] = struct{}{}
		if i == 0 || c.CustomIndex+1 > next {
			next = c.CustomIndex + 1
		}
	}
	for _, id := range s.chars.CharacterIDs() {
		if _, ok := existing[id]; ok {
			continue
		}
		p.Characters = append(p.Characters, model.CharacterProgress{
			CharacterID:      id,
			CustomIndex:      next,
			LevelCompletions: []model.LevelCompletion{},
		})
		existing[id] = struct{}{}
		next++
	}
}

// Save stamps lastModified and persists the slot without notifying anyone.
func (s *Store) Save(slot int, data model.SaveSlotData) error {
	_, err := s.save(slot, data)
	return err
}

// SaveAndNotify saves the slot and then broadcasts a notification tagged
// with origin. Nothing is broadcast when the write fails.
func (s *Store) SaveAndNotify(slot int, data model.SaveSlotData, origin string) error {
	_, err := s.saveAndNotify(slot, data, origin)
	return err
}

// Notify broadcasts a notification without writing.
func (s *Store) Notify(origin string) bus.Notification {
	return s.bus.Publish(origin)
}

func (s *Store) saveAndNotify(slot int, data model.SaveSlotData, origin string) (model.SaveSlotData, error) {
	stamped, err := s.save(slot, data)
	if err != nil {
		return stamped, err
	}
	s.bus.Publish(origin)
	return stamped, nil
}

func (s *Store) save(slot int, data model.SaveSlotData) (model.SaveSlotData, error) {
	if !model.ValidSlot(slot) {
		return data, ErrInvalidSlot
	}
	data = data.Clone()
	data.LastModified = s.now().UnixMilli()
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("failed to encode save slot", zap.Int("slot", slot), zap.Error(err))
		return data, fmt.Errorf("encode save slot %d: %w", slot, err)
	}
	if err := s.kv.Set(kv.SaveSlotKey(slot), string(payload)); err != nil {
		s.logger.Error("failed to save slot", zap.Int("slot", slot), zap.Error(err))
		return data, fmt.Errorf("save slot %d: %w", slot, err)
	}
	return data, nil
}

// ActiveSlot returns the active slot pointer, defaulting to 1 when it is
// missing, unreadable or out of range.
func (s *Store) ActiveSlot() int {
	raw, ok, err := s.kv.Get(kv.ActiveSlotKey)
	if err != nil {
		s.logger.Warn("failed to read active slot", zap.Error(err))
		return 1
	}
	if !ok {
		return 1
	}
	slot, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !model.ValidSlot(slot) {
		s.logger.Warn("ignoring invalid active slot", zap.String("value", raw))
		return 1
	}
	return slot
}

// SetActiveSlot writes the active slot pointer.
func (s *Store) SetActiveSlot(slot int) error {
	if !model.ValidSlot(slot) {
		return ErrInvalidSlot
	}
	if err := s.kv.Set(kv.ActiveSlotKey, strconv.Itoa(slot)); err != nil {
		s.logger.Error("failed to write active slot", zap.Int("slot", slot), zap.Error(err))
		return fmt.Errorf("write active slot: %w", err)
	}
	return nil
}

// ResetSlot overwrites a slot with its empty default and returns that default.
func (s *Store) ResetSlot(slot int) (model.SaveSlotData, error) {
	if !model.ValidSlot(slot) {
		return model.SaveSlotData{}, ErrInvalidSlot
	}
	return s.save(slot, s.NewSlot(slot))
}

// RenameSlot sets the display name of a slot. An empty name restores the default.
func (s *Store) RenameSlot(slot int, name string) error {
	if !model.ValidSlot(slot) {
		return ErrInvalidSlot
	}
	data := s.Load(slot)
	data.Name = normalizeName(slot, name)
	return s.Save(slot, data)
}

// Slots lists all save slots.
func (s *Store) Slots() []model.SlotInfo {
	active := s.ActiveSlot()
	out := make([]model.SlotInfo, 0, model.SlotCount)
	for slot := 1; slot <= model.SlotCount; slot++ {
		out = append(out, model.SlotInfo{
			Slot:   slot,
			Active: slot == active,
			Data:   s.Load(slot),
		})
	}
	return out
}

// MigrateLegacyData copies the single-save layout into slot 1. It does
// nothing when slot 1 already exists or there is no legacy progress, so it
// is safe to call on every start. Legacy keys are left in place.
func (s *Store) MigrateLegacyData() bool {
	if _, ok, err := s.kv.Get(kv.SaveSlotKey(1)); err != nil || ok {
		if err != nil {
			s.logger.Error("failed to check save slot 1", zap.Error(err))
		}
		return false
	}
	raw, ok, err := s.kv.Get(kv.LegacyProgressKey)
	if err != nil {
		s.logger.Error("failed to read legacy progress", zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	progressData, err := MigrateProgress([]byte(raw), s.now())
	if err != nil {
		s.logger.Error("failed to migrate legacy data", zap.Error(err))
		return false
	}

	slot := model.SaveSlotData{
		CharacterProgress: progressData,
		LastDifficulty:    s.legacyDifficulty(),
		LastTier:          s.legacyTier(),
		Name:              model.DefaultSlotName(1),
	}
	if _, err := s.save(1, slot); err != nil {
		return false
	}
	if err := s.SetActiveSlot(1); err != nil {
		return false
	}
	s.logger.Info("migrated legacy data to save slot 1")
	return true
}

func (s *Store) legacyDifficulty() model.DifficultyTier {
	raw, ok, err := s.kv.Get(kv.LegacyDifficultyKey)
	if err != nil || !ok || raw == "" {
		return model.DifficultyBase
	}
	d, err := model.ParseDifficulty(strings.TrimSpace(raw))
	if err != nil {
		s.logger.Warn("ignoring legacy difficulty", zap.String("value", raw))
		return model.DifficultyBase
	}
	return d
}

func (s *Store) legacyTier() model.FastTier {
	raw, ok, err := s.kv.Get(kv.LegacyFastTierKey)
	if err != nil || !ok {
		return model.FastTierNone
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || !model.FastTier(n).Valid() {
		s.logger.Warn("ignoring legacy fast tier", zap.String("value", raw))
		return model.FastTierNone
	}
	return model.FastTier(n)
}

// CleanupLegacyKeys removes the single-save keys. Callers opt in explicitly;
// MigrateLegacyData never deletes them.
func (s *Store) CleanupLegacyKeys() error {
	var errs []error
	for _, key := range []string{kv.LegacyProgressKey, kv.LegacyDifficultyKey, kv.LegacyFastTierKey} {
		if err := s.kv.Remove(key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// ImportDump copies the known keys of a browser localStorage dump into
// storage and returns how many were written. Unknown keys are ignored.
func (s *Store) ImportDump(entries map[string]string) (int, error) {
	written := 0
	for _, key := range kv.KnownKeys() {
		value, ok := entries[key]
		if !ok {
			continue
		}
		if err := s.kv.Set(key, value); err != nil {
			return written, fmt.Errorf("import %s: %w", key, err)
		}
		written++
	}
	return written, nil
}

func normalizeName(slot int, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.DefaultSlotName(slot)
	}
	return name
}
