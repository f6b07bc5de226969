package progress

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TheLysdexicOne/pitkeeper/internal/bus"
	"github.com/TheLysdexicOne/pitkeeper/internal/model"
)

// Tracker is one consumer's live view of the active save slot. Mutations
// persist through the Store and notify every other Tracker on the same bus.
// A Tracker ignores notifications carrying its own origin, so its own writes
// never trigger a reload of itself.
type Tracker struct {
	store  *Store
	origin string
	logger *zap.Logger

	// writeMu serializes mutate-then-persist so writes reach storage in
	// the order they were applied to the view.
	writeMu sync.Mutex

	mu          sync.Mutex
	slot        int
	data        model.SaveSlotData
	revision    uint64
	// writing counts persists in flight. A foreign notification that lands
	// meanwhile only sets stale, and the writer reloads once it is done.
	writing     int
	writeGen    uint64
	stale       bool
	onChange    []func()
	unsubscribe func()
}

// NewTracker migrates legacy data if needed, loads the active slot and
// subscribes to the store's bus. Call Close to unsubscribe.
func NewTracker(store *Store) *Tracker {
	store.MigrateLegacyData()
	t := &Tracker{
		store:  store,
		origin: uuid.NewString(),
		logger: store.logger,
	}
	t.slot = store.ActiveSlot()
	t.data = store.Load(t.slot)
	t.unsubscribe = store.bus.Subscribe(t.handle)
	return t
}

// Origin is the tag this tracker stamps on its notifications.
func (t *Tracker) Origin() string {
	return t.origin
}

// Close stops listening for notifications.
func (t *Tracker) Close() {
	t.mu.Lock()
	unsub := t.unsubscribe
	t.unsubscribe = nil
	t.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// OnChange registers fn to run after the view is reloaded because another
// consumer (or another process) changed storage. fn runs on the publishing
// goroutine and must not block.
func (t *Tracker) OnChange(fn func()) {
	t.mu.Lock()
	t.onChange = append(t.onChange, fn)
	t.mu.Unlock()
}

// Revision returns the revision of the last foreign notification applied.
func (t *Tracker) Revision() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revision
}

func (t *Tracker) handle(n bus.Notification) {
	if n.Origin == t.origin {
		return
	}
	var slot int
	var callbacks []func()
	for {
		t.mu.Lock()
		if t.deferReloadLocked(n.Revision) {
			t.mu.Unlock()
			return
		}
		gen := t.writeGen
		t.mu.Unlock()

		slot = t.store.ActiveSlot()
		data := t.store.Load(slot)

		t.mu.Lock()
		if t.deferReloadLocked(n.Revision) {
			t.mu.Unlock()
			return
		}
		if t.writeGen != gen {
			// A local write finished while loading; data may predate it.
			t.mu.Unlock()
			continue
		}
		t.slot = slot
		t.data = data
		t.revision = n.Revision
		callbacks = append([]func(){}, t.onChange...)
		t.mu.Unlock()
		break
	}

	t.logger.Debug("reloaded progress", zap.String("from", n.Origin), zap.Uint64("revision", n.Revision), zap.Int("slot", slot))
	for _, fn := range callbacks {
		fn()
	}
}

// deferReloadLocked marks the view stale when a write is in flight.
func (t *Tracker) deferReloadLocked(revision uint64) bool {
	if t.writing == 0 {
		return false
	}
	t.stale = true
	t.revision = revision
	return true
}

// reloadAfterWrite applies a reload deferred by handle and runs the change
// callbacks. Callers hold writeMu.
func (t *Tracker) reloadAfterWrite() {
	slot := t.store.ActiveSlot()
	data := t.store.Load(slot)

	t.mu.Lock()
	t.slot = slot
	t.data = data
	callbacks := append([]func(){}, t.onChange...)
	t.mu.Unlock()

	t.logger.Debug("reloaded progress after write", zap.Int("slot", slot))
	for _, fn := range callbacks {
		fn()
	}
}

// Reload re-reads the active slot from storage.
func (t *Tracker) Reload() {
	slot := t.store.ActiveSlot()
	data := t.store.Load(slot)
	t.mu.Lock()
	t.slot = slot
	t.data = data
	t.mu.Unlock()
}

// ActiveSlot returns the slot this tracker is viewing.
func (t *Tracker) ActiveSlot() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slot
}

// Data returns a copy of the current slot contents.
func (t *Tracker) Data() model.SaveSlotData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.Clone()
}

// Progress returns a copy of the current character progress.
func (t *Tracker) Progress() model.ProgressData {
	return t.Data().CharacterProgress
}

// CurrentDifficulty returns the difficulty selected in this slot.
func (t *Tracker) CurrentDifficulty() model.DifficultyTier {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.LastDifficulty
}

// CurrentTier returns the fast tier selected in this slot.
func (t *Tracker) CurrentTier() model.FastTier {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.LastTier
}

// SortedCharacters returns characters ordered by ascending customIndex.
// Ties keep their stored order.
func (t *Tracker) SortedCharacters() []model.CharacterProgress {
	chars := t.Progress().Characters
	sort.SliceStable(chars, func(i, j int) bool {
		return chars[i].CustomIndex < chars[j].CustomIndex
	})
	return chars
}

// CharacterProgress returns the entry for id.
func (t *Tracker) CharacterProgress(id string) (model.CharacterProgress, bool) {
	for _, c := range t.Progress().Characters {
		if c.CharacterID == id {
			return c, true
		}
	}
	return model.CharacterProgress{}, false
}

// IsLevelComplete reports whether the character reached the selected fast
// tier on the level at the selected difficulty.
func (t *Tracker) IsLevelComplete(id string, levelID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.data.CharacterProgress.Characters {
		if c.CharacterID != id {
			continue
		}
		lc, ok := c.Completion(levelID, t.data.LastDifficulty)
		return ok && lc.FastTier.Satisfies(t.data.LastTier)
	}
	return false
}

// AllSaveSlots lists every slot with this tracker's slot marked active.
func (t *Tracker) AllSaveSlots() []model.SlotInfo {
	active := t.ActiveSlot()
	slots := t.store.Slots()
	for i := range slots {
		slots[i].Active = slots[i].Slot == active
	}
	return slots
}

// mutate applies fn to a copy of the view, installs it and persists it.
// fn returns false to abandon the change.
func (t *Tracker) mutate(fn func(d *model.SaveSlotData) bool) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	slot := t.slot
	next := t.data.Clone()
	if !fn(&next) {
		t.mu.Unlock()
		return nil
	}
	next.CharacterProgress.LastUpdated = t.store.now().UTC()
	t.data = next
	t.writing++
	t.writeGen++
	t.mu.Unlock()

	stamped, err := t.store.saveAndNotify(slot, next, t.origin)

	t.mu.Lock()
	t.writing--
	reload := t.stale && t.writing == 0
	if reload {
		t.stale = false
	}
	if err == nil && t.slot == slot {
		t.data.LastModified = stamped.LastModified
	}
	t.mu.Unlock()

	if reload {
		t.reloadAfterWrite()
	}
	return err
}

// SetCurrentDifficulty changes the difficulty selected in this slot.
func (t *Tracker) SetCurrentDifficulty(d model.DifficultyTier) error {
	if !d.Valid() {
		return ErrInvalidDifficulty
	}
	return t.mutate(func(data *model.SaveSlotData) bool {
		data.LastDifficulty = d
		return true
	})
}

// SetCurrentTier changes the fast tier selected in this slot.
func (t *Tracker) SetCurrentTier(tier model.FastTier) error {
	if !tier.Valid() {
		return ErrInvalidTier
	}
	return t.mutate(func(data *model.SaveSlotData) bool {
		data.LastTier = tier
		return true
	})
}

// UpdateCharacterOrder sets one character's customIndex.
func (t *Tracker) UpdateCharacterOrder(id string, customIndex int) error {
	return t.UpdateCharacterOrders([]model.OrderUpdate{{CharacterID: id, CustomIndex: customIndex}})
}

// UpdateCharacterOrders applies every update in a single persist. Unknown
// ids are skipped; listed characters get exactly the given index.
func (t *Tracker) UpdateCharacterOrders(updates []model.OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	order := make(map[string]int, len(updates))
	for _, u := range updates {
		order[u.CharacterID] = u.CustomIndex
	}
	return t.mutate(func(data *model.SaveSlotData) bool {
		chars := data.CharacterProgress.Characters
		for i := range chars {
			if idx, ok := order[chars[i].CharacterID]; ok {
				chars[i].CustomIndex = idx
			}
		}
		return true
	})
}

// UpdateLevelCompletion merges update into the completion for (levelID,
// difficulty). A missing entry is created with FastTierNone unless a tier is
// supplied. An unknown character leaves the data unchanged but is still
// persisted and announced.
func (t *Tracker) UpdateLevelCompletion(id string, levelID int, update model.CompletionUpdate) error {
	if !model.ValidLevel(levelID) {
		return ErrInvalidLevel
	}
	difficulty := update.Difficulty
	if difficulty == "" {
		difficulty = model.DifficultyBase
	}
	if !difficulty.Valid() {
		return ErrInvalidDifficulty
	}
	if update.FastTier != nil && !update.FastTier.Valid() {
		return ErrInvalidTier
	}
	return t.mutate(func(data *model.SaveSlotData) bool {
		chars := data.CharacterProgress.Characters
		for i := range chars {
			if chars[i].CharacterID != id {
				continue
			}
			setCompletion(&chars[i], levelID, difficulty, update.FastTier)
			return true
		}
		t.logger.Debug("completion for unknown character", zap.String("character", id))
		return true
	})
}

func setCompletion(c *model.CharacterProgress, levelID int, difficulty model.DifficultyTier, tier *model.FastTier) {
	for j := range c.LevelCompletions {
		lc := &c.LevelCompletions[j]
		if lc.LevelID == levelID && lc.Difficulty == difficulty {
			if tier != nil {
				lc.FastTier = *tier
			}
			return
		}
	}
	entry := model.LevelCompletion{LevelID: levelID, Difficulty: difficulty, FastTier: model.FastTierNone}
	if tier != nil {
		entry.FastTier = *tier
	}
	c.LevelCompletions = append(c.LevelCompletions, entry)
}

// ToggleLevelCompletion flips a level at the selected difficulty and tier.
// A level already at or above the selected tier drops to one tier below it;
// otherwise it is raised to the selected tier.
func (t *Tracker) ToggleLevelCompletion(id string, levelID int) error {
	if !model.ValidLevel(levelID) {
		return ErrInvalidLevel
	}
	if _, ok := t.CharacterProgress(id); !ok {
		return ErrUnknownCharacter
	}
	return t.mutate(func(data *model.SaveSlotData) bool {
		selected := data.LastTier
		chars := data.CharacterProgress.Characters
		for i := range chars {
			if chars[i].CharacterID != id {
				continue
			}
			current := model.FastTierNone
			if lc, ok := chars[i].Completion(levelID, data.LastDifficulty); ok {
				current = lc.FastTier
			}
			next := selected
			if current.Satisfies(selected) {
				next = max(model.FastTierNone, selected-1)
			}
			setCompletion(&chars[i], levelID, data.LastDifficulty, &next)
			return true
		}
		return false
	})
}

// SwitchSaveSlot makes slot active and loads it into the view. Invalid
// slots are ignored.
func (t *Tracker) SwitchSaveSlot(slot int) {
	if !model.ValidSlot(slot) {
		t.logger.Warn("ignoring switch to invalid save slot", zap.Int("slot", slot))
		return
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	err := t.store.SetActiveSlot(slot)
	data := t.store.Load(slot)
	t.mu.Lock()
	t.slot = slot
	t.data = data
	t.writeGen++
	t.mu.Unlock()
	if err == nil {
		t.store.Notify(t.origin)
	}
}

// DeleteSaveSlot resets slot to its empty default. When slot is the active
// one the view is reset and other consumers are notified. Invalid slots are
// ignored.
func (t *Tracker) DeleteSaveSlot(slot int) {
	if !model.ValidSlot(slot) {
		t.logger.Warn("ignoring delete of invalid save slot", zap.Int("slot", slot))
		return
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	fresh, err := t.store.ResetSlot(slot)
	t.mu.Lock()
	active := t.slot == slot
	if active {
		t.data = fresh
		t.writeGen++
	}
	t.mu.Unlock()
	// Other consumers only view the active slot.
	if err == nil && active {
		t.store.Notify(t.origin)
	}
}

// ResetAllProgress clears every completion and the custom order of the
// active slot, keeping its name.
func (t *Tracker) ResetAllProgress() error {
	return t.mutate(func(data *model.SaveSlotData) bool {
		name := data.Name
		*data = t.store.NewSlot(t.slot)
		data.Name = name
		return true
	})
}

// RenameSaveSlot sets the display name of the active slot.
func (t *Tracker) RenameSaveSlot(name string) error {
	return t.mutate(func(data *model.SaveSlotData) bool {
		data.Name = normalizeName(t.slot, strings.TrimSpace(name))
		return true
	})
}

// RenameSlot names any slot, going through the live view when slot is active.
func (t *Tracker) RenameSlot(slot int, name string) error {
	if !model.ValidSlot(slot) {
		return ErrInvalidSlot
	}
	if slot == t.ActiveSlot() {
		return t.RenameSaveSlot(name)
	}
	if err := t.store.RenameSlot(slot, name); err != nil {
		return err
	}
	t.store.Notify(t.origin)
	return nil
}
