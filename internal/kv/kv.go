// Package kv provides the string key-value storage behind save slots.
package kv

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Storage keys shared with the browser companion's localStorage layout.
const (
	LegacyProgressKey   = "ball-x-pit-progress"
	LegacyDifficultyKey = "currentDifficulty"
	LegacyFastTierKey   = "currentFastTier"
	ActiveSlotKey       = "ball-x-pit-active-slot"
	saveSlotKeyFormat   = "ball-x-pit-save-%d"
)

// ErrUnavailable reports that the backend cannot serve requests.
var ErrUnavailable = errors.New("storage unavailable")

// SaveSlotKey returns the storage key for a save slot.
func SaveSlotKey(slot int) string {
	return fmt.Sprintf(saveSlotKeyFormat, slot)
}

// KnownKeys lists every key pitkeeper reads or writes.
func KnownKeys() []string {
	return []string{
		LegacyProgressKey,
		LegacyDifficultyKey,
		LegacyFastTierKey,
		ActiveSlotKey,
		SaveSlotKey(1),
		SaveSlotKey(2),
		SaveSlotKey(3),
	}
}

// Storage is a flat string-to-string table without transactions.
type Storage interface {
	// Get returns the value and whether the key exists.
	Get(key string) (string, bool, error)
	// Set creates or overwrites a key.
	Set(key, value string) error
	// Remove deletes a key. Removing a missing key is not an error.
	Remove(key string) error
}

// Memory is an in-process Storage.
type Memory struct {
	mu   sync.Mutex
	data map[string]string
	fail error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

// Fail makes every subsequent call return err; nil restores normal operation.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Get implements Storage.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return "", false, m.fail
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set implements Storage.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[key] = value
	return nil
}

// Remove implements Storage.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	delete(m.data, key)
	return nil
}

// Keys returns the stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
