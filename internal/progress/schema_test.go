package progress

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheLysdexicOne/pitkeeper/internal/model"
)

var epoch = time.Date(2025, 11, 2, 18, 30, 0, 0, time.UTC)

func TestMigrateSlotHeroSchema(t *testing.T) {
	raw := `{
		"heroProgress": {
			"version": 1,
			"lastUpdated": "2025-10-01T10:00:00Z",
			"heroes": [
				{"heroId": "char_default", "customIndex": 2, "levelCompletions": [{"levelId": 1, "difficulty": "base", "fastTier": 2}]},
				{"heroId": "char_shade"}
			]
		}
	}`
	data, migrated, err := MigrateSlot([]byte(raw), epoch)
	require.NoError(t, err)
	assert.True(t, migrated)

	assert.Equal(t, model.DifficultyBase, data.LastDifficulty)
	assert.Equal(t, model.FastTierNormal, data.LastTier)
	assert.Equal(t, epoch.UnixMilli(), data.LastModified)

	want := []model.CharacterProgress{
		{CharacterID: "char_default", CustomIndex: 2, LevelCompletions: []model.LevelCompletion{{LevelID: 1, Difficulty: model.DifficultyBase, FastTier: 2}}},
		{CharacterID: "char_shade", CustomIndex: 1, LevelCompletions: []model.LevelCompletion{}},
	}
	if diff := cmp.Diff(want, data.CharacterProgress.Characters); diff != "" {
		t.Fatalf("characters mismatch (-want +got):\n%s", diff)
	}
}

func TestMigrateSlotIsIdempotent(t *testing.T) {
	raw := `{"heroProgress": {"heroes": [{"heroId": "char_x", "customIndex": 0, "levelCompletions": []}]}, "lastTier": 4}`
	first, migrated, err := MigrateSlot([]byte(raw), epoch)
	require.NoError(t, err)
	require.True(t, migrated)
	assert.Equal(t, model.FastTier(4), first.LastTier)

	encoded, err := json.Marshal(first)
	require.NoError(t, err)
	second, migrated, err := MigrateSlot(encoded, epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, migrated)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("second pass changed data (-first +second):\n%s", diff)
	}
}

func TestMigrateSlotCurrentSchemaUntouched(t *testing.T) {
	raw := `{
		"characterProgress": {"version": 1, "lastUpdated": "2025-10-01T10:00:00Z", "characters": [{"characterId": "char_default", "customIndex": 0, "levelCompletions": []}]},
		"lastDifficulty": "ng-plus-2",
		"lastTier": 3,
		"lastModified": 1700000000000,
		"name": "Speedruns"
	}`
	data, migrated, err := MigrateSlot([]byte(raw), epoch)
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, model.DifficultyNGPlus2, data.LastDifficulty)
	assert.Equal(t, model.FastTier(3), data.LastTier)
	assert.Equal(t, int64(1700000000000), data.LastModified)
	assert.Equal(t, "Speedruns", data.Name)
}

func TestMigrateSlotFillsMissingFields(t *testing.T) {
	data, migrated, err := MigrateSlot([]byte(`{"characterProgress": {"characters": [{"characterId": "char_default", "customIndex": 0}]}}`), epoch)
	require.NoError(t, err)
	assert.True(t, migrated)
	assert.Equal(t, CurrentVersion, data.CharacterProgress.Version)
	assert.True(t, data.CharacterProgress.LastUpdated.Equal(epoch))
	require.Len(t, data.CharacterProgress.Characters, 1)
	assert.NotNil(t, data.CharacterProgress.Characters[0].LevelCompletions)
}

func TestMigrateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{`not json`, `[]`, `"text"`, `{"characterProgress": "oops"}`} {
		_, _, err := MigrateSlot([]byte(raw), epoch)
		assert.Error(t, err, raw)
	}
	_, err := MigrateProgress([]byte(`42`), epoch)
	assert.ErrorIs(t, err, errNotObject)
}

func TestMigrateProgressHeroes(t *testing.T) {
	p, err := MigrateProgress([]byte(`{"heroes":[{"heroId":"char_x","customIndex":0,"levelCompletions":[]}]}`), epoch)
	require.NoError(t, err)
	require.Len(t, p.Characters, 1)
	assert.Equal(t, "char_x", p.Characters[0].CharacterID)
	assert.Equal(t, CurrentVersion, p.Version)
}

func TestStepsReportNoChangeOnCurrentDocuments(t *testing.T) {
	doc := document{
		"version":     float64(1),
		"lastUpdated": epoch.Format(time.RFC3339Nano),
		"characters":  []any{document{"characterId": "a", "customIndex": float64(0), "levelCompletions": []any{}}},
	}
	for _, s := range progressSteps {
		assert.False(t, s.apply(doc, epoch), s.name)
	}
}
