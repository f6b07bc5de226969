package summary

import (
	"fmt"
	"strconv"
	"time"

	"github.com/TheLysdexicOne/pitkeeper/internal/model"
)

// SlotHeaders names the columns of SlotFields.
var SlotHeaders = []string{"Slot", "Name", "Difficulty", "Tier", "Levels", "Modified"}

// SlotFields formats one slot for listing. The active slot's number is
// marked with "*".
func SlotFields(info model.SlotInfo) []string {
	data := info.Data
	rep := BuildReport(data.CharacterProgress.Characters, nil, data.LastDifficulty, data.LastTier)
	label := strconv.Itoa(info.Slot)
	if info.Active {
		label += "*"
	}
	modified := "-"
	if data.LastModified > 0 {
		modified = time.UnixMilli(data.LastModified).Local().Format("2006-01-02 15:04")
	}
	return []string{
		label,
		data.DisplayName(info.Slot),
		data.LastDifficulty.Label(),
		data.LastTier.Label(),
		fmt.Sprintf("%d/%d", rep.Completed(), rep.Total()),
		modified,
	}
}
