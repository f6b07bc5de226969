package summary

import "sort"

// TopCharacters returns up to n character ids with the most completed
// levels. Ties go to the character listed first in the report.
func TopCharacters(report Report, n int) []string {
	if n <= 0 || len(report.Characters) == 0 {
		return nil
	}
	rows := append([]CharacterSummary(nil), report.Characters...)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Completed > rows[j].Completed
	})
	if n > len(rows) {
		n = len(rows)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, rows[i].ID)
	}
	return out
}
