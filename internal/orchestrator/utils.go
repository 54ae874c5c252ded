package orchestrator

import (
	"github.com/Yates-Labs/auditbot/internal/dataset"
)

// selectRecords returns the records matching ids in id order. Unknown and
// repeated ids are skipped; for duplicate record ids the first record wins.
func selectRecords(records []dataset.Record, ids []string) []dataset.Record {
	byID := make(map[string]int, len(records))
	for i, r := range records {
		if _, seen := byID[r.ID]; !seen {
			byID[r.ID] = i
		}
	}

	used := make(map[string]bool, len(ids))
	out := make([]dataset.Record, 0, len(ids))
	for _, id := range ids {
		i, ok := byID[id]
		if !ok || used[id] {
			continue
		}
		used[id] = true
		out = append(out, records[i])
	}
	return out
}

// truncateRunes cuts s to at most max runes. max <= 0 keeps s whole.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
