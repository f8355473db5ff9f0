package timeline

import (
	"sort"
	"time"

	"timelineview/internal/model"
)

// SelectEvents narrows the raw record list down to the events to display:
//
//  1. keep records whose start attribute is present and strictly after cutoff
//  2. sort descending by start date
//  3. truncate to limit when limit >= 0
//
// The input slice is never mutated; records lacking the start field are
// excluded rather than treated as errors.
func SelectEvents(records []model.Record, startField string, cutoff time.Time, limit int) []model.Record {
	selected := make([]model.Record, 0, len(records))
	for _, rec := range records {
		start, ok := rec.Date(startField)
		if !ok {
			continue
		}
		if start.After(cutoff) {
			selected = append(selected, rec)
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		si, _ := selected[i].Date(startField)
		sj, _ := selected[j].Date(startField)
		return si.After(sj)
	})

	if limit >= 0 && len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}
