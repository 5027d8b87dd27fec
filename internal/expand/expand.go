// Package expand materializes calendar events into concrete occurrences
// inside a sync window. Recurring series are expanded day by day through
// their recurrence pattern, with recorded exceptions replacing the
// pattern-generated instance for their original date.
package expand

import (
	"sort"
	"time"

	"calsync/internal/model"
)

const dateKey = "2006-01-02"

// Expand returns the concrete occurrences of ev that belong to the
// window. A non-recurring event yields exactly itself, unchanged; window
// bounding for single items is the provider filter's job, not ours.
//
// For a recurring series, every calendar date from the window start date
// through the window end date inclusive is tried against the pattern at
// the series' time of day. Dates with no valid occurrence are skipped
// silently. Exceptions use replace semantics: a deleted exception
// suppresses its date, a modified one contributes its replacement
// appointment instead of the pattern-generated instance (when the
// replacement start falls inside the window).
func Expand(ev *model.CalendarEvent, w model.Window) []model.Occurrence {
	if !ev.IsRecurring || ev.Pattern == nil {
		return []model.Occurrence{{
			Subject: ev.Subject,
			Start:   ev.Start,
			End:     ev.End,
		}}
	}
	return expandSeries(ev, w)
}

func expandSeries(ev *model.CalendarEvent, w model.Window) []model.Occurrence {
	loc := ev.Start.Location()
	hour, min, sec := ev.Start.Clock()

	exceptions := ev.Pattern.Exceptions()
	byDate := make(map[string]model.Exception, len(exceptions))
	for _, ex := range exceptions {
		byDate[ex.OriginalDate.In(loc).Format(dateKey)] = ex
	}

	out := make([]model.Occurrence, 0)
	first := dateOnly(w.Start.In(loc))
	last := dateOnly(w.End.In(loc))

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		key := d.Format(dateKey)
		if ex, ok := byDate[key]; ok {
			delete(byDate, key)
			if occ, ok := exceptionOccurrence(ex, w); ok {
				out = append(out, occ)
			}
			continue
		}
		at := time.Date(d.Year(), d.Month(), d.Day(), hour, min, sec, 0, loc)
		if occ, ok := ev.Pattern.OccurrenceAt(at); ok {
			out = append(out, occ)
		}
	}

	// Exceptions whose original date lies outside the window can still
	// contribute a replacement that was moved into it.
	for _, ex := range byDate {
		if occ, ok := exceptionOccurrence(ex, w); ok {
			out = append(out, occ)
		}
	}

	return out
}

func exceptionOccurrence(ex model.Exception, w model.Window) (model.Occurrence, bool) {
	if ex.Deleted || ex.Replacement == nil {
		return model.Occurrence{}, false
	}
	if !w.Contains(ex.Replacement.Start) {
		return model.Occurrence{}, false
	}
	return model.Occurrence{
		Subject: ex.Replacement.Subject,
		Start:   ex.Replacement.Start,
		End:     ex.Replacement.End,
	}, true
}

// SortOccurrences orders occurrences by start ascending so run logs come
// out deterministic and readable.
func SortOccurrences(occs []model.Occurrence) {
	sort.Slice(occs, func(i, j int) bool {
		return occs[i].Start.Before(occs[j].Start)
	})
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
