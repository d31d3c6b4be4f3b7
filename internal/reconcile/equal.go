package reconcile

import (
	"notioncal/internal/model"
)

// Equal reports whether an existing event already matches the wanted one:
// identical title and description, and start/end either the same all-day
// date or the same instant to the millisecond. The two stores format
// offsets differently, so timed values are compared after parsing.
func Equal(a, b model.TargetEvent) bool {
	if a.Title != b.Title || a.Description != b.Description {
		return false
	}
	return sameTime(a.Start, b.Start) && sameTime(a.End, b.End)
}

func sameTime(a, b model.EventTime) bool {
	if a.AllDay() || b.AllDay() {
		return a.Date == b.Date
	}
	ta, errA := a.Instant()
	tb, errB := b.Instant()
	if errA != nil || errB != nil {
		return a.DateTime == b.DateTime
	}
	return ta.UnixMilli() == tb.UnixMilli()
}
