package reconcile

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"notioncal/internal/model"
)

// DoneStyle selects how a finished record is presented in its event title.
type DoneStyle string

const (
	// DoneMarker prefixes every title with the done or the todo marker.
	DoneMarker DoneStyle = "marker"
	// DoneStrikethrough strikes through the titles of done records and
	// leaves the others untouched.
	DoneStrikethrough DoneStyle = "strikethrough"
)

// Presentation controls how titles are derived from records.
type Presentation struct {
	Style DoneStyle
	// DoneStatus is the status value that counts as done.
	DoneStatus string
	DoneMarker string
	TodoMarker string
}

// DefaultPresentation returns the marker style with ✅ / ⬜.
func DefaultPresentation() Presentation {
	return Presentation{
		Style:      DoneMarker,
		DoneStatus: "Done",
		DoneMarker: "✅",
		TodoMarker: "⬜",
	}
}

// BuildEvent derives the event that should represent rec. The result has
// no ID; Description is always rec.ID.
func BuildEvent(rec model.SourceRecord, p Presentation) model.TargetEvent {
	ev := model.TargetEvent{
		Title:       title(rec, p),
		Description: rec.ID,
	}
	if rec.Date != nil {
		var t model.EventTime
		if len(*rec.Date) == len("2006-01-02") {
			t.Date = *rec.Date
		} else {
			t.DateTime = *rec.Date
			if rec.TimeZone != nil {
				t.TimeZone = *rec.TimeZone
			}
		}
		ev.Start, ev.End = t, t
	}
	return ev
}

func title(rec model.SourceRecord, p Presentation) string {
	var t string
	switch {
	case rec.Name == nil:
		t = ""
	case rec.Course == nil:
		t = *rec.Name
	default:
		t = "[" + *rec.Course + "] " + *rec.Name
	}

	done := rec.Status != nil && *rec.Status == p.DoneStatus
	if p.Style == DoneStrikethrough {
		if done {
			return strikethrough(t)
		}
		return t
	}
	marker := p.TodoMarker
	if done {
		marker = p.DoneMarker
	}
	if marker == "" {
		return t
	}
	return marker + " " + t
}

// strikethrough appends U+0336 COMBINING LONG STROKE OVERLAY to every rune
// of the NFC form of s.
func strikethrough(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s) * 3)
	for _, r := range s {
		b.WriteRune(r)
		b.WriteRune('\u0336')
	}
	return b.String()
}
