package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notioncal/internal/model"
)

func TestBuildEventTitle(t *testing.T) {
	p := DefaultPresentation()
	tests := []struct {
		name string
		rec  model.SourceRecord
		want string
	}{
		{"done with course", rec("a", "HW1", "CS101", "2024-03-01", "Done"), "✅ [CS101] HW1"},
		{"todo without course", rec("a", "Read ch. 3", "", "2024-03-01", "In progress"), "⬜ Read ch. 3"},
		{"no status", rec("a", "Quiz", "MATH", "2024-03-01", ""), "⬜ [MATH] Quiz"},
		{"no name", rec("a", "", "CS101", "2024-03-01", "Done"), "✅ "},
		{"status is case sensitive", rec("a", "X", "", "2024-03-01", "done"), "⬜ X"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildEvent(tt.rec, p).Title)
		})
	}
}

func TestBuildEventEmptyMarker(t *testing.T) {
	p := DefaultPresentation()
	p.TodoMarker = ""

	assert.Equal(t, "[CS101] HW1", BuildEvent(rec("a", "HW1", "CS101", "2024-03-01", ""), p).Title)
	assert.Equal(t, "✅ [CS101] HW1", BuildEvent(rec("a", "HW1", "CS101", "2024-03-01", "Done"), p).Title)
}

func TestBuildEventStrikethrough(t *testing.T) {
	p := DefaultPresentation()
	p.Style = DoneStrikethrough

	done := BuildEvent(rec("a", "He\u0301", "", "2024-03-01", "Done"), p)
	// "e" + U+0301 normalises to a single rune before striking.
	assert.Equal(t, "H\u0336\u00e9\u0336", done.Title)

	todo := BuildEvent(rec("b", "Essay", "EN", "2024-03-01", ""), p)
	assert.Equal(t, "[EN] Essay", todo.Title)
}

func TestBuildEventDateShape(t *testing.T) {
	p := DefaultPresentation()

	ev := BuildEvent(rec("a", "x", "", "2024-03-01", ""), p)
	assert.Equal(t, model.EventTime{Date: "2024-03-01"}, ev.Start)
	assert.Equal(t, ev.Start, ev.End)
	assert.True(t, ev.Start.AllDay())
	assert.Equal(t, "a", ev.Description)
	assert.Empty(t, ev.ID)

	r := rec("b", "x", "", "2024-03-01T09:30:00.000+09:00", "")
	ev = BuildEvent(r, p)
	assert.Equal(t, model.EventTime{DateTime: "2024-03-01T09:30:00.000+09:00"}, ev.Start)
	assert.Equal(t, ev.Start, ev.End)

	r = rec("c", "x", "", "2024-03-01T09:30:00.000", "")
	r.TimeZone = model.Str("Asia/Seoul")
	ev = BuildEvent(r, p)
	assert.Equal(t, "Asia/Seoul", ev.Start.TimeZone)
	assert.False(t, ev.Start.AllDay())
}

func TestEqual(t *testing.T) {
	base := model.TargetEvent{
		ID:          "e1",
		Title:       "⬜ Lab",
		Description: "r1",
		Start:       model.EventTime{DateTime: "2024-03-05T10:00:00.000+09:00"},
		End:         model.EventTime{DateTime: "2024-03-05T10:00:00.000+09:00"},
	}
	other := func(mut func(*model.TargetEvent)) model.TargetEvent {
		ev := base
		mut(&ev)
		return ev
	}

	assert.True(t, Equal(base, base))
	assert.True(t, Equal(base, other(func(e *model.TargetEvent) {
		e.Start = model.EventTime{DateTime: "2024-03-05T01:00:00Z"}
		e.End = model.EventTime{DateTime: "2024-03-05T02:00:00+01:00"}
	})), "same instant in another offset")
	assert.True(t, Equal(base, other(func(e *model.TargetEvent) { e.ID = "e2" })), "ids are not compared")

	assert.False(t, Equal(base, other(func(e *model.TargetEvent) { e.Title = "✅ Lab" })))
	assert.False(t, Equal(base, other(func(e *model.TargetEvent) { e.Description = "r2" })))
	assert.False(t, Equal(base, other(func(e *model.TargetEvent) {
		e.End = model.EventTime{DateTime: "2024-03-05T01:00:01Z"}
	})))
	assert.False(t, Equal(base, other(func(e *model.TargetEvent) {
		e.Start = model.EventTime{Date: "2024-03-05"}
	})), "timed vs all-day")
}

func TestEqualLocalTimeInZone(t *testing.T) {
	a := model.EventTime{DateTime: "2024-03-05T10:00:00", TimeZone: "Asia/Seoul"}
	b := model.EventTime{DateTime: "2024-03-05T01:00:00Z"}
	assert.True(t, sameTime(a, b))

	a.TimeZone = ""
	assert.False(t, sameTime(a, b), "no zone reads as UTC")

	bad := model.EventTime{DateTime: "garbage"}
	assert.True(t, sameTime(bad, bad))
	assert.False(t, sameTime(bad, b))
}

func TestEqualAllDay(t *testing.T) {
	a := model.EventTime{Date: "2024-03-01"}
	assert.True(t, sameTime(a, model.EventTime{Date: "2024-03-01"}))
	assert.False(t, sameTime(a, model.EventTime{Date: "2024-03-02"}))
}

func TestParseOrphanPolicy(t *testing.T) {
	for in, want := range map[string]OrphanPolicy{
		"":        OrphansDelete,
		"delete":  OrphansDelete,
		"managed": OrphansManaged,
		"keep":    OrphansKeep,
	} {
		got, err := ParseOrphanPolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseOrphanPolicy("purge")
	assert.ErrorContains(t, err, "purge")
}

func TestParseDoneStyle(t *testing.T) {
	got, err := ParseDoneStyle("")
	require.NoError(t, err)
	assert.Equal(t, DoneMarker, got)

	got, err = ParseDoneStyle("strikethrough")
	require.NoError(t, err)
	assert.Equal(t, DoneStrikethrough, got)

	_, err = ParseDoneStyle("bold")
	assert.Error(t, err)
}

func TestLooksLikePageID(t *testing.T) {
	assert.True(t, looksLikePageID("5c6a2821-6a4f-4b0a-a3f6-b4d7f6e2a111"))
	assert.True(t, looksLikePageID("5c6a28216a4f4b0aa3f6b4d7f6e2a111"))
	assert.False(t, looksLikePageID("abc"))
	assert.False(t, looksLikePageID("{5c6a2821-6a4f-4b0a-a3f6-b4d7f6e2a111}"))
	assert.False(t, looksLikePageID("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"))
}
