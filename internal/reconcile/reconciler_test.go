package reconcile

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "notioncal/internal/errors"
	"notioncal/internal/model"
)

type fakeRecords struct {
	recs  map[string]model.SourceRecord
	err   error
	query model.RecordQuery
}

func (f *fakeRecords) Records(_ context.Context, q model.RecordQuery) (map[string]model.SourceRecord, error) {
	f.query = q
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]model.SourceRecord, len(f.recs))
	for k, v := range f.recs {
		out[k] = v
	}
	return out, nil
}

// fakeCalendar keeps events in insertion order and logs every call.
type fakeCalendar struct {
	events  []model.TargetEvent
	calls   []string
	nextID  int
	failOn  string
	listErr error
}

func (f *fakeCalendar) Events(context.Context) ([]model.TargetEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.TargetEvent(nil), f.events...), nil
}

func (f *fakeCalendar) Insert(_ context.Context, ev model.TargetEvent) (model.TargetEvent, error) {
	f.calls = append(f.calls, "insert "+ev.Description)
	if f.failOn == "insert" {
		return model.TargetEvent{}, errors.New("insert failed")
	}
	f.nextID++
	ev.ID = fmt.Sprintf("evt-%d", f.nextID)
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeCalendar) Update(_ context.Context, ev model.TargetEvent) error {
	f.calls = append(f.calls, "update "+ev.ID)
	if f.failOn == "update" {
		return errors.New("update failed")
	}
	for i := range f.events {
		if f.events[i].ID == ev.ID {
			f.events[i] = ev
		}
	}
	return nil
}

func (f *fakeCalendar) Delete(_ context.Context, id string) error {
	f.calls = append(f.calls, "delete "+id)
	if f.failOn == "delete" {
		return errors.New("delete failed")
	}
	for i := range f.events {
		if f.events[i].ID == id {
			f.events = append(f.events[:i], f.events[i+1:]...)
			break
		}
	}
	return nil
}

func rec(id, name, course, date, status string) model.SourceRecord {
	return model.SourceRecord{
		ID:     id,
		Name:   model.Str(name),
		Course: model.Str(course),
		Date:   model.Str(date),
		Status: model.Str(status),
	}
}

func allDay(id, title, desc, date string) model.TargetEvent {
	t := model.EventTime{Date: date}
	return model.TargetEvent{ID: id, Title: title, Description: desc, Start: t, End: t}
}

func TestSyncIsIdempotent(t *testing.T) {
	records := &fakeRecords{recs: map[string]model.SourceRecord{
		"r1": rec("r1", "HW1", "CS101", "2024-03-01", "Done"),
		"r2": rec("r2", "Essay", "", "2024-03-05T10:00:00.000+09:00", "Not started"),
		"r3": rec("r3", "Quiz", "MATH", "2024-03-09", ""),
	}}
	cal := &fakeCalendar{events: []model.TargetEvent{
		allDay("stale", "⬜ Old", "r-gone", "2024-01-01"),
		allDay("e1", "⬜ [CS101] HW1", "r1", "2024-02-28"),
	}}
	r := New(records, cal, DefaultOptions())

	first, err := r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Deleted)
	assert.Equal(t, 1, first.Updated)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 4, first.Mutations())
	assert.Equal(t, []string{"delete stale", "update e1", "insert r2", "insert r3"}, cal.calls)

	cal.calls = nil
	second, err := r.Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cal.calls)
	assert.Equal(t, 0, second.Mutations())
	assert.Equal(t, 3, second.Unchanged)
}

func TestSyncRoundTrip(t *testing.T) {
	records := &fakeRecords{recs: map[string]model.SourceRecord{
		"abc": rec("abc", "HW1", "CS101", "2024-03-01", "Done"),
	}}
	cal := &fakeCalendar{}

	_, err := New(records, cal, DefaultOptions()).Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, cal.events, 1)

	got := cal.events[0]
	got.ID = ""
	assert.Equal(t, model.TargetEvent{
		Title:       "✅ [CS101] HW1",
		Description: "abc",
		Start:       model.EventTime{Date: "2024-03-01"},
		End:         model.EventTime{Date: "2024-03-01"},
	}, got)
}

func TestSyncDeletesOrphanOnce(t *testing.T) {
	records := &fakeRecords{recs: map[string]model.SourceRecord{}}
	cal := &fakeCalendar{events: []model.TargetEvent{allDay("e-xyz", "⬜ Gone", "xyz", "2024-03-01")}}

	res, err := New(records, cal, DefaultOptions()).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"delete e-xyz"}, cal.calls)
	assert.Equal(t, 1, res.Deleted)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, Action{Kind: ActionDelete, EventID: "e-xyz", RecordID: "xyz", Title: "⬜ Gone"}, res.Actions[0])
}

func TestSyncSuppressesEqualUpdate(t *testing.T) {
	records := &fakeRecords{recs: map[string]model.SourceRecord{
		"r1": rec("r1", "Lab", "", "2024-03-05T10:00:00.000+09:00", ""),
	}}
	// Same instant, formatted the way Google returns it.
	ts := model.EventTime{DateTime: "2024-03-05T01:00:00Z"}
	cal := &fakeCalendar{events: []model.TargetEvent{{ID: "e1", Title: "⬜ Lab", Description: "r1", Start: ts, End: ts}}}

	res, err := New(records, cal, DefaultOptions()).Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cal.calls)
	assert.Equal(t, 1, res.Unchanged)
}

func TestSyncDuplicateEventIsOrphaned(t *testing.T) {
	records := &fakeRecords{recs: map[string]model.SourceRecord{
		"r1": rec("r1", "HW", "", "2024-03-01", ""),
	}}
	cal := &fakeCalendar{events: []model.TargetEvent{
		allDay("e1", "⬜ HW", "r1", "2024-03-01"),
		allDay("e2", "⬜ HW", "r1", "2024-03-01"),
	}}

	_, err := New(records, cal, DefaultOptions()).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"delete e2"}, cal.calls)
}

func TestSyncOrphanPolicies(t *testing.T) {
	pageID := "5c6a28216a4f4b0aa3f6b4d7f6e2a111"
	events := func() []model.TargetEvent {
		return []model.TargetEvent{
			allDay("managed", "⬜ Old task", pageID, "2024-03-01"),
			allDay("dentist", "Dentist", "bring insurance card", "2024-03-02"),
		}
	}

	tests := []struct {
		policy OrphanPolicy
		calls  []string
		skip   int
	}{
		{OrphansDelete, []string{"delete managed", "delete dentist"}, 0},
		{OrphansManaged, []string{"delete managed"}, 1},
		{OrphansKeep, nil, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			cal := &fakeCalendar{events: events()}
			opts := DefaultOptions()
			opts.Orphans = tt.policy

			res, err := New(&fakeRecords{}, cal, opts).Sync(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.calls, cal.calls)
			assert.Equal(t, tt.skip, res.Skipped)
		})
	}
}

func TestSyncDryRunIssuesNoMutations(t *testing.T) {
	records := &fakeRecords{recs: map[string]model.SourceRecord{
		"r1": rec("r1", "HW1", "", "2024-03-01", "Done"),
		"r2": rec("r2", "HW2", "", "2024-03-02", ""),
	}}
	cal := &fakeCalendar{events: []model.TargetEvent{
		allDay("e1", "⬜ HW1", "r1", "2024-03-01"),
		allDay("e9", "x", "orphan", "2024-03-01"),
	}}
	opts := DefaultOptions()
	opts.DryRun = true

	res, err := New(records, cal, opts).Sync(context.Background())
	require.NoError(t, err)
	assert.Empty(t, cal.calls)
	assert.True(t, res.DryRun)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Deleted)
	assert.Len(t, res.Actions, 3)
}

func TestSyncAbortsOnFirstError(t *testing.T) {
	records := &fakeRecords{recs: map[string]model.SourceRecord{
		"r1": rec("r1", "A", "", "2024-03-01", ""),
		"r2": rec("r2", "B", "", "2024-03-02", ""),
	}}
	cal := &fakeCalendar{failOn: "insert"}

	res, err := New(records, cal, DefaultOptions()).Sync(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"insert r1"}, cal.calls, "second insert is not attempted")
	assert.Equal(t, 0, res.Created)

	var se *apperrors.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.StageInsert, se.Stage)
	assert.Equal(t, "r1", se.ID)
}

func TestSyncFetchErrors(t *testing.T) {
	boom := errors.New("boom")

	_, err := New(&fakeRecords{err: boom}, &fakeCalendar{}, DefaultOptions()).Sync(context.Background())
	var se *apperrors.SyncError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.StageFetchRecords, se.Stage)
	assert.ErrorIs(t, err, boom)

	cal := &fakeCalendar{listErr: boom}
	_, err = New(&fakeRecords{recs: map[string]model.SourceRecord{"r": rec("r", "x", "", "2024-01-01", "")}}, cal, DefaultOptions()).Sync(context.Background())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, apperrors.StageFetchEvents, se.Stage)
	assert.Empty(t, cal.calls)
}

func TestSyncPassesQueryAndSwapsOptions(t *testing.T) {
	records := &fakeRecords{recs: map[string]model.SourceRecord{
		"r1": rec("r1", "HW1", "", "2024-03-01", "Done"),
	}}
	cal := &fakeCalendar{}
	opts := DefaultOptions()
	opts.Query.Categories = []string{"Assignment"}
	r := New(records, cal, opts)

	_, err := r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Assignment"}, records.query.Categories)

	next := r.Options()
	next.Presentation.Style = DoneStrikethrough
	r.SetOptions(next)

	cal.calls = nil
	res, err := r.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, "H\u0336W\u03361\u0336", cal.events[0].Title)
}

func TestResultDesiredIsSorted(t *testing.T) {
	records := &fakeRecords{recs: map[string]model.SourceRecord{
		"b": rec("b", "B", "", "2024-03-02", ""),
		"a": rec("a", "A", "", "2024-03-01", ""),
	}}
	opts := DefaultOptions()
	opts.DryRun = true
	res, err := New(records, &fakeCalendar{}, opts).Sync(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Desired, 2)
	assert.Equal(t, "a", res.Desired[0].Description)
	assert.Equal(t, "b", res.Desired[1].Description)
}
