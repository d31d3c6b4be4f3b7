// Package reconcile implements the one-way sync pass from source records to
// calendar events.
//
// A pass fetches the records and the events, then walks the events: an event
// whose description names a fetched record is updated if it drifted from the
// record, any other event is an orphan and handled per OrphanPolicy. Records
// left without an event are inserted. A pass stops at the first store error;
// the next pass re-fetches everything, so an interrupted pass heals itself.
package reconcile

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	apperrors "notioncal/internal/errors"
	appLog "notioncal/internal/log"
	"notioncal/internal/model"
)

// RecordSource yields the current source records keyed by id.
type RecordSource interface {
	Records(ctx context.Context, q model.RecordQuery) (map[string]model.SourceRecord, error)
}

// EventStore is the calendar side of a pass.
type EventStore interface {
	Events(ctx context.Context) ([]model.TargetEvent, error)
	Insert(ctx context.Context, ev model.TargetEvent) (model.TargetEvent, error)
	Update(ctx context.Context, ev model.TargetEvent) error
	Delete(ctx context.Context, id string) error
}

// Options tune a pass. They can be swapped between passes.
type Options struct {
	Query        model.RecordQuery
	Presentation Presentation
	Orphans      OrphanPolicy
	// DryRun computes and logs actions without touching the calendar.
	DryRun bool
}

// DefaultOptions returns marker presentation and delete-all orphan handling.
func DefaultOptions() Options {
	return Options{
		Presentation: DefaultPresentation(),
		Orphans:      OrphansDelete,
	}
}

// ActionKind names what a pass did (or, in a dry run, would do) to an event.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
	ActionDelete ActionKind = "delete"
	ActionSkip   ActionKind = "skip"
)

// Action is one decision of a pass.
type Action struct {
	Kind     ActionKind `json:"kind"`
	EventID  string     `json:"event_id,omitempty"`
	RecordID string     `json:"record_id,omitempty"`
	Title    string     `json:"title"`
}

// Result summarises a pass. On error it holds what happened up to the
// failing item.
type Result struct {
	PassID string `json:"pass_id,omitempty"`
	DryRun bool   `json:"dry_run"`

	Records   int `json:"records"`
	Events    int `json:"events"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Deleted   int `json:"deleted"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`

	Actions []Action `json:"actions"`

	// Desired is every event implied by the fetched records, in
	// description order.
	Desired []model.TargetEvent `json:"-"`
}

// Mutations is the number of store writes the pass issued or planned.
func (r *Result) Mutations() int {
	return r.Created + r.Updated + r.Deleted
}

// Reconciler runs sync passes between a RecordSource and an EventStore.
type Reconciler struct {
	records RecordSource
	events  EventStore

	mu   sync.RWMutex
	opts Options
}

// New creates a Reconciler.
func New(records RecordSource, events EventStore, opts Options) *Reconciler {
	return &Reconciler{records: records, events: events, opts: opts}
}

// Options returns the options used by the next pass.
func (r *Reconciler) Options() Options {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts
}

// SetOptions replaces the options. A pass already running keeps the old ones.
func (r *Reconciler) SetOptions(opts Options) {
	r.mu.Lock()
	r.opts = opts
	r.mu.Unlock()
}

// Sync runs one pass. Errors are *errors.SyncError naming the failing stage.
func (r *Reconciler) Sync(ctx context.Context) (*Result, error) {
	opts := r.Options()
	res := &Result{DryRun: opts.DryRun, Actions: []Action{}}

	records, err := r.records.Records(ctx, opts.Query)
	if err != nil {
		return res, &apperrors.SyncError{Stage: apperrors.StageFetchRecords, Err: err}
	}
	res.Records = len(records)
	res.Desired = desired(records, opts.Presentation)

	events, err := r.events.Events(ctx)
	if err != nil {
		return res, &apperrors.SyncError{Stage: apperrors.StageFetchEvents, Err: err}
	}
	res.Events = len(events)

	// pending shrinks as events claim their records; whatever is left has
	// no event yet.
	pending := maps.Clone(records)

	for _, ev := range events {
		rec, ok := pending[ev.Description]
		if !ok {
			if !opts.Orphans.deletes(ev) {
				res.Skipped++
				res.Actions = append(res.Actions, Action{Kind: ActionSkip, EventID: ev.ID, Title: ev.Title})
				continue
			}
			if err := r.apply(ctx, opts, res, Action{Kind: ActionDelete, EventID: ev.ID, RecordID: ev.Description, Title: ev.Title}, ev); err != nil {
				return res, err
			}
			res.Deleted++
			continue
		}

		wanted := BuildEvent(rec, opts.Presentation)
		wanted.ID = ev.ID
		if Equal(wanted, ev) {
			res.Unchanged++
		} else {
			if err := r.apply(ctx, opts, res, Action{Kind: ActionUpdate, EventID: ev.ID, RecordID: rec.ID, Title: wanted.Title}, wanted); err != nil {
				return res, err
			}
			res.Updated++
		}
		delete(pending, ev.Description)
	}

	for _, id := range slices.Sorted(maps.Keys(pending)) {
		wanted := BuildEvent(pending[id], opts.Presentation)
		if err := r.apply(ctx, opts, res, Action{Kind: ActionCreate, RecordID: id, Title: wanted.Title}, wanted); err != nil {
			return res, err
		}
		res.Created++
	}

	return res, nil
}

// apply performs a single mutation (unless dry run) and records it.
func (r *Reconciler) apply(ctx context.Context, opts Options, res *Result, a Action, ev model.TargetEvent) error {
	if !opts.DryRun {
		var (
			err   error
			stage apperrors.Stage
			id    = a.EventID
		)
		switch a.Kind {
		case ActionDelete:
			stage = apperrors.StageDelete
			err = r.events.Delete(ctx, ev.ID)
		case ActionUpdate:
			stage = apperrors.StageUpdate
			err = r.events.Update(ctx, ev)
		case ActionCreate:
			stage = apperrors.StageInsert
			id = a.RecordID
			var created model.TargetEvent
			created, err = r.events.Insert(ctx, ev)
			a.EventID = created.ID
		}
		if err != nil {
			return &apperrors.SyncError{Stage: stage, ID: id, Err: err}
		}
	}

	res.Actions = append(res.Actions, a)
	appLog.Info("sync "+string(a.Kind),
		"event_id", a.EventID,
		"record_id", a.RecordID,
		"title", a.Title,
		"dry_run", opts.DryRun,
	)
	return nil
}

func desired(records map[string]model.SourceRecord, p Presentation) []model.TargetEvent {
	out := make([]model.TargetEvent, 0, len(records))
	for _, rec := range records {
		out = append(out, BuildEvent(rec, p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Description < out[j].Description })
	return out
}
