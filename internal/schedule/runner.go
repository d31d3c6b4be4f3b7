// Package schedule runs reconcile passes on a cron schedule and on demand,
// never more than one at a time, and keeps the status of the last pass.
package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	apperrors "notioncal/internal/errors"
	appLog "notioncal/internal/log"
	"notioncal/internal/model"
	"notioncal/internal/reconcile"
)

const DefaultPassTimeout = 5 * time.Minute

// Syncer is the part of reconcile.Reconciler the runner drives.
type Syncer interface {
	Sync(ctx context.Context) (*reconcile.Result, error)
	SetOptions(opts reconcile.Options)
}

// Status is a snapshot of the runner.
type Status struct {
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"next_run,omitzero"`
	Running  bool      `json:"running"`

	PassID     string    `json:"pass_id,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`

	LastResult *reconcile.Result `json:"last_result,omitempty"`
	LastError  string            `json:"last_error,omitempty"`

	ConsecutiveFailures int `json:"consecutive_failures"`
	TotalPasses         int `json:"total_passes"`
}

// Runner owns the cron scheduler and the no-overlap guard.
type Runner struct {
	syncer   Syncer
	schedule string
	timeout  time.Duration

	cron  *cron.Cron
	entry cron.EntryID

	// running is the guard; cron's SkipIfStillRunning only covers
	// scheduled runs, not Trigger.
	running atomic.Bool
	// passes tracks Trigger calls in flight, scheduled or manual.
	passes sync.WaitGroup

	mu      sync.RWMutex
	base    context.Context
	status  Status
	desired []model.TargetEvent
}

// New creates a Runner. schedule is a five-field cron spec or a descriptor
// such as "@every 45s"; timeout <= 0 selects DefaultPassTimeout.
func New(s Syncer, schedule string, timeout time.Duration) (*Runner, error) {
	if timeout <= 0 {
		timeout = DefaultPassTimeout
	}
	logger := appLog.CronLogger()
	r := &Runner{
		syncer:   s,
		schedule: schedule,
		timeout:  timeout,
		base:     context.Background(),
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
	id, err := r.cron.AddFunc(schedule, r.scheduled)
	if err != nil {
		return nil, apperrors.NewConfigError("sync.schedule", err.Error())
	}
	r.entry = id
	r.status.Schedule = schedule
	return r, nil
}

// Start begins scheduled passes. Values from ctx (not its cancellation)
// flow into every scheduled pass.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	r.base = ctx
	r.mu.Unlock()
	r.cron.Start()
	appLog.Info("scheduler started", "schedule", r.schedule, "pass_timeout", r.timeout)
}

// Stop stops scheduling and waits for a running pass to finish, whether
// cron or Trigger started it.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
	r.passes.Wait()
	appLog.Info("scheduler stopped")
}

func (r *Runner) scheduled() {
	r.mu.RLock()
	ctx := r.base
	r.mu.RUnlock()

	if _, err := r.Trigger(ctx); apperrors.Is(err, apperrors.ErrPassInProgress) {
		appLog.Debug("scheduled pass skipped; previous pass still running")
	}
}

// Trigger runs a pass now and waits for it. It returns ErrPassInProgress
// without running anything if another pass is active. The pass is not
// cancelled with ctx; it is bounded by the pass timeout instead, so a
// client going away or a shutdown signal never leaves a half-applied pass.
func (r *Runner) Trigger(ctx context.Context) (*reconcile.Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, apperrors.ErrPassInProgress
	}
	r.passes.Add(1)
	defer r.passes.Done()
	defer r.running.Store(false)

	passID := uuid.NewString()
	started := time.Now()

	r.mu.Lock()
	r.status.PassID = passID
	r.status.StartedAt = started
	r.status.FinishedAt = time.Time{}
	r.mu.Unlock()

	passCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	appLog.Debug("sync pass started", "pass_id", passID)
	res, err := r.syncer.Sync(passCtx)
	if res != nil {
		res.PassID = passID
	}
	took := time.Since(started)

	r.mu.Lock()
	r.status.FinishedAt = time.Now()
	r.status.TotalPasses++
	r.status.LastResult = res
	if res != nil && res.Desired != nil {
		r.desired = res.Desired
	}
	if err != nil {
		r.status.LastError = err.Error()
		r.status.ConsecutiveFailures++
	} else {
		r.status.LastError = ""
		r.status.ConsecutiveFailures = 0
	}
	failures := r.status.ConsecutiveFailures
	r.mu.Unlock()

	if err != nil {
		appLog.Error("sync pass failed", err, "pass_id", passID, "took", took, "consecutive_failures", failures)
		return res, err
	}
	appLog.Info("sync pass finished",
		"pass_id", passID,
		"created", res.Created,
		"updated", res.Updated,
		"deleted", res.Deleted,
		"unchanged", res.Unchanged,
		"skipped", res.Skipped,
		"dry_run", res.DryRun,
		"took", took,
	)
	return res, nil
}

// Status returns a snapshot of the runner state.
func (r *Runner) Status() Status {
	r.mu.RLock()
	st := r.status
	r.mu.RUnlock()
	st.Running = r.running.Load()
	st.NextRun = r.cron.Entry(r.entry).Next
	return st
}

// Desired returns the events implied by the records of the last pass that
// got past fetching them.
func (r *Runner) Desired() []model.TargetEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.desired
}

// SetOptions forwards new reconcile options; they apply from the next pass.
func (r *Runner) SetOptions(opts reconcile.Options) {
	r.syncer.SetOptions(opts)
}
