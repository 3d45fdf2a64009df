// Package runner performs scoreboard updates: once on demand or on a daily or
// hourly schedule.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/programme-lv/autoprogcomp/archive"
	"github.com/programme-lv/autoprogcomp/logger"
	"github.com/programme-lv/autoprogcomp/sheet"
)

var ErrRunInProgress = errors.New("a run is already in progress")

const stampLayout = "2006-01-02 15:04:05"

// Schedule picks the minute of every hour, or of one hour a day when Hour is not negative.
type Schedule struct {
	Hour   int
	Minute int
}

type Result struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Error      string    `json:"error,omitempty"`
}

type Runner struct {
	sheet    sheet.Sheet
	compute  sheet.ComputeFunc
	schedule Schedule
	loc      *time.Location

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	runMu  sync.Mutex
	lastMu sync.RWMutex
	last   *Result
}

func New(s sheet.Sheet, compute sheet.ComputeFunc, schedule Schedule, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{
		sheet:    s,
		compute:  compute,
		schedule: schedule,
		loc:      loc,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Run performs one update, waiting for a run in progress to finish first.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	return r.runLocked(ctx)
}

// TryRun is Run that fails with ErrRunInProgress instead of waiting.
func (r *Runner) TryRun(ctx context.Context) (Result, error) {
	if !r.runMu.TryLock() {
		return Result{}, ErrRunInProgress
	}
	defer r.runMu.Unlock()
	return r.runLocked(ctx)
}

// Last returns the result of the latest finished run.
func (r *Runner) Last() (Result, bool) {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()
	if r.last == nil {
		return Result{}, false
	}
	return *r.last, true
}

func (r *Runner) runLocked(ctx context.Context) (Result, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Result{}, fmt.Errorf("failed to generate run id: %w", err)
	}
	runID := id.String()
	ctx = logger.WithRunID(ctx, runID)
	ctx = archive.WithRunID(ctx, runID)

	res := Result{RunID: runID, StartedAt: r.now().In(r.loc)}
	err = r.update(ctx, res.StartedAt)
	res.FinishedAt = r.now().In(r.loc)
	if err != nil {
		res.Error = err.Error()
	}

	r.lastMu.Lock()
	r.last = &res
	r.lastMu.Unlock()
	return res, err
}

// update reads the grid, marks the sheet as updating and writes back either
// the results or the error.
func (r *Runner) update(ctx context.Context, started time.Time) error {
	log := logger.FromContext(ctx)
	stamp := started.Format(stampLayout)

	grid, err := r.sheet.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}
	if err := r.sheet.WriteStatus(ctx, fmt.Sprintf("Updating... (%s)", stamp)); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}

	out, err := sheet.ComputeResults(ctx, grid, r.compute)
	if err != nil {
		if werr := r.sheet.WriteStatus(ctx, fmt.Sprintf("ERROR (%s): %s", stamp, err)); werr != nil {
			log.Error().Err(werr).Msg("failed to write error status")
		}
		return err
	}

	if err := r.sheet.WriteResults(ctx, out); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	msg := "Updated at " + stamp
	if err := r.sheet.WriteStatus(ctx, msg); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	log.Info().Int("rows", len(out)).Msg(msg)
	return nil
}

// NextRun returns the first scheduled time strictly after now.
func NextRun(now time.Time, s Schedule) time.Time {
	hour := max(s.Hour, 0)
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, s.Minute, 0, 0, now.Location())
	for !next.After(now) {
		if s.Hour < 0 {
			next = next.Add(time.Hour)
		} else {
			next = next.AddDate(0, 0, 1)
		}
	}
	return next
}

// Loop runs updates on the schedule until ctx is cancelled. Failed runs are
// logged and retried at the next slot.
func (r *Runner) Loop(ctx context.Context) error {
	log := logger.FromContext(ctx)
	for {
		if _, err := r.Run(ctx); err != nil {
			log.Error().Err(err).Msg("run failed, skipping this update")
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		now := r.now().In(r.loc)
		next := NextRun(now, r.schedule)
		log.Info().Time("next_run", next).Dur("sleep", next.Sub(now)).Msg("waiting for next run")
		if err := r.sleep(ctx, next.Sub(now)); err != nil {
			return err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
