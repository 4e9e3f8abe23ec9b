package retention

import (
	"context"
	"log/slog"
	"time"

	"seleniumrobot/infoserver/pkg/elementinfo"
)

// DefaultWindow is how long an element survives without being updated.
const DefaultWindow = 30 * 24 * time.Hour

// Expired returns the ids of records whose LastUpdate is strictly before
// now minus window. A record updated exactly at the cutoff is kept.
func Expired(now time.Time, window time.Duration, records []elementinfo.Element) []int64 {
	cutoff := now.Add(-window)

	var ids []int64
	for i := range records {
		if records[i].LastUpdate.Before(cutoff) {
			ids = append(ids, records[i].ID)
		}
	}
	return ids
}

// SweepResult summarizes one sweep.
type SweepResult struct {
	Scanned int
	Deleted int
	Failed  int
}

// Observer receives the outcome of every sweep.
type Observer interface {
	ObserveSweep(result SweepResult, duration time.Duration)
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithClock sets the clock used to compute the cutoff.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		s.now = now
	}
}

// WithObserver reports sweep results, typically to metrics.
func WithObserver(o Observer) Option {
	return func(s *Sweeper) {
		s.observer = o
	}
}

// Sweeper deletes element records that outlived the retention window.
//
// A sweep scans every stored element, whatever application or version the
// triggering request asked for, so one list request cleans the whole store.
// It holds no lock across the scan: an element updated by another request
// after the scan started may still be deleted.
type Sweeper struct {
	store    elementinfo.Store
	window   time.Duration
	now      func() time.Time
	observer Observer
	logger   *slog.Logger
}

// NewSweeper creates a sweeper over store. A non-positive window uses DefaultWindow.
func NewSweeper(store elementinfo.Store, window time.Duration, opts ...Option) *Sweeper {
	if window <= 0 {
		window = DefaultWindow
	}
	s := &Sweeper{
		store:  store,
		window: window,
		now:    time.Now,
		logger: slog.Default().With("component", "elementinfo.retention"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Window returns the retention window.
func (s *Sweeper) Window() time.Duration {
	return s.window
}

// Sweep deletes every expired element. A failed delete is logged and
// counted and the sweep moves on. The returned error is only set when the
// records could not be listed or ctx was cancelled; the result then
// reflects the deletions already made.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	var result SweepResult
	defer func() {
		if s.observer != nil {
			s.observer.ObserveSweep(result, time.Since(start))
		}
	}()

	records, err := s.store.List(ctx, elementinfo.Query{})
	if err != nil {
		s.logger.Error("Failed to list element infos for sweep", "error", err)
		return result, err
	}
	result.Scanned = len(records)

	expired := Expired(s.now(), s.window, records)
	for _, id := range expired {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("Sweep interrupted",
				"deleted", result.Deleted,
				"remaining", len(expired)-result.Deleted-result.Failed,
			)
			return result, err
		}

		if err := s.store.Delete(ctx, id); err != nil {
			result.Failed++
			s.logger.Warn("Failed to delete expired element info",
				"id", id,
				"error", err,
			)
			continue
		}
		result.Deleted++
	}

	if result.Deleted > 0 || result.Failed > 0 {
		s.logger.Info("Element info sweep completed",
			"scanned", result.Scanned,
			"deleted", result.Deleted,
			"failed", result.Failed,
			"window", s.window.String(),
		)
	}

	return result, nil
}
