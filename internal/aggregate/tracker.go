package aggregate

import (
	"context"
	"sync"
	"time"

	appLog "safetycal/internal/log"
	"safetycal/internal/model"
)

// Result is one applied aggregation pass.
type Result struct {
	Generation uint64                `json:"generation"`
	Events     []model.CalendarEvent `json:"events"`
	LoadedAt   time.Time             `json:"loaded_at"`
}

// Tracker owns the displayed month and the latest applied aggregation. Every
// Refresh gets a new generation; starting one cancels the previous in-flight
// load, and a load finishing after a newer one was issued is discarded.
type Tracker struct {
	agg *Aggregator
	now func() time.Time

	mu      sync.Mutex
	issued  uint64
	cancel  context.CancelFunc
	current Result
	month   model.Date
}

// NewTracker creates a Tracker. now may be nil.
func NewTracker(agg *Aggregator, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{agg: agg, now: now}
}

// Refresh runs a full aggregation. The returned bool reports whether this
// result was applied; when false, the returned Result is the one that
// remains current.
func (t *Tracker) Refresh(ctx context.Context) (Result, bool) {
	t.mu.Lock()
	t.issued++
	gen := t.issued
	if t.cancel != nil {
		t.cancel()
	}
	lctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	events := t.agg.Load(lctx)
	canceled := lctx.Err() != nil
	cancel()

	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.issued || canceled {
		appLog.Debug("discarding stale aggregation", "generation", gen, "latest", t.issued, "canceled", canceled)
		return t.current, false
	}

	t.cancel = nil
	t.current = Result{Generation: gen, Events: events, LoadedAt: t.now()}
	return t.current, true
}

// Navigate switches the displayed month and reloads everything.
func (t *Tracker) Navigate(ctx context.Context, month time.Time) (Result, bool) {
	t.mu.Lock()
	d := model.DateOf(month)
	t.month = model.Date{Year: d.Year, Month: d.Month, Day: 1}
	t.mu.Unlock()
	return t.Refresh(ctx)
}

// Month returns the displayed month (first day), or the current month if
// Navigate was never called.
func (t *Tracker) Month() model.Date {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.month.IsZero() {
		d := model.DateOf(t.now())
		return model.Date{Year: d.Year, Month: d.Month, Day: 1}
	}
	return t.month
}

// Current returns the last applied result; ok is false before the first one.
func (t *Tracker) Current() (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.current.Generation > 0
}

// Ensure returns the current result if it is younger than maxAge and
// refreshes otherwise.
func (t *Tracker) Ensure(ctx context.Context, maxAge time.Duration) Result {
	if cur, ok := t.Current(); ok && t.now().Sub(cur.LoadedAt) < maxAge {
		return cur
	}
	res, _ := t.Refresh(ctx)
	return res
}

// Loading reports whether an aggregation is in flight.
func (t *Tracker) Loading() bool {
	return t.agg.Indicator().Active()
}
