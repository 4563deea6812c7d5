// Package aggregate merges all source adapters into one calendar stream.
package aggregate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	appLog "safetycal/internal/log"
	"safetycal/internal/model"
	"safetycal/internal/source"
)

// Indicator is a shared "loading" flag. Several operations may hold it at once;
// it reads as active until every holder has released it.
type Indicator struct {
	n atomic.Int64
}

// Begin raises the flag and returns the matching release func. Calling the
// release func more than once has no further effect.
func (i *Indicator) Begin() (end func()) {
	i.n.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { i.n.Add(-1) })
	}
}

// Active reports whether any operation holds the flag.
func (i *Indicator) Active() bool {
	return i.n.Load() > 0
}

// Aggregator fans out to every adapter concurrently and concatenates their
// results in adapter order.
type Aggregator struct {
	adapters  []source.Adapter
	indicator *Indicator
}

// New creates an Aggregator. A nil indicator gets a private one.
func New(adapters []source.Adapter, indicator *Indicator) *Aggregator {
	if indicator == nil {
		indicator = &Indicator{}
	}
	return &Aggregator{adapters: adapters, indicator: indicator}
}

// Indicator returns the loading flag raised during Load.
func (a *Aggregator) Indicator() *Indicator {
	return a.indicator
}

// Load runs one aggregation pass. It always returns a non-nil slice: a source
// that fails or panics contributes nothing, and the others are unaffected.
func (a *Aggregator) Load(ctx context.Context) (events []model.CalendarEvent) {
	end := a.indicator.Begin()
	defer end()

	defer func() {
		if r := recover(); r != nil {
			appLog.Error("aggregation failed, returning empty stream", fmt.Errorf("panic: %v", r))
			events = []model.CalendarEvent{}
		}
	}()

	parts := make([][]model.CalendarEvent, len(a.adapters))

	var wg sync.WaitGroup
	for i, ad := range a.adapters {
		wg.Add(1)
		go func(i int, ad source.Adapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					appLog.Error("source adapter panicked", fmt.Errorf("panic: %v", r), "source", ad.Kind())
					parts[i] = nil
				}
			}()
			parts[i] = ad.Events(ctx)
		}(i, ad)
	}
	wg.Wait()

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	events = make([]model.CalendarEvent, 0, total)
	for _, p := range parts {
		if p == nil {
			continue
		}
		events = append(events, p...)
	}

	appLog.Debug("aggregation pass completed", "sources", len(a.adapters), "events", len(events))
	return events
}
