package aggregate

import (
	"context"
	"sync"
	"testing"
	"time"

	"safetycal/internal/model"
)

func TestTrackerDiscardsStaleResult(t *testing.T) {
	release := make(chan struct{})
	firstStarted := make(chan struct{})
	var calls int
	var mu sync.Mutex

	adapter := &staticAdapter{kind: model.SourceCalendarEvent, titles: []string{"event"}}
	adapter.hook = func(ctx context.Context) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			// The first load is slow: it only finishes after the second one.
			<-release
		}
	}

	tr := NewTracker(New(asAdapters([]*staticAdapter{adapter}), nil), nil)

	type outcome struct {
		res     Result
		applied bool
	}
	firstDone := make(chan outcome, 1)
	go func() {
		res, applied := tr.Refresh(context.Background())
		firstDone <- outcome{res, applied}
	}()

	<-firstStarted
	second, applied := tr.Refresh(context.Background())
	if !applied || second.Generation != 2 {
		t.Fatalf("second refresh should apply as generation 2, got %+v applied=%v", second, applied)
	}

	close(release)
	first := <-firstDone
	if first.applied {
		t.Errorf("stale first refresh must not be applied")
	}
	if first.res.Generation != 2 {
		t.Errorf("stale refresh should report the current generation, got %d", first.res.Generation)
	}

	cur, ok := tr.Current()
	if !ok || cur.Generation != 2 {
		t.Errorf("current should stay at generation 2, got %+v", cur)
	}
}

func TestTrackerCancelsPreviousLoad(t *testing.T) {
	firstCanceled := make(chan struct{})
	firstStarted := make(chan struct{})
	var once sync.Once
	adapter := &staticAdapter{kind: model.SourceTask, titles: []string{"t"}}
	var mu sync.Mutex
	calls := 0
	adapter.hook = func(ctx context.Context) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			once.Do(func() { close(firstStarted) })
			<-ctx.Done()
			close(firstCanceled)
		}
	}

	tr := NewTracker(New(asAdapters([]*staticAdapter{adapter}), nil), nil)
	go tr.Refresh(context.Background())
	<-firstStarted

	if _, applied := tr.Refresh(context.Background()); !applied {
		t.Fatal("second refresh should apply")
	}
	select {
	case <-firstCanceled:
	case <-time.After(2 * time.Second):
		t.Fatal("first load was not canceled")
	}
}

func TestTrackerNavigateAndEnsure(t *testing.T) {
	now := time.Date(2025, time.April, 15, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	adapter := &staticAdapter{kind: model.SourceTask, titles: []string{"t"}}
	loads := 0
	adapter.hook = func(context.Context) { loads++ }

	tr := NewTracker(New(asAdapters([]*staticAdapter{adapter}), nil), clock)

	if got := tr.Month().String(); got != "2025-04-01" {
		t.Errorf("default month should be the current one, got %s", got)
	}
	if _, ok := tr.Current(); ok {
		t.Error("no result expected before the first refresh")
	}

	res, applied := tr.Navigate(context.Background(), time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC))
	if !applied || tr.Month().String() != "2025-05-01" || len(res.Events) != 1 {
		t.Errorf("navigate: month=%s res=%+v", tr.Month(), res)
	}

	tr.Ensure(context.Background(), time.Minute)
	if loads != 1 {
		t.Errorf("fresh result should be reused, loads=%d", loads)
	}
	now = now.Add(2 * time.Minute)
	tr.Ensure(context.Background(), time.Minute)
	if loads != 2 {
		t.Errorf("stale result should be reloaded, loads=%d", loads)
	}
}

func TestTrackerDoesNotApplyCanceledLoad(t *testing.T) {
	adapter := &staticAdapter{kind: model.SourceTask, titles: []string{"t"}}
	tr := NewTracker(New(asAdapters([]*staticAdapter{adapter}), nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, applied := tr.Refresh(ctx); applied {
		t.Error("a refresh whose context is already canceled must not apply")
	}
}
