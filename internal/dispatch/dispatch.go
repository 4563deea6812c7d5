// Package dispatch routes an event authored on the calendar to the entity it
// belongs to: a prefilled creation form for trainings and tasks, or the
// generic calendar-event store for everything else.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"safetycal/internal/aggregate"
	appLog "safetycal/internal/log"
	"safetycal/internal/model"
)

// Navigation is where the client should go next, and the token under which
// the form's prefill waits.
type Navigation struct {
	Route string `json:"route"`
	Token string `json:"prefill_token,omitempty"`
}

// Navigator hands a draft to the creation form behind route.
type Navigator interface {
	Navigate(ctx context.Context, route string, draft Draft) (Navigation, error)
}

// EventCreator persists a generic calendar event.
type EventCreator interface {
	CreateCalendarEvent(ctx context.Context, ev model.StoredEvent) (model.StoredEvent, error)
}

// Reloader re-runs the full aggregation.
type Reloader interface {
	Refresh(ctx context.Context) (aggregate.Result, bool)
}

// Outcome is the single transition taken for one Create call.
type Outcome struct {
	Navigation *Navigation          `json:"navigation,omitempty"`
	Created    *model.CalendarEvent `json:"created,omitempty"`
}

type Options struct {
	Navigator Navigator
	Store     EventCreator
	Reloader  Reloader

	// Indicator is raised while a direct create is in flight. Optional.
	Indicator *aggregate.Indicator

	// Location decides what "today" is for task creation dates.
	Location *time.Location
	Now      func() time.Time
}

type Dispatcher struct {
	nav       Navigator
	store     EventCreator
	reloader  Reloader
	indicator *aggregate.Indicator
	loc       *time.Location
	now       func() time.Time
}

func New(opts Options) (*Dispatcher, error) {
	if opts.Navigator == nil {
		return nil, errors.New("dispatch: navigator is required")
	}
	if opts.Store == nil {
		return nil, errors.New("dispatch: event store is required")
	}
	d := &Dispatcher{
		nav:       opts.Navigator,
		store:     opts.Store,
		reloader:  opts.Reloader,
		indicator: opts.Indicator,
		loc:       opts.Location,
		now:       opts.Now,
	}
	if d.indicator == nil {
		d.indicator = &aggregate.Indicator{}
	}
	if d.loc == nil {
		d.loc = time.Local
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d, nil
}

// DraftFor maps ev onto the creation form it belongs to. ok is false for
// events that go straight to the generic store.
func (d *Dispatcher) DraftFor(ev model.CalendarEvent) (Draft, bool) {
	switch {
	case ev.Type == model.TypeInstruction && ev.Source == model.SourceAdditionalTraining:
		return AdditionalTrainingDraft{
			TrainingName:   ev.Title,
			TrainingDate:   ev.Date,
			ValidityPeriod: ev.ValidityPeriod,
			Description:    ev.Description,
		}, true
	case ev.Type == model.TypeInstruction:
		return TrainingDraft{
			TrainingName:     ev.Title,
			LastTrainingDate: ev.Date,
			ValidityPeriod:   ev.ValidityPeriod,
			Description:      ev.Description,
		}, true
	case ev.Type == model.TypeTask:
		priority := ev.Priority
		if priority == "" {
			priority = model.PriorityMedium
		}
		var body *string
		if ev.Description != "" {
			s := ev.Description
			body = &s
		}
		return TaskDraft{
			TaskName:              ev.Title,
			PlannedCompletionDate: ev.Date,
			Body:                  body,
			Priority:              priority,
			Status:                model.StatusTodo,
			CreationDate:          model.DateOf(d.now().In(d.loc)),
		}, true
	default:
		return nil, false
	}
}

// Create takes exactly one transition for ev. Navigation errors are returned
// unchanged. A failed direct create is returned once the loading indicator
// is lowered; nothing is retried.
func (d *Dispatcher) Create(ctx context.Context, ev model.CalendarEvent) (Outcome, error) {
	if draft, ok := d.DraftFor(ev); ok {
		if err := draft.Validate(); err != nil {
			return Outcome{}, err
		}
		nav, err := d.nav.Navigate(ctx, draft.Route(), draft)
		if err != nil {
			return Outcome{}, err
		}
		appLog.Info("dispatch: routed to creation form", "route", nav.Route, "title", ev.Title)
		return Outcome{Navigation: &nav}, nil
	}

	created, err := d.createDirect(ctx, ev)
	if err != nil {
		return Outcome{}, err
	}

	if d.reloader != nil {
		if _, applied := d.reloader.Refresh(ctx); !applied {
			appLog.Debug("dispatch: reload after create was superseded")
		}
	}
	return Outcome{Created: &created}, nil
}

// CreateAll stores a batch of generic events and reloads once at the end.
// Events that belong to a creation form are not stored; each one adds an
// error. Failures do not stop the batch; created holds what was stored.
func (d *Dispatcher) CreateAll(ctx context.Context, events []model.CalendarEvent) (created []model.CalendarEvent, err error) {
	var errs []error
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if draft, ok := d.DraftFor(ev); ok {
			errs = append(errs, fmt.Errorf("%w: %q needs the %s form", ErrInvalidDraft, ev.Title, draft.Route()))
			continue
		}
		c, err := d.createDirect(ctx, ev)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		created = append(created, c)
	}

	if len(created) > 0 && d.reloader != nil {
		if _, applied := d.reloader.Refresh(ctx); !applied {
			appLog.Debug("dispatch: reload after batch create was superseded")
		}
	}
	return created, errors.Join(errs...)
}

func (d *Dispatcher) createDirect(ctx context.Context, ev model.CalendarEvent) (model.CalendarEvent, error) {
	end := d.indicator.Begin()
	defer end()

	if ev.Title == "" {
		return model.CalendarEvent{}, fmt.Errorf("%w: title is required", ErrInvalidDraft)
	}

	stored, err := d.store.CreateCalendarEvent(ctx, model.StoredFromEvent(ev))
	if err != nil {
		appLog.Error("dispatch: failed to create calendar event", err, "title", ev.Title, "type", ev.Type)
		return model.CalendarEvent{}, fmt.Errorf("create calendar event: %w", err)
	}

	created := ev
	created.ID = stored.ID
	created.Source = model.SourceCalendarEvent
	appLog.Info("dispatch: created calendar event", "title", ev.Title, "type", ev.Type)
	return created, nil
}
