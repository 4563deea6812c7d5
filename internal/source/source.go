// Package source turns each backend resource type into model.CalendarEvent.
// Adapters never fail: a source that cannot be read contributes nothing, and a
// record that cannot be converted becomes a degraded placeholder.
package source

import (
	"context"
	"fmt"
	"time"

	"safetycal/internal/i18n"
	appLog "safetycal/internal/log"
	"safetycal/internal/model"
)

// One read capability per backing store.

type EventReader interface {
	ListCalendarEvents(ctx context.Context) ([]model.StoredEvent, error)
}

type TaskReader interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
}

type TrainingReader interface {
	ListTrainings(ctx context.Context) ([]model.Training, error)
}

type AdditionalTrainingReader interface {
	ListAdditionalTrainings(ctx context.Context) ([]model.AdditionalTraining, error)
}

type SafetyInstructionReader interface {
	ListSafetyInstructions(ctx context.Context) ([]model.SafetyInstruction, error)
}

// Adapter produces the calendar events of one source. Events never returns an
// error; failures are logged and yield an empty or partially degraded list.
type Adapter interface {
	Kind() model.SourceKind
	Events(ctx context.Context) []model.CalendarEvent
}

// Env carries what conversions need besides the record itself.
type Env struct {
	// Tr renders description labels; nil means the built-in default locale.
	Tr i18n.Translator
	// Loc turns zoned timestamps into calendar dates; nil means time.Local.
	Loc *time.Location
}

func (e Env) translator() i18n.Translator {
	if e.Tr == nil {
		return i18n.NewBundle("").For("")
	}
	return e.Tr
}

func (e Env) location() *time.Location {
	if e.Loc == nil {
		return time.Local
	}
	return e.Loc
}

// loadErrorDescription is the same in every locale.
const loadErrorDescription = "load error"

// collect runs the shared fetch/filter/convert pipeline for one adapter.
func collect[T any](
	ctx context.Context,
	kind model.SourceKind,
	fetch func(context.Context) ([]T, error),
	keep func(T) bool,
	convert func(T) (model.CalendarEvent, error),
	degrade func(T) model.CalendarEvent,
) []model.CalendarEvent {
	records, err := fetch(ctx)
	if err != nil {
		appLog.Warn("source unavailable, contributing no events", "source", kind, "err", err)
		return []model.CalendarEvent{}
	}

	events := make([]model.CalendarEvent, 0, len(records))
	for _, rec := range records {
		if keep != nil && !keep(rec) {
			continue
		}
		ev, err := convert(rec)
		if err != nil {
			ev = degrade(rec)
			appLog.Warn("record conversion failed, using placeholder", "source", kind, "title", ev.Title, "err", err)
		}
		events = append(events, ev)
	}
	return events
}

// degradedEvent builds the placeholder for a record that could not be converted.
func degradedEvent(kind model.SourceKind, typ model.EventType, id int64, name string) model.CalendarEvent {
	title := fmt.Sprintf("%s #%d", kind, id)
	if name != "" {
		title += ": " + name
	}
	ev := model.CalendarEvent{
		Title:       title,
		Description: loadErrorDescription,
		Type:        typ,
		Source:      kind,
		Degraded:    true,
	}
	if id != 0 {
		ev.ID = model.Int64(id)
	}
	return ev
}

func validEmployee(e *model.EmployeeRef) error {
	if e != nil && e.ID <= 0 {
		return fmt.Errorf("malformed employee reference (id %d)", e.ID)
	}
	return nil
}

func validProfession(p *model.ProfessionRef) error {
	if p != nil && p.ID <= 0 {
		return fmt.Errorf("malformed profession reference (id %d)", p.ID)
	}
	return nil
}

func validPosition(p *model.PositionRef) error {
	if p != nil && p.ID <= 0 {
		return fmt.Errorf("malformed position reference (id %d)", p.ID)
	}
	return nil
}
