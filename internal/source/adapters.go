package source

import (
	"context"
	"strings"

	"safetycal/internal/model"
)

// CalendarEvents adapts the generic calendar-event store. All records are kept;
// an unusable eventDate leaves the event undated.
type CalendarEvents struct {
	Store EventReader
	Env   Env
}

func (a *CalendarEvents) Kind() model.SourceKind { return model.SourceCalendarEvent }

func (a *CalendarEvents) Events(ctx context.Context) []model.CalendarEvent {
	return collect(ctx, a.Kind(), a.Store.ListCalendarEvents, nil, a.convert,
		func(rec model.StoredEvent) model.CalendarEvent {
			var id int64
			if rec.ID != nil {
				id = *rec.ID
			}
			return degradedEvent(a.Kind(), model.TypeOther, id, rec.Title)
		})
}

func (a *CalendarEvents) convert(rec model.StoredEvent) (model.CalendarEvent, error) {
	typ, _ := model.ParseEventType(rec.Type)
	ev := model.CalendarEvent{
		Title:       rec.Title,
		Description: rec.Description,
		Date:        ToDate(rec.EventDate, a.Env.location()),
		StartTime:   clock(rec.StartTime),
		EndTime:     clock(rec.EndTime),
		Type:        typ,
		Source:      a.Kind(),
	}
	if rec.ID != nil {
		ev.ID = model.Int64(*rec.ID)
	}
	if len(rec.Participants) > 0 {
		ev.Participants = append([]string(nil), rec.Participants...)
	}
	return ev, nil
}

// Tasks adapts the task store. All records are kept.
type Tasks struct {
	Store TaskReader
	Env   Env
}

func (a *Tasks) Kind() model.SourceKind { return model.SourceTask }

func (a *Tasks) Events(ctx context.Context) []model.CalendarEvent {
	return collect(ctx, a.Kind(), a.Store.ListTasks, nil, a.convert,
		func(rec model.Task) model.CalendarEvent {
			return degradedEvent(a.Kind(), model.TypeTask, rec.ID, rec.TaskName)
		})
}

func (a *Tasks) convert(rec model.Task) (model.CalendarEvent, error) {
	if err := validEmployee(rec.Employee); err != nil {
		return model.CalendarEvent{}, err
	}
	ev := model.CalendarEvent{
		ID:          model.Int64(rec.ID),
		Title:       rec.TaskName,
		Description: rec.Body,
		Date:        ToDate(rec.PlannedCompletionDate, a.Env.location()),
		Type:        model.TypeTask,
		Source:      a.Kind(),
		Priority:    rec.Priority,
		Status:      rec.Status,
	}
	if name := rec.Employee.FullName(); name != "" {
		ev.Participants = []string{name}
	}
	return ev, nil
}

// Trainings adapts the recurring-training store. Records without a
// nextTrainingDate are dropped.
type Trainings struct {
	Store TrainingReader
	Env   Env
}

func (a *Trainings) Kind() model.SourceKind { return model.SourceTraining }

func (a *Trainings) Events(ctx context.Context) []model.CalendarEvent {
	return collect(ctx, a.Kind(), a.Store.ListTrainings,
		func(rec model.Training) bool { return !rec.NextTrainingDate.IsNull() },
		a.convert,
		func(rec model.Training) model.CalendarEvent {
			return degradedEvent(a.Kind(), model.TypeInstruction, rec.ID, rec.TrainingName)
		})
}

func (a *Trainings) convert(rec model.Training) (model.CalendarEvent, error) {
	if err := validEmployee(rec.Employee); err != nil {
		return model.CalendarEvent{}, err
	}
	tr := a.Env.translator()

	ev := model.CalendarEvent{
		ID:             model.Int64(rec.ID),
		Title:          rec.TrainingName,
		Date:           ToDate(rec.NextTrainingDate, a.Env.location()),
		Type:           model.TypeInstruction,
		Source:         a.Kind(),
		ValidityPeriod: rec.ValidityPeriod,
	}

	name := rec.Employee.FullName()
	if rec.Employee != nil {
		ev.EmployeeID = model.Int64(rec.Employee.ID)
	}
	if name == "" {
		name = tr.T("calendar.unknownEmployee")
	} else {
		ev.Participants = []string{name}
	}
	ev.EmployeeName = name
	ev.Description = tr.T("calendar.fields.employee") + ": " + name
	return ev, nil
}

// AdditionalTrainings adapts the additional-training store. Records without a
// nextTrainingDate are dropped.
type AdditionalTrainings struct {
	Store AdditionalTrainingReader
	Env   Env
}

func (a *AdditionalTrainings) Kind() model.SourceKind { return model.SourceAdditionalTraining }

func (a *AdditionalTrainings) Events(ctx context.Context) []model.CalendarEvent {
	return collect(ctx, a.Kind(), a.Store.ListAdditionalTrainings,
		func(rec model.AdditionalTraining) bool { return !rec.NextTrainingDate.IsNull() },
		a.convert,
		func(rec model.AdditionalTraining) model.CalendarEvent {
			return degradedEvent(a.Kind(), model.TypeInstruction, rec.ID, rec.TrainingName)
		})
}

func (a *AdditionalTrainings) convert(rec model.AdditionalTraining) (model.CalendarEvent, error) {
	if err := validProfession(rec.Profession); err != nil {
		return model.CalendarEvent{}, err
	}
	tr := a.Env.translator()

	ev := model.CalendarEvent{
		ID:             model.Int64(rec.ID),
		Title:          rec.TrainingName,
		Date:           ToDate(rec.NextTrainingDate, a.Env.location()),
		Type:           model.TypeInstruction,
		Source:         a.Kind(),
		ValidityPeriod: rec.ValidityPeriod,
	}
	ev.ProfessionID, ev.ProfessionName = profession(rec.Profession, tr.T("calendar.unknownProfession"))
	ev.Description = tr.T("calendar.fields.profession") + ": " + ev.ProfessionName
	return ev, nil
}

// SafetyInstructions adapts the safety-instruction store. Records without an
// introductionDate are dropped.
type SafetyInstructions struct {
	Store SafetyInstructionReader
	Env   Env
}

func (a *SafetyInstructions) Kind() model.SourceKind { return model.SourceSafetyInstruction }

func (a *SafetyInstructions) Events(ctx context.Context) []model.CalendarEvent {
	return collect(ctx, a.Kind(), a.Store.ListSafetyInstructions,
		func(rec model.SafetyInstruction) bool { return !rec.IntroductionDate.IsNull() },
		a.convert,
		func(rec model.SafetyInstruction) model.CalendarEvent {
			return degradedEvent(a.Kind(), model.TypeInstruction, rec.ID, rec.InstructionName)
		})
}

func (a *SafetyInstructions) convert(rec model.SafetyInstruction) (model.CalendarEvent, error) {
	if err := validProfession(rec.Profession); err != nil {
		return model.CalendarEvent{}, err
	}
	if err := validPosition(rec.Position); err != nil {
		return model.CalendarEvent{}, err
	}
	tr := a.Env.translator()

	ev := model.CalendarEvent{
		ID:     model.Int64(rec.ID),
		Title:  rec.InstructionName,
		Date:   ToDate(rec.IntroductionDate, a.Env.location()),
		Type:   model.TypeInstruction,
		Source: a.Kind(),
	}
	ev.ProfessionID, ev.ProfessionName = profession(rec.Profession, tr.T("calendar.unknownProfession"))

	ev.PositionName = tr.T("calendar.unknownPosition")
	if rec.Position != nil {
		ev.PositionID = model.Int64(rec.Position.ID)
		if n := strings.TrimSpace(rec.Position.PositionName); n != "" {
			ev.PositionName = n
		}
	}

	ev.Description = tr.T("calendar.fields.profession") + ": " + ev.ProfessionName + "\n" +
		tr.T("calendar.fields.position") + ": " + ev.PositionName
	return ev, nil
}

func profession(p *model.ProfessionRef, unknown string) (*int64, string) {
	if p == nil {
		return nil, unknown
	}
	name := strings.TrimSpace(p.ProfessionName)
	if name == "" {
		name = unknown
	}
	return model.Int64(p.ID), name
}

// All returns the five adapters in aggregation order.
func All(events EventReader, tasks TaskReader, trainings TrainingReader,
	additional AdditionalTrainingReader, instructions SafetyInstructionReader, env Env) []Adapter {
	return []Adapter{
		&CalendarEvents{Store: events, Env: env},
		&Tasks{Store: tasks, Env: env},
		&Trainings{Store: trainings, Env: env},
		&AdditionalTrainings{Store: additional, Env: env},
		&SafetyInstructions{Store: instructions, Env: env},
	}
}
