package source

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"safetycal/internal/i18n"
	"safetycal/internal/model"
)

type fakeStore struct {
	events       []model.StoredEvent
	tasks        []model.Task
	trainings    []model.Training
	additional   []model.AdditionalTraining
	instructions []model.SafetyInstruction
	err          error
}

func (f *fakeStore) ListCalendarEvents(context.Context) ([]model.StoredEvent, error) {
	return f.events, f.err
}

func (f *fakeStore) ListTasks(context.Context) ([]model.Task, error) {
	return f.tasks, f.err
}

func (f *fakeStore) ListTrainings(context.Context) ([]model.Training, error) {
	return f.trainings, f.err
}

func (f *fakeStore) ListAdditionalTrainings(context.Context) ([]model.AdditionalTraining, error) {
	return f.additional, f.err
}

func (f *fakeStore) ListSafetyInstructions(context.Context) ([]model.SafetyInstruction, error) {
	return f.instructions, f.err
}

func testEnv(locale string) Env {
	return Env{Tr: i18n.NewBundle(locale).For(locale), Loc: time.UTC}
}

func TestToDateNeverFails(t *testing.T) {
	moscow := time.FixedZone("MSK", 3*3600)
	valid := time.Date(2025, time.April, 10, 22, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		loc  *time.Location
		want string
	}{
		{"nil", nil, nil, ""},
		{"plain date", "2025-04-10", time.UTC, "2025-04-10"},
		{"plain date is not shifted", "2025-04-10", moscow, "2025-04-10"},
		{"utc instant shifted into zone", "2025-04-10T22:30:00Z", moscow, "2025-04-11"},
		{"local datetime", "2025-04-10T08:00:00", moscow, "2025-04-10"},
		{"space separated", "2025-04-10 08:00", time.UTC, "2025-04-10"},
		{"time value", valid, time.UTC, "2025-04-10"},
		{"time pointer", &valid, moscow, "2025-04-11"},
		{"nil time pointer", (*time.Time)(nil), time.UTC, ""},
		{"zero time", time.Time{}, time.UTC, ""},
		{"epoch millis", int64(1744243200000), time.UTC, "2025-04-10"},
		{"raw numeric", mustRaw(t, `1744243200000`), time.UTC, "2025-04-10"},
		{"raw string", model.RawDateString("2025-04-10"), time.UTC, "2025-04-10"},
		{"raw null", model.RawDate{}, time.UTC, ""},
		{"raw object", mustRaw(t, `{"x":1}`), time.UTC, ""},
		{"impossible day", "2025-02-30", time.UTC, ""},
		{"garbage", "next tuesday", time.UTC, ""},
		{"empty", "   ", time.UTC, ""},
		{"huge float", 1e300, time.UTC, ""},
		{"unsupported type", struct{}{}, time.UTC, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToDate(tt.in, tt.loc).String(); got != tt.want {
				t.Errorf("ToDate(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func mustRaw(t *testing.T, js string) model.RawDate {
	t.Helper()
	var r model.RawDate
	if err := r.UnmarshalJSON([]byte(js)); err != nil {
		t.Fatalf("raw %s: %v", js, err)
	}
	return r
}

func TestGenericAndTaskKeepUndatedRecords(t *testing.T) {
	store := &fakeStore{
		events: []model.StoredEvent{
			{ID: model.Int64(1), Title: "Committee", EventDate: model.RawDateString("2025-04-10"), StartTime: "09:00:00", Type: "meeting"},
			{ID: model.Int64(2), Title: "Broken", EventDate: model.RawDateString("not-a-date"), Type: "???"},
		},
		tasks: []model.Task{
			{ID: 3, TaskName: "Inspect ladder", Priority: model.PriorityHigh, Status: model.StatusTodo},
		},
	}

	events := (&CalendarEvents{Store: store, Env: testEnv("en")}).Events(context.Background())
	if len(events) != 2 {
		t.Fatalf("expected both generic records, got %d", len(events))
	}
	if events[0].Type != model.TypeMeeting || events[0].StartTime != "09:00" || events[0].Date.String() != "2025-04-10" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].HasDate() || events[1].Type != model.TypeOther {
		t.Errorf("unparseable date should be empty and unknown type OTHER: %+v", events[1])
	}

	tasks := (&Tasks{Store: store, Env: testEnv("en")}).Events(context.Background())
	if len(tasks) != 1 || tasks[0].HasDate() || tasks[0].Priority != model.PriorityHigh {
		t.Errorf("task without planned date must be kept undated: %+v", tasks)
	}
}

func TestTrainingWithoutNextDateIsExcluded(t *testing.T) {
	base := []model.Training{
		{ID: 1, TrainingName: "Working at height", NextTrainingDate: model.RawDateString("2025-04-10"),
			Employee: &model.EmployeeRef{ID: 7, FirstName: "Ivan", LastName: "Petrov"}},
		{ID: 2, TrainingName: "First aid", NextTrainingDate: model.RawDateString("2025-04-12")},
	}
	withNull := append([]model.Training(nil), base...)
	withNull[1].NextTrainingDate = model.RawDate{}

	full := (&Trainings{Store: &fakeStore{trainings: base}, Env: testEnv("en")}).Events(context.Background())
	reduced := (&Trainings{Store: &fakeStore{trainings: withNull}, Env: testEnv("en")}).Events(context.Background())

	if len(full)-len(reduced) != 1 {
		t.Fatalf("expected exactly one fewer event, got %d vs %d", len(full), len(reduced))
	}
	first := full[0]
	if first.Type != model.TypeInstruction || first.Source != model.SourceTraining {
		t.Errorf("training should be INSTRUCTION/TRAINING: %+v", first)
	}
	if first.Description != "Employee: Ivan Petrov" || first.EmployeeName != "Ivan Petrov" || *first.EmployeeID != 7 {
		t.Errorf("unexpected employee attachment: %+v", first)
	}
	if full[1].Description != "Employee: Unknown employee" {
		t.Errorf("missing employee should use placeholder: %q", full[1].Description)
	}
}

func TestSafetyInstructionNullProfession(t *testing.T) {
	store := &fakeStore{instructions: []model.SafetyInstruction{
		{ID: 4, InstructionName: "Fire safety", IntroductionDate: model.RawDateString("2025-03-01"),
			Position: &model.PositionRef{ID: 2, PositionName: "Welder"}},
		{ID: 5, InstructionName: "No date"},
	}}

	for _, locale := range []string{"en", "ru"} {
		events := (&SafetyInstructions{Store: store, Env: testEnv(locale)}).Events(context.Background())
		if len(events) != 1 {
			t.Fatalf("%s: expected 1 event, got %d", locale, len(events))
		}
		want := map[string]string{"en": "Unknown profession", "ru": "Неизвестная профессия"}[locale]
		if !strings.Contains(events[0].Description, want) {
			t.Errorf("%s: description %q lacks %q", locale, events[0].Description, want)
		}
		if events[0].PositionName != "Welder" || events[0].ProfessionID != nil {
			t.Errorf("%s: unexpected attachments %+v", locale, events[0])
		}
	}
}

func TestMalformedRecordBecomesPlaceholder(t *testing.T) {
	store := &fakeStore{additional: []model.AdditionalTraining{
		{ID: 8, TrainingName: "Crane operation", NextTrainingDate: model.RawDateString("2025-04-01"),
			Profession: &model.ProfessionRef{ID: 0, ProfessionName: "???"}},
		{ID: 9, TrainingName: "Electrical safety", NextTrainingDate: model.RawDateString("2025-04-02"),
			Profession: &model.ProfessionRef{ID: 3, ProfessionName: "Electrician"}},
	}}

	events := (&AdditionalTrainings{Store: store, Env: testEnv("ru")}).Events(context.Background())
	if len(events) != 2 {
		t.Fatalf("placeholder must not abort the adapter, got %d events", len(events))
	}
	bad := events[0]
	if !bad.Degraded || bad.HasDate() || bad.Description != "load error" {
		t.Errorf("unexpected placeholder: %+v", bad)
	}
	if bad.Title != "ADDITIONAL_TRAINING #8: Crane operation" {
		t.Errorf("unexpected placeholder title %q", bad.Title)
	}
	if events[1].Degraded || events[1].ProfessionName != "Electrician" {
		t.Errorf("valid record affected: %+v", events[1])
	}
}

func TestFetchFailureYieldsEmptyList(t *testing.T) {
	store := &fakeStore{err: errors.New("503")}
	for _, a := range All(store, store, store, store, store, testEnv("en")) {
		got := a.Events(context.Background())
		if got == nil || len(got) != 0 {
			t.Errorf("%s: expected empty non-nil list, got %v", a.Kind(), got)
		}
	}
}

func TestAllOrder(t *testing.T) {
	store := &fakeStore{}
	want := []model.SourceKind{
		model.SourceCalendarEvent, model.SourceTask, model.SourceTraining,
		model.SourceAdditionalTraining, model.SourceSafetyInstruction,
	}
	for i, a := range All(store, store, store, store, store, Env{}) {
		if a.Kind() != want[i] {
			t.Errorf("adapter %d is %s, want %s", i, a.Kind(), want[i])
		}
	}
}
