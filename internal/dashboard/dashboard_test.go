package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"safetycal/internal/model"
)

type fakeStores struct {
	tasks      []model.Task
	trainings  []model.Training
	additional []model.AdditionalTraining
	events     []model.StoredEvent

	taskErr     error
	trainingErr error
	eventsPanic bool
}

func (f *fakeStores) ListTasks(context.Context) ([]model.Task, error) {
	return f.tasks, f.taskErr
}

func (f *fakeStores) ListTrainings(context.Context) ([]model.Training, error) {
	return f.trainings, f.trainingErr
}

func (f *fakeStores) ListAdditionalTrainings(context.Context) ([]model.AdditionalTraining, error) {
	return f.additional, nil
}

func (f *fakeStores) ListCalendarEvents(context.Context) ([]model.StoredEvent, error) {
	if f.eventsPanic {
		panic("event store exploded")
	}
	return f.events, nil
}

// Wednesday 2024-05-15, week runs 13..19 May.
var wednesday = time.Date(2024, time.May, 15, 9, 0, 0, 0, time.UTC)

func newSummarizer(f *fakeStores, topN int) *Summarizer {
	return New(Options{
		Tasks:               f,
		Trainings:           f,
		AdditionalTrainings: f,
		Events:              f,
		Location:            time.UTC,
		Now:                 func() time.Time { return wednesday },
		TopN:                topN,
	})
}

func day(s string) model.RawDate { return model.RawDateString(s) }

func fixtures() *fakeStores {
	return &fakeStores{
		tasks: []model.Task{
			{ID: 1, TaskName: "low this week", Priority: model.PriorityLow, Status: model.StatusTodo, PlannedCompletionDate: day("2024-05-16")},
			{ID: 2, TaskName: "high this week", Priority: model.PriorityHigh, Status: model.StatusInProgress, PlannedCompletionDate: day("2024-05-19")},
			{ID: 3, TaskName: "done", Priority: model.PriorityHigh, Status: model.StatusDone, PlannedCompletionDate: day("2024-05-14")},
			{ID: 4, TaskName: "overdue", Priority: model.PriorityMedium, Status: model.StatusTodo, PlannedCompletionDate: day("2024-05-10")},
			{ID: 5, TaskName: "no priority", Status: model.StatusTodo, PlannedCompletionDate: day("2024-05-13")},
			{ID: 6, TaskName: "undated", Priority: model.PriorityHigh, Status: model.StatusTodo},
			{ID: 7, TaskName: "monday", Priority: model.PriorityMedium, Status: model.StatusTodo, PlannedCompletionDate: day("2024-05-13")},
		},
		trainings: []model.Training{
			{ID: 10, TrainingName: "today later", NextTrainingDate: day("2024-05-15T16:00:00Z")},
			{ID: 11, TrainingName: "friday", NextTrainingDate: day("2024-05-17")},
			{ID: 12, TrainingName: "next week", NextTrainingDate: day("2024-05-20")},
			{ID: 13, TrainingName: "no date", NextTrainingDate: model.RawDate{}},
		},
		additional: []model.AdditionalTraining{
			{ID: 20, TrainingName: "additional today", NextTrainingDate: day("2024-05-15")},
			{ID: 21, TrainingName: "yesterday", NextTrainingDate: day("2024-05-14")},
		},
		events: []model.StoredEvent{
			{Title: "past", Type: "MEETING", EventDate: day("2024-05-01")},
			{Title: "later", Type: "MEETING", EventDate: day("2024-06-03")},
			{Title: "today", Type: "meeting", EventDate: day("2024-05-15")},
			{Title: "not a meeting", Type: "OTHER", EventDate: day("2024-05-20")},
		},
	}
}

func TestSummarize(t *testing.T) {
	sum := newSummarizer(fixtures(), 5).Summarize(context.Background())

	if sum.Today.String() != "2024-05-15" {
		t.Errorf("Unexpected today %s", sum.Today)
	}

	if len(sum.TodayInstructions) != 2 {
		t.Fatalf("Expected 2 instructions today, got %+v", sum.TodayInstructions)
	}
	if sum.TodayInstructions[0].ID != 10 || sum.TodayInstructions[1].Source != model.SourceAdditionalTraining {
		t.Errorf("Unexpected today instructions %+v", sum.TodayInstructions)
	}
	if sum.WeekInstructionCount != 3 {
		t.Errorf("Expected 3 instructions this week, got %d", sum.WeekInstructionCount)
	}

	wantTasks := []int64{2, 1, 7}
	if len(sum.PriorityTasks) != len(wantTasks) {
		t.Fatalf("Expected priority tasks %v, got %+v", wantTasks, sum.PriorityTasks)
	}
	for i, id := range wantTasks {
		if sum.PriorityTasks[i].ID != id {
			t.Errorf("priority task %d: id %d, want %d", i, sum.PriorityTasks[i].ID, id)
		}
	}

	if sum.ActiveTaskCount != 6 {
		t.Errorf("Expected 6 active tasks, got %d", sum.ActiveTaskCount)
	}
	// 4, 5 and 7 are open and dated before Wednesday.
	if sum.OverdueTaskCount != 3 {
		t.Errorf("Expected 3 overdue tasks, got %d", sum.OverdueTaskCount)
	}

	if len(sum.UpcomingMeetings) != 2 {
		t.Fatalf("Expected 2 upcoming meetings, got %+v", sum.UpcomingMeetings)
	}
	if m := sum.UpcomingMeetings[0]; m.Title != "today" || m.Day != 15 {
		t.Errorf("Unexpected first meeting %+v", m)
	}
	if m := sum.UpcomingMeetings[1]; m.Title != "later" || m.Day != 3 {
		t.Errorf("Unexpected second meeting %+v", m)
	}
}

func TestSummarize_TopN(t *testing.T) {
	sum := newSummarizer(fixtures(), 1).Summarize(context.Background())
	if len(sum.PriorityTasks) != 1 || sum.PriorityTasks[0].ID != 2 {
		t.Errorf("Expected only the HIGH task, got %+v", sum.PriorityTasks)
	}
	if len(sum.UpcomingMeetings) != 1 || len(sum.TodayInstructions) != 1 {
		t.Errorf("Lists should be capped at 1: %+v", sum)
	}
}

func TestSummarize_FailuresAreIsolated(t *testing.T) {
	f := fixtures()
	f.taskErr = errors.New("tasks down")
	f.eventsPanic = true

	sum := newSummarizer(f, 5).Summarize(context.Background())

	if len(sum.PriorityTasks) != 0 || sum.ActiveTaskCount != 0 || sum.OverdueTaskCount != 0 {
		t.Errorf("Task widgets should be empty, got %+v", sum)
	}
	if sum.PriorityTasks == nil || sum.UpcomingMeetings == nil {
		t.Error("Empty widgets should be empty slices, not nil")
	}
	if len(sum.TodayInstructions) != 2 || sum.WeekInstructionCount != 3 {
		t.Errorf("Instruction widgets should be unaffected, got %+v", sum)
	}
}

func TestSummarize_SundayWeekEnd(t *testing.T) {
	f := fixtures()
	s := New(Options{
		Tasks: f, Trainings: f, AdditionalTrainings: f, Events: f,
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, time.May, 19, 8, 0, 0, 0, time.UTC) },
	})
	sum := s.Summarize(context.Background())

	// Sunday still belongs to the week of 13..19 May.
	if len(sum.PriorityTasks) != 3 {
		t.Errorf("Expected 3 priority tasks on Sunday, got %+v", sum.PriorityTasks)
	}
	if sum.WeekInstructionCount != 0 {
		t.Errorf("Nothing is due between Sunday and Sunday, got %d", sum.WeekInstructionCount)
	}
}
