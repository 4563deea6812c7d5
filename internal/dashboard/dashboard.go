// Package dashboard derives the home page widgets from the same stores the
// calendar reads. Each widget is computed independently; a failing store
// empties only the widgets that read it.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	appLog "safetycal/internal/log"
	"safetycal/internal/model"
	"safetycal/internal/source"
)

const defaultTopN = 5

// InstructionItem is one training due today.
type InstructionItem struct {
	ID     int64            `json:"id"`
	Title  string           `json:"title"`
	Date   model.Date       `json:"date"`
	Source model.SourceKind `json:"sourceKind"`
}

// TaskItem is one open task due this week.
type TaskItem struct {
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Date     model.Date       `json:"date"`
	Priority model.Priority   `json:"priority"`
	Status   model.TaskStatus `json:"status"`
}

// MeetingItem is an upcoming meeting as the widget shows it.
type MeetingItem struct {
	Day   int        `json:"day"`
	Title string     `json:"title"`
	Date  model.Date `json:"date"`
}

type Summary struct {
	Today                model.Date        `json:"today"`
	TodayInstructions    []InstructionItem `json:"todayInstructions"`
	WeekInstructionCount int               `json:"weekInstructionCount"`
	PriorityTasks        []TaskItem        `json:"priorityTasks"`
	ActiveTaskCount      int               `json:"activeTaskCount"`
	OverdueTaskCount     int               `json:"overdueTaskCount"`
	UpcomingMeetings     []MeetingItem     `json:"upcomingMeetings"`
}

type Options struct {
	Tasks               source.TaskReader
	Trainings           source.TrainingReader
	AdditionalTrainings source.AdditionalTrainingReader
	Events              source.EventReader

	Location *time.Location
	Now      func() time.Time
	// TopN caps every list widget; zero means 5.
	TopN int
}

type Summarizer struct {
	opts Options
}

func New(opts Options) *Summarizer {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TopN <= 0 {
		opts.TopN = defaultTopN
	}
	return &Summarizer{opts: opts}
}

// window is the set of civil dates the widgets compare against.
type window struct {
	today     model.Date
	weekStart model.Date
	weekEnd   model.Date
}

func (s *Summarizer) window() window {
	today := model.DateOf(s.opts.Now().In(s.opts.Location))
	wd := int(today.Weekday())
	if wd == 0 {
		wd = 7
	}
	return window{
		today:     today,
		weekStart: today.AddDays(1 - wd),
		weekEnd:   today.AddDays(7 - wd),
	}
}

// Summarize computes all six widgets concurrently.
func (s *Summarizer) Summarize(ctx context.Context) Summary {
	w := s.window()
	sum := Summary{Today: w.today}

	projections := []struct {
		name string
		run  func(context.Context, window, *Summary) error
	}{
		{"today_instructions", s.todayInstructions},
		{"week_instruction_count", s.weekInstructionCount},
		{"priority_tasks", s.priorityTasks},
		{"active_task_count", s.activeTaskCount},
		{"overdue_task_count", s.overdueTaskCount},
		{"upcoming_meetings", s.upcomingMeetings},
	}

	// Each projection writes only its own Summary fields.
	var wg sync.WaitGroup
	for _, p := range projections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					appLog.Error("dashboard: projection panicked", fmt.Errorf("%v", r), "widget", p.name)
				}
			}()
			if err := p.run(ctx, w, &sum); err != nil {
				appLog.Warn("dashboard: projection failed", "widget", p.name, "err", err)
			}
		}()
	}
	wg.Wait()

	if sum.TodayInstructions == nil {
		sum.TodayInstructions = []InstructionItem{}
	}
	if sum.PriorityTasks == nil {
		sum.PriorityTasks = []TaskItem{}
	}
	if sum.UpcomingMeetings == nil {
		sum.UpcomingMeetings = []MeetingItem{}
	}
	return sum
}

// dueInstructions lists trainings and additional trainings whose next date
// falls in [from, to], ascending by date.
func (s *Summarizer) dueInstructions(ctx context.Context, from, to model.Date) ([]InstructionItem, error) {
	if s.opts.Trainings == nil || s.opts.AdditionalTrainings == nil {
		return nil, fmt.Errorf("training stores not configured")
	}
	trainings, err := s.opts.Trainings.ListTrainings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trainings: %w", err)
	}
	additional, err := s.opts.AdditionalTrainings.ListAdditionalTrainings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list additional trainings: %w", err)
	}

	in := func(d model.Date) bool {
		return !d.IsZero() && !d.Before(from) && !d.After(to)
	}

	var out []InstructionItem
	for _, t := range trainings {
		if d := source.ToDate(t.NextTrainingDate, s.opts.Location); in(d) {
			out = append(out, InstructionItem{ID: t.ID, Title: t.TrainingName, Date: d, Source: model.SourceTraining})
		}
	}
	for _, t := range additional {
		if d := source.ToDate(t.NextTrainingDate, s.opts.Location); in(d) {
			out = append(out, InstructionItem{ID: t.ID, Title: t.TrainingName, Date: d, Source: model.SourceAdditionalTraining})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Summarizer) todayInstructions(ctx context.Context, w window, sum *Summary) error {
	items, err := s.dueInstructions(ctx, w.today, w.today)
	if err != nil {
		return err
	}
	sum.TodayInstructions = top(items, s.opts.TopN)
	return nil
}

func (s *Summarizer) weekInstructionCount(ctx context.Context, w window, sum *Summary) error {
	items, err := s.dueInstructions(ctx, w.today, w.weekEnd)
	if err != nil {
		return err
	}
	sum.WeekInstructionCount = len(items)
	return nil
}

func (s *Summarizer) openTasks(ctx context.Context) ([]model.Task, error) {
	if s.opts.Tasks == nil {
		return nil, fmt.Errorf("task store not configured")
	}
	tasks, err := s.opts.Tasks.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	open := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Open() {
			open = append(open, t)
		}
	}
	return open, nil
}

func (s *Summarizer) priorityTasks(ctx context.Context, w window, sum *Summary) error {
	tasks, err := s.openTasks(ctx)
	if err != nil {
		return err
	}
	var out []TaskItem
	for _, t := range tasks {
		if t.Priority == "" {
			continue
		}
		d := source.ToDate(t.PlannedCompletionDate, s.opts.Location)
		if d.IsZero() || d.Before(w.weekStart) || d.After(w.weekEnd) {
			continue
		}
		out = append(out, TaskItem{ID: t.ID, Title: t.TaskName, Date: d, Priority: t.Priority, Status: t.Status})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority == model.PriorityHigh && out[j].Priority != model.PriorityHigh
	})
	sum.PriorityTasks = top(out, s.opts.TopN)
	return nil
}

func (s *Summarizer) activeTaskCount(ctx context.Context, _ window, sum *Summary) error {
	tasks, err := s.openTasks(ctx)
	if err != nil {
		return err
	}
	sum.ActiveTaskCount = len(tasks)
	return nil
}

func (s *Summarizer) overdueTaskCount(ctx context.Context, w window, sum *Summary) error {
	tasks, err := s.openTasks(ctx)
	if err != nil {
		return err
	}
	n := 0
	for _, t := range tasks {
		if d := source.ToDate(t.PlannedCompletionDate, s.opts.Location); !d.IsZero() && d.Before(w.today) {
			n++
		}
	}
	sum.OverdueTaskCount = n
	return nil
}

func (s *Summarizer) upcomingMeetings(ctx context.Context, w window, sum *Summary) error {
	if s.opts.Events == nil {
		return fmt.Errorf("event store not configured")
	}
	events, err := s.opts.Events.ListCalendarEvents(ctx)
	if err != nil {
		return fmt.Errorf("list calendar events: %w", err)
	}
	var out []MeetingItem
	for _, ev := range events {
		if typ, _ := model.ParseEventType(ev.Type); typ != model.TypeMeeting {
			continue
		}
		d := source.ToDate(ev.EventDate, s.opts.Location)
		if d.IsZero() || d.Before(w.today) {
			continue
		}
		out = append(out, MeetingItem{Day: d.Day, Title: ev.Title, Date: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	sum.UpcomingMeetings = top(out, s.opts.TopN)
	return nil
}

func top[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[:n]
	}
	if items == nil {
		return []T{}
	}
	return items
}
