package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"safetycal/internal/aggregate"
	"safetycal/internal/config"
	"safetycal/internal/dashboard"
	"safetycal/internal/dispatch"
	"safetycal/internal/i18n"
	"safetycal/internal/model"
	"safetycal/internal/source"
)

// fakeBackend serves every store from memory.
type fakeBackend struct {
	mu         sync.Mutex
	events     []model.StoredEvent
	tasks      []model.Task
	trainings  []model.Training
	additional []model.AdditionalTraining
	created    []model.StoredEvent
	listCalls  int
}

func (f *fakeBackend) ListCalendarEvents(context.Context) ([]model.StoredEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return append([]model.StoredEvent(nil), f.events...), nil
}

func (f *fakeBackend) ListTasks(context.Context) ([]model.Task, error) {
	return f.tasks, nil
}

func (f *fakeBackend) ListTrainings(context.Context) ([]model.Training, error) {
	return f.trainings, nil
}

func (f *fakeBackend) ListAdditionalTrainings(context.Context) ([]model.AdditionalTraining, error) {
	return f.additional, nil
}

func (f *fakeBackend) ListSafetyInstructions(context.Context) ([]model.SafetyInstruction, error) {
	return nil, nil
}

func (f *fakeBackend) CreateCalendarEvent(_ context.Context, ev model.StoredEvent) (model.StoredEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev.ID = model.Int64(int64(100 + len(f.created)))
	f.created = append(f.created, ev)
	f.events = append(f.events, ev)
	return ev, nil
}

var testNow = time.Date(2024, time.May, 15, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *fakeBackend) {
	t.Helper()

	be := &fakeBackend{
		events: []model.StoredEvent{
			{ID: model.Int64(1), Title: "Meeting: Safety committee", Type: "MEETING",
				EventDate: model.RawDateString("2024-05-15"), StartTime: "10:00:00", EndTime: "11:00"},
		},
		tasks: []model.Task{
			{ID: 2, TaskName: "Inspect ladders", Status: model.StatusTodo, Priority: model.PriorityHigh,
				PlannedCompletionDate: model.RawDateString("2024-05-16")},
		},
		trainings: []model.Training{
			{ID: 3, TrainingName: "Working at height", NextTrainingDate: model.RawDateString("2024-02-20"),
				ValidityPeriod: model.Int(3), Employee: &model.EmployeeRef{ID: 9, FirstName: "Ivan", LastName: "Petrov"}},
		},
	}

	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	cfg.Locale = "en"
	cfg.Capture.OutputPath = t.TempDir() + "/preview.png"
	if mutate != nil {
		mutate(cfg)
	}

	now := func() time.Time { return testNow }
	bundle := i18n.NewBundle(cfg.Locale)
	ind := &aggregate.Indicator{}
	env := source.Env{Tr: bundle.For(cfg.Locale), Loc: time.UTC}
	tracker := aggregate.NewTracker(aggregate.New(source.All(be, be, be, be, be, env), ind), now)
	prefills := dispatch.NewPrefillStore(time.Minute, now)
	disp, err := dispatch.New(dispatch.Options{
		Navigator: prefills,
		Store:     be,
		Reloader:  tracker,
		Indicator: ind,
		Location:  time.UTC,
		Now:       now,
	})
	if err != nil {
		t.Fatal(err)
	}
	dash := dashboard.New(dashboard.Options{
		Tasks: be, Trainings: be, AdditionalTrainings: be, Events: be,
		Location: time.UTC, Now: now,
	})

	s, err := NewServer(Options{
		Config:     cfg,
		Tracker:    tracker,
		Bundle:     bundle,
		Dispatcher: disp,
		Prefills:   prefills,
		Dashboard:  dash,
		Now:        now,
	})
	if err != nil {
		t.Fatalf("NewServer() returned an error: %v", err)
	}
	return s, be
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestBasicAuth(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "hse", Password: "secret"}
	})
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("/health should bypass auth, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/events", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without credentials, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.SetBasicAuth("hse", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with credentials, got %d", rec.Code)
	}
}

func TestEvents_RawStreamInAdapterOrder(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/events", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	resp := decode[eventsResponse](t, rec)
	if resp.Generation != 1 {
		t.Errorf("Expected generation 1, got %d", resp.Generation)
	}
	want := []model.SourceKind{model.SourceCalendarEvent, model.SourceTask, model.SourceTraining}
	if len(resp.Events) != len(want) {
		t.Fatalf("Expected %d events, got %+v", len(want), resp.Events)
	}
	for i, k := range want {
		if resp.Events[i].Source != k {
			t.Errorf("event %d: source %s, want %s", i, resp.Events[i].Source, k)
		}
	}
}

func TestEvents_CachedWithinTTL(t *testing.T) {
	s, be := newTestServer(t, nil)
	h := s.Handler()
	do(t, h, http.MethodGet, "/api/events", "")
	do(t, h, http.MethodGet, "/api/events", "")
	if be.listCalls != 1 {
		t.Errorf("Expected one aggregation within the TTL, got %d", be.listCalls)
	}
}

func TestCalendar_Month(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/calendar?month=2024-05&lang=en", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[monthResponse](t, rec)

	if resp.Title != "May 2024" || resp.Prev != "2024-04" || resp.Next != "2024-06" {
		t.Errorf("Unexpected header %q %s %s", resp.Title, resp.Prev, resp.Next)
	}
	if len(resp.Weeks) != 5 || resp.Weekdays[0] != "Mon" || resp.Weekdays[6] != "Sun" {
		t.Fatalf("Unexpected grid: %d weeks, weekdays %v", len(resp.Weeks), resp.Weekdays)
	}

	byDate := map[string][]string{}
	for _, week := range resp.Weeks {
		for _, d := range week {
			for _, v := range d.Events {
				byDate[d.Date.String()] = append(byDate[d.Date.String()], v.Title)
			}
			if d.Date.String() == "2024-05-15" && !d.IsToday {
				t.Error("15 May should be flagged as today")
			}
		}
	}
	if got := byDate["2024-05-15"]; len(got) != 1 || got[0] != "Safety committee" {
		t.Errorf("Expected cleaned meeting title on 15 May, got %v", got)
	}
	if got := byDate["2024-05-16"]; len(got) != 1 || got[0] != "Inspect ladders" {
		t.Errorf("Expected task on 16 May, got %v", got)
	}
	// 20 Feb + 3 months.
	if got := byDate["2024-05-20"]; len(got) != 1 || got[0] != "Working at height" {
		t.Errorf("Expected recurring training occurrence on 20 May, got %v", got)
	}
}

func TestCalendar_RecurrenceToggle(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Calendar.ExpandRecurring = false })
	resp := decode[monthResponse](t, do(t, s.Handler(), http.MethodGet, "/api/calendar?month=2024-05", ""))
	for _, week := range resp.Weeks {
		for _, d := range week {
			for _, v := range d.Events {
				if v.Title == "Working at height" {
					t.Errorf("No occurrence expected with expansion off, found on %s", d.Date)
				}
			}
		}
	}
}

func TestCalendar_BadMonth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if rec := do(t, s.Handler(), http.MethodGet, "/api/calendar?month=May", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestCalendarDay_LocalizedViews(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/calendar/day?date=2024-05-15&lang=ru", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	resp := decode[dayResponse](t, rec)
	if resp.Locale != "ru" || len(resp.Events) != 1 {
		t.Fatalf("Unexpected day response %+v", resp)
	}
	if v := resp.Events[0]; v.TypeLabel != "Встреча" || v.Time != "10:00–11:00" {
		t.Errorf("Unexpected view %+v", v)
	}

	if rec := do(t, s.Handler(), http.MethodGet, "/api/calendar/day?date=", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing date, got %d", rec.Code)
	}
}

func TestCreate_TaskNavigatesWithOneShotPrefill(t *testing.T) {
	s, be := newTestServer(t, nil)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/events", `{"title":"X","date":"2024-05-30","type":"TASK"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	out := decode[dispatch.Outcome](t, rec)
	if out.Navigation == nil || out.Navigation.Route != dispatch.RouteTask || out.Navigation.Token == "" {
		t.Fatalf("Unexpected outcome %+v", out)
	}
	if len(be.created) != 0 {
		t.Error("Tasks must not reach the generic store")
	}

	rec = do(t, h, http.MethodGet, "/api/prefill/"+out.Navigation.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected prefill, got %d", rec.Code)
	}
	var pre struct {
		Route string         `json:"route"`
		Draft map[string]any `json:"draft"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &pre); err != nil {
		t.Fatal(err)
	}
	if pre.Route != dispatch.RouteTask || pre.Draft["taskName"] != "X" || pre.Draft["creationDate"] != "2024-05-15" {
		t.Errorf("Unexpected prefill %+v", pre)
	}

	if rec := do(t, h, http.MethodGet, "/api/prefill/"+out.Navigation.Token, ""); rec.Code != http.StatusNotFound {
		t.Errorf("Second read should be 404, got %d", rec.Code)
	}
}

func TestCreate_MeetingIsStoredAndReloaded(t *testing.T) {
	s, be := newTestServer(t, nil)
	h := s.Handler()
	do(t, h, http.MethodGet, "/api/events", "")

	rec := do(t, h, http.MethodPost, "/api/events", `{"title":"Drill debrief","date":"2024-05-17","type":"MEETING","startTime":"14:00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(be.created) != 1 || be.created[0].Title != "Drill debrief" {
		t.Fatalf("Unexpected store writes %+v", be.created)
	}

	resp := decode[eventsResponse](t, do(t, h, http.MethodGet, "/api/events", ""))
	if resp.Generation != 2 {
		t.Errorf("Create should trigger a reload, generation %d", resp.Generation)
	}
	if len(resp.Events) != 4 {
		t.Errorf("Expected the new meeting in the stream, got %d events", len(resp.Events))
	}
}

func TestCreate_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, nil)
	h := s.Handler()
	for _, body := range []string{
		`{not json`,
		`{"title":"x","date":"2024-05-01","type":"PARTY"}`,
		`{"title":"x","date":"01.05.2024","type":"MEETING"}`,
		`{"title":"","date":"2024-05-01","type":"INSTRUCTION"}`,
	} {
		if rec := do(t, h, http.MethodPost, "/api/events", body); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestDashboard(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	sum := decode[dashboard.Summary](t, rec)
	if sum.ActiveTaskCount != 1 || len(sum.PriorityTasks) != 1 || len(sum.UpcomingMeetings) != 1 {
		t.Errorf("Unexpected summary %+v", sum)
	}
}

func TestCalendarPage(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/calendar?month=2024-05&lang=ru", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`data-ready="true"`, "Май 2024", "Safety committee", `lang="ru"`} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestICSExport(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/calendar.ics?month=2024-05", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Unexpected content type %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "SUMMARY:Safety committee") || !strings.Contains(body, "SUMMARY:Inspect ladders") {
		t.Errorf("ICS missing events:\n%s", body)
	}
	if strings.Contains(body, "DTSTART;VALUE=DATE:20240220") {
		t.Error("Events outside the month grid must not be exported")
	}
}

func TestPreviewMissing(t *testing.T) {
	s, _ := newTestServer(t, nil)
	if rec := do(t, s.Handler(), http.MethodGet, "/preview.png", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 before the first capture, got %d", rec.Code)
	}
}
