package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"safetycal/internal/aggregate"
	"safetycal/internal/calendar"
	"safetycal/internal/i18n"
	"safetycal/internal/ics"
	appLog "safetycal/internal/log"
	"safetycal/internal/model"
	"safetycal/internal/present"
)

const monthLayout = "2006-01"

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Generation uint64                `json:"generation"`
	LoadedAt   time.Time             `json:"loaded_at"`
	Loading    bool                  `json:"loading"`
	Events     []model.CalendarEvent `json:"events"`
}

// dayView is one grid cell as rendered.
type dayView struct {
	Date         model.Date     `json:"date"`
	IsOtherMonth bool           `json:"isOtherMonth"`
	IsToday      bool           `json:"isToday"`
	Events       []present.View `json:"events"`
}

// monthResponse is the JSON response shape for /api/calendar and the data of
// the month page.
type monthResponse struct {
	Locale     string      `json:"locale"`
	Heading    string      `json:"heading"`
	Title      string      `json:"title"`
	Month      string      `json:"month"`
	Prev       string      `json:"prev"`
	Next       string      `json:"next"`
	Weekdays   []string    `json:"weekdays"`
	Weeks      [][]dayView `json:"weeks"`
	Generation uint64      `json:"generation"`
	Loading    bool        `json:"loading"`
}

type dayResponse struct {
	Date       model.Date     `json:"date"`
	Locale     string         `json:"locale"`
	Events     []present.View `json:"events"`
	Generation uint64         `json:"generation"`
	Loading    bool           `json:"loading"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	res := s.tracker.Ensure(r.Context(), eventsTTL)
	events := res.Events
	if events == nil {
		events = []model.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{
		Generation: res.Generation,
		LoadedAt:   res.LoadedAt,
		Loading:    s.tracker.Loading(),
		Events:     events,
	})
}

// parseMonth reads ?month=YYYY-MM. An empty value means the tracker's month.
func (s *Server) parseMonth(v string) (time.Time, error) {
	if v == "" {
		m := s.tracker.Month()
		return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, s.loc), nil
	}
	t, err := time.ParseInLocation(monthLayout, v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", v)
	}
	return t, nil
}

// load returns the aggregation for anchor's month. Switching months re-runs
// the full aggregation, like navigating the calendar.
func (s *Server) load(ctx context.Context, anchor time.Time) aggregate.Result {
	first := model.Date{Year: anchor.Year(), Month: anchor.Month(), Day: 1}
	if first != s.tracker.Month() {
		res, _ := s.tracker.Navigate(ctx, anchor)
		return res
	}
	return s.tracker.Ensure(ctx, eventsTTL)
}

// expand adds recurrence occurrences for [from, to] when enabled.
func (s *Server) expand(events []model.CalendarEvent, from, to model.Date) []model.CalendarEvent {
	if !s.cfg.Calendar.ExpandRecurring {
		return events
	}
	return calendar.ExpandRecurring(events, from, to)
}

func (s *Server) buildMonth(res aggregate.Result, anchor time.Time, tr i18n.Translator) monthResponse {
	grid := calendar.BuildMonthGrid(anchor)
	events := s.expand(res.Events, grid[0].Date, grid[len(grid)-1].Date)
	month := calendar.BuildMonth(anchor, events)
	norm := present.NewNormalizer(tr)
	today := model.DateOf(s.now().In(s.loc))

	out := monthResponse{
		Locale:     tr.Locale(),
		Heading:    tr.T("calendar.title"),
		Title:      fmt.Sprintf("%s %d", tr.T(fmt.Sprintf("calendar.months.%d", int(month.Month))), month.Year),
		Month:      anchor.Format(monthLayout),
		Prev:       anchor.AddDate(0, -1, 0).Format(monthLayout),
		Next:       anchor.AddDate(0, 1, 0).Format(monthLayout),
		Weekdays:   make([]string, 0, 7),
		Weeks:      make([][]dayView, 0, len(month.Weeks)),
		Generation: res.Generation,
		Loading:    s.tracker.Loading(),
	}
	for i := 1; i <= 7; i++ {
		out.Weekdays = append(out.Weekdays, tr.T(fmt.Sprintf("calendar.weekdays.%d", i)))
	}
	for _, week := range month.Weeks {
		row := make([]dayView, 0, len(week))
		for _, d := range week {
			row = append(row, dayView{
				Date:         d.Date,
				IsOtherMonth: d.IsOtherMonth,
				IsToday:      d.Date == today,
				Events:       norm.PresentAll(d.Events),
			})
		}
		out.Weeks = append(out.Weeks, row)
	}
	return out
}

// handleCalendar returns the month grid with presented events.
//
// GET /api/calendar?month=2024-05&lang=en
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	anchor, err := s.parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res := s.load(r.Context(), anchor)
	writeJSON(w, http.StatusOK, s.buildMonth(res, anchor, s.translator(r)))
}

// handleDay returns the presented events of one date.
//
// GET /api/calendar/day?date=2024-05-15
func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("date")
	date, err := model.ParseDate(raw)
	if err != nil || date.IsZero() {
		writeError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return
	}
	res := s.tracker.Ensure(r.Context(), eventsTTL)
	events := calendar.Day(date, s.expand(res.Events, date, date))
	tr := s.translator(r)
	writeJSON(w, http.StatusOK, dayResponse{
		Date:       date,
		Locale:     tr.Locale(),
		Events:     present.NewNormalizer(tr).PresentAll(events),
		Generation: res.Generation,
		Loading:    s.tracker.Loading(),
	})
}

func (s *Server) handleCalendarPage(w http.ResponseWriter, r *http.Request) {
	anchor, err := s.parseMonth(r.URL.Query().Get("month"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res := s.load(r.Context(), anchor)
	data := s.buildMonth(res, anchor, s.translator(r))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "month.html.tmpl", data); err != nil {
		appLog.Error("failed to render month page", err, "month", data.Month)
	}
}

// handleICS exports events as iCalendar. With ?month= only that month's grid
// is exported, recurrence included; otherwise every dated event.
func (s *Server) handleICS(w http.ResponseWriter, r *http.Request) {
	tr := s.translator(r)
	res := s.tracker.Ensure(r.Context(), eventsTTL)
	events := res.Events

	if v := r.URL.Query().Get("month"); v != "" {
		anchor, err := s.parseMonth(v)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		grid := calendar.BuildMonthGrid(anchor)
		from, to := grid[0].Date, grid[len(grid)-1].Date
		events = nil
		for _, ev := range s.expand(res.Events, from, to) {
			if ev.HasDate() && !ev.Date.Before(from) && !ev.Date.After(to) {
				events = append(events, ev)
			}
		}
	}

	norm := present.NewNormalizer(tr)
	display := make([]model.CalendarEvent, 0, len(events))
	for _, ev := range events {
		v := norm.Present(ev)
		ev.Title = v.Title
		ev.Description = v.Description
		if ev.Description == "" && len(v.Details) > 0 {
			lines := make([]string, 0, len(v.Details))
			for _, d := range v.Details {
				lines = append(lines, d.Label+": "+d.Value)
			}
			ev.Description = strings.Join(lines, "\n")
		}
		display = append(display, ev)
	}

	body := ics.Export(display, ics.ExportOptions{
		Name:     tr.T("calendar.title"),
		Location: s.loc,
		Now:      s.now(),
	})
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="safetycal.ics"`)
	_, _ = w.Write([]byte(body))
}
