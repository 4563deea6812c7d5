package ics

import (
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"safetycal/internal/model"
)

var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("safetycal"))

// ExportOptions describes the generated feed.
type ExportOptions struct {
	Name     string
	Location *time.Location
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// Export renders events as an iCalendar feed. Undated events are skipped.
// Events with a time of day become timed VEVENTs in opts.Location, the rest
// are all-day.
func Export(events []model.CalendarEvent, opts ExportOptions) string {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ical.NewCalendarFor("safetycal")
	cal.SetMethod(ical.MethodPublish)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	cal.SetXWRTimezone(opts.Location.String())

	for _, ev := range events {
		if !ev.HasDate() {
			continue
		}
		ve := cal.AddEvent(EventUID(ev))
		ve.SetDtStampTime(opts.Now)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		ve.SetStatus(ical.ObjectStatusConfirmed)
		ve.AddCategory(string(ev.Type))
		if ev.Source != "" && string(ev.Source) != string(ev.Type) {
			ve.AddCategory(string(ev.Source))
		}
		for _, p := range ev.Participants {
			if strings.Contains(p, "@") {
				ve.AddAttendee("mailto:" + p)
			}
		}

		start, okStart := clockOn(ev.Date, ev.StartTime, opts.Location)
		if !okStart {
			ve.SetAllDayStartAt(ev.Date.Time(time.UTC))
			ve.SetAllDayEndAt(ev.Date.AddDays(1).Time(time.UTC))
			continue
		}
		ve.SetStartAt(start)
		if end, ok := clockOn(ev.Date, ev.EndTime, opts.Location); ok && end.After(start) {
			ve.SetEndAt(end)
		} else {
			ve.SetEndAt(start.Add(time.Hour))
		}
	}

	return cal.Serialize()
}

// EventUID is stable across exports: stored records are keyed by source and
// id, derived events by source, title and date.
func EventUID(ev model.CalendarEvent) string {
	var key string
	if ev.ID != nil {
		key = string(ev.Source) + "/" + strconv.FormatInt(*ev.ID, 10)
	} else {
		key = string(ev.Source) + "/" + ev.Title + "/" + ev.Date.String()
	}
	return uuid.NewSHA1(uidNamespace, []byte(key)).String() + "@safetycal"
}

func clockOn(d model.Date, hhmm string, loc *time.Location) (time.Time, bool) {
	if hhmm == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(d.Year, d.Month, d.Day, t.Hour(), t.Minute(), 0, 0, loc), true
}
