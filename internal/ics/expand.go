package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "safetycal/internal/log"
	"safetycal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 500

// ImportConfig controls how parsed VEVENTs become calendar events.
type ImportConfig struct {
	// Location turns timed occurrences into calendar dates and HH:mm times.
	// Nil means time.Local.
	Location *time.Location

	// From / To bound the imported occurrences, inclusive. Both are required
	// when the payload contains recurring events.
	From model.Date
	To   model.Date

	// Type of the resulting events; MEETING when empty.
	Type model.EventType

	MaxOccurrencesPerEvent int
}

// ToEvents turns parsed VEVENTs into calendar events. Recurring events are
// expanded within [From, To], honoring EXDATE and RECURRENCE-ID overrides.
// Imported events have no id; they get one when they are stored.
func ToEvents(parsed []ParsedEvent, cfg ImportConfig) ([]model.CalendarEvent, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Type == "" {
		cfg.Type = model.TypeMeeting
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}
	bounded := !cfg.From.IsZero() && !cfg.To.IsZero()
	if bounded && cfg.To.Before(cfg.From) {
		return nil, errors.New("import: To is before From")
	}

	overrides := make(map[string][]ParsedEvent)
	for _, ev := range parsed {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	out := make([]model.CalendarEvent, 0, len(parsed))
	for _, ev := range parsed {
		if ev.IsOverride() {
			continue
		}
		if ev.RawRRule == "" {
			if !bounded || cfg.inRange(ev.Start, ev.AllDay) {
				out = append(out, cfg.event(ev, ev.Start, ev.End))
			}
			continue
		}
		if !bounded {
			appLog.Warn("import: recurring event needs a date range, importing first instance only", "uid", ev.UID)
			out = append(out, cfg.event(ev, ev.Start, ev.End))
			continue
		}
		out = append(out, cfg.expand(ev, overrides[ev.UID])...)
	}

	// Overrides whose base event is missing are imported as single events.
	for uid, ovs := range overrides {
		if hasBase(parsed, uid) {
			continue
		}
		for _, ov := range ovs {
			if !bounded || cfg.inRange(ov.Start, ov.AllDay) {
				out = append(out, cfg.event(ov, ov.Start, ov.End))
			}
		}
	}
	return out, nil
}

func hasBase(parsed []ParsedEvent, uid string) bool {
	for _, ev := range parsed {
		if ev.UID == uid && !ev.IsOverride() {
			return true
		}
	}
	return false
}

func (cfg ImportConfig) expand(ev ParsedEvent, overrides []ParsedEvent) []model.CalendarEvent {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("import: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	from := cfg.From.Time(loc)
	to := cfg.To.AddDays(1).Time(loc).Add(-time.Nanosecond)
	times := set.Between(from, to, true)

	if len(times) > cfg.MaxOccurrencesPerEvent {
		appLog.Warn("import: truncated occurrences due to cap", "uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		times = times[:cfg.MaxOccurrencesPerEvent]
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]model.CalendarEvent, 0, len(times))
	for _, start := range times {
		base, s, e := ev, start, start.Add(dur)
		if o, ok := findOverride(overrides, start); ok {
			base, s, e = o, o.Start, o.End
		}
		out = append(out, cfg.event(base, s, e))
	}
	return out
}

// findOverride finds the override whose RECURRENCE-ID is exactly start.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func (cfg ImportConfig) date(t time.Time, allDay bool) model.Date {
	if allDay {
		return model.DateOf(t)
	}
	return model.DateOf(t.In(cfg.Location))
}

func (cfg ImportConfig) inRange(t time.Time, allDay bool) bool {
	d := cfg.date(t, allDay)
	return !d.Before(cfg.From) && !d.After(cfg.To)
}

func (cfg ImportConfig) event(ev ParsedEvent, start, end time.Time) model.CalendarEvent {
	out := model.CalendarEvent{
		Title:       ev.Summary,
		Description: ev.Description,
		Date:        cfg.date(start, ev.AllDay),
		Type:        cfg.Type,
	}
	if out.Description == "" && ev.Location != "" {
		out.Description = ev.Location
	}
	if !ev.AllDay {
		out.StartTime = start.In(cfg.Location).Format("15:04")
		if end.After(start) {
			out.EndTime = end.In(cfg.Location).Format("15:04")
		}
	}
	if len(ev.Attendees) > 0 {
		out.Participants = append([]string(nil), ev.Attendees...)
	}
	return out
}
