package calendar

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "safetycal/internal/log"
	"safetycal/internal/model"
)

// MaxOccurrencesPerEvent caps derived occurrences per source event.
const MaxOccurrencesPerEvent = 240

// ExpandRecurring returns events followed by the derived occurrences of every
// training-family event with a positive validity period. An event repeats
// every ValidityPeriod months after its own date; occurrences falling in
// [from, to] are added, the source date itself excluded. Derived occurrences
// carry no ID. Source events are returned unchanged and in order.
func ExpandRecurring(events []model.CalendarEvent, from, to model.Date) []model.CalendarEvent {
	out := make([]model.CalendarEvent, 0, len(events))
	out = append(out, events...)

	if from.IsZero() || to.IsZero() || to.Before(from) {
		return out
	}

	for _, ev := range events {
		if !recurs(ev) {
			continue
		}
		occ, hitCap := occurrences(ev, from, to)
		if hitCap {
			appLog.Warn("expand: truncated occurrences due to cap",
				"title", ev.Title, "source", ev.Source, "cap", MaxOccurrencesPerEvent)
		}
		out = append(out, occ...)
	}
	return out
}

func recurs(ev model.CalendarEvent) bool {
	return ev.Source.TrainingFamily() &&
		ev.HasDate() &&
		!ev.Degraded &&
		ev.ValidityPeriod != nil && *ev.ValidityPeriod > 0
}

func occurrences(ev model.CalendarEvent, from, to model.Date) ([]model.CalendarEvent, bool) {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.MONTHLY,
		Interval: *ev.ValidityPeriod,
		Dtstart:  ev.Date.Time(time.UTC),
	})
	if err != nil {
		appLog.Error("expand: failed to build rule", err, "title", ev.Title, "validity", *ev.ValidityPeriod)
		return nil, false
	}

	times := r.Between(from.Time(time.UTC), to.Time(time.UTC), true)

	out := make([]model.CalendarEvent, 0, len(times))
	for _, t := range times {
		d := model.DateOf(t)
		if d == ev.Date {
			continue
		}
		if len(out) == MaxOccurrencesPerEvent {
			return out, true
		}
		derived := ev
		derived.ID = nil
		derived.Date = d
		out = append(out, derived)
	}
	return out, false
}
