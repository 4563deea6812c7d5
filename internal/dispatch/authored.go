package dispatch

import (
	"fmt"
	"strings"

	"safetycal/internal/model"
)

// tagAdditionalTraining is the creation dialog's extra type tag. It is not an
// EventType; it selects the additional-training form.
const tagAdditionalTraining = "ADDITIONAL_TRAINING"

// Authored is an event as submitted from the calendar's creation dialog.
type Authored struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Date           string   `json:"date"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
	Type           string   `json:"type"`
	Priority       string   `json:"priority"`
	ValidityPeriod *int     `json:"validityPeriod"`
	Participants   []string `json:"participants"`
}

// Event converts a to a CalendarEvent. The ADDITIONAL_TRAINING tag becomes an
// INSTRUCTION event sourced from additional trainings.
func (a Authored) Event() (model.CalendarEvent, error) {
	date, err := model.ParseDate(strings.TrimSpace(a.Date))
	if err != nil {
		return model.CalendarEvent{}, fmt.Errorf("%w: %v", ErrInvalidDraft, err)
	}

	ev := model.CalendarEvent{
		Title:          strings.TrimSpace(a.Title),
		Description:    a.Description,
		Date:           date,
		StartTime:      a.StartTime,
		EndTime:        a.EndTime,
		ValidityPeriod: a.ValidityPeriod,
		Participants:   a.Participants,
	}

	tag := strings.ToUpper(strings.TrimSpace(a.Type))
	if tag == tagAdditionalTraining {
		ev.Type = model.TypeInstruction
		ev.Source = model.SourceAdditionalTraining
	} else {
		typ, ok := model.ParseEventType(tag)
		if !ok {
			return model.CalendarEvent{}, fmt.Errorf("%w: unknown type %q", ErrInvalidDraft, a.Type)
		}
		ev.Type = typ
	}

	if p := strings.ToUpper(strings.TrimSpace(a.Priority)); p != "" {
		ev.Priority = model.Priority(p)
	}
	return ev, nil
}
