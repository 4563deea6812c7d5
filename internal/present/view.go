package present

import (
	"strings"

	"safetycal/internal/i18n"
	"safetycal/internal/model"
)

// Detail is one labelled line of an event card.
type Detail struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// View is the display projection of one event.
type View struct {
	Event model.CalendarEvent `json:"event"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	TypeLabel     string   `json:"typeLabel"`
	SourceLabel   string   `json:"sourceLabel,omitempty"`
	PriorityLabel string   `json:"priorityLabel,omitempty"`
	StatusLabel   string   `json:"statusLabel,omitempty"`
	Time          string   `json:"time,omitempty"`
	Details       []Detail `json:"details,omitempty"`
}

// Normalizer renders events for one locale.
type Normalizer struct {
	tr   i18n.Translator
	repl *strings.Replacer
}

func NewNormalizer(tr i18n.Translator) *Normalizer {
	return &Normalizer{tr: tr, repl: descriptionReplacer(tr)}
}

// Locale returns the locale the normalizer renders in.
func (n *Normalizer) Locale() string {
	return n.tr.Locale()
}

// Present builds the display view of ev.
func (n *Normalizer) Present(ev model.CalendarEvent) View {
	v := View{
		Event:       ev,
		Title:       ev.Title,
		Description: ev.Description,
		TypeLabel:   n.tr.T("calendar.eventTypes." + string(ev.Type)),
		Time:        timeRange(ev.StartTime, ev.EndTime),
	}

	if Generic(ev) && !ev.Degraded {
		v.Title = StripKnownTypePrefix(ev.Title)
		if ev.Type != model.TypeInstruction {
			v.Description = n.repl.Replace(ev.Description)
		}
	}
	if ev.Source != "" && ev.Source != model.SourceCalendarEvent {
		v.SourceLabel = n.tr.T("calendar.eventTypes." + string(ev.Source))
	}
	if ev.Priority != "" {
		v.PriorityLabel = n.tr.T("calendar.priority." + string(ev.Priority))
	}
	if ev.Status != "" {
		v.StatusLabel = n.tr.T("calendar.status." + string(ev.Status))
	}

	if ev.Type == model.TypeInstruction {
		// Structured fields replace the adapter-built description.
		v.Details = n.instructionDetails(ev)
		if len(v.Details) > 0 && !ev.Degraded {
			v.Description = ""
		}
	} else if len(ev.Participants) > 0 {
		v.Details = []Detail{{
			Label: n.tr.T("calendar.fields.participants"),
			Value: strings.Join(ev.Participants, ", "),
		}}
	}
	return v
}

// PresentAll presents events in order.
func (n *Normalizer) PresentAll(events []model.CalendarEvent) []View {
	out := make([]View, 0, len(events))
	for _, ev := range events {
		out = append(out, n.Present(ev))
	}
	return out
}

func (n *Normalizer) instructionDetails(ev model.CalendarEvent) []Detail {
	var out []Detail
	switch ev.Source {
	case model.SourceTraining:
		out = append(out, n.field("calendar.fields.employee", ev.EmployeeName, "calendar.unknownEmployee"))
	case model.SourceAdditionalTraining:
		out = append(out, n.field("calendar.fields.profession", ev.ProfessionName, "calendar.unknownProfession"))
	case model.SourceSafetyInstruction:
		out = append(out,
			n.field("calendar.fields.profession", ev.ProfessionName, "calendar.unknownProfession"),
			n.field("calendar.fields.position", ev.PositionName, "calendar.unknownPosition"),
		)
	}
	if ev.ValidityPeriod != nil && *ev.ValidityPeriod > 0 {
		out = append(out, Detail{
			Label: n.tr.T("calendar.fields.validityPeriod"),
			Value: n.tr.T("calendar.validityMonths", "count", *ev.ValidityPeriod),
		})
	}
	return out
}

func (n *Normalizer) field(labelKey, value, unknownKey string) Detail {
	if strings.TrimSpace(value) == "" {
		value = n.tr.T(unknownKey)
	}
	// Placeholders were written in the adapter's locale.
	return Detail{Label: n.tr.T(labelKey), Value: n.repl.Replace(value)}
}

func timeRange(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + "–" + end
	default:
		return start
	}
}
