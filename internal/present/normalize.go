// Package present turns aggregated events into what the calendar displays.
// Nothing here mutates the events it is given.
package present

import (
	"regexp"
	"strings"

	"safetycal/internal/i18n"
	"safetycal/internal/model"
)

// maxPrefixDepth bounds how many stacked "<Type>: " prefixes are removed.
const maxPrefixDepth = 3

// spaceLike are characters stored titles contain in place of plain spaces.
var spaceLike = strings.NewReplacer(
	"\u00a0", " ", // no-break space
	"\u202f", " ", // narrow no-break space
	"\u2007", " ", // figure space
	"\u200b", " ", // zero width space
	"\u200c", " ", // zero width non-joiner
	"\u200d", " ", // zero width joiner
	"\ufeff", " ", // BOM
)

// typeLabels are the type names generic events get prefixed with, both
// locales, singular and plural.
var typeLabels = []string{
	// en
	"Additional trainings", "Additional training",
	"Safety instructions", "Safety instruction",
	"Instructions", "Instruction",
	"Meetings", "Meeting",
	"Trainings", "Training",
	"Events", "Event",
	"Tasks", "Task",
	"Other",
	// ru
	"Дополнительные обучения", "Дополнительное обучение",
	"Инструкции по охране труда", "Инструкция по охране труда",
	"Инструктажи", "Инструктаж",
	"Встречи", "Встреча",
	"Обучения", "Обучение",
	"События", "Событие",
	"Задачи", "Задача",
	"Другое",
}

var typePrefix = buildTypePrefix(typeLabels)

func buildTypePrefix(labels []string) *regexp.Regexp {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	return regexp.MustCompile(`(?i)^\s*(?:` + strings.Join(quoted, "|") + `)(?:\s*:|\s+[-–—])\s*`)
}

// StripKnownTypePrefix removes up to three leading "<Type label><sep>"
// prefixes from title, after normalizing space-like characters.
func StripKnownTypePrefix(title string) string {
	s := spaceLike.Replace(title)
	for i := 0; i < maxPrefixDepth; i++ {
		loc := typePrefix.FindStringIndex(s)
		if loc == nil {
			break
		}
		s = s[loc[1]:]
	}
	return strings.TrimSpace(s)
}

// descriptionPhrases maps catalog keys to the literal phrases adapters and
// older stored events write, in every locale.
var descriptionPhrases = []struct {
	key    string
	suffix string
	forms  []string
}{
	{key: "calendar.fields.employee", suffix: ":", forms: []string{"Employee:", "Сотрудник:"}},
	{key: "calendar.fields.profession", suffix: ":", forms: []string{"Profession:", "Профессия:"}},
	{key: "calendar.fields.position", suffix: ":", forms: []string{"Position:", "Должность:"}},
	{key: "calendar.unknownEmployee", forms: []string{"Unknown employee", "Неизвестный сотрудник"}},
	{key: "calendar.unknownProfession", forms: []string{"Unknown profession", "Неизвестная профессия"}},
	{key: "calendar.unknownPosition", forms: []string{"Unknown position", "Неизвестная должность"}},
}

func descriptionReplacer(tr i18n.Translator) *strings.Replacer {
	var pairs []string
	for _, p := range descriptionPhrases {
		target := tr.T(p.key) + p.suffix
		for _, f := range p.forms {
			pairs = append(pairs, f, target)
		}
	}
	return strings.NewReplacer(pairs...)
}

// TranslateDescription rewrites known field labels and placeholder phrases in
// ev's description into tr's locale. INSTRUCTION events are returned as is;
// their details are rendered from structured fields instead.
func TranslateDescription(ev model.CalendarEvent, tr i18n.Translator) string {
	if ev.Type == model.TypeInstruction {
		return ev.Description
	}
	return descriptionReplacer(tr).Replace(ev.Description)
}

// Generic reports whether ev came from the generic calendar-event store.
// Events without a recorded source are treated the same way.
func Generic(ev model.CalendarEvent) bool {
	return ev.Source == model.SourceCalendarEvent || ev.Source == ""
}
