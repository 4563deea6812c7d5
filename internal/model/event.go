package model

import "strings"

// EventType is the coarse discriminant shown on the calendar.
type EventType string

const (
	TypeTask        EventType = "TASK"
	TypeInstruction EventType = "INSTRUCTION"
	TypeMeeting     EventType = "MEETING"
	TypeTraining    EventType = "TRAINING"
	TypeOther       EventType = "OTHER"
)

// ParseEventType accepts a type tag case-insensitively. Unknown tags report false.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeTask, TypeInstruction, TypeMeeting, TypeTraining, TypeOther:
		return t, true
	default:
		return TypeOther, false
	}
}

// SourceKind records which backend resource an event came from. Several
// kinds share TypeInstruction, so dispatch and rendering look at this field
// instead of the coarse type.
type SourceKind string

const (
	SourceCalendarEvent      SourceKind = "CALENDAR_EVENT"
	SourceTask               SourceKind = "TASK"
	SourceTraining           SourceKind = "TRAINING"
	SourceAdditionalTraining SourceKind = "ADDITIONAL_TRAINING"
	SourceSafetyInstruction  SourceKind = "SAFETY_INSTRUCTION"
)

// TrainingFamily reports whether k is one of the kinds collapsed into TypeInstruction.
func (k SourceKind) TrainingFamily() bool {
	switch k {
	case SourceTraining, SourceAdditionalTraining, SourceSafetyInstruction:
		return true
	default:
		return false
	}
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// CalendarEvent is the unified event shape produced by every source adapter.
// Type-specific attachments are only set by the sources that own them.
type CalendarEvent struct {
	ID          *int64     `json:"id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Date        Date       `json:"date"`
	StartTime   string     `json:"startTime,omitempty"`
	EndTime     string     `json:"endTime,omitempty"`
	Type        EventType  `json:"type"`
	Source      SourceKind `json:"sourceKind,omitempty"`

	// Tasks.
	Priority Priority   `json:"priority,omitempty"`
	Status   TaskStatus `json:"status,omitempty"`

	// Trainings.
	EmployeeID   *int64 `json:"employeeId,omitempty"`
	EmployeeName string `json:"employeeName,omitempty"`

	// Additional trainings and safety instructions.
	ProfessionID   *int64 `json:"professionId,omitempty"`
	ProfessionName string `json:"professionName,omitempty"`
	PositionID     *int64 `json:"positionId,omitempty"`
	PositionName   string `json:"positionName,omitempty"`

	// ValidityPeriod is in months.
	ValidityPeriod *int     `json:"validityPeriod,omitempty"`
	Participants   []string `json:"participants,omitempty"`

	// Degraded marks a placeholder built after a per-record conversion failure.
	Degraded bool `json:"degraded,omitempty"`
}

// HasDate reports whether the event can be placed on a calendar cell.
func (e CalendarEvent) HasDate() bool {
	return !e.Date.IsZero()
}

// Int64 returns a pointer to v; handy for optional ids.
func Int64(v int64) *int64 {
	return &v
}

// Int returns a pointer to v.
func Int(v int) *int {
	return &v
}
