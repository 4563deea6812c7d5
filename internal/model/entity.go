package model

import "strings"

// Records as exposed by the HR/safety backend REST API. Only the fields the
// calendar consumes are declared.

type EmployeeRef struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FullName joins first and last name, skipping empty parts.
func (e *EmployeeRef) FullName() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimSpace(e.FirstName) + " " + strings.TrimSpace(e.LastName))
}

type ProfessionRef struct {
	ID             int64  `json:"id"`
	ProfessionName string `json:"professionName"`
}

type PositionRef struct {
	ID           int64  `json:"id"`
	PositionName string `json:"positionName"`
}

type Task struct {
	ID                    int64        `json:"id"`
	TaskName              string       `json:"taskName"`
	Body                  string       `json:"body"`
	CreationDate          RawDate      `json:"creationDate"`
	PlannedCompletionDate RawDate      `json:"plannedCompletionDate"`
	Priority              Priority     `json:"priority"`
	Status                TaskStatus   `json:"status"`
	Employee              *EmployeeRef `json:"employee"`
}

// Open reports whether the task still needs work.
func (t Task) Open() bool {
	return t.Status != StatusDone
}

type Training struct {
	ID               int64        `json:"id"`
	TrainingName     string       `json:"trainingName"`
	LastTrainingDate RawDate      `json:"lastTrainingDate"`
	NextTrainingDate RawDate      `json:"nextTrainingDate"`
	ValidityPeriod   *int         `json:"validityPeriod"`
	Employee         *EmployeeRef `json:"employee"`
}

type AdditionalTraining struct {
	ID               int64          `json:"id"`
	TrainingName     string         `json:"trainingName"`
	TrainingDate     RawDate        `json:"trainingDate"`
	NextTrainingDate RawDate        `json:"nextTrainingDate"`
	ValidityPeriod   *int           `json:"validityPeriod"`
	Profession       *ProfessionRef `json:"profession"`
}

type SafetyInstruction struct {
	ID               int64          `json:"id"`
	InstructionName  string         `json:"instructionName"`
	IntroductionDate RawDate        `json:"introductionDate"`
	Profession       *ProfessionRef `json:"profession"`
	Position         *PositionRef   `json:"position"`
}

// StoredEvent is a record of the generic calendar-event store. It is the only
// calendar shape with its own persistence.
type StoredEvent struct {
	ID           *int64   `json:"id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	EventDate    RawDate  `json:"eventDate"`
	StartTime    string   `json:"startTime,omitempty"`
	EndTime      string   `json:"endTime,omitempty"`
	Type         string   `json:"type"`
	Participants []string `json:"participants,omitempty"`
}

// StoredFromEvent builds the create payload for ev: the event minus its id.
func StoredFromEvent(ev CalendarEvent) StoredEvent {
	out := StoredEvent{
		Title:        ev.Title,
		Description:  ev.Description,
		StartTime:    ev.StartTime,
		EndTime:      ev.EndTime,
		Type:         string(ev.Type),
		Participants: ev.Participants,
	}
	if ev.HasDate() {
		out.EventDate = RawDateString(ev.Date.String())
	}
	return out
}
