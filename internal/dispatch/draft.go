package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"safetycal/internal/model"
)

// ErrInvalidDraft is returned when an authored event cannot be mapped onto
// the entity it belongs to.
var ErrInvalidDraft = errors.New("invalid draft")

const (
	RouteTraining           = "/training/new"
	RouteAdditionalTraining = "/additional-training/new"
	RouteTask               = "/task/new"
)

// Draft is a prefill for one entity creation form. The set of drafts is
// closed: TrainingDraft, AdditionalTrainingDraft and TaskDraft.
type Draft interface {
	Route() string
	Validate() error
	draft()
}

// TrainingDraft prefills the recurring-training form.
type TrainingDraft struct {
	TrainingName     string     `json:"trainingName"`
	LastTrainingDate model.Date `json:"lastTrainingDate"`
	ValidityPeriod   *int       `json:"validityPeriod"`
	Description      string     `json:"description"`
}

func (TrainingDraft) Route() string { return RouteTraining }
func (TrainingDraft) draft()        {}

func (d TrainingDraft) Validate() error {
	return validate(d.TrainingName, "trainingName", d.LastTrainingDate, "lastTrainingDate", d.ValidityPeriod)
}

// AdditionalTrainingDraft prefills the additional-training form.
type AdditionalTrainingDraft struct {
	TrainingName   string     `json:"trainingName"`
	TrainingDate   model.Date `json:"trainingDate"`
	ValidityPeriod *int       `json:"validityPeriod"`
	Description    string     `json:"description"`
}

func (AdditionalTrainingDraft) Route() string { return RouteAdditionalTraining }
func (AdditionalTrainingDraft) draft()        {}

func (d AdditionalTrainingDraft) Validate() error {
	return validate(d.TrainingName, "trainingName", d.TrainingDate, "trainingDate", d.ValidityPeriod)
}

// TaskDraft prefills the task form. Body is null when the event had no description.
type TaskDraft struct {
	TaskName              string           `json:"taskName"`
	PlannedCompletionDate model.Date       `json:"plannedCompletionDate"`
	Body                  *string          `json:"body"`
	Priority              model.Priority   `json:"priority"`
	Status                model.TaskStatus `json:"status"`
	CreationDate          model.Date       `json:"creationDate"`
}

func (TaskDraft) Route() string { return RouteTask }
func (TaskDraft) draft()        {}

func (d TaskDraft) Validate() error {
	if err := validate(d.TaskName, "taskName", d.PlannedCompletionDate, "plannedCompletionDate", nil); err != nil {
		return err
	}
	switch d.Priority {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
	default:
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidDraft, d.Priority)
	}
	if d.CreationDate.IsZero() {
		return fmt.Errorf("%w: creationDate is required", ErrInvalidDraft)
	}
	return nil
}

func validate(name, nameField string, date model.Date, dateField string, validity *int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidDraft, nameField)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: %s is required", ErrInvalidDraft, dateField)
	}
	if validity != nil && *validity < 0 {
		return fmt.Errorf("%w: validityPeriod must not be negative", ErrInvalidDraft)
	}
	return nil
}
