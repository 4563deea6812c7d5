package dispatch

import (
	"errors"
	"testing"

	"safetycal/internal/model"
)

func TestAuthoredEvent(t *testing.T) {
	ev, err := Authored{Title: " Crane ", Date: "2024-07-01", Type: "additional_training", ValidityPeriod: model.Int(6)}.Event()
	if err != nil {
		t.Fatalf("Event() returned an error: %v", err)
	}
	if ev.Type != model.TypeInstruction || ev.Source != model.SourceAdditionalTraining {
		t.Errorf("Unexpected type/source %s/%s", ev.Type, ev.Source)
	}
	if ev.Title != "Crane" || ev.Date.String() != "2024-07-01" {
		t.Errorf("Unexpected event %+v", ev)
	}

	ev, err = Authored{Title: "Sync", Date: "", Type: "MEETING"}.Event()
	if err != nil || ev.Type != model.TypeMeeting || ev.HasDate() {
		t.Errorf("Unexpected result %+v, %v", ev, err)
	}
}

func TestAuthoredEvent_Rejects(t *testing.T) {
	cases := []Authored{
		{Title: "x", Date: "2024-13-01", Type: "TASK"},
		{Title: "x", Date: "2024-01-01", Type: "PARTY"},
	}
	for _, a := range cases {
		if _, err := a.Event(); !errors.Is(err, ErrInvalidDraft) {
			t.Errorf("%+v: expected ErrInvalidDraft, got %v", a, err)
		}
	}
}
