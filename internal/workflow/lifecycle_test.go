package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/zaqqye/toolcrib/internal/models"
)

func TestTransitions(t *testing.T) {
	cases := []struct {
		from, event, want string
	}{
		{models.ToolStatusAvailable, EventCheckout, models.ToolStatusAssigned},
		{models.ToolStatusAssigned, EventCheckin, models.ToolStatusAvailable},
		{models.ToolStatusAssigned, EventCheckinWithIssue, models.ToolStatusUnderMaintenance},
		{models.ToolStatusUnderMaintenance, EventRepair, models.ToolStatusAvailable},
		{models.ToolStatusAvailable, EventReportMissing, models.ToolStatusMissing},
		{models.ToolStatusAssigned, EventReportMissing, models.ToolStatusMissing},
		{models.ToolStatusMissing, EventRecover, models.ToolStatusAvailable},
	}
	for _, tc := range cases {
		got, err := Transition(context.Background(), tc.from, tc.event)
		if err != nil {
			t.Fatalf("%s from %s: %v", tc.event, tc.from, err)
		}
		if got != tc.want {
			t.Fatalf("%s from %s = %s, want %s", tc.event, tc.from, got, tc.want)
		}
	}
}

func TestInvalidTransitions(t *testing.T) {
	cases := []struct{ from, event string }{
		{models.ToolStatusAvailable, EventCheckin},
		{models.ToolStatusAssigned, EventCheckout},
		{models.ToolStatusUnderMaintenance, EventCheckout},
		{models.ToolStatusMissing, EventRepair},
		{models.ToolStatusAvailable, "explode"},
	}
	for _, tc := range cases {
		if _, err := Transition(context.Background(), tc.from, tc.event); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s from %s: expected ErrInvalidTransition, got %v", tc.event, tc.from, err)
		}
	}
}

func TestAvailableEvents(t *testing.T) {
	got := AvailableEvents(models.ToolStatusAssigned)
	want := []string{EventCheckin, EventCheckinWithIssue, EventReportMissing}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestIsManual(t *testing.T) {
	if IsManual(EventCheckout) || !IsManual(EventRepair) {
		t.Fatalf("manual event set is wrong")
	}
}
