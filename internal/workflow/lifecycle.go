// Package workflow holds the tool status state machine.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/looplab/fsm"

	"github.com/zaqqye/toolcrib/internal/models"
)

const (
	EventCheckout         = "checkout"
	EventCheckin          = "checkin"
	EventCheckinWithIssue = "checkin_with_issue"
	EventRepair           = "repair"
	EventReportMissing    = "report_missing"
	EventRecover          = "recover"
)

var ErrInvalidTransition = errors.New("invalid tool status transition")

var lifecycleEvents = fsm.Events{
	{Name: EventCheckout, Src: []string{models.ToolStatusAvailable}, Dst: models.ToolStatusAssigned},
	{Name: EventCheckin, Src: []string{models.ToolStatusAssigned}, Dst: models.ToolStatusAvailable},
	{Name: EventCheckinWithIssue, Src: []string{models.ToolStatusAssigned}, Dst: models.ToolStatusUnderMaintenance},
	{Name: EventRepair, Src: []string{models.ToolStatusUnderMaintenance}, Dst: models.ToolStatusAvailable},
	{Name: EventReportMissing, Src: []string{models.ToolStatusAvailable, models.ToolStatusAssigned}, Dst: models.ToolStatusMissing},
	{Name: EventRecover, Src: []string{models.ToolStatusMissing}, Dst: models.ToolStatusAvailable},
}

// manualEvents may be fired directly by a supervisor; checkout and check-in
// only happen through their own workflows.
var manualEvents = map[string]struct{}{
	EventRepair:        {},
	EventReportMissing: {},
	EventRecover:       {},
}

func newLifecycle(from string) *fsm.FSM {
	return fsm.NewFSM(from, lifecycleEvents, fsm.Callbacks{})
}

// Transition applies event to a tool in status from and returns the new
// status.
func Transition(ctx context.Context, from, event string) (string, error) {
	f := newLifecycle(from)
	if err := f.Event(ctx, event); err != nil {
		return "", fmt.Errorf("%w: %s from %q: %v", ErrInvalidTransition, event, from, err)
	}
	return f.Current(), nil
}

// AvailableEvents lists the events that can fire from status, sorted.
func AvailableEvents(status string) []string {
	out := newLifecycle(status).AvailableTransitions()
	sort.Strings(out)
	return out
}

// IsManual reports whether event may be triggered outside checkout/check-in.
func IsManual(event string) bool {
	_, ok := manualEvents[event]
	return ok
}
