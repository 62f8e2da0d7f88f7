package preparer

import (
	"time"
)

// State is the position of one package in the preparation workflow.
type State string

// Package states in workflow order. Skipped and Failed are terminal like Done.
const (
	StatePending           State = "pending"
	StateChecking          State = "checking"
	StateAcquiring         State = "acquiring"
	StateLayingOut         State = "laying-out"
	StateCollectingSymbols State = "collecting-symbols"
	StateWritingManifest   State = "writing-manifest"
	StateDone              State = "done"
	StateSkipped           State = "skipped"
	StateFailed            State = "failed"
)

// Result is the outcome of one package.
type Result struct {
	Package  string
	Wheel    string
	State    State
	Duration time.Duration
	Err      error
}

// Report lists the packages of a run in processing order.
type Report struct {
	Results []Result
}

// Count returns how many packages ended in state.
func (r *Report) Count(state State) int {
	n := 0

	for _, res := range r.Results {
		if res.State == state {
			n++
		}
	}

	return n
}
