package workflow

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// defaultTransitions defines the allowed status transitions.
//
// The graph deliberately permits backward moves (testing back to
// in_progress, rejected back to draft, and so on) to model rework and
// re-submission; it is not a forward-only pipeline.
var defaultTransitions = map[Status]mapset.Set[Status]{
	StatusDraft:       mapset.NewSet(StatusSubmitted, StatusCancelled),
	StatusSubmitted:   mapset.NewSet(StatusUnderReview, StatusRejected, StatusDraft),
	StatusUnderReview: mapset.NewSet(StatusApproved, StatusRejected, StatusSubmitted),
	StatusApproved:    mapset.NewSet(StatusInProgress, StatusOnHold, StatusUnderReview),
	StatusInProgress:  mapset.NewSet(StatusTesting, StatusOnHold, StatusApproved),
	StatusTesting:     mapset.NewSet(StatusCompleted, StatusInProgress),
	StatusOnHold:      mapset.NewSet(StatusInProgress, StatusCancelled, StatusApproved),
	StatusCompleted:   mapset.NewSet(StatusTesting),
	StatusRejected:    mapset.NewSet(StatusDraft, StatusSubmitted, StatusUnderReview),
	StatusCancelled:   mapset.NewSet(StatusDraft),
}

// Machine validates requirement status transitions against a static table.
type Machine struct {
	transitions map[Status]mapset.Set[Status]
}

// NewMachine creates a machine with the default transition table.
// The default table is covered by tests; a corrupted table is a
// programming error, so construction panics rather than returning it.
func NewMachine() *Machine {
	m, err := newMachine(defaultTransitions)
	if err != nil {
		panic(err)
	}
	return m
}

// newMachine validates the table's referential integrity: every source and
// target must be a declared status.
func newMachine(table map[Status]mapset.Set[Status]) (*Machine, error) {
	for from, targets := range table {
		if !from.Valid() {
			return nil, fmt.Errorf("transition table references unknown source status %q", from)
		}
		for to := range targets.Iter() {
			if !to.Valid() {
				return nil, fmt.Errorf("transition table references unknown target status %q (from %q)", to, from)
			}
		}
	}
	return &Machine{transitions: table}, nil
}

// Allowed reports whether a transition from->to is legal. Self-transitions
// are always legal; they are used to attach a comment without moving state.
func (m *Machine) Allowed(from, to Status) bool {
	if from == to {
		return true
	}
	targets, ok := m.transitions[from]
	return ok && targets.Contains(to)
}

// ValidateTransition checks if a transition from->to is allowed.
// Returns nil if allowed, a *TransitionError if not.
func (m *Machine) ValidateTransition(from, to Status) error {
	if m.Allowed(from, to) {
		return nil
	}
	return &TransitionError{
		Code:    "WORKFLOW_INVALID_TRANSITION",
		From:    from,
		To:      to,
		Message: fmt.Sprintf("no transition defined from %s to %s", from, to),
	}
}

// AllowedTargets returns all valid target statuses from the given status,
// sorted for stable output. The source status itself is not included.
func (m *Machine) AllowedTargets(from Status) []Status {
	targets, ok := m.transitions[from]
	if !ok {
		return nil
	}
	out := targets.ToSlice()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TransitionError is a structured error for invalid transitions.
type TransitionError struct {
	Code    string `json:"code"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	Message string `json:"message"`
}

func (e *TransitionError) Error() string {
	return e.Message
}
