package workflow

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
)

// allowedTable mirrors the workflow graph; the exhaustive test below checks
// every one of the 10x10 pairs against it.
var allowedTable = map[Status][]Status{
	StatusDraft:       {StatusSubmitted, StatusCancelled},
	StatusSubmitted:   {StatusUnderReview, StatusRejected, StatusDraft},
	StatusUnderReview: {StatusApproved, StatusRejected, StatusSubmitted},
	StatusApproved:    {StatusInProgress, StatusOnHold, StatusUnderReview},
	StatusInProgress:  {StatusTesting, StatusOnHold, StatusApproved},
	StatusTesting:     {StatusCompleted, StatusInProgress},
	StatusOnHold:      {StatusInProgress, StatusCancelled, StatusApproved},
	StatusCompleted:   {StatusTesting},
	StatusRejected:    {StatusDraft, StatusSubmitted, StatusUnderReview},
	StatusCancelled:   {StatusDraft},
}

func TestMachine_SelfTransitionAlwaysAllowed(t *testing.T) {
	m := NewMachine()
	for _, s := range AllStatuses() {
		if !m.Allowed(s, s) {
			t.Errorf("Allowed(%s, %s) = false, want true", s, s)
		}
		if err := m.ValidateTransition(s, s); err != nil {
			t.Errorf("ValidateTransition(%s, %s) = %v, want nil", s, s, err)
		}
	}
}

func TestMachine_ExhaustivePairs(t *testing.T) {
	m := NewMachine()
	for _, from := range AllStatuses() {
		for _, to := range AllStatuses() {
			want := from == to
			if !want {
				for _, target := range allowedTable[from] {
					if target == to {
						want = true
						break
					}
				}
			}
			if got := m.Allowed(from, to); got != want {
				t.Errorf("Allowed(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestMachine_ValidateTransition(t *testing.T) {
	m := NewMachine()

	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr bool
	}{
		{"draft to submitted", StatusDraft, StatusSubmitted, false},
		{"testing back to in_progress", StatusTesting, StatusInProgress, false},
		{"rejected reactivated to draft", StatusRejected, StatusDraft, false},
		{"completed back to testing", StatusCompleted, StatusTesting, false},
		{"cancelled reactivated to draft", StatusCancelled, StatusDraft, false},
		{"draft straight to testing denied", StatusDraft, StatusTesting, true},
		{"draft straight to completed denied", StatusDraft, StatusCompleted, true},
		{"completed to cancelled denied", StatusCompleted, StatusCancelled, true},
		{"cancelled to in_progress denied", StatusCancelled, StatusInProgress, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateTransition(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateTransition(%s, %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}
			if tt.wantErr {
				te, ok := err.(*TransitionError)
				if !ok {
					t.Fatalf("expected TransitionError, got %T", err)
				}
				if te.Code != "WORKFLOW_INVALID_TRANSITION" {
					t.Errorf("expected code WORKFLOW_INVALID_TRANSITION, got %s", te.Code)
				}
				if te.From != tt.from || te.To != tt.to {
					t.Errorf("error endpoints = %s->%s, want %s->%s", te.From, te.To, tt.from, tt.to)
				}
			}
		})
	}
}

func TestMachine_AllowedTargets(t *testing.T) {
	m := NewMachine()

	tests := []struct {
		name     string
		from     Status
		expected int
	}{
		{"draft has 2 targets", StatusDraft, 2},
		{"submitted has 3 targets", StatusSubmitted, 3},
		{"testing has 2 targets", StatusTesting, 2},
		{"completed has 1 target", StatusCompleted, 1},
		{"on_hold has 3 targets", StatusOnHold, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.AllowedTargets(tt.from)
			if len(got) != tt.expected {
				t.Errorf("AllowedTargets(%s) = %d statuses, want %d (got: %v)", tt.from, len(got), tt.expected, got)
			}
		})
	}
}

func TestNewMachine_RejectsUnknownStatus(t *testing.T) {
	bad := map[Status]mapset.Set[Status]{
		StatusDraft: mapset.NewSet(Status("archived")),
	}
	if _, err := newMachine(bad); err == nil {
		t.Error("expected error for table referencing unknown target status")
	}

	bad = map[Status]mapset.Set[Status]{
		Status("frozen"): mapset.NewSet(StatusDraft),
	}
	if _, err := newMachine(bad); err == nil {
		t.Error("expected error for table referencing unknown source status")
	}
}

func TestStatus_Valid(t *testing.T) {
	for _, s := range AllStatuses() {
		if !s.Valid() {
			t.Errorf("Valid(%s) = false, want true", s)
		}
	}
	if Status("archived").Valid() {
		t.Error("Valid(archived) = true, want false")
	}
	if Status("").Valid() {
		t.Error(`Valid("") = true, want false`)
	}
}

func TestTransitionError_Error(t *testing.T) {
	err := &TransitionError{
		Code:    "WORKFLOW_INVALID_TRANSITION",
		From:    StatusDraft,
		To:      StatusTesting,
		Message: "no transition defined from draft to testing",
	}
	want := "no transition defined from draft to testing"
	if got := err.Error(); got != want {
		t.Errorf("TransitionError.Error() = %q, want %q", got, want)
	}
}
