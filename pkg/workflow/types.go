package workflow

// Status represents a requirement's lifecycle status.
//
// The values are stable symbolic identifiers; any human-facing label
// (localized or otherwise) is a presentation concern.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusSubmitted   Status = "submitted"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusInProgress  Status = "in_progress"
	StatusTesting     Status = "testing"
	StatusCompleted   Status = "completed"
	StatusRejected    Status = "rejected"
	StatusCancelled   Status = "cancelled"
	StatusOnHold      Status = "on_hold"
)

// AllStatuses returns every declared status, in declaration order.
func AllStatuses() []Status {
	return []Status{
		StatusDraft,
		StatusSubmitted,
		StatusUnderReview,
		StatusApproved,
		StatusInProgress,
		StatusTesting,
		StatusCompleted,
		StatusRejected,
		StatusCancelled,
		StatusOnHold,
	}
}

// Valid reports whether s is a declared status value.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved,
		StatusInProgress, StatusTesting, StatusCompleted, StatusRejected,
		StatusCancelled, StatusOnHold:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }
