package audit

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current instant. Injectable for tests.
type Clock func() time.Time

// Recorder builds history records. It owns the wall-clock source so that all
// records of one mutation batch carry the same instant; their relative order
// within the batch is deliberately unspecified.
type Recorder struct {
	clock Clock
}

// NewRecorder creates a recorder using the system clock.
func NewRecorder() *Recorder {
	return &Recorder{clock: time.Now}
}

// NewRecorderWithClock creates a recorder with a custom clock.
func NewRecorderWithClock(clock Clock) *Recorder {
	return &Recorder{clock: clock}
}

// Now returns the recorder's current instant. One call per mutation batch;
// pass the result to every record of the batch.
func (r *Recorder) Now() time.Time {
	return r.clock()
}

// Creation builds the single record for a requirement creation. No field
// diff is meaningful; old and new values stay absent.
func (r *Recorder) Creation(requirementID, actorID uint, at time.Time) *Record {
	return &Record{
		ID:            uuid.New().String(),
		RequirementID: requirementID,
		ActorID:       actorID,
		Action:        ActionCreate,
		Comment:       "created",
		CreatedAt:     at,
	}
}

// FieldUpdate builds one record for one changed field.
func (r *Recorder) FieldUpdate(requirementID, actorID uint, field, oldValue, newValue string, at time.Time) *Record {
	return &Record{
		ID:            uuid.New().String(),
		RequirementID: requirementID,
		ActorID:       actorID,
		Action:        ActionUpdate,
		FieldName:     field,
		OldValue:      &oldValue,
		NewValue:      &newValue,
		CreatedAt:     at,
	}
}

// StatusChange builds the record for a status transition. The field name is
// always "status"; old and new carry the canonical status identifiers.
func (r *Recorder) StatusChange(requirementID, actorID uint, oldStatus, newStatus, comment string, at time.Time) *Record {
	return &Record{
		ID:            uuid.New().String(),
		RequirementID: requirementID,
		ActorID:       actorID,
		Action:        ActionStatusChange,
		FieldName:     "status",
		OldValue:      &oldStatus,
		NewValue:      &newStatus,
		Comment:       comment,
		CreatedAt:     at,
	}
}

// Deletion builds the tombstone record for a requirement deletion.
func (r *Recorder) Deletion(requirementID, actorID uint, at time.Time) *Record {
	return &Record{
		ID:            uuid.New().String(),
		RequirementID: requirementID,
		ActorID:       actorID,
		Action:        ActionDelete,
		Comment:       "deleted",
		CreatedAt:     at,
	}
}
