package audit

import "time"

// Action classifies what kind of mutation a history record describes.
type Action string

const (
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionStatusChange Action = "status_change"
	ActionDelete       Action = "delete"
)

// Valid reports whether a is a declared action kind.
func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionStatusChange, ActionDelete:
		return true
	}
	return false
}

// Record is an immutable history entry describing one mutation of one
// requirement. Records are never updated; they are deleted only as part of
// deleting the owning requirement.
type Record struct {
	ID            string    `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	RequirementID uint      `gorm:"column:requirement_id;index:idx_history_req_time,priority:1;not null" json:"requirementId"`
	ActorID       uint      `gorm:"column:actor_id;index:idx_history_actor_time,priority:1;not null" json:"actorId"`
	Action        Action    `gorm:"column:action;type:varchar(20);index:idx_history_action_time,priority:1;not null" json:"action"`
	FieldName     string    `gorm:"column:field_name;type:varchar(100)" json:"fieldName,omitempty"`
	OldValue      *string   `gorm:"column:old_value;type:text" json:"oldValue,omitempty"`
	NewValue      *string   `gorm:"column:new_value;type:text" json:"newValue,omitempty"`
	Comment       string    `gorm:"column:comment;type:text" json:"comment,omitempty"`
	CreatedAt     time.Time `gorm:"column:created_at;index:idx_history_req_time,priority:2;index:idx_history_actor_time,priority:2;index:idx_history_action_time,priority:2" json:"createdAt"`
}

// TableName returns the GORM table name.
func (Record) TableName() string { return "requirement_history" }
