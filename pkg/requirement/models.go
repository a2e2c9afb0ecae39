package requirement

import (
	"time"

	"github.com/reqman/reqman/pkg/workflow"
)

// Type classifies a requirement.
type Type string

const (
	TypeFunctional    Type = "functional"
	TypeNonFunctional Type = "non_functional"
	TypeBusiness      Type = "business"
	TypeUser          Type = "user"
	TypeSystem        Type = "system"
	TypeInterface     Type = "interface"
	TypePerformance   Type = "performance"
	TypeSecurity      Type = "security"
)

// Valid reports whether t is a declared requirement type.
func (t Type) Valid() bool {
	switch t {
	case TypeFunctional, TypeNonFunctional, TypeBusiness, TypeUser,
		TypeSystem, TypeInterface, TypePerformance, TypeSecurity:
		return true
	}
	return false
}

// Priority ranks a requirement's urgency.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Valid reports whether p is a declared priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Requirement is a tracked unit of work with a lifecycle status.
type Requirement struct {
	ID          uint            `gorm:"primaryKey;column:id" json:"id"`
	Code        string          `gorm:"column:code;type:varchar(50);uniqueIndex;not null" json:"code"`
	Title       string          `gorm:"column:title;type:varchar(200);not null" json:"title"`
	Description string          `gorm:"column:description;type:text;not null" json:"description"`
	Type        Type            `gorm:"column:type;type:varchar(20);default:functional;index" json:"type"`
	Status      workflow.Status `gorm:"column:status;type:varchar(20);default:draft;index" json:"status"`
	Priority    Priority        `gorm:"column:priority;type:varchar(20);default:medium;index" json:"priority"`

	CreatorID  uint  `gorm:"column:creator_id;index;not null" json:"creatorId"`
	AssigneeID *uint `gorm:"column:assignee_id;index" json:"assigneeId,omitempty"`
	ReviewerID *uint `gorm:"column:reviewer_id" json:"reviewerId,omitempty"`

	ProjectID *uint  `gorm:"column:project_id;index" json:"projectId,omitempty"`
	Version   string `gorm:"column:version;type:varchar(20)" json:"version,omitempty"`

	Background         string `gorm:"column:background;type:text" json:"background,omitempty"`
	Objective          string `gorm:"column:objective;type:text" json:"objective,omitempty"`
	Scope              string `gorm:"column:scope;type:text" json:"scope,omitempty"`
	AcceptanceCriteria string `gorm:"column:acceptance_criteria;type:text" json:"acceptanceCriteria,omitempty"`
	Source             string `gorm:"column:source;type:varchar(100)" json:"source,omitempty"`

	EstimatedHours *float64 `gorm:"column:estimated_hours" json:"estimatedHours,omitempty"`
	ActualHours    *float64 `gorm:"column:actual_hours" json:"actualHours,omitempty"`
	StoryPoints    *int     `gorm:"column:story_points" json:"storyPoints,omitempty"`
	BusinessValue  *int     `gorm:"column:business_value" json:"businessValue,omitempty"`

	DueDate        *time.Time `gorm:"column:due_date" json:"dueDate,omitempty"`
	StartDate      *time.Time `gorm:"column:start_date" json:"startDate,omitempty"`
	CompletionDate *time.Time `gorm:"column:completion_date" json:"completionDate,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (Requirement) TableName() string { return "requirements" }

// Comment is a free-form discussion entry attached to a requirement.
// Comments are separate from the history log and carry no field diff.
type Comment struct {
	ID            uint      `gorm:"primaryKey;column:id" json:"id"`
	RequirementID uint      `gorm:"column:requirement_id;index;not null" json:"requirementId"`
	UserID        uint      `gorm:"column:user_id;not null" json:"userId"`
	Content       string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (Comment) TableName() string { return "requirement_comments" }
