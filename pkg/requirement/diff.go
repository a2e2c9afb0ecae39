package requirement

import (
	"strconv"
	"time"
)

// UpdateRequest carries a partial update. Only non-nil fields are applied;
// status is deliberately absent, status moves go through ChangeStatus.
type UpdateRequest struct {
	Title              *string   `json:"title,omitempty"`
	Description        *string   `json:"description,omitempty"`
	Type               *Type     `json:"type,omitempty"`
	Priority           *Priority `json:"priority,omitempty"`
	Version            *string   `json:"version,omitempty"`
	Background         *string   `json:"background,omitempty"`
	Objective          *string   `json:"objective,omitempty"`
	Scope              *string   `json:"scope,omitempty"`
	AcceptanceCriteria *string   `json:"acceptanceCriteria,omitempty"`
	Source             *string   `json:"source,omitempty"`
	AssigneeID         *uint     `json:"assigneeId,omitempty"`
	ReviewerID         *uint     `json:"reviewerId,omitempty"`
	EstimatedHours     *float64  `json:"estimatedHours,omitempty"`
	StoryPoints        *int      `json:"storyPoints,omitempty"`
	BusinessValue      *int      `json:"businessValue,omitempty"`
	DueDate            *string   `json:"dueDate,omitempty"` // YYYY-MM-DD
}

// auditedField is one entry of the compile-time diff table: a field name as
// it appears in history records, the canonical string form of its current
// value, and how to apply an incoming update to it.
type auditedField struct {
	name string
	// value renders the requirement's current value in canonical string form.
	value func(*Requirement) string
	// apply writes the update's value into the requirement and reports
	// whether the update carries this field at all.
	apply func(*Requirement, *UpdateRequest) (bool, error)
}

const dateLayout = "2006-01-02"

func uintRef(v *uint) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(uint64(*v), 10)
}

func floatRef(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func intRef(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func dateRef(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format(dateLayout)
}

// auditedFields enumerates every mutable field tracked in history. Diffing
// iterates this list instead of inspecting attributes dynamically, so the
// audited surface is fixed at compile time.
var auditedFields = []auditedField{
	{
		name:  "title",
		value: func(r *Requirement) string { return r.Title },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.Title == nil {
				return false, nil
			}
			r.Title = *u.Title
			return true, nil
		},
	},
	{
		name:  "description",
		value: func(r *Requirement) string { return r.Description },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.Description == nil {
				return false, nil
			}
			r.Description = *u.Description
			return true, nil
		},
	},
	{
		name:  "type",
		value: func(r *Requirement) string { return string(r.Type) },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.Type == nil {
				return false, nil
			}
			if !u.Type.Valid() {
				return false, &ValidationError{Field: "type", Message: "unknown requirement type " + string(*u.Type)}
			}
			r.Type = *u.Type
			return true, nil
		},
	},
	{
		name:  "priority",
		value: func(r *Requirement) string { return string(r.Priority) },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.Priority == nil {
				return false, nil
			}
			if !u.Priority.Valid() {
				return false, &ValidationError{Field: "priority", Message: "unknown priority " + string(*u.Priority)}
			}
			r.Priority = *u.Priority
			return true, nil
		},
	},
	{
		name:  "version",
		value: func(r *Requirement) string { return r.Version },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.Version == nil {
				return false, nil
			}
			r.Version = *u.Version
			return true, nil
		},
	},
	{
		name:  "background",
		value: func(r *Requirement) string { return r.Background },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.Background == nil {
				return false, nil
			}
			r.Background = *u.Background
			return true, nil
		},
	},
	{
		name:  "objective",
		value: func(r *Requirement) string { return r.Objective },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.Objective == nil {
				return false, nil
			}
			r.Objective = *u.Objective
			return true, nil
		},
	},
	{
		name:  "scope",
		value: func(r *Requirement) string { return r.Scope },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.Scope == nil {
				return false, nil
			}
			r.Scope = *u.Scope
			return true, nil
		},
	},
	{
		name:  "acceptance_criteria",
		value: func(r *Requirement) string { return r.AcceptanceCriteria },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.AcceptanceCriteria == nil {
				return false, nil
			}
			r.AcceptanceCriteria = *u.AcceptanceCriteria
			return true, nil
		},
	},
	{
		name:  "source",
		value: func(r *Requirement) string { return r.Source },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.Source == nil {
				return false, nil
			}
			r.Source = *u.Source
			return true, nil
		},
	},
	{
		name:  "assignee_id",
		value: func(r *Requirement) string { return uintRef(r.AssigneeID) },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.AssigneeID == nil {
				return false, nil
			}
			v := *u.AssigneeID
			r.AssigneeID = &v
			return true, nil
		},
	},
	{
		name:  "reviewer_id",
		value: func(r *Requirement) string { return uintRef(r.ReviewerID) },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.ReviewerID == nil {
				return false, nil
			}
			v := *u.ReviewerID
			r.ReviewerID = &v
			return true, nil
		},
	},
	{
		name:  "estimated_hours",
		value: func(r *Requirement) string { return floatRef(r.EstimatedHours) },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.EstimatedHours == nil {
				return false, nil
			}
			v := *u.EstimatedHours
			r.EstimatedHours = &v
			return true, nil
		},
	},
	{
		name:  "story_points",
		value: func(r *Requirement) string { return intRef(r.StoryPoints) },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.StoryPoints == nil {
				return false, nil
			}
			v := *u.StoryPoints
			r.StoryPoints = &v
			return true, nil
		},
	},
	{
		name:  "business_value",
		value: func(r *Requirement) string { return intRef(r.BusinessValue) },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.BusinessValue == nil {
				return false, nil
			}
			v := *u.BusinessValue
			r.BusinessValue = &v
			return true, nil
		},
	},
	{
		name:  "due_date",
		value: func(r *Requirement) string { return dateRef(r.DueDate) },
		apply: func(r *Requirement, u *UpdateRequest) (bool, error) {
			if u.DueDate == nil {
				return false, nil
			}
			t, err := time.Parse(dateLayout, *u.DueDate)
			if err != nil {
				return false, &ValidationError{Field: "due_date", Message: "invalid date " + *u.DueDate + ", expected YYYY-MM-DD"}
			}
			r.DueDate = &t
			return true, nil
		},
	},
}

// FieldChange describes one field whose value actually changed.
type FieldChange struct {
	Name     string
	OldValue string
	NewValue string
}

// applyAndDiff applies every field the update carries and returns one
// FieldChange per field whose canonical value actually differs. Fields set
// to their current value produce no change.
func applyAndDiff(r *Requirement, u *UpdateRequest) ([]FieldChange, error) {
	var changes []FieldChange
	for _, f := range auditedFields {
		old := f.value(r)
		provided, err := f.apply(r, u)
		if err != nil {
			return nil, err
		}
		if !provided {
			continue
		}
		if now := f.value(r); now != old {
			changes = append(changes, FieldChange{Name: f.name, OldValue: old, NewValue: now})
		}
	}
	return changes, nil
}

// ValidationError reports a rejected input value for a named field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }
