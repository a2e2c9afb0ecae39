package project

import "time"

// Project groups requirements and carries the code prefix used when
// numbering them.
type Project struct {
	ID          uint       `gorm:"primaryKey;column:id" json:"id"`
	Name        string     `gorm:"column:name;type:varchar(200);not null" json:"name"`
	Code        string     `gorm:"column:code;type:varchar(50);uniqueIndex;not null" json:"code"`
	Description string     `gorm:"column:description;type:text" json:"description,omitempty"`
	Status      string     `gorm:"column:status;type:varchar(20);default:active" json:"status"`
	ManagerID   *uint      `gorm:"column:manager_id" json:"managerId,omitempty"`
	StartDate   *time.Time `gorm:"column:start_date" json:"startDate,omitempty"`
	EndDate     *time.Time `gorm:"column:end_date" json:"endDate,omitempty"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (Project) TableName() string { return "projects" }
