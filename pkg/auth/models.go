package auth

import "time"

// Role is a coarse permission level.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// Valid reports whether the role is a declared role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

// User is an account that can act on requirements. The password is stored
// as a bcrypt hash only.
type User struct {
	ID           uint       `gorm:"primaryKey;column:id" json:"id"`
	Username     string     `gorm:"column:username;type:varchar(80);uniqueIndex;not null" json:"username"`
	Email        string     `gorm:"column:email;type:varchar(120);uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;type:varchar(255);not null" json:"-"`
	RealName     string     `gorm:"column:real_name;type:varchar(80)" json:"realName,omitempty"`
	Role         Role       `gorm:"column:role;type:varchar(20);default:user" json:"role"`
	Department   string     `gorm:"column:department;type:varchar(80)" json:"department,omitempty"`
	Active       bool       `gorm:"column:active;default:true" json:"active"`
	LastLogin    *time.Time `gorm:"column:last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt    time.Time  `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName returns the GORM table name.
func (User) TableName() string { return "users" }
