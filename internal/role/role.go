package role

import (
	"time"
)

// Role groups permissions. Every user references exactly one role and
// inherits its flattened permission set at login.
type Role struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	Name        string       `json:"name" gorm:"uniqueIndex;not null"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions,omitempty" gorm:"many2many:role_permissions;"`
	UserCount   int          `json:"user_count" gorm:"-"`
	CreatedAt   time.Time    `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Role) TableName() string {
	return "roles"
}

// Permission mirrors the permission table for the many2many join. The
// permission package owns its lifecycle.
type Permission struct {
	ID       string  `json:"id" gorm:"primaryKey"`
	Code     string  `json:"code"`
	Label    string  `json:"label"`
	ParentID *string `json:"parent_id,omitempty" gorm:"column:parent_id"`
}

func (Permission) TableName() string {
	return "permissions"
}
