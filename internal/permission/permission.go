package permission

import (
	"time"
)

// Permission is one grantable capability. The hierarchy is exactly two
// levels deep: a main permission has no parent, a secondary points at a
// main. Secondaries can never have children of their own.
type Permission struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	Code        string       `json:"code" gorm:"uniqueIndex;not null"`
	Label       string       `json:"label" gorm:"not null"`
	ParentID    *string      `json:"parent_id,omitempty" gorm:"column:parent_id"`
	Secondaries []Permission `json:"secondaries,omitempty" gorm:"foreignKey:ParentID"`
	CreatedAt   time.Time    `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Permission) TableName() string {
	return "permissions"
}

func (p *Permission) IsMain() bool {
	return p.ParentID == nil
}
