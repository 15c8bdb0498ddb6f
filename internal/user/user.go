package user

import (
	"time"
)

// User is a workshop account: administrators and technicians share the same
// table, the role decides what they can do.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;not null"`
	FirstName    string    `json:"first_name" gorm:"column:first_name;not null"`
	LastName     string    `json:"last_name" gorm:"column:last_name;not null"`
	BadgeNumber  string    `json:"badge_number" gorm:"column:badge_number;uniqueIndex"`
	PhoneNumber  string    `json:"phone_number,omitempty" gorm:"column:phone_number"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	Status       string    `json:"status" gorm:"default:ACTIVE"`
	Hidden       bool      `json:"hidden" gorm:"default:false"`
	RoleID       string    `json:"role_id" gorm:"column:role_id"`
	RoleName     string    `json:"role_name" gorm:"-"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) IsActive() bool {
	return u.Status == StatusActive
}

// Hide removes the account from every listing without deleting its rows.
// Work orders and history keep their references.
func (u *User) Hide() {
	u.Hidden = true
	u.UpdatedAt = time.Now()
}
