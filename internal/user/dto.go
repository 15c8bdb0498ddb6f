package user

import (
	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/common/validation"
)

// CreateUserDTO is the request payload for creating an account.
type CreateUserDTO struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	BadgeNumber string `json:"badge_number"`
	PhoneNumber string `json:"phone_number,omitempty"`
	RoleID      string `json:"role_id"`
}

func (dto CreateUserDTO) Validate() *internal.AppError {
	if err := validation.ValidateUsername(dto.Username); err != nil {
		return err
	}
	if err := validation.ValidatePassword(dto.Password); err != nil {
		return err
	}

	v := validation.NewValidator()
	v.Field("first_name", dto.FirstName).Required().MaxLength(100)
	v.Field("last_name", dto.LastName).Required().MaxLength(100)
	v.Field("badge_number", dto.BadgeNumber).Required().MaxLength(20)
	v.Field("role_id", dto.RoleID).Required()
	return v.Validate()
}

// UpdateUserDTO carries the mutable profile fields. Zero values keep the
// stored value, the password changes only when a new one is sent.
type UpdateUserDTO struct {
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	BadgeNumber string `json:"badge_number,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Password    string `json:"password,omitempty"`
	RoleID      string `json:"role_id,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (dto UpdateUserDTO) Validate() *internal.AppError {
	if dto.Password != "" {
		if err := validation.ValidatePassword(dto.Password); err != nil {
			return err
		}
	}

	v := validation.NewValidator()
	v.Field("first_name", dto.FirstName).MaxLength(100)
	v.Field("last_name", dto.LastName).MaxLength(100)
	v.Field("badge_number", dto.BadgeNumber).MaxLength(20)
	v.Field("status", dto.Status).OneOf(StatusActive, StatusInactive)
	return v.Validate()
}
