package role

import (
	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/common/validation"
)

type CreateRoleDTO struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (dto CreateRoleDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).Required().MinLength(2).MaxLength(50)
	v.Field("description", dto.Description).MaxLength(255)
	return v.Validate()
}

type UpdateRoleDTO struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

func (dto UpdateRoleDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("name", dto.Name).MaxLength(50)
	v.Field("description", dto.Description).MaxLength(255)
	return v.Validate()
}

// SetPermissionsDTO replaces the role's permission set wholesale. Sending an
// empty list strips every permission from the role.
type SetPermissionsDTO struct {
	PermissionIDs []string `json:"permission_ids"`
}
