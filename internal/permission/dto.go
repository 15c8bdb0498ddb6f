package permission

import (
	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/common/validation"
)

type CreatePermissionDTO struct {
	Code     string  `json:"code"`
	Label    string  `json:"label"`
	ParentID *string `json:"parent_id,omitempty"`
}

func (dto CreatePermissionDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("code", dto.Code).Required().MinLength(2).MaxLength(100)
	v.Field("label", dto.Label).Required().MaxLength(255)
	return v.Validate()
}

type UpdatePermissionDTO struct {
	Label string `json:"label,omitempty"`
}

func (dto UpdatePermissionDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("label", dto.Label).MaxLength(255)
	return v.Validate()
}

// SetSecondariesDTO replaces the child set of a main permission. Children
// left out of the list are detached and become mains again.
type SetSecondariesDTO struct {
	PermissionIDs []string `json:"permission_ids"`
}
