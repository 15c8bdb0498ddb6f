package task

import (
	"github.com/atelierhub/workshop-management/internal/core/common/validation"
)

type CreateTaskDTO struct {
	Title         string   `json:"title"`
	Details       string   `json:"details"`
	TechnicianIDs []string `json:"technician_ids"`
}

func (d CreateTaskDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(100)
	v.Field("details", d.Details).MaxLength(500)
	return v.Validate()
}

type UpdateTaskDTO struct {
	Title   string `json:"title"`
	Details string `json:"details"`
}

func (d UpdateTaskDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", d.Title).MaxLength(100)
	v.Field("details", d.Details).MaxLength(500)
	return v.Validate()
}
