package workorder

import (
	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/common/validation"
)

type CreateWorkOrderDTO struct {
	Number       string `json:"number"`
	Vehicle      string `json:"vehicle"`
	CustomerName string `json:"customer_name"`
	Description  string `json:"description,omitempty"`
}

func (dto CreateWorkOrderDTO) Validate() *internal.AppError {
	if err := validation.ValidateWorkOrderNumber(dto.Number); err != nil {
		return err
	}

	v := validation.NewValidator()
	v.Field("vehicle", dto.Vehicle).Required().MaxLength(255)
	v.Field("customer_name", dto.CustomerName).Required().MaxLength(255)
	v.Field("description", dto.Description).MaxLength(1000)
	return v.Validate()
}

type UpdateWorkOrderDTO struct {
	Number       string `json:"number,omitempty"`
	Vehicle      string `json:"vehicle,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Description  string `json:"description,omitempty"`
}

func (dto UpdateWorkOrderDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("number", dto.Number).MaxLength(30)
	v.Field("vehicle", dto.Vehicle).MaxLength(255)
	v.Field("customer_name", dto.CustomerName).MaxLength(255)
	v.Field("description", dto.Description).MaxLength(1000)
	return v.Validate()
}
