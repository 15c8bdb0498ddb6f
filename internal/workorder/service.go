package workorder

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
)

// Repository defines the data access methods for work orders.
type Repository interface {
	List(params listing.Params) ([]*WorkOrder, int, error)
	GetByID(id string) (*WorkOrder, error)
	Create(wo *WorkOrder) error
	Update(wo *WorkOrder) error
	Delete(id string) error
	TaskStatuses(workOrderID string) ([]string, error)
	UpdateStatus(id string, status string) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) List(params listing.Params) (listing.Page[*WorkOrder], error) {
	orders, total, err := s.repo.List(params)
	if err != nil {
		s.logger.Error("failed to list work orders", "error", err)
		return listing.Page[*WorkOrder]{}, err
	}
	return listing.NewPage(orders, total, params), nil
}

// GetByID returns the work order with its task projection loaded.
func (s *Service) GetByID(id string) (*WorkOrder, error) {
	wo, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("work order not found", internal.ErrCodeWorkOrderNotFound)
	}
	return wo, nil
}

func (s *Service) Create(createdBy string, dto CreateWorkOrderDTO) (*WorkOrder, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	wo := &WorkOrder{
		ID:           uuid.NewString(),
		Number:       dto.Number,
		Vehicle:      dto.Vehicle,
		CustomerName: dto.CustomerName,
		Description:  dto.Description,
		Status:       StatusNotStarted,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(wo); err != nil {
		s.logger.Error("failed to create work order", "error", err, "number", dto.Number)
		return nil, err
	}

	s.logger.Info("work order created", "work_order_id", wo.ID, "number", wo.Number)
	return wo, nil
}

func (s *Service) Update(id string, dto UpdateWorkOrderDTO) (*WorkOrder, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	wo, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("work order not found", internal.ErrCodeWorkOrderNotFound)
	}

	if dto.Number != "" {
		wo.Number = dto.Number
	}
	if dto.Vehicle != "" {
		wo.Vehicle = dto.Vehicle
	}
	if dto.CustomerName != "" {
		wo.CustomerName = dto.CustomerName
	}
	if dto.Description != "" {
		wo.Description = dto.Description
	}

	wo.UpdatedAt = time.Now()
	if err := s.repo.Update(wo); err != nil {
		s.logger.Error("failed to update work order", "error", err, "work_order_id", id)
		return nil, err
	}
	return wo, nil
}

func (s *Service) Delete(id string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return internal.NewNotFoundError("work order not found", internal.ErrCodeWorkOrderNotFound)
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete work order", "error", err, "work_order_id", id)
		return err
	}

	s.logger.Info("work order deleted", "work_order_id", id)
	return nil
}

// RecomputeStatus re-derives the status from the current task set. The task
// service calls this after every lifecycle transition.
func (s *Service) RecomputeStatus(id string) (string, error) {
	statuses, err := s.repo.TaskStatuses(id)
	if err != nil {
		s.logger.Error("failed to load task statuses", "error", err, "work_order_id", id)
		return "", err
	}

	status := DeriveStatus(statuses)
	if err := s.repo.UpdateStatus(id, status); err != nil {
		s.logger.Error("failed to update work order status", "error", err, "work_order_id", id)
		return "", err
	}

	return status, nil
}
