package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/configuration"
	"github.com/atelierhub/workshop-management/internal/core/events"
	"github.com/atelierhub/workshop-management/internal/core/listing"
)

// Repository defines the data access methods for tasks and their
// technician assignments.
type Repository interface {
	List(params listing.Params) ([]*Task, int, error)
	ListByWorkOrder(workOrderID string, params listing.Params) ([]*Task, int, error)
	GetByID(id string) (*Task, error)
	Create(t *Task, technicianIDs []string) error
	Update(t *Task) error
	Delete(id string) error
	AssignTechnician(taskID, technicianID string) error
	ActiveTaskCount(technicianID, excludeTaskID string) (int, error)
	TechniciansExist(ids []string) (bool, error)
	WorkOrderExists(id string) (bool, error)
}

// ConfigurationAPI exposes the workshop policy toggles the transition
// rules consult.
type ConfigurationAPI interface {
	Get() (*configuration.Configuration, error)
}

// WorkOrderStatusAPI re-derives a work order's status after its task set
// changes.
type WorkOrderStatusAPI interface {
	RecomputeStatus(id string) (string, error)
}

// Publisher dispatches lifecycle events. PublishSync is used so the
// activity history is written before the response goes out.
type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo       Repository
	config     ConfigurationAPI
	workOrders WorkOrderStatusAPI
	publisher  Publisher
	logger     *slog.Logger
}

func NewService(repo Repository, config ConfigurationAPI, workOrders WorkOrderStatusAPI, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		config:     config,
		workOrders: workOrders,
		publisher:  publisher,
		logger:     logger,
	}
}

func (s *Service) List(params listing.Params) (listing.Page[*Task], error) {
	tasks, total, err := s.repo.List(params)
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err)
		return listing.Page[*Task]{}, err
	}
	return listing.NewPage(tasks, total, params), nil
}

func (s *Service) ListByWorkOrder(workOrderID string, params listing.Params) (listing.Page[*Task], error) {
	tasks, total, err := s.repo.ListByWorkOrder(workOrderID, params)
	if err != nil {
		s.logger.Error("failed to list work order tasks", "error", err, "work_order_id", workOrderID)
		return listing.Page[*Task]{}, err
	}
	return listing.NewPage(tasks, total, params), nil
}

func (s *Service) GetByID(id string) (*Task, error) {
	t, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, createdBy, workOrderID string, dto CreateTaskDTO) (*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.WorkOrderExists(workOrderID)
	if err != nil {
		s.logger.Error("failed to check work order", "error", err, "work_order_id", workOrderID)
		return nil, err
	}
	if !exists {
		return nil, internal.NewNotFoundError("work order not found", internal.ErrCodeWorkOrderNotFound)
	}

	if len(dto.TechnicianIDs) > 0 {
		ok, err := s.repo.TechniciansExist(dto.TechnicianIDs)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, internal.NewNotFoundError("technician not found", internal.ErrCodeUserNotFound)
		}
	}

	now := time.Now()
	t := &Task{
		ID:          uuid.NewString(),
		WorkOrderID: workOrderID,
		Title:       dto.Title,
		Details:     dto.Details,
		Status:      StatusNotStarted,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(t, dto.TechnicianIDs); err != nil {
		s.logger.Error("failed to create task", "error", err, "work_order_id", workOrderID)
		return nil, err
	}

	s.recompute(workOrderID)
	s.logger.Info("task created", "task_id", t.ID, "work_order_id", workOrderID)
	return s.GetByID(t.ID)
}

func (s *Service) Update(id string, dto UpdateTaskDTO) (*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
	}

	if dto.Title != "" {
		t.Title = dto.Title
	}
	if dto.Details != "" {
		t.Details = dto.Details
	}

	t.UpdatedAt = time.Now()
	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to update task", "error", err, "task_id", id)
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(id string) error {
	t, err := s.repo.GetByID(id)
	if err != nil {
		return internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete task", "error", err, "task_id", id)
		return err
	}

	s.recompute(t.WorkOrderID)
	s.logger.Info("task deleted", "task_id", id, "work_order_id", t.WorkOrderID)
	return nil
}

// Start puts a NOT_STARTED task in progress for the acting technician.
// The actor is assigned on the fly when not already on the task.
func (s *Service) Start(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error) {
	t, cfg, err := s.loadForTransition(id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusNotStarted {
		return nil, transitionError(t.Status, StatusInProgress)
	}

	if err := s.ensureAssignable(t, cfg, actor.ID); err != nil {
		return nil, err
	}
	if err := s.ensureNoParallelTask(cfg, actor.ID, t.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	t.Status = StatusInProgress
	t.StartedAt = &now
	t.UpdatedAt = now
	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to start task", "error", err, "task_id", id)
		return nil, err
	}

	s.afterTransition(ctx, EventTaskStarted, t, actor)
	return s.GetByID(t.ID)
}

// Pause suspends an in-progress task, freeing its technicians.
func (s *Service) Pause(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error) {
	t, _, err := s.loadForTransition(id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusInProgress {
		return nil, transitionError(t.Status, StatusPaused)
	}
	if !t.AssignedTo(actor.ID) {
		return nil, restrictedError("only an assigned technician can pause a task")
	}

	t.Status = StatusPaused
	t.UpdatedAt = time.Now()
	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to pause task", "error", err, "task_id", id)
		return nil, err
	}

	s.afterTransition(ctx, EventTaskPaused, t, actor)
	return t, nil
}

// Resume puts a paused task back in progress. The parallel-work rule is
// re-checked because the technician may have started something else since.
func (s *Service) Resume(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error) {
	t, cfg, err := s.loadForTransition(id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusPaused {
		return nil, transitionError(t.Status, StatusInProgress)
	}
	if !t.AssignedTo(actor.ID) {
		return nil, restrictedError("only an assigned technician can resume a task")
	}
	if err := s.ensureNoParallelTask(cfg, actor.ID, t.ID); err != nil {
		return nil, err
	}

	t.Status = StatusInProgress
	t.UpdatedAt = time.Now()
	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to resume task", "error", err, "task_id", id)
		return nil, err
	}

	s.afterTransition(ctx, EventTaskResumed, t, actor)
	return t, nil
}

// End completes an in-progress or paused task. When the only_creator_end_task
// toggle is on, only the user who created the task may end it.
func (s *Service) End(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error) {
	t, cfg, err := s.loadForTransition(id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusInProgress && t.Status != StatusPaused {
		return nil, transitionError(t.Status, StatusCompleted)
	}
	if cfg.OnlyCreatorEndTask && actor.ID != t.CreatedBy {
		return nil, restrictedError("only the task creator can end this task")
	}

	now := time.Now()
	t.Status = StatusCompleted
	t.EndedAt = &now
	t.UpdatedAt = now
	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to end task", "error", err, "task_id", id)
		return nil, err
	}

	s.afterTransition(ctx, EventTaskEnded, t, actor)
	return t, nil
}

// Restart reopens a completed task, gated by the restart_task toggle.
func (s *Service) Restart(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error) {
	t, cfg, err := s.loadForTransition(id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusCompleted {
		return nil, transitionError(t.Status, StatusInProgress)
	}
	if !cfg.RestartTask {
		return nil, restrictedError("restarting completed tasks is disabled")
	}
	if err := s.ensureAssignable(t, cfg, actor.ID); err != nil {
		return nil, err
	}
	if err := s.ensureNoParallelTask(cfg, actor.ID, t.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	t.Status = StatusInProgress
	t.EndedAt = nil
	t.UpdatedAt = now
	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to restart task", "error", err, "task_id", id)
		return nil, err
	}

	s.afterTransition(ctx, EventTaskRestarted, t, actor)
	return s.GetByID(t.ID)
}

// Join adds the acting technician to an in-progress task. Requires the
// multi_technicians_per_task toggle.
func (s *Service) Join(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error) {
	t, cfg, err := s.loadForTransition(id)
	if err != nil {
		return nil, err
	}
	if t.Status != StatusInProgress {
		return nil, transitionError(t.Status, StatusInProgress)
	}
	if !cfg.MultiTechniciansPerTask {
		return nil, restrictedError("multiple technicians per task is disabled")
	}
	if t.AssignedTo(actor.ID) {
		return nil, internal.NewValidationError("technician is already assigned to this task", internal.ErrCodeValidationFailed)
	}
	if err := s.ensureNoParallelTask(cfg, actor.ID, t.ID); err != nil {
		return nil, err
	}

	if err := s.repo.AssignTechnician(t.ID, actor.ID); err != nil {
		s.logger.Error("failed to join task", "error", err, "task_id", id, "technician_id", actor.ID)
		return nil, err
	}

	s.afterTransition(ctx, EventTaskJoined, t, actor)
	return s.GetByID(t.ID)
}

func (s *Service) loadForTransition(id string) (*Task, *configuration.Configuration, error) {
	t, err := s.repo.GetByID(id)
	if err != nil {
		return nil, nil, internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
	}
	cfg, err := s.config.Get()
	if err != nil {
		s.logger.Error("failed to load configuration", "error", err)
		return nil, nil, err
	}
	return t, cfg, nil
}

// ensureAssignable assigns the actor to the task when missing. Taking over
// a task that already has technicians needs the multi-technician toggle.
func (s *Service) ensureAssignable(t *Task, cfg *configuration.Configuration, technicianID string) error {
	if t.AssignedTo(technicianID) {
		return nil
	}
	if len(t.Technicians) > 0 && !cfg.MultiTechniciansPerTask {
		return restrictedError("task is already assigned to another technician")
	}
	if err := s.repo.AssignTechnician(t.ID, technicianID); err != nil {
		return err
	}
	t.Technicians = append(t.Technicians, Technician{ID: technicianID})
	return nil
}

func (s *Service) ensureNoParallelTask(cfg *configuration.Configuration, technicianID, taskID string) error {
	if cfg.ParallelTasksPerTechnician {
		return nil
	}
	count, err := s.repo.ActiveTaskCount(technicianID, taskID)
	if err != nil {
		return err
	}
	if count > 0 {
		return restrictedError("technician already has a task in progress")
	}
	return nil
}

// afterTransition publishes the lifecycle event and re-derives the parent
// work order's status. The transition itself is already persisted, so
// failures here are logged rather than surfaced.
func (s *Service) afterTransition(ctx context.Context, eventType string, t *Task, actor *internal.SessionUser) {
	event := events.NewBaseEvent(eventType, map[string]interface{}{
		"task_id":       t.ID,
		"task_title":    t.Title,
		"work_order_id": t.WorkOrderID,
		"technician_id": actor.ID,
	})
	if err := s.publisher.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish task event", "error", err, "event_type", eventType, "task_id", t.ID)
	}
	s.recompute(t.WorkOrderID)
}

func (s *Service) recompute(workOrderID string) {
	if _, err := s.workOrders.RecomputeStatus(workOrderID); err != nil {
		s.logger.Error("failed to recompute work order status", "error", err, "work_order_id", workOrderID)
	}
}

func transitionError(from, to string) error {
	return internal.NewValidationError(
		"invalid task transition from "+from+" to "+to,
		internal.ErrCodeTaskTransition,
	)
}

func restrictedError(message string) error {
	return internal.NewForbiddenError(message, internal.ErrCodeTaskRestricted)
}
