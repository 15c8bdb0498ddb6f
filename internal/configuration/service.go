package configuration

import (
	"log/slog"
	"time"

	internal "github.com/atelierhub/workshop-management/internal"
)

// Repository defines the data access methods for the configuration singleton.
type Repository interface {
	Get() (*Configuration, error)
	Save(cfg *Configuration) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Get() (*Configuration, error) {
	cfg, err := s.repo.Get()
	if err != nil {
		s.logger.Error("failed to load configuration", "error", err)
		return nil, internal.NewNotFoundError("configuration not found", internal.ErrCodeConfigNotFound)
	}
	return cfg, nil
}

func (s *Service) Update(dto UpdateConfigurationDTO) (*Configuration, error) {
	cfg, err := s.repo.Get()
	if err != nil {
		return nil, internal.NewNotFoundError("configuration not found", internal.ErrCodeConfigNotFound)
	}

	if dto.Empty() {
		return cfg, nil
	}

	if dto.ParallelTasksPerTechnician != nil {
		cfg.ParallelTasksPerTechnician = *dto.ParallelTasksPerTechnician
	}
	if dto.MultiTechniciansPerTask != nil {
		cfg.MultiTechniciansPerTask = *dto.MultiTechniciansPerTask
	}
	if dto.OnlyCreatorEndTask != nil {
		cfg.OnlyCreatorEndTask = *dto.OnlyCreatorEndTask
	}
	if dto.RestartTask != nil {
		cfg.RestartTask = *dto.RestartTask
	}

	cfg.UpdatedAt = time.Now()
	if err := s.repo.Save(cfg); err != nil {
		s.logger.Error("failed to save configuration", "error", err)
		return nil, err
	}

	s.logger.Info("configuration updated",
		"parallel_tasks_per_technician", cfg.ParallelTasksPerTechnician,
		"multi_technicians_per_task", cfg.MultiTechniciansPerTask,
		"only_creator_end_task", cfg.OnlyCreatorEndTask,
		"restart_task", cfg.RestartTask)
	return cfg, nil
}
