package role

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	internal "github.com/atelierhub/workshop-management/internal"
)

// Repository defines the data access methods for roles.
type Repository interface {
	List(includePermissions bool) ([]*Role, error)
	GetByID(id string, includePermissions bool) (*Role, error)
	Create(role *Role) error
	Update(role *Role) error
	Delete(id string) error
	NameExists(name string, excludeID string) (bool, error)
	UserCount(id string) (int, error)
	SetPermissions(roleID string, permissionIDs []string) error
	PermissionsExist(permissionIDs []string) (bool, error)
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

// List returns every role. The permission sets are loaded only when the
// caller asks, the role table screen does not need them.
func (s *Service) List(includePermissions bool) ([]*Role, error) {
	roles, err := s.repo.List(includePermissions)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, err
	}
	return roles, nil
}

func (s *Service) GetByID(id string) (*Role, error) {
	r, err := s.repo.GetByID(id, true)
	if err != nil {
		return nil, internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	}
	return r, nil
}

func (s *Service) Create(dto CreateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.NameExists(dto.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, internal.NewConflictError("role name is already taken", internal.ErrCodeRoleNameTaken)
	}

	now := time.Now()
	r := &Role{
		ID:          uuid.NewString(),
		Name:        dto.Name,
		Description: dto.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(r); err != nil {
		s.logger.Error("failed to create role", "error", err, "name", dto.Name)
		return nil, err
	}

	s.logger.Info("role created", "role_id", r.ID, "name", r.Name)
	return r, nil
}

func (s *Service) Update(id string, dto UpdateRoleDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	r, err := s.repo.GetByID(id, false)
	if err != nil {
		return nil, internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	}

	if dto.Name != "" && dto.Name != r.Name {
		taken, err := s.repo.NameExists(dto.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, internal.NewConflictError("role name is already taken", internal.ErrCodeRoleNameTaken)
		}
		r.Name = dto.Name
	}
	if dto.Description != "" {
		r.Description = dto.Description
	}

	r.UpdatedAt = time.Now()
	if err := s.repo.Update(r); err != nil {
		s.logger.Error("failed to update role", "error", err, "role_id", id)
		return nil, err
	}

	return r, nil
}

// Delete refuses while any account still references the role.
func (s *Service) Delete(id string) error {
	if _, err := s.repo.GetByID(id, false); err != nil {
		return internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	}

	count, err := s.repo.UserCount(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return internal.NewConflictError("role is assigned to users", internal.ErrCodeRoleInUse)
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete role", "error", err, "role_id", id)
		return err
	}

	s.logger.Info("role deleted", "role_id", id)
	return nil
}

// SetPermissions replaces the role's permission set with the given IDs.
func (s *Service) SetPermissions(id string, dto SetPermissionsDTO) (*Role, error) {
	if _, err := s.repo.GetByID(id, false); err != nil {
		return nil, internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	}

	if len(dto.PermissionIDs) > 0 {
		exist, err := s.repo.PermissionsExist(dto.PermissionIDs)
		if err != nil {
			return nil, err
		}
		if !exist {
			return nil, internal.NewNotFoundError("one or more permissions do not exist", internal.ErrCodePermNotFound)
		}
	}

	if err := s.repo.SetPermissions(id, dto.PermissionIDs); err != nil {
		s.logger.Error("failed to set role permissions", "error", err, "role_id", id)
		return nil, err
	}

	s.logger.Info("role permissions replaced", "role_id", id, "count", len(dto.PermissionIDs))
	return s.GetByID(id)
}
