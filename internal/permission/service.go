package permission

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	internal "github.com/atelierhub/workshop-management/internal"
)

// Repository defines the data access methods for permissions.
type Repository interface {
	List() ([]*Permission, error)
	ListMain() ([]*Permission, error)
	GetByID(id string) (*Permission, error)
	GetByIDs(ids []string) ([]*Permission, error)
	Create(p *Permission) error
	Update(p *Permission) error
	Delete(id string) error
	CodeExists(code string, excludeID string) (bool, error)
	ChildCount(id string) (int, error)
	SetSecondaries(parentID string, childIDs []string) error
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) List() ([]*Permission, error) {
	perms, err := s.repo.List()
	if err != nil {
		s.logger.Error("failed to list permissions", "error", err)
		return nil, err
	}
	return perms, nil
}

// ListMain returns only the top of the hierarchy, each main carrying its
// secondaries. This feeds the grouped permission picker.
func (s *Service) ListMain() ([]*Permission, error) {
	perms, err := s.repo.ListMain()
	if err != nil {
		s.logger.Error("failed to list main permissions", "error", err)
		return nil, err
	}
	return perms, nil
}

func (s *Service) GetByID(id string) (*Permission, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("permission not found", internal.ErrCodePermNotFound)
	}
	return p, nil
}

func (s *Service) Create(dto CreatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.CodeExists(dto.Code, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, internal.NewConflictError("permission code is already taken", internal.ErrCodeValidationFailed)
	}

	if dto.ParentID != nil {
		parent, err := s.repo.GetByID(*dto.ParentID)
		if err != nil {
			return nil, internal.NewNotFoundError("parent permission not found", internal.ErrCodePermNotFound)
		}
		if !parent.IsMain() {
			return nil, internal.NewValidationError("parent must be a main permission", internal.ErrCodePermNotMain)
		}
	}

	now := time.Now()
	p := &Permission{
		ID:        uuid.NewString(),
		Code:      dto.Code,
		Label:     dto.Label,
		ParentID:  dto.ParentID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(p); err != nil {
		s.logger.Error("failed to create permission", "error", err, "code", dto.Code)
		return nil, err
	}

	s.logger.Info("permission created", "permission_id", p.ID, "code", p.Code)
	return p, nil
}

func (s *Service) Update(id string, dto UpdatePermissionDTO) (*Permission, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("permission not found", internal.ErrCodePermNotFound)
	}

	if dto.Label != "" {
		p.Label = dto.Label
	}
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(p); err != nil {
		s.logger.Error("failed to update permission", "error", err, "permission_id", id)
		return nil, err
	}
	return p, nil
}

// Delete refuses while the permission still has secondaries. Detach or
// delete the children first.
func (s *Service) Delete(id string) error {
	if _, err := s.repo.GetByID(id); err != nil {
		return internal.NewNotFoundError("permission not found", internal.ErrCodePermNotFound)
	}

	count, err := s.repo.ChildCount(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return internal.NewConflictError("permission still has secondaries", internal.ErrCodePermHasChildren)
	}

	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete permission", "error", err, "permission_id", id)
		return err
	}

	s.logger.Info("permission deleted", "permission_id", id)
	return nil
}

// SetSecondaries replaces the children of a main permission. The target must
// be a main, and none of the children may itself be a parent.
func (s *Service) SetSecondaries(id string, dto SetSecondariesDTO) (*Permission, error) {
	parent, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("permission not found", internal.ErrCodePermNotFound)
	}
	if !parent.IsMain() {
		return nil, internal.NewValidationError("only a main permission can have secondaries", internal.ErrCodePermNotMain)
	}

	if len(dto.PermissionIDs) > 0 {
		children, err := s.repo.GetByIDs(dto.PermissionIDs)
		if err != nil {
			return nil, err
		}
		if len(children) != len(dto.PermissionIDs) {
			return nil, internal.NewNotFoundError("one or more permissions do not exist", internal.ErrCodePermNotFound)
		}
		for _, c := range children {
			if c.ID == id {
				return nil, internal.NewValidationError("a permission cannot be its own secondary", internal.ErrCodePermNotMain)
			}
			grandchildren, err := s.repo.ChildCount(c.ID)
			if err != nil {
				return nil, err
			}
			if grandchildren > 0 {
				return nil, internal.NewValidationError("a parent permission cannot become a secondary", internal.ErrCodePermNotMain)
			}
		}
	}

	if err := s.repo.SetSecondaries(id, dto.PermissionIDs); err != nil {
		s.logger.Error("failed to set secondaries", "error", err, "permission_id", id)
		return nil, err
	}

	s.logger.Info("permission secondaries replaced", "permission_id", id, "count", len(dto.PermissionIDs))
	return s.repo.GetByID(id)
}
