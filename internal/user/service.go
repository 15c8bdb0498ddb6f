package user

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
)

// PasswordHasher abstracts the auth service's bcrypt hashing so this package
// does not depend on token machinery.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// Repository defines the data access methods for accounts.
type Repository interface {
	List(params listing.Params) ([]*User, int, error)
	ListByRole(roleName string, params listing.Params) ([]*User, int, error)
	GetByID(id string) (*User, error)
	GetByUsername(username string) (*User, error)
	Create(user *User) error
	Update(user *User) error
	UsernameExists(username string, excludeID string) (bool, error)
	BadgeExists(badge string, excludeID string) (bool, error)
	RoleExists(roleID string) (bool, error)
}

type Service struct {
	repo   Repository
	hasher PasswordHasher
	logger *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
	}
}

// List returns the paginated account listing. Hidden accounts never appear.
func (s *Service) List(params listing.Params) (listing.Page[*User], error) {
	users, total, err := s.repo.List(params)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return listing.Page[*User]{}, err
	}
	return listing.NewPage(users, total, params), nil
}

func (s *Service) GetByID(id string) (*User, error) {
	u, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Error("failed to get user", "error", err, "user_id", id)
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}
	return u, nil
}

func (s *Service) Create(dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("user validation failed", "error", err)
		return nil, err
	}

	taken, err := s.repo.UsernameExists(dto.Username, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, internal.NewConflictError("username is already taken", internal.ErrCodeUsernameTaken)
	}

	taken, err = s.repo.BadgeExists(dto.BadgeNumber, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, internal.NewConflictError("badge number is already taken", internal.ErrCodeBadgeTaken)
	}

	exists, err := s.repo.RoleExists(dto.RoleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	now := time.Now()
	u := &User{
		ID:           uuid.NewString(),
		Username:     dto.Username,
		FirstName:    dto.FirstName,
		LastName:     dto.LastName,
		BadgeNumber:  dto.BadgeNumber,
		PhoneNumber:  dto.PhoneNumber,
		PasswordHash: hash,
		Status:       StatusActive,
		RoleID:       dto.RoleID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(u); err != nil {
		s.logger.Error("failed to create user", "error", err, "username", dto.Username)
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "username", u.Username)
	return u, nil
}

func (s *Service) Update(id string, dto UpdateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	if dto.BadgeNumber != "" && dto.BadgeNumber != u.BadgeNumber {
		taken, err := s.repo.BadgeExists(dto.BadgeNumber, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, internal.NewConflictError("badge number is already taken", internal.ErrCodeBadgeTaken)
		}
		u.BadgeNumber = dto.BadgeNumber
	}

	if dto.RoleID != "" && dto.RoleID != u.RoleID {
		exists, err := s.repo.RoleExists(dto.RoleID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
		}
		u.RoleID = dto.RoleID
	}

	if dto.FirstName != "" {
		u.FirstName = dto.FirstName
	}
	if dto.LastName != "" {
		u.LastName = dto.LastName
	}
	if dto.PhoneNumber != "" {
		u.PhoneNumber = dto.PhoneNumber
	}
	if dto.Status != "" {
		u.Status = dto.Status
	}
	if dto.Password != "" {
		hash, err := s.hasher.HashPassword(dto.Password)
		if err != nil {
			s.logger.Error("failed to hash password", "error", err, "user_id", id)
			return nil, internal.NewInternalError("failed to update user", err)
		}
		u.PasswordHash = hash
	}

	u.UpdatedAt = time.Now()
	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", id)
		return nil, err
	}

	s.logger.Info("user updated", "user_id", u.ID)
	return u, nil
}

// Hide masks the account from listings and blocks its logins. References
// from work orders and history stay intact, so this replaces hard deletion.
func (s *Service) Hide(id string) error {
	u, err := s.repo.GetByID(id)
	if err != nil {
		return internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
	}

	u.Hide()
	if err := s.repo.Update(u); err != nil {
		s.logger.Error("failed to hide user", "error", err, "user_id", id)
		return err
	}

	s.logger.Info("user hidden", "user_id", id)
	return nil
}

// Technicians returns the paginated technician accounts used by task
// assignment and the presence board.
func (s *Service) Technicians(params listing.Params) (listing.Page[*User], error) {
	users, total, err := s.repo.ListByRole(RoleTechnician, params)
	if err != nil {
		s.logger.Error("failed to list technicians", "error", err)
		return listing.Page[*User]{}, err
	}
	return listing.NewPage(users, total, params), nil
}

// RoleTechnician is the role name technicians are seeded with.
const RoleTechnician = "Technician"
