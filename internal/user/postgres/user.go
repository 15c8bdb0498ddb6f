package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
	"github.com/atelierhub/workshop-management/internal/user"
)

// UserRepository implements the user.Repository interface using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

// visible scopes every listing query: hidden accounts never leave the
// database layer.
func (r *UserRepository) visible() *gorm.DB {
	return r.db.Model(&user.User{}).Where("users.hidden = ?", false)
}

func applySearch(q *gorm.DB, search string) *gorm.DB {
	if search == "" {
		return q
	}
	pattern := "%" + search + "%"
	return q.Where(
		"users.username LIKE ? OR users.first_name LIKE ? OR users.last_name LIKE ? OR users.badge_number LIKE ?",
		pattern, pattern, pattern, pattern,
	)
}

func (r *UserRepository) List(params listing.Params) ([]*user.User, int, error) {
	q := applySearch(r.visible(), params.Search)
	if len(params.Statuses) > 0 {
		q = q.Where("users.status IN ?", params.Statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*user.User
	err := q.Select("users.*, COALESCE(roles.name, '') AS role_name").
		Joins("LEFT JOIN roles ON roles.id = users.role_id").
		Order("users.last_name ASC, users.first_name ASC").
		Limit(params.Items).
		Offset(params.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, int(total), nil
}

func (r *UserRepository) ListByRole(roleName string, params listing.Params) ([]*user.User, int, error) {
	q := applySearch(r.visible(), params.Search).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ?", roleName)
	if len(params.Statuses) > 0 {
		q = q.Where("users.status IN ?", params.Statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*user.User
	err := q.Select("users.*, roles.name AS role_name").
		Order("users.last_name ASC, users.first_name ASC").
		Limit(params.Items).
		Offset(params.Offset()).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, int(total), nil
}

func (r *UserRepository) GetByID(id string) (*user.User, error) {
	var u user.User
	err := r.db.Model(&user.User{}).
		Select("users.*, COALESCE(roles.name, '') AS role_name").
		Joins("LEFT JOIN roles ON roles.id = users.role_id").
		Where("users.id = ? AND users.hidden = ?", id, false).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(username string) (*user.User, error) {
	var u user.User
	err := r.db.Where("username = ? AND hidden = ?", username, false).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("user not found", internal.ErrCodeUserNotFound)
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Create(u *user.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) Update(u *user.User) error {
	return r.db.Save(u).Error
}

func (r *UserRepository) UsernameExists(username string, excludeID string) (bool, error) {
	q := r.db.Model(&user.User{}).Where("username = ?", username)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) BadgeExists(badge string, excludeID string) (bool, error) {
	q := r.db.Model(&user.User{}).Where("badge_number = ?", badge)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *UserRepository) RoleExists(roleID string) (bool, error) {
	var count int64
	if err := r.db.Table("roles").Where("id = ?", roleID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
