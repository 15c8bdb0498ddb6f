package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/role"
)

// RoleRepository implements the role.Repository interface using GORM
type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.Repository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) List(includePermissions bool) ([]*role.Role, error) {
	var roles []*role.Role
	q := r.db.Order("name ASC")
	if includePermissions {
		q = q.Preload("Permissions")
	}
	if err := q.Find(&roles).Error; err != nil {
		return nil, err
	}

	for _, ro := range roles {
		count, err := r.UserCount(ro.ID)
		if err != nil {
			return nil, err
		}
		ro.UserCount = count
	}
	return roles, nil
}

func (r *RoleRepository) GetByID(id string, includePermissions bool) (*role.Role, error) {
	var ro role.Role
	q := r.db.Where("id = ?", id)
	if includePermissions {
		q = q.Preload("Permissions")
	}
	if err := q.First(&ro).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("role not found", internal.ErrCodeRoleNotFound)
		}
		return nil, err
	}

	count, err := r.UserCount(id)
	if err != nil {
		return nil, err
	}
	ro.UserCount = count
	return &ro, nil
}

func (r *RoleRepository) Create(ro *role.Role) error {
	return r.db.Create(ro).Error
}

func (r *RoleRepository) Update(ro *role.Role) error {
	return r.db.Save(ro).Error
}

func (r *RoleRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&role.Role{}).Error
	})
}

func (r *RoleRepository) NameExists(name string, excludeID string) (bool, error) {
	q := r.db.Model(&role.Role{}).Where("name = ?", name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RoleRepository) UserCount(id string) (int, error) {
	var count int64
	err := r.db.Table("users").
		Where("role_id = ? AND hidden = ?", id, false).
		Count(&count).Error
	return int(count), err
}

// SetPermissions replaces the join rows in one transaction.
func (r *RoleRepository) SetPermissions(roleID string, permissionIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", roleID).Error; err != nil {
			return err
		}
		for _, pid := range permissionIDs {
			if err := tx.Exec(
				"INSERT INTO role_permissions (role_id, permission_id) VALUES (?, ?)",
				roleID, pid,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *RoleRepository) PermissionsExist(permissionIDs []string) (bool, error) {
	var count int64
	err := r.db.Table("permissions").Where("id IN ?", permissionIDs).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == int64(len(permissionIDs)), nil
}
