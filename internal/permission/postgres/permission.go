package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/permission"
)

// PermissionRepository implements the permission.Repository interface using GORM
type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.Repository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) List() ([]*permission.Permission, error) {
	var perms []*permission.Permission
	err := r.db.Order("code ASC").Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) ListMain() ([]*permission.Permission, error) {
	var perms []*permission.Permission
	err := r.db.Where("parent_id IS NULL").
		Preload("Secondaries").
		Order("code ASC").
		Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) GetByID(id string) (*permission.Permission, error) {
	var p permission.Permission
	err := r.db.Preload("Secondaries").Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("permission not found", internal.ErrCodePermNotFound)
		}
		return nil, err
	}
	return &p, nil
}

func (r *PermissionRepository) GetByIDs(ids []string) ([]*permission.Permission, error) {
	var perms []*permission.Permission
	err := r.db.Where("id IN ?", ids).Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) Create(p *permission.Permission) error {
	return r.db.Create(p).Error
}

func (r *PermissionRepository) Update(p *permission.Permission) error {
	return r.db.Save(p).Error
}

func (r *PermissionRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE permission_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&permission.Permission{}).Error
	})
}

func (r *PermissionRepository) CodeExists(code string, excludeID string) (bool, error) {
	q := r.db.Model(&permission.Permission{}).Where("code = ?", code)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PermissionRepository) ChildCount(id string) (int, error) {
	var count int64
	err := r.db.Model(&permission.Permission{}).Where("parent_id = ?", id).Count(&count).Error
	return int(count), err
}

// SetSecondaries reparents the given permissions under parentID and detaches
// previous children not in the list, all in one transaction.
func (r *PermissionRepository) SetSecondaries(parentID string, childIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&permission.Permission{}).
			Where("parent_id = ?", parentID).
			Update("parent_id", nil).Error; err != nil {
			return err
		}
		if len(childIDs) == 0 {
			return nil
		}
		return tx.Model(&permission.Permission{}).
			Where("id IN ?", childIDs).
			Update("parent_id", parentID).Error
	})
}
