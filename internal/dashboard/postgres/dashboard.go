package postgres

import (
	"gorm.io/gorm"

	"github.com/atelierhub/workshop-management/internal/dashboard"
	"github.com/atelierhub/workshop-management/internal/user"
)

// DashboardRepository implements the dashboard.Repository interface using GORM
type DashboardRepository struct {
	db *gorm.DB
}

func NewDashboardRepository(db *gorm.DB) dashboard.Repository {
	return &DashboardRepository{db: db}
}

type statusCount struct {
	Status string
	Count  int
}

func (r *DashboardRepository) countByStatus(table string) (map[string]int, error) {
	var rows []statusCount
	err := r.db.Table(table).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *DashboardRepository) WorkOrderCountsByStatus() (map[string]int, error) {
	return r.countByStatus("work_orders")
}

func (r *DashboardRepository) TaskCountsByStatus() (map[string]int, error) {
	return r.countByStatus("tasks")
}

func (r *DashboardRepository) TechnicianCount() (int, error) {
	var count int64
	err := r.db.Table("users").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ? AND users.hidden = ?", user.RoleTechnician, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}
