package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
	"github.com/atelierhub/workshop-management/internal/workorder"
)

// WorkOrderRepository implements the workorder.Repository interface using GORM
type WorkOrderRepository struct {
	db *gorm.DB
}

func NewWorkOrderRepository(db *gorm.DB) workorder.Repository {
	return &WorkOrderRepository{db: db}
}

func (r *WorkOrderRepository) List(params listing.Params) ([]*workorder.WorkOrder, int, error) {
	q := r.db.Model(&workorder.WorkOrder{})

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		q = q.Where(
			"number LIKE ? OR vehicle LIKE ? OR customer_name LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if len(params.Statuses) > 0 {
		q = q.Where("status IN ?", params.Statuses)
	}
	year, month, day := params.DateFilter()
	if day != "" {
		q = q.Where("DATE(created_at) = ?", day)
	}
	if year > 0 {
		q = q.Where("EXTRACT(YEAR FROM created_at) = ?", year)
	}
	if month > 0 {
		q = q.Where("EXTRACT(MONTH FROM created_at) = ?", month)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*workorder.WorkOrder
	err := q.Order("created_at DESC").
		Limit(params.Items).
		Offset(params.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	for _, wo := range orders {
		var count int64
		if err := r.db.Table("tasks").Where("work_order_id = ?", wo.ID).Count(&count).Error; err != nil {
			return nil, 0, err
		}
		wo.TaskCount = int(count)
	}

	return orders, int(total), nil
}

func (r *WorkOrderRepository) GetByID(id string) (*workorder.WorkOrder, error) {
	var wo workorder.WorkOrder
	err := r.db.Where("id = ?", id).First(&wo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("work order not found", internal.ErrCodeWorkOrderNotFound)
		}
		return nil, err
	}

	rows, err := r.db.Raw(`
		SELECT t.id, t.title, t.status, t.created_at, COALESCE(u.first_name || ' ' || u.last_name, '')
		FROM tasks t
		LEFT JOIN task_technicians tt ON tt.task_id = t.id
		LEFT JOIN users u ON u.id = tt.user_id
		WHERE t.work_order_id = ?
		ORDER BY t.created_at ASC`, id).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// One row per task-technician pair; fold the technicians per task.
	index := make(map[string]int)
	for rows.Next() {
		var t workorder.Task
		var tech string
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.CreatedAt, &tech); err != nil {
			return nil, err
		}
		if i, seen := index[t.ID]; seen {
			if tech != "" {
				wo.Tasks[i].Technicians = append(wo.Tasks[i].Technicians, tech)
			}
			continue
		}
		if tech != "" {
			t.Technicians = []string{tech}
		}
		index[t.ID] = len(wo.Tasks)
		wo.Tasks = append(wo.Tasks, t)
	}

	wo.TaskCount = len(wo.Tasks)
	return &wo, nil
}

func (r *WorkOrderRepository) Create(wo *workorder.WorkOrder) error {
	return r.db.Create(wo).Error
}

func (r *WorkOrderRepository) Update(wo *workorder.WorkOrder) error {
	return r.db.Save(wo).Error
}

func (r *WorkOrderRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM task_technicians WHERE task_id IN (SELECT id FROM tasks WHERE work_order_id = ?)", id,
		).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM tasks WHERE work_order_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&workorder.WorkOrder{}).Error
	})
}

func (r *WorkOrderRepository) TaskStatuses(workOrderID string) ([]string, error) {
	var statuses []string
	err := r.db.Table("tasks").
		Where("work_order_id = ?", workOrderID).
		Pluck("status", &statuses).Error
	return statuses, err
}

func (r *WorkOrderRepository) UpdateStatus(id string, status string) error {
	return r.db.Model(&workorder.WorkOrder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status}).Error
}
