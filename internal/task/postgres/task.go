package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
	"github.com/atelierhub/workshop-management/internal/task"
)

// TaskRepository implements the task.Repository interface using GORM
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) task.Repository {
	return &TaskRepository{db: db}
}

func applyFilters(q *gorm.DB, params listing.Params) *gorm.DB {
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		q = q.Where("tasks.title LIKE ? OR tasks.details LIKE ?", pattern, pattern)
	}
	if len(params.Statuses) > 0 {
		q = q.Where("tasks.status IN ?", params.Statuses)
	}
	return q
}

func (r *TaskRepository) List(params listing.Params) ([]*task.Task, int, error) {
	q := applyFilters(r.db.Model(&task.Task{}), params)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []*task.Task
	err := q.Preload("Technicians").
		Order("tasks.created_at DESC").
		Limit(params.Items).
		Offset(params.Offset()).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, int(total), nil
}

func (r *TaskRepository) ListByWorkOrder(workOrderID string, params listing.Params) ([]*task.Task, int, error) {
	q := applyFilters(r.db.Model(&task.Task{}).Where("tasks.work_order_id = ?", workOrderID), params)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []*task.Task
	err := q.Preload("Technicians").
		Order("tasks.created_at ASC").
		Limit(params.Items).
		Offset(params.Offset()).
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}

	return tasks, int(total), nil
}

func (r *TaskRepository) GetByID(id string) (*task.Task, error) {
	var t task.Task
	err := r.db.Preload("Technicians").Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
		}
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) Create(t *task.Task, technicianIDs []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Technicians").Create(t).Error; err != nil {
			return err
		}
		for _, techID := range technicianIDs {
			err := tx.Exec(
				"INSERT INTO task_technicians (task_id, technician_id) VALUES (?, ?)",
				t.ID, techID,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *TaskRepository) Update(t *task.Task) error {
	return r.db.Omit("Technicians").Save(t).Error
}

func (r *TaskRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM task_technicians WHERE task_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&task.Task{}, "id = ?", id).Error
	})
}

func (r *TaskRepository) AssignTechnician(taskID, technicianID string) error {
	return r.db.Exec(
		"INSERT INTO task_technicians (task_id, technician_id) VALUES (?, ?)",
		taskID, technicianID,
	).Error
}

// ActiveTaskCount counts the technician's IN_PROGRESS tasks other than the
// one being transitioned.
func (r *TaskRepository) ActiveTaskCount(technicianID, excludeTaskID string) (int, error) {
	var count int64
	err := r.db.Model(&task.Task{}).
		Joins("JOIN task_technicians tt ON tt.task_id = tasks.id").
		Where("tt.technician_id = ? AND tasks.status = ? AND tasks.id <> ?",
			technicianID, task.StatusInProgress, excludeTaskID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *TaskRepository) TechniciansExist(ids []string) (bool, error) {
	var count int64
	err := r.db.Table("users").
		Where("id IN ? AND hidden = ?", ids, false).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return int(count) == len(ids), nil
}

func (r *TaskRepository) WorkOrderExists(id string) (bool, error) {
	var count int64
	if err := r.db.Table("work_orders").Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
