package workorder

import (
	"time"
)

// WorkOrder is one repair job on one vehicle. Its status is derived from its
// tasks and never set directly by a client.
type WorkOrder struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Number       string    `json:"number" gorm:"not null;index"`
	Vehicle      string    `json:"vehicle" gorm:"not null"`
	CustomerName string    `json:"customer_name" gorm:"column:customer_name;not null"`
	Description  string    `json:"description,omitempty"`
	Status       string    `json:"status" gorm:"default:NOT_STARTED"`
	CreatedBy    string    `json:"created_by" gorm:"column:created_by"`
	TaskCount    int       `json:"task_count" gorm:"-"`
	Tasks        []Task    `json:"tasks,omitempty" gorm:"-"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}

const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Task is the read-side projection embedded in a work order detail. The task
// package owns the lifecycle.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Technicians []string  `json:"technicians,omitempty"`
}

// DeriveStatus computes the work order status from its task statuses:
// no tasks or all untouched means not started, everything completed means
// completed, anything else means in progress.
func DeriveStatus(taskStatuses []string) string {
	if len(taskStatuses) == 0 {
		return StatusNotStarted
	}

	allNotStarted := true
	allCompleted := true
	for _, st := range taskStatuses {
		if st != StatusNotStarted {
			allNotStarted = false
		}
		if st != StatusCompleted {
			allCompleted = false
		}
	}

	switch {
	case allNotStarted:
		return StatusNotStarted
	case allCompleted:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}
