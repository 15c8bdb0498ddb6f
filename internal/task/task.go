package task

import (
	"time"
)

// Task statuses. COMPLETED is terminal unless the restart toggle is on.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusPaused     = "PAUSED"
	StatusCompleted  = "COMPLETED"
)

// Lifecycle event types published on every successful transition. The
// history recorder subscribes to all of them.
const (
	EventTaskStarted   = "task.started"
	EventTaskPaused    = "task.paused"
	EventTaskResumed   = "task.resumed"
	EventTaskEnded     = "task.ended"
	EventTaskRestarted = "task.restarted"
	EventTaskJoined    = "task.joined"
)

type Task struct {
	ID          string       `json:"id" gorm:"primaryKey"`
	WorkOrderID string       `json:"work_order_id" gorm:"column:work_order_id;index"`
	Title       string       `json:"title" gorm:"column:title"`
	Details     string       `json:"details" gorm:"column:details"`
	Status      string       `json:"status" gorm:"column:status;default:NOT_STARTED"`
	CreatedBy   string       `json:"created_by" gorm:"column:created_by"`
	StartedAt   *time.Time   `json:"started_at,omitempty" gorm:"column:started_at"`
	EndedAt     *time.Time   `json:"ended_at,omitempty" gorm:"column:ended_at"`
	Technicians []Technician `json:"technicians" gorm:"many2many:task_technicians;joinForeignKey:task_id;joinReferences:technician_id"`
	CreatedAt   time.Time    `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"column:updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// IsActive reports whether the task currently occupies a technician. PAUSED
// does not count, a paused task frees its technicians for other work.
func (t *Task) IsActive() bool {
	return t.Status == StatusInProgress
}

// AssignedTo reports whether the given technician is on the task.
func (t *Task) AssignedTo(technicianID string) bool {
	for _, tech := range t.Technicians {
		if tech.ID == technicianID {
			return true
		}
	}
	return false
}

// Technician is the slice of the users table a task response needs.
type Technician struct {
	ID          string `json:"id" gorm:"primaryKey"`
	FirstName   string `json:"first_name" gorm:"column:first_name"`
	LastName    string `json:"last_name" gorm:"column:last_name"`
	BadgeNumber string `json:"badge_number" gorm:"column:badge_number"`
}

func (Technician) TableName() string {
	return "users"
}
