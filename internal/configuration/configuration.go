package configuration

import (
	"time"
)

// Configuration is the single row of workshop policy toggles. Exactly one
// record exists, the seeder creates it and PATCH updates it in place.
type Configuration struct {
	ID                         int       `json:"id" gorm:"primaryKey"`
	ParallelTasksPerTechnician bool      `json:"parallel_tasks_per_technician" gorm:"column:parallel_tasks_per_technician"`
	MultiTechniciansPerTask    bool      `json:"multi_technicians_per_task" gorm:"column:multi_technicians_per_task"`
	OnlyCreatorEndTask         bool      `json:"only_creator_end_task" gorm:"column:only_creator_end_task"`
	RestartTask                bool      `json:"restart_task" gorm:"column:restart_task"`
	UpdatedAt                  time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Configuration) TableName() string {
	return "configurations"
}

// SingletonID is the fixed primary key of the only configuration row.
const SingletonID = 1

// Defaults returns the policy the seeder installs: one task at a time per
// technician, one technician per task, anyone may end a task, restart allowed.
func Defaults() *Configuration {
	return &Configuration{
		ID:                         SingletonID,
		ParallelTasksPerTechnician: false,
		MultiTechniciansPerTask:    false,
		OnlyCreatorEndTask:         false,
		RestartTask:                true,
		UpdatedAt:                  time.Now(),
	}
}
