package history

import (
	"time"
)

// Entry types. The first four come from badge actions, the rest are recorded
// from task lifecycle events.
const (
	TypeEntry  = "ENTRY"
	TypeExit   = "EXIT"
	TypeBreak  = "BREAK"
	TypeResume = "RESUME"

	TypeTaskStarted   = "TASK_STARTED"
	TypeTaskPaused    = "TASK_PAUSED"
	TypeTaskResumed   = "TASK_RESUMED"
	TypeTaskEnded     = "TASK_ENDED"
	TypeTaskRestarted = "TASK_RESTARTED"
	TypeJoinedTask    = "JOINED_TASK"
)

// Presence states derived from a technician's attendance entries of the day.
const (
	PresencePresent      = "PRESENT"
	PresenceOnBreak      = "ON_BREAK"
	PresenceOut          = "OUT"
	PresenceNotCheckedIn = "NOT_CHECKED_IN"
)

// Entry is one immutable line of the activity history. Entries are only ever
// appended, never updated or deleted.
type Entry struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	TechnicianID   string    `json:"technician_id" gorm:"column:technician_id;index"`
	TechnicianName string    `json:"technician_name" gorm:"-"`
	Type           string    `json:"type" gorm:"column:type"`
	TaskID         *string   `json:"task_id,omitempty" gorm:"column:task_id"`
	TaskTitle      string    `json:"task_title,omitempty" gorm:"column:task_title"`
	OccurredAt     time.Time `json:"occurred_at" gorm:"column:occurred_at;index"`
}

func (Entry) TableName() string {
	return "activity_entries"
}

// IsAttendance reports whether the entry affects presence.
func (e *Entry) IsAttendance() bool {
	switch e.Type {
	case TypeEntry, TypeExit, TypeBreak, TypeResume:
		return true
	}
	return false
}

// DerivePresence folds a day's entries, oldest first, into a presence state.
func DerivePresence(entries []*Entry) string {
	state := PresenceNotCheckedIn
	for _, e := range entries {
		switch e.Type {
		case TypeEntry, TypeResume:
			state = PresencePresent
		case TypeBreak:
			state = PresenceOnBreak
		case TypeExit:
			state = PresenceOut
		}
	}
	return state
}

// Pause is one break interval. End is nil while the break is still running.
type Pause struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// DaySummary aggregates one technician's day: attendance boundaries, break
// intervals, task activity and the worked time between them.
type DaySummary struct {
	Presence       string
	FirstEntry     *time.Time
	LastExit       *time.Time
	Pauses         []Pause
	TasksStarted   int
	TasksCompleted int
	WorkedMinutes  int
}

// DeriveDaySummary folds a day's entries, oldest first. Worked time counts
// the intervals between check in or resume and the next break or check out;
// a still-open interval counts up to now.
func DeriveDaySummary(entries []*Entry, now time.Time) DaySummary {
	sum := DaySummary{Presence: PresenceNotCheckedIn}
	var workingSince *time.Time
	var worked time.Duration

	for _, e := range entries {
		at := e.OccurredAt
		switch e.Type {
		case TypeEntry:
			sum.Presence = PresencePresent
			if sum.FirstEntry == nil {
				sum.FirstEntry = &at
			}
			if workingSince == nil {
				workingSince = &at
			}
		case TypeResume:
			sum.Presence = PresencePresent
			if workingSince == nil {
				workingSince = &at
			}
			if n := len(sum.Pauses); n > 0 && sum.Pauses[n-1].End == nil {
				sum.Pauses[n-1].End = &at
			}
		case TypeBreak:
			sum.Presence = PresenceOnBreak
			sum.Pauses = append(sum.Pauses, Pause{Start: at})
			if workingSince != nil {
				worked += at.Sub(*workingSince)
				workingSince = nil
			}
		case TypeExit:
			sum.Presence = PresenceOut
			sum.LastExit = &at
			if workingSince != nil {
				worked += at.Sub(*workingSince)
				workingSince = nil
			}
		case TypeTaskStarted:
			sum.TasksStarted++
		case TypeTaskEnded:
			sum.TasksCompleted++
		}
	}

	if workingSince != nil {
		worked += now.Sub(*workingSince)
	}
	sum.WorkedMinutes = int(worked / time.Minute)
	return sum
}

// TechnicianPresence is one line of the workshop presence digest.
type TechnicianPresence struct {
	TechnicianID   string     `json:"technician_id"`
	TechnicianName string     `json:"technician_name"`
	Presence       string     `json:"presence"`
	FirstEntry     *time.Time `json:"first_entry,omitempty"`
	LastExit       *time.Time `json:"last_exit,omitempty"`
	Pauses         []Pause    `json:"pauses,omitempty"`
	TasksStarted   int        `json:"tasks_started"`
	TasksCompleted int        `json:"tasks_completed"`
	WorkedMinutes  int        `json:"worked_minutes"`
}
