package history

import (
	"context"
	"fmt"

	"github.com/atelierhub/workshop-management/internal/core/events"
	"github.com/atelierhub/workshop-management/internal/task"
)

var taskEventEntryTypes = map[string]string{
	task.EventTaskStarted:   TypeTaskStarted,
	task.EventTaskPaused:    TypeTaskPaused,
	task.EventTaskResumed:   TypeTaskResumed,
	task.EventTaskEnded:     TypeTaskEnded,
	task.EventTaskRestarted: TypeTaskRestarted,
	task.EventTaskJoined:    TypeJoinedTask,
}

// Subscriber registers handlers on an event bus.
type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

// RegisterRecorder subscribes the history service to every task lifecycle
// event so each transition lands in the activity log.
func RegisterRecorder(bus Subscriber, service *Service) {
	for eventType, entryType := range taskEventEntryTypes {
		entryType := entryType
		bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
			return service.recordEvent(event, entryType)
		})
	}
}

func (s *Service) recordEvent(event events.Event, entryType string) error {
	payload, ok := event.Payload().(map[string]interface{})
	if !ok {
		return fmt.Errorf("unexpected payload for event %s", event.EventType())
	}

	technicianID, _ := payload["technician_id"].(string)
	if technicianID == "" {
		return fmt.Errorf("event %s carries no technician id", event.EventType())
	}
	taskID, _ := payload["task_id"].(string)
	taskTitle, _ := payload["task_title"].(string)

	return s.recordTaskEvent(technicianID, entryType, taskID, taskTitle)
}
