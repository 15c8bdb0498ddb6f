package history

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
)

// Repository defines the data access methods for the activity history.
// The history is append-only, there is no update or delete.
type Repository interface {
	Append(e *Entry) error
	List(params listing.Params) ([]*Entry, int, error)
	ListByTechnicianForDay(technicianID string, day time.Time) ([]*Entry, error)
	ListForDay(day time.Time) ([]*Entry, error)
	TechnicianRefs() ([]TechnicianRef, error)
	TechnicianByBadge(badgeNumber string) (*TechnicianRef, error)
}

// TechnicianRef is the slice of the users table the presence digest needs.
type TechnicianRef struct {
	ID        string
	FirstName string
	LastName  string
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) List(params listing.Params) (listing.Page[*Entry], error) {
	entries, total, err := s.repo.List(params)
	if err != nil {
		s.logger.Error("failed to list history", "error", err)
		return listing.Page[*Entry]{}, err
	}
	return listing.NewPage(entries, total, params), nil
}

// Badge toggles the technician's attendance for the day. Checked out or not
// yet checked in records an ENTRY, anything else records an EXIT.
func (s *Service) Badge(technicianID string) (*Entry, error) {
	state, err := s.Presence(technicianID)
	if err != nil {
		return nil, err
	}

	entryType := TypeExit
	if state == PresenceNotCheckedIn || state == PresenceOut {
		entryType = TypeEntry
	}

	return s.append(technicianID, entryType, nil, "")
}

// BadgeByNumber toggles attendance for the technician wearing the badge.
// Kiosk terminals send the scanned badge number instead of acting as the
// session user.
func (s *Service) BadgeByNumber(badgeNumber string) (*Entry, error) {
	ref, err := s.repo.TechnicianByBadge(badgeNumber)
	if err != nil {
		return nil, err
	}
	return s.Badge(ref.ID)
}

// Break toggles the technician's break. Requires the technician to be
// checked in.
func (s *Service) Break(technicianID string) (*Entry, error) {
	state, err := s.Presence(technicianID)
	if err != nil {
		return nil, err
	}

	var entryType string
	switch state {
	case PresencePresent:
		entryType = TypeBreak
	case PresenceOnBreak:
		entryType = TypeResume
	default:
		return nil, internal.NewValidationError("technician is not checked in", internal.ErrCodeValidationFailed)
	}

	return s.append(technicianID, entryType, nil, "")
}

// Today returns the technician's entries for the current day, oldest first.
func (s *Service) Today(technicianID string) ([]*Entry, error) {
	entries, err := s.repo.ListByTechnicianForDay(technicianID, s.now())
	if err != nil {
		s.logger.Error("failed to load today's history", "error", err, "technician_id", technicianID)
		return nil, err
	}
	return entries, nil
}

// TodayAll returns every technician's entries for the current day.
func (s *Service) TodayAll() ([]*Entry, error) {
	entries, err := s.repo.ListForDay(s.now())
	if err != nil {
		s.logger.Error("failed to load today's history", "error", err)
		return nil, err
	}
	return entries, nil
}

// Presence derives the technician's current presence from today's entries.
func (s *Service) Presence(technicianID string) (string, error) {
	entries, err := s.repo.ListByTechnicianForDay(technicianID, s.now())
	if err != nil {
		return "", err
	}
	return DerivePresence(entries), nil
}

// Digest returns the presence of every technician, including those without
// any entry today.
func (s *Service) Digest() ([]TechnicianPresence, error) {
	refs, err := s.repo.TechnicianRefs()
	if err != nil {
		s.logger.Error("failed to load technicians", "error", err)
		return nil, err
	}

	entries, err := s.repo.ListForDay(s.now())
	if err != nil {
		s.logger.Error("failed to load today's history", "error", err)
		return nil, err
	}

	byTechnician := make(map[string][]*Entry)
	for _, e := range entries {
		byTechnician[e.TechnicianID] = append(byTechnician[e.TechnicianID], e)
	}

	now := s.now()
	digest := make([]TechnicianPresence, 0, len(refs))
	for _, ref := range refs {
		sum := DeriveDaySummary(byTechnician[ref.ID], now)
		digest = append(digest, TechnicianPresence{
			TechnicianID:   ref.ID,
			TechnicianName: ref.FirstName + " " + ref.LastName,
			Presence:       sum.Presence,
			FirstEntry:     sum.FirstEntry,
			LastExit:       sum.LastExit,
			Pauses:         sum.Pauses,
			TasksStarted:   sum.TasksStarted,
			TasksCompleted: sum.TasksCompleted,
			WorkedMinutes:  sum.WorkedMinutes,
		})
	}
	return digest, nil
}

// recordTaskEvent appends a task lifecycle entry. Called by the recorder
// subscribed to the event bus.
func (s *Service) recordTaskEvent(technicianID, entryType, taskID, taskTitle string) error {
	var ref *string
	if taskID != "" {
		ref = &taskID
	}
	_, err := s.append(technicianID, entryType, ref, taskTitle)
	return err
}

func (s *Service) append(technicianID, entryType string, taskID *string, taskTitle string) (*Entry, error) {
	e := &Entry{
		ID:           uuid.NewString(),
		TechnicianID: technicianID,
		Type:         entryType,
		TaskID:       taskID,
		TaskTitle:    taskTitle,
		OccurredAt:   s.now(),
	}

	if err := s.repo.Append(e); err != nil {
		s.logger.Error("failed to append history entry", "error", err, "type", entryType, "technician_id", technicianID)
		return nil, err
	}

	s.logger.Info("history entry recorded", "type", entryType, "technician_id", technicianID)
	return e, nil
}
