package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
	"github.com/atelierhub/workshop-management/internal/history"
	"github.com/atelierhub/workshop-management/internal/user"
)

// HistoryRepository implements the history.Repository interface using GORM
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) history.Repository {
	return &HistoryRepository{db: db}
}

func (r *HistoryRepository) Append(e *history.Entry) error {
	return r.db.Create(e).Error
}

func (r *HistoryRepository) List(params listing.Params) ([]*history.Entry, int, error) {
	q := r.db.Model(&history.Entry{})
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		q = q.Joins("JOIN users ON users.id = activity_entries.technician_id").
			Where("users.first_name LIKE ? OR users.last_name LIKE ? OR users.badge_number LIKE ? OR activity_entries.task_title LIKE ?",
				pattern, pattern, pattern, pattern)
	}
	if len(params.Statuses) > 0 {
		q = q.Where("activity_entries.type IN ?", params.Statuses)
	}
	year, month, day := params.DateFilter()
	if day != "" {
		q = q.Where("DATE(activity_entries.occurred_at) = ?", day)
	}
	if year > 0 {
		q = q.Where("EXTRACT(YEAR FROM activity_entries.occurred_at) = ?", year)
	}
	if month > 0 {
		q = q.Where("EXTRACT(MONTH FROM activity_entries.occurred_at) = ?", month)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []*history.Entry
	err := q.Select("activity_entries.*").
		Order("activity_entries.occurred_at DESC").
		Limit(params.Items).
		Offset(params.Offset()).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}

	r.fillTechnicianNames(entries)
	return entries, int(total), nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}

func (r *HistoryRepository) ListByTechnicianForDay(technicianID string, day time.Time) ([]*history.Entry, error) {
	start, end := dayBounds(day)

	var entries []*history.Entry
	err := r.db.Where("technician_id = ? AND occurred_at >= ? AND occurred_at < ?", technicianID, start, end).
		Order("occurred_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *HistoryRepository) ListForDay(day time.Time) ([]*history.Entry, error) {
	start, end := dayBounds(day)

	var entries []*history.Entry
	err := r.db.Where("occurred_at >= ? AND occurred_at < ?", start, end).
		Order("occurred_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	r.fillTechnicianNames(entries)
	return entries, nil
}

func (r *HistoryRepository) TechnicianRefs() ([]history.TechnicianRef, error) {
	var refs []history.TechnicianRef
	err := r.db.Table("users").
		Select("users.id, users.first_name, users.last_name").
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("roles.name = ? AND users.hidden = ?", user.RoleTechnician, false).
		Order("users.last_name ASC, users.first_name ASC").
		Scan(&refs).Error
	if err != nil {
		return nil, err
	}
	return refs, nil
}

func (r *HistoryRepository) TechnicianByBadge(badgeNumber string) (*history.TechnicianRef, error) {
	var ref history.TechnicianRef
	err := r.db.Table("users").
		Select("users.id, users.first_name, users.last_name").
		Where("users.badge_number = ? AND users.hidden = ?", badgeNumber, false).
		Take(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("no technician wears this badge", internal.ErrCodeUserNotFound)
		}
		return nil, err
	}
	return &ref, nil
}

// fillTechnicianNames resolves display names in one query instead of a join
// per entry.
func (r *HistoryRepository) fillTechnicianNames(entries []*history.Entry) {
	if len(entries) == 0 {
		return
	}

	ids := make([]string, 0, len(entries))
	seen := make(map[string]bool)
	for _, e := range entries {
		if !seen[e.TechnicianID] {
			seen[e.TechnicianID] = true
			ids = append(ids, e.TechnicianID)
		}
	}

	var rows []struct {
		ID        string
		FirstName string
		LastName  string
	}
	if err := r.db.Table("users").Select("id, first_name, last_name").Where("id IN ?", ids).Scan(&rows).Error; err != nil {
		return
	}

	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.ID] = row.FirstName + " " + row.LastName
	}
	for _, e := range entries {
		e.TechnicianName = names[e.TechnicianID]
	}
}
