package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/atelierhub/workshop-management/internal/core/fanout"
	"github.com/atelierhub/workshop-management/internal/history"
	"github.com/atelierhub/workshop-management/internal/task"
)

// Repository defines the aggregate queries behind the dashboard.
type Repository interface {
	WorkOrderCountsByStatus() (map[string]int, error)
	TaskCountsByStatus() (map[string]int, error)
	TechnicianCount() (int, error)
}

// PresenceAPI is the slice of the history service the dashboard reads.
type PresenceAPI interface {
	Digest() ([]history.TechnicianPresence, error)
	TodayAll() ([]*history.Entry, error)
}

// StatusCounts breaks a record count down by status.
type StatusCounts struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// PresenceSummary tallies the presence digest.
type PresenceSummary struct {
	Total        int                          `json:"total"`
	Present      int                          `json:"present"`
	OnBreak      int                          `json:"on_break"`
	Out          int                          `json:"out"`
	NotCheckedIn int                          `json:"not_checked_in"`
	Digest       []history.TechnicianPresence `json:"digest"`
}

// Highlights carries the figures derived from the other sections: the
// technician with the most completed tasks today, the mean worked time of the
// technicians who checked in, and the overall share of completed tasks.
type Highlights struct {
	BestTechnicianID   string `json:"best_technician_id,omitempty"`
	BestTechnicianName string `json:"best_technician_name,omitempty"`
	BestCompleted      int    `json:"best_completed"`
	AverageWorkMinutes int    `json:"average_work_minutes"`
	EfficiencyPercent  int    `json:"efficiency_percent"`
}

// Stats is the aggregated dashboard payload. Degraded is set when one of the
// underlying fetches failed and its section holds zero values.
type Stats struct {
	WorkOrders  StatusCounts     `json:"work_orders"`
	Tasks       StatusCounts     `json:"tasks"`
	Technicians PresenceSummary  `json:"technicians"`
	Highlights  Highlights       `json:"highlights"`
	Activity    []*history.Entry `json:"activity"`
	Degraded    bool             `json:"degraded"`
	GeneratedAt time.Time        `json:"generated_at"`
}

type Service struct {
	repo     Repository
	presence PresenceAPI
	logger   *slog.Logger
}

func NewService(repo Repository, presence PresenceAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		presence: presence,
		logger:   logger,
	}
}

// Stats fetches every dashboard section in parallel. A failing section is
// logged and rendered as its zero value rather than failing the whole screen.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	results := fanout.All(ctx, []func(ctx context.Context) (any, error){
		func(ctx context.Context) (any, error) { return s.repo.WorkOrderCountsByStatus() },
		func(ctx context.Context) (any, error) { return s.repo.TaskCountsByStatus() },
		func(ctx context.Context) (any, error) { return s.repo.TechnicianCount() },
		func(ctx context.Context) (any, error) { return s.presence.Digest() },
		func(ctx context.Context) (any, error) { return s.presence.TodayAll() },
	})

	for _, r := range results {
		if r.Err != nil {
			s.logger.Error("dashboard section failed", "error", r.Err)
		}
	}

	stats := &Stats{
		Degraded:    fanout.Failed(results) > 0,
		GeneratedAt: time.Now(),
	}

	if counts, ok := results[0].Value.(map[string]int); ok {
		stats.WorkOrders = sumCounts(counts)
	}
	if counts, ok := results[1].Value.(map[string]int); ok {
		stats.Tasks = sumCounts(counts)
	}
	if count, ok := results[2].Value.(int); ok {
		stats.Technicians.Total = count
	}
	if digest, ok := results[3].Value.([]history.TechnicianPresence); ok {
		tallyPresence(&stats.Technicians, digest)
	}
	if entries, ok := results[4].Value.([]*history.Entry); ok {
		stats.Activity = entries
	}
	stats.Highlights = deriveHighlights(stats.Technicians.Digest, stats.Tasks)

	return stats, nil
}

// deriveHighlights computes the derived figures from the already-fetched
// digest and task counts. The average only spans technicians who checked in,
// so a day off does not drag it down.
func deriveHighlights(digest []history.TechnicianPresence, tasks StatusCounts) Highlights {
	var hl Highlights

	var workedSum, workedCount int
	for _, tp := range digest {
		if tp.TasksCompleted > hl.BestCompleted {
			hl.BestCompleted = tp.TasksCompleted
			hl.BestTechnicianID = tp.TechnicianID
			hl.BestTechnicianName = tp.TechnicianName
		}
		if tp.FirstEntry != nil {
			workedSum += tp.WorkedMinutes
			workedCount++
		}
	}
	if workedCount > 0 {
		hl.AverageWorkMinutes = workedSum / workedCount
	}
	if tasks.Total > 0 {
		hl.EfficiencyPercent = tasks.ByStatus[task.StatusCompleted] * 100 / tasks.Total
	}

	return hl
}

func sumCounts(byStatus map[string]int) StatusCounts {
	counts := StatusCounts{ByStatus: byStatus}
	for _, n := range byStatus {
		counts.Total += n
	}
	return counts
}

func tallyPresence(summary *PresenceSummary, digest []history.TechnicianPresence) {
	summary.Digest = digest
	for _, tp := range digest {
		switch tp.Presence {
		case history.PresencePresent:
			summary.Present++
		case history.PresenceOnBreak:
			summary.OnBreak++
		case history.PresenceOut:
			summary.Out++
		default:
			summary.NotCheckedIn++
		}
	}
}
