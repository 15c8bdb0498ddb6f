package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/atelierhub/workshop-management/internal/history"
)

func TestDashboard(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Dashboard Module Suite")
}

type mockRepository struct {
	workOrderCounts map[string]int
	taskCounts      map[string]int
	technicianCount int
	countsError     error
}

func (m *mockRepository) WorkOrderCountsByStatus() (map[string]int, error) {
	if m.countsError != nil {
		return nil, m.countsError
	}
	return m.workOrderCounts, nil
}

func (m *mockRepository) TaskCountsByStatus() (map[string]int, error) {
	return m.taskCounts, nil
}

func (m *mockRepository) TechnicianCount() (int, error) {
	return m.technicianCount, nil
}

type mockPresence struct {
	digest  []history.TechnicianPresence
	entries []*history.Entry
}

func (m *mockPresence) Digest() ([]history.TechnicianPresence, error) {
	return m.digest, nil
}

func (m *mockPresence) TodayAll() ([]*history.Entry, error) {
	return m.entries, nil
}

var _ = ginkgo.Describe("DashboardService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
		presence *mockPresence
	)

	ginkgo.BeforeEach(func() {
		mockRepo = &mockRepository{
			workOrderCounts: map[string]int{
				"NOT_STARTED": 3,
				"IN_PROGRESS": 2,
				"COMPLETED":   5,
			},
			taskCounts: map[string]int{
				"IN_PROGRESS": 4,
				"PAUSED":      1,
			},
			technicianCount: 3,
		}
		presence = &mockPresence{
			digest: []history.TechnicianPresence{
				{TechnicianID: "t-1", Presence: history.PresencePresent},
				{TechnicianID: "t-2", Presence: history.PresenceOnBreak},
				{TechnicianID: "t-3", Presence: history.PresenceNotCheckedIn},
			},
			entries: []*history.Entry{
				{TechnicianID: "t-1", Type: history.TypeEntry, OccurredAt: time.Now()},
			},
		}
		service = NewService(mockRepo, presence, slog.Default())
	})

	ginkgo.It("should aggregate every section", func() {
		stats, err := service.Stats(context.Background())

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(stats.Degraded).To(gomega.BeFalse())
		gomega.Expect(stats.WorkOrders.Total).To(gomega.Equal(10))
		gomega.Expect(stats.WorkOrders.ByStatus["COMPLETED"]).To(gomega.Equal(5))
		gomega.Expect(stats.Tasks.Total).To(gomega.Equal(5))
		gomega.Expect(stats.Technicians.Total).To(gomega.Equal(3))
		gomega.Expect(stats.Technicians.Present).To(gomega.Equal(1))
		gomega.Expect(stats.Technicians.OnBreak).To(gomega.Equal(1))
		gomega.Expect(stats.Technicians.NotCheckedIn).To(gomega.Equal(1))
		gomega.Expect(stats.Activity).To(gomega.HaveLen(1))
	})

	ginkgo.It("should derive the highlights from digest and task counts", func() {
		entry := time.Date(2025, time.March, 14, 8, 0, 0, 0, time.UTC)
		mockRepo.taskCounts = map[string]int{
			"IN_PROGRESS": 2,
			"COMPLETED":   6,
		}
		presence.digest = []history.TechnicianPresence{
			{TechnicianID: "t-1", TechnicianName: "Alice Moreau", Presence: history.PresencePresent,
				FirstEntry: &entry, TasksCompleted: 4, WorkedMinutes: 300},
			{TechnicianID: "t-2", TechnicianName: "Bob Lefevre", Presence: history.PresenceOut,
				FirstEntry: &entry, TasksCompleted: 2, WorkedMinutes: 100},
			{TechnicianID: "t-3", Presence: history.PresenceNotCheckedIn},
		}

		stats, err := service.Stats(context.Background())

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(stats.Highlights.BestTechnicianID).To(gomega.Equal("t-1"))
		gomega.Expect(stats.Highlights.BestTechnicianName).To(gomega.Equal("Alice Moreau"))
		gomega.Expect(stats.Highlights.BestCompleted).To(gomega.Equal(4))
		gomega.Expect(stats.Highlights.AverageWorkMinutes).To(gomega.Equal(200))
		gomega.Expect(stats.Highlights.EfficiencyPercent).To(gomega.Equal(75))
	})

	ginkgo.It("should zero the highlights when nothing happened yet", func() {
		mockRepo.taskCounts = map[string]int{}
		presence.digest = nil

		stats, err := service.Stats(context.Background())

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(stats.Highlights.BestTechnicianID).To(gomega.BeEmpty())
		gomega.Expect(stats.Highlights.AverageWorkMinutes).To(gomega.BeZero())
		gomega.Expect(stats.Highlights.EfficiencyPercent).To(gomega.BeZero())
	})

	ginkgo.It("should keep the other sections when one fetch fails", func() {
		mockRepo.countsError = errors.New("connection reset")

		stats, err := service.Stats(context.Background())

		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		gomega.Expect(stats.Degraded).To(gomega.BeTrue())
		gomega.Expect(stats.WorkOrders.Total).To(gomega.Equal(0))
		gomega.Expect(stats.Tasks.Total).To(gomega.Equal(5))
		gomega.Expect(stats.Technicians.Total).To(gomega.Equal(3))
		gomega.Expect(stats.Activity).To(gomega.HaveLen(1))
	})
})
