package workorder

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
)

func TestWorkOrder(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "WorkOrder Module Suite")
}

type mockRepository struct {
	orders        []*WorkOrder
	taskStatuses  map[string][]string
	returnError   bool
	errorToReturn error
}

func newMockRepository() *mockRepository {
	return &mockRepository{taskStatuses: make(map[string][]string)}
}

func (m *mockRepository) failing() error {
	if m.returnError {
		return m.errorToReturn
	}
	return nil
}

func (m *mockRepository) List(params listing.Params) ([]*WorkOrder, int, error) {
	if err := m.failing(); err != nil {
		return nil, 0, err
	}

	var filtered []*WorkOrder
	for _, wo := range m.orders {
		if params.Search != "" &&
			!strings.Contains(wo.Number, params.Search) &&
			!strings.Contains(wo.CustomerName, params.Search) {
			continue
		}
		if !params.MatchesStatus(wo.Status) {
			continue
		}
		if !params.MatchesDate(wo.CreatedAt) {
			continue
		}
		filtered = append(filtered, wo)
	}

	total := len(filtered)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.Items
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func (m *mockRepository) GetByID(id string) (*WorkOrder, error) {
	if err := m.failing(); err != nil {
		return nil, err
	}
	for _, wo := range m.orders {
		if wo.ID == id {
			return wo, nil
		}
	}
	return nil, errors.New("work order not found")
}

func (m *mockRepository) Create(wo *WorkOrder) error {
	if err := m.failing(); err != nil {
		return err
	}
	m.orders = append(m.orders, wo)
	return nil
}

func (m *mockRepository) Update(wo *WorkOrder) error {
	return m.failing()
}

func (m *mockRepository) Delete(id string) error {
	if err := m.failing(); err != nil {
		return err
	}
	for i, wo := range m.orders {
		if wo.ID == id {
			m.orders = append(m.orders[:i], m.orders[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *mockRepository) TaskStatuses(workOrderID string) ([]string, error) {
	if err := m.failing(); err != nil {
		return nil, err
	}
	return m.taskStatuses[workOrderID], nil
}

func (m *mockRepository) UpdateStatus(id string, status string) error {
	if err := m.failing(); err != nil {
		return err
	}
	for _, wo := range m.orders {
		if wo.ID == id {
			wo.Status = status
		}
	}
	return nil
}

func (m *mockRepository) setError(err error) {
	m.returnError = true
	m.errorToReturn = err
}

var _ = ginkgo.Describe("DeriveStatus", func() {
	ginkgo.It("should be not started without tasks", func() {
		gomega.Expect(DeriveStatus(nil)).To(gomega.Equal(StatusNotStarted))
	})

	ginkgo.It("should be not started when no task has begun", func() {
		gomega.Expect(DeriveStatus([]string{StatusNotStarted, StatusNotStarted})).
			To(gomega.Equal(StatusNotStarted))
	})

	ginkgo.It("should be completed only when every task is completed", func() {
		gomega.Expect(DeriveStatus([]string{StatusCompleted, StatusCompleted})).
			To(gomega.Equal(StatusCompleted))
	})

	ginkgo.It("should be in progress for any mixed state", func() {
		gomega.Expect(DeriveStatus([]string{StatusCompleted, StatusNotStarted})).
			To(gomega.Equal(StatusInProgress))
		gomega.Expect(DeriveStatus([]string{"IN_PROGRESS"})).
			To(gomega.Equal(StatusInProgress))
		gomega.Expect(DeriveStatus([]string{"PAUSED", StatusCompleted})).
			To(gomega.Equal(StatusInProgress))
	})
})

var _ = ginkgo.Describe("WorkOrderService", func() {
	var (
		service  *Service
		mockRepo *mockRepository
	)

	createOrder := func(number string) *WorkOrder {
		wo, err := service.Create("u-admin", CreateWorkOrderDTO{
			Number:       number,
			Vehicle:      "Peugeot 308",
			CustomerName: "Garage Central",
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return wo
	}

	ginkgo.BeforeEach(func() {
		mockRepo = newMockRepository()
		service = NewService(mockRepo, slog.Default())
	})

	ginkgo.Describe("Create", func() {
		ginkgo.It("should create a work order in the not started state", func() {
			wo := createOrder("OR-2026-001")

			gomega.Expect(wo.ID).ToNot(gomega.BeEmpty())
			gomega.Expect(wo.Status).To(gomega.Equal(StatusNotStarted))
			gomega.Expect(wo.CreatedBy).To(gomega.Equal("u-admin"))
		})

		ginkgo.It("should reject a missing number", func() {
			_, err := service.Create("u-admin", CreateWorkOrderDTO{
				Vehicle:      "Peugeot 308",
				CustomerName: "Garage Central",
			})

			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.BeforeEach(func() {
			for i := 0; i < 12; i++ {
				createOrder(fmt.Sprintf("OR-%03d", i))
			}
			mockRepo.orders[0].Status = StatusCompleted
			mockRepo.orders[1].Status = StatusInProgress
		})

		ginkgo.It("should paginate", func() {
			page, err := service.List(listing.ParseParams(url.Values{}))

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(page.Result).To(gomega.HaveLen(10))
			gomega.Expect(page.Total).To(gomega.Equal(12))
			gomega.Expect(page.LastPage).To(gomega.Equal(2))
		})

		ginkgo.It("should filter by a comma separated status list", func() {
			page, err := service.List(listing.ParseParams(url.Values{
				"status": {"COMPLETED,IN_PROGRESS"},
			}))

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(page.Total).To(gomega.Equal(2))
		})

		ginkgo.It("should filter by search", func() {
			page, err := service.List(listing.ParseParams(url.Values{"search": {"OR-005"}}))

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(page.Total).To(gomega.Equal(1))
		})
	})

	ginkgo.Describe("RecomputeStatus", func() {
		var wo *WorkOrder

		ginkgo.BeforeEach(func() {
			wo = createOrder("OR-100")
		})

		ginkgo.It("should move to in progress when a task starts", func() {
			mockRepo.taskStatuses[wo.ID] = []string{"IN_PROGRESS", StatusNotStarted}

			status, err := service.RecomputeStatus(wo.ID)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(status).To(gomega.Equal(StatusInProgress))
			gomega.Expect(wo.Status).To(gomega.Equal(StatusInProgress))
		})

		ginkgo.It("should complete when the last task completes", func() {
			mockRepo.taskStatuses[wo.ID] = []string{StatusCompleted}

			status, err := service.RecomputeStatus(wo.ID)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(status).To(gomega.Equal(StatusCompleted))
		})

		ginkgo.It("should fall back to not started when tasks are removed", func() {
			status, err := service.RecomputeStatus(wo.ID)

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(status).To(gomega.Equal(StatusNotStarted))
		})
	})

	ginkgo.Describe("GetByID", func() {
		ginkgo.It("should return not found for an unknown id", func() {
			_, err := service.GetByID("nope")

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeWorkOrderNotFound))
		})
	})
})
