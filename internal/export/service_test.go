package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
	"github.com/atelierhub/workshop-management/internal/history"
	"github.com/atelierhub/workshop-management/internal/user"
	"github.com/atelierhub/workshop-management/internal/workorder"
)

func TestExport(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Export Module Suite")
}

type mockUsers struct {
	users []*user.User
}

func (m *mockUsers) List(params listing.Params) (listing.Page[*user.User], error) {
	return listing.Apply(m.users, params, listing.Matcher[*user.User]{
		Search: func(u *user.User, term string) bool {
			return strings.Contains(strings.ToLower(u.Username), term)
		},
		Status: func(u *user.User) string { return u.Status },
	}), nil
}

type mockWorkOrders struct {
	orders []*workorder.WorkOrder
}

func (m *mockWorkOrders) List(params listing.Params) (listing.Page[*workorder.WorkOrder], error) {
	return listing.Apply(m.orders, params, listing.Matcher[*workorder.WorkOrder]{
		Status: func(wo *workorder.WorkOrder) string { return wo.Status },
	}), nil
}

type mockPresence struct {
	digest []history.TechnicianPresence
}

func (m *mockPresence) Digest() ([]history.TechnicianPresence, error) {
	return m.digest, nil
}

var _ = ginkgo.Describe("ExportService", func() {
	var (
		service *Service
		users   *mockUsers
	)

	ginkgo.BeforeEach(func() {
		users = &mockUsers{}
		for i := 0; i < 120; i++ {
			users.users = append(users.users, &user.User{
				Username:    fmt.Sprintf("tech%03d", i),
				FirstName:   "Tech",
				LastName:    fmt.Sprintf("Nr%03d", i),
				BadgeNumber: fmt.Sprintf("B-%03d", i),
				RoleName:    "Technician",
				Status:      user.StatusActive,
			})
		}
		workOrders := &mockWorkOrders{
			orders: []*workorder.WorkOrder{
				{Number: "OR-001", Vehicle: "Peugeot 308", CustomerName: "Garage Central", Status: workorder.StatusInProgress},
			},
		}
		presence := &mockPresence{
			digest: []history.TechnicianPresence{
				{TechnicianID: "t-1", TechnicianName: "Alice Moreau", Presence: history.PresencePresent},
				{TechnicianID: "t-2", TechnicianName: "Bob Lefevre", Presence: history.PresenceOut},
			},
		}
		service = NewService(users, workOrders, presence, slog.Default())
	})

	ginkgo.Describe("CSV", func() {
		ginkgo.It("should export every page of the dataset", func() {
			file, err := service.Export(DatasetUsers, FormatCSV, listing.Params{})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(file.Name).To(gomega.HavePrefix("users-"))
			gomega.Expect(file.ContentType).To(gomega.Equal("text/csv"))

			records, err := csv.NewReader(bytes.NewReader(file.Content)).ReadAll()
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(records).To(gomega.HaveLen(121))
			gomega.Expect(records[0][0]).To(gomega.Equal("Username"))
			gomega.Expect(records[1][0]).To(gomega.Equal("tech000"))
		})

		ginkgo.It("should honor the list filters", func() {
			file, err := service.Export(DatasetUsers, FormatCSV, listing.Params{Search: "tech007"})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			records, err := csv.NewReader(bytes.NewReader(file.Content)).ReadAll()
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(records).To(gomega.HaveLen(2))
		})

		ginkgo.It("should export the presence digest", func() {
			file, err := service.Export(DatasetPresence, FormatCSV, listing.Params{})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			records, err := csv.NewReader(bytes.NewReader(file.Content)).ReadAll()
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(records).To(gomega.HaveLen(3))
			gomega.Expect(records[1]).To(gomega.Equal([]string{"Alice Moreau", "PRESENT"}))
		})
	})

	ginkgo.Describe("XLSX", func() {
		ginkgo.It("should produce a readable workbook", func() {
			file, err := service.Export(DatasetWorkOrders, FormatXLSX, listing.Params{})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(file.Name).To(gomega.HaveSuffix(".xlsx"))

			wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			defer wb.Close()

			rows, err := wb.GetRows(DatasetWorkOrders)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(rows).To(gomega.HaveLen(2))
			gomega.Expect(rows[0][0]).To(gomega.Equal("Number"))
			gomega.Expect(rows[1][0]).To(gomega.Equal("OR-001"))
		})
	})

	ginkgo.It("should reject an unknown dataset", func() {
		_, err := service.Export("invoices", FormatCSV, listing.Params{})

		appErr, ok := internal.IsAppError(err)
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(appErr.StatusCode).To(gomega.Equal(404))
	})

	ginkgo.It("should reject an unknown format", func() {
		_, err := service.Export(DatasetUsers, "pdf", listing.Params{})

		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})
