package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
	"github.com/atelierhub/workshop-management/internal/history"
	"github.com/atelierhub/workshop-management/internal/user"
	"github.com/atelierhub/workshop-management/internal/workorder"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	DatasetUsers      = "users"
	DatasetWorkOrders = "work-orders"
	DatasetPresence   = "presence"
)

// File is a rendered export ready to be streamed to the client.
type File struct {
	Name        string
	ContentType string
	Content     []byte
}

// UserLister and WorkOrderLister are the slices of the feature services the
// exporter pulls rows from. Exports reuse the list filters, so what the
// screen shows is what the file contains.
type UserLister interface {
	List(params listing.Params) (listing.Page[*user.User], error)
}

type WorkOrderLister interface {
	List(params listing.Params) (listing.Page[*workorder.WorkOrder], error)
}

type PresenceAPI interface {
	Digest() ([]history.TechnicianPresence, error)
}

type Service struct {
	users      UserLister
	workOrders WorkOrderLister
	presence   PresenceAPI
	logger     *slog.Logger
}

func NewService(users UserLister, workOrders WorkOrderLister, presence PresenceAPI, logger *slog.Logger) *Service {
	return &Service{
		users:      users,
		workOrders: workOrders,
		presence:   presence,
		logger:     logger,
	}
}

// Export renders the named dataset in the requested format, applying the
// same search and status filters the list endpoints take.
func (s *Service) Export(dataset, format string, params listing.Params) (*File, error) {
	if format != FormatCSV && format != FormatXLSX {
		return nil, internal.NewValidationError("unsupported export format: "+format, internal.ErrCodeValidationFailed)
	}

	headers, rows, err := s.collect(dataset, params)
	if err != nil {
		return nil, err
	}

	var content []byte
	switch format {
	case FormatCSV:
		content, err = renderCSV(headers, rows)
	case FormatXLSX:
		content, err = renderXLSX(dataset, headers, rows)
	}
	if err != nil {
		s.logger.Error("failed to render export", "error", err, "dataset", dataset, "format", format)
		return nil, internal.NewInternalError("failed to render export", err)
	}

	s.logger.Info("export generated", "dataset", dataset, "format", format, "rows", len(rows))
	return &File{
		Name:        fmt.Sprintf("%s-%s.%s", dataset, time.Now().Format("2006-01-02"), format),
		ContentType: contentType(format),
		Content:     content,
	}, nil
}

func (s *Service) collect(dataset string, params listing.Params) ([]string, [][]string, error) {
	switch dataset {
	case DatasetUsers:
		return s.collectUsers(params)
	case DatasetWorkOrders:
		return s.collectWorkOrders(params)
	case DatasetPresence:
		return s.collectPresence()
	}
	return nil, nil, internal.NewNotFoundError("unknown export dataset: "+dataset, internal.ErrCodeValidationFailed)
}

func (s *Service) collectUsers(params listing.Params) ([]string, [][]string, error) {
	headers := []string{"Username", "First Name", "Last Name", "Badge", "Phone", "Role", "Status"}

	var rows [][]string
	err := forEachPage(params, s.users.List, func(u *user.User) {
		rows = append(rows, []string{
			u.Username, u.FirstName, u.LastName, u.BadgeNumber, u.PhoneNumber, u.RoleName, u.Status,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return headers, rows, nil
}

func (s *Service) collectWorkOrders(params listing.Params) ([]string, [][]string, error) {
	headers := []string{"Number", "Vehicle", "Customer", "Status", "Tasks", "Created At"}

	var rows [][]string
	err := forEachPage(params, s.workOrders.List, func(wo *workorder.WorkOrder) {
		rows = append(rows, []string{
			wo.Number, wo.Vehicle, wo.CustomerName, wo.Status,
			strconv.Itoa(wo.TaskCount), wo.CreatedAt.Format("2006-01-02 15:04"),
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return headers, rows, nil
}

func (s *Service) collectPresence() ([]string, [][]string, error) {
	headers := []string{"Technician", "Presence"}

	digest, err := s.presence.Digest()
	if err != nil {
		return nil, nil, err
	}

	rows := make([][]string, 0, len(digest))
	for _, tp := range digest {
		rows = append(rows, []string{tp.TechnicianName, tp.Presence})
	}
	return headers, rows, nil
}

// forEachPage walks every page of a filtered listing so the export is not
// capped at one screen of rows.
func forEachPage[T any](params listing.Params, list func(listing.Params) (listing.Page[T], error), visit func(T)) error {
	params.Page = 1
	params.Items = listing.MaxItems

	for {
		page, err := list(params)
		if err != nil {
			return err
		}
		for _, row := range page.Result {
			visit(row)
		}
		if page.NextPage == nil {
			return nil
		}
		params.Page = *page.NextPage
	}
}

func renderCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderXLSX(sheet string, headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	writeRow := func(rowIdx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := writeRow(1, headers); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func contentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
