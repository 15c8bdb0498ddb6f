package export

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/atelierhub/workshop-management/internal/core/listing"
	"github.com/atelierhub/workshop-management/internal/transport"
	"github.com/atelierhub/workshop-management/pkg/logger"
)

type ServiceAPI interface {
	Export(dataset, format string, params listing.Params) (*File, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// ExportDataset streams the dataset as a file download. Format defaults
// to csv.
func (h *Handler) ExportDataset(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatCSV
	}
	params := listing.ParseParams(r.URL.Query())

	file, err := h.Service.Export(dataset, format, params)
	if err != nil {
		h.Logger.Error("ExportDataset: service error", "error", err, "dataset", dataset, "format", format)
		h.HandleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		h.Logger.Error("ExportDataset: write failed", "error", err, "dataset", dataset)
	}
}
