package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/atelierhub/workshop-management/internal/transport"
	"github.com/atelierhub/workshop-management/pkg/logger"
)

type ServiceAPI interface {
	Stats(ctx context.Context) (*Stats, error)
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

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.Logger.Error("GetStats: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}
