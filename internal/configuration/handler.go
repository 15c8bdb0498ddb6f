package configuration

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/atelierhub/workshop-management/internal/transport"
	"github.com/atelierhub/workshop-management/pkg/logger"
)

type ServiceAPI interface {
	Get() (*Configuration, error)
	Update(dto UpdateConfigurationDTO) (*Configuration, error)
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

func (h *Handler) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Service.Get()
	if err != nil {
		h.Logger.Error("GetConfiguration: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, cfg)
}

func (h *Handler) UpdateConfiguration(w http.ResponseWriter, r *http.Request) {
	var dto UpdateConfigurationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := h.Service.Update(dto)
	if err != nil {
		h.Logger.Error("UpdateConfiguration: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, cfg)
}
