package workorder

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	internal "github.com/atelierhub/workshop-management/internal"
	"github.com/atelierhub/workshop-management/internal/core/listing"
	"github.com/atelierhub/workshop-management/internal/transport"
	"github.com/atelierhub/workshop-management/pkg/logger"
)

type ServiceAPI interface {
	List(params listing.Params) (listing.Page[*WorkOrder], error)
	GetByID(id string) (*WorkOrder, error)
	Create(createdBy string, dto CreateWorkOrderDTO) (*WorkOrder, error)
	Update(id string, dto UpdateWorkOrderDTO) (*WorkOrder, error)
	Delete(id string) error
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

func (h *Handler) ListWorkOrders(w http.ResponseWriter, r *http.Request) {
	params := listing.ParseParams(r.URL.Query())

	page, err := h.Service.List(params)
	if err != nil {
		h.Logger.Error("ListWorkOrders: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetWorkOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	wo, err := h.Service.GetByID(id)
	if err != nil {
		h.Logger.Error("GetWorkOrder: service error", "error", err, "work_order_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, wo)
}

func (h *Handler) CreateWorkOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateWorkOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wo, err := h.Service.Create(user.ID, dto)
	if err != nil {
		h.Logger.Error("CreateWorkOrder: service error", "error", err, "number", dto.Number)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateWorkOrder: work order created", "work_order_id", wo.ID, "number", wo.Number)
	h.WriteJSON(w, http.StatusCreated, wo)
}

func (h *Handler) UpdateWorkOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto UpdateWorkOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wo, err := h.Service.Update(id, dto)
	if err != nil {
		h.Logger.Error("UpdateWorkOrder: service error", "error", err, "work_order_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, wo)
}

func (h *Handler) DeleteWorkOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Delete(id); err != nil {
		h.Logger.Error("DeleteWorkOrder: service error", "error", err, "work_order_id", id)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
