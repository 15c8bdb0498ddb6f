package permission

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/atelierhub/workshop-management/internal/transport"
	"github.com/atelierhub/workshop-management/pkg/logger"
)

type ServiceAPI interface {
	List() ([]*Permission, error)
	ListMain() ([]*Permission, error)
	GetByID(id string) (*Permission, error)
	Create(dto CreatePermissionDTO) (*Permission, error)
	Update(id string, dto UpdatePermissionDTO) (*Permission, error)
	Delete(id string) error
	SetSecondaries(id string, dto SetSecondariesDTO) (*Permission, error)
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

func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.List()
	if err != nil {
		h.Logger.Error("ListPermissions: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, perms)
}

func (h *Handler) ListMainPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.Service.ListMain()
	if err != nil {
		h.Logger.Error("ListMainPermissions: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, perms)
}

func (h *Handler) GetPermission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := h.Service.GetByID(id)
	if err != nil {
		h.Logger.Error("GetPermission: service error", "error", err, "permission_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var dto CreatePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Create(dto)
	if err != nil {
		h.Logger.Error("CreatePermission: service error", "error", err, "code", dto.Code)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto UpdatePermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Update(id, dto)
	if err != nil {
		h.Logger.Error("UpdatePermission: service error", "error", err, "permission_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) DeletePermission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Delete(id); err != nil {
		h.Logger.Error("DeletePermission: service error", "error", err, "permission_id", id)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SetPermissionSecondaries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto SetSecondariesDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.SetSecondaries(id, dto)
	if err != nil {
		h.Logger.Error("SetPermissionSecondaries: service error", "error", err, "permission_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}
