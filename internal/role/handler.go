package role

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/atelierhub/workshop-management/internal/transport"
	"github.com/atelierhub/workshop-management/pkg/logger"
)

type ServiceAPI interface {
	List(includePermissions bool) ([]*Role, error)
	GetByID(id string) (*Role, error)
	Create(dto CreateRoleDTO) (*Role, error)
	Update(id string, dto UpdateRoleDTO) (*Role, error)
	Delete(id string) error
	SetPermissions(id string, dto SetPermissionsDTO) (*Role, error)
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

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	includePermissions := r.URL.Query().Get("includePermissions") == "true"

	roles, err := h.Service.List(includePermissions)
	if err != nil {
		h.Logger.Error("ListRoles: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, roles)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	role, err := h.Service.GetByID(id)
	if err != nil {
		h.Logger.Error("GetRole: service error", "error", err, "role_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.Service.Create(dto)
	if err != nil {
		h.Logger.Error("CreateRole: service error", "error", err, "name", dto.Name)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, role)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto UpdateRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.Service.Update(id, dto)
	if err != nil {
		h.Logger.Error("UpdateRole: service error", "error", err, "role_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, role)
}

func (h *Handler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Delete(id); err != nil {
		h.Logger.Error("DeleteRole: service error", "error", err, "role_id", id)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetRolePermissions replaces the permission set of the role.
func (h *Handler) SetRolePermissions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto SetPermissionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := h.Service.SetPermissions(id, dto)
	if err != nil {
		h.Logger.Error("SetRolePermissions: service error", "error", err, "role_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SetRolePermissions: permissions replaced", "role_id", id, "count", len(dto.PermissionIDs))
	h.WriteJSON(w, http.StatusOK, role)
}
