package user

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
	List(params listing.Params) (listing.Page[*User], error)
	Technicians(params listing.Params) (listing.Page[*User], error)
	GetByID(id string) (*User, error)
	Create(dto CreateUserDTO) (*User, error)
	Update(id string, dto UpdateUserDTO) (*User, error)
	Hide(id string) error
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

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := listing.ParseParams(r.URL.Query())

	page, err := h.Service.List(params)
	if err != nil {
		h.Logger.Error("ListUsers: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	params := listing.ParseParams(r.URL.Query())

	page, err := h.Service.Technicians(params)
	if err != nil {
		h.Logger.Error("ListTechnicians: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.Service.GetByID(id)
	if err != nil {
		h.Logger.Error("GetUser: service error", "error", err, "user_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	session, ok := internal.UserFromContext(r.Context())
	if !ok || session == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	u, err := h.Service.GetByID(session.ID)
	if err != nil {
		h.Logger.Error("GetCurrentUser: service error", "error", err, "user_id", session.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Create(dto)
	if err != nil {
		h.Logger.Error("CreateUser: service error", "error", err, "username", dto.Username)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateUser: user created", "user_id", u.ID, "username", u.Username)
	h.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto UpdateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Service.Update(id, dto)
	if err != nil {
		h.Logger.Error("UpdateUser: service error", "error", err, "user_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) HideUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Hide(id); err != nil {
		h.Logger.Error("HideUser: service error", "error", err, "user_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("HideUser: user hidden", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}
