package task

import (
	"context"
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
	List(params listing.Params) (listing.Page[*Task], error)
	ListByWorkOrder(workOrderID string, params listing.Params) (listing.Page[*Task], error)
	GetByID(id string) (*Task, error)
	Create(ctx context.Context, createdBy, workOrderID string, dto CreateTaskDTO) (*Task, error)
	Update(id string, dto UpdateTaskDTO) (*Task, error)
	Delete(id string) error
	Start(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error)
	Pause(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error)
	Resume(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error)
	End(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error)
	Restart(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error)
	Join(ctx context.Context, actor *internal.SessionUser, id string) (*Task, error)
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

func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	params := listing.ParseParams(r.URL.Query())

	page, err := h.Service.List(params)
	if err != nil {
		h.Logger.Error("ListTasks: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) ListWorkOrderTasks(w http.ResponseWriter, r *http.Request) {
	workOrderID := chi.URLParam(r, "id")
	params := listing.ParseParams(r.URL.Query())

	page, err := h.Service.ListByWorkOrder(workOrderID, params)
	if err != nil {
		h.Logger.Error("ListWorkOrderTasks: service error", "error", err, "work_order_id", workOrderID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	t, err := h.Service.GetByID(id)
	if err != nil {
		h.Logger.Error("GetTask: service error", "error", err, "task_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	workOrderID := chi.URLParam(r, "id")

	var dto CreateTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Create(r.Context(), user.ID, workOrderID, dto)
	if err != nil {
		h.Logger.Error("CreateTask: service error", "error", err, "work_order_id", workOrderID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateTask: task created", "task_id", t.ID, "work_order_id", workOrderID)
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto UpdateTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Update(id, dto)
	if err != nil {
		h.Logger.Error("UpdateTask: service error", "error", err, "task_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Service.Delete(id); err != nil {
		h.Logger.Error("DeleteTask: service error", "error", err, "task_id", id)
		h.HandleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) StartTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "start", h.Service.Start)
}

func (h *Handler) PauseTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "pause", h.Service.Pause)
}

func (h *Handler) ResumeTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "resume", h.Service.Resume)
}

func (h *Handler) EndTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "end", h.Service.End)
}

func (h *Handler) RestartTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "restart", h.Service.Restart)
}

func (h *Handler) JoinTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "join", h.Service.Join)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context, *internal.SessionUser, string) (*Task, error)) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	t, err := fn(r.Context(), user, id)
	if err != nil {
		h.Logger.Error("task transition failed", "transition", name, "error", err, "task_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("task transition applied", "transition", name, "task_id", id, "status", t.Status)
	h.WriteJSON(w, http.StatusOK, t)
}
