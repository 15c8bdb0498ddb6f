package history

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
	List(params listing.Params) (listing.Page[*Entry], error)
	Badge(technicianID string) (*Entry, error)
	BadgeByNumber(badgeNumber string) (*Entry, error)
	Break(technicianID string) (*Entry, error)
	Today(technicianID string) ([]*Entry, error)
	Presence(technicianID string) (string, error)
	Digest() ([]TechnicianPresence, error)
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

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	params := listing.ParseParams(r.URL.Query())

	page, err := h.Service.List(params)
	if err != nil {
		h.Logger.Error("ListHistory: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

type badgeRequest struct {
	BadgeID string `json:"badge_id"`
}

// Badge toggles attendance for the day. With a badge_id in the body the
// technician is resolved by badge number, the kiosk case. Without a body the
// toggle applies to the session user.
func (h *Handler) Badge(w http.ResponseWriter, r *http.Request) {
	var req badgeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	var entry *Entry
	var err error
	if req.BadgeID != "" {
		entry, err = h.Service.BadgeByNumber(req.BadgeID)
	} else {
		user, ok := internal.UserFromContext(r.Context())
		if !ok || user == nil {
			h.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		entry, err = h.Service.Badge(user.ID)
	}
	if err != nil {
		h.Logger.Error("Badge: service error", "error", err, "badge_id", req.BadgeID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, entry)
}

// Break toggles the session user's break.
func (h *Handler) Break(w http.ResponseWriter, r *http.Request) {
	user, ok := internal.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	entry, err := h.Service.Break(user.ID)
	if err != nil {
		h.Logger.Error("Break: service error", "error", err, "technician_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) TodayHistory(w http.ResponseWriter, r *http.Request) {
	technicianID := chi.URLParam(r, "technicianId")

	entries, err := h.Service.Today(technicianID)
	if err != nil {
		h.Logger.Error("TodayHistory: service error", "error", err, "technician_id", technicianID)
		h.HandleServiceError(w, err)
		return
	}

	presence, err := h.Service.Presence(technicianID)
	if err != nil {
		h.Logger.Error("TodayHistory: service error", "error", err, "technician_id", technicianID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"technician_id": technicianID,
		"presence":      presence,
		"entries":       entries,
	})
}

// PresenceDigest returns the presence of every technician.
func (h *Handler) PresenceDigest(w http.ResponseWriter, r *http.Request) {
	digest, err := h.Service.Digest()
	if err != nil {
		h.Logger.Error("PresenceDigest: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, digest)
}
