package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"justicerollon/internal/platform/middleware"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/httputil"
)

// Handler exposes the audit trail to administrators.
type Handler struct {
	logger       *slog.Logger
	store        Store
	jwtValidator middleware.JWTValidator
}

func NewHandler(store Store, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		store:        store,
		jwtValidator: jwtValidator,
	}
}

// Register registers the audit routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/admin/audit", h.handleListRecent)
		r.Get("/admin/audit/actors/{actorID}", h.handleListByActor)
	})
}

type eventResponse struct {
	Category  string `json:"category"`
	ActorID   string `json:"actor_id,omitempty"`
	Subject   string `json:"subject"`
	Action    string `json:"action"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	Device    string `json:"device,omitempty"`
	Timestamp string `json:"timestamp"`
}

func toEventResponses(events []Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp := eventResponse{
			Category:  string(e.Category),
			Subject:   e.Subject,
			Action:    e.Action,
			Reason:    e.Reason,
			RequestID: e.RequestID,
			Device:    e.Device,
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
		}
		if !e.ActorID.IsNil() {
			resp.ActorID = e.ActorID.String()
		}
		out = append(out, resp)
	}
	return out
}

func (h *Handler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if middleware.GetRole(ctx) != domain.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "audit trail is admin-only"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	events, err := h.store.ListRecent(ctx, limit)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventResponses(events))
}

func (h *Handler) handleListByActor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if middleware.GetRole(ctx) != domain.RoleAdmin {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "audit trail is admin-only"))
		return
	}
	actorID, err := domain.ParseUserID(chi.URLParam(r, "actorID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	events, err := h.store.ListByActor(ctx, actorID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEventResponses(events))
}
