package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"justicerollon/internal/deposition/models"
	"justicerollon/internal/platform/middleware"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/httputil"
)

// Service defines the interface for deposition operations.
type Service interface {
	Add(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID, title, body string) (*models.Deposition, error)
	List(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) ([]*models.Deposition, error)
}

// Handler handles deposition endpoints.
type Handler struct {
	logger       *slog.Logger
	depositions  Service
	jwtValidator middleware.JWTValidator
}

func New(depositions Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		depositions:  depositions,
		jwtValidator: jwtValidator,
	}
}

// Register registers the deposition routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/petitions/{petitionID}/depositions", h.handleAdd)
		r.Get("/petitions/{petitionID}/depositions", h.handleList)
	})
}

type depositionResponse struct {
	ID         string `json:"id"`
	PetitionID string `json:"petition_id"`
	AuthorID   string `json:"author_id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Sequence   int    `json:"sequence"`
	CreatedAt  string `json:"created_at"`
}

func toDepositionResponse(d *models.Deposition) depositionResponse {
	return depositionResponse{
		ID:         d.ID.String(),
		PetitionID: d.PetitionID.String(),
		AuthorID:   d.AuthorID.String(),
		Title:      d.Title,
		Body:       d.Body,
		Sequence:   d.Sequence,
		CreatedAt:  d.CreatedAt.Format(time.RFC3339Nano),
	}
}

type addDepositionRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, role, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	petitionID, err := domain.ParsePetitionID(chi.URLParam(r, "petitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req addDepositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	d, err := h.depositions.Add(ctx, actorID, role, petitionID, req.Title, req.Body)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDepositionResponse(d))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, role, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	petitionID, err := domain.ParsePetitionID(chi.URLParam(r, "petitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	ds, err := h.depositions.List(ctx, actorID, role, petitionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]depositionResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDepositionResponse(d))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) actor(w http.ResponseWriter, ctx context.Context) (domain.UserID, domain.Role, bool) {
	actorID, err := domain.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.UserID{}, "", false
	}
	return actorID, middleware.GetRole(ctx), true
}
