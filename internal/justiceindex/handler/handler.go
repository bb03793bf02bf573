package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"justicerollon/internal/justiceindex/models"
	"justicerollon/pkg/domain"
	"justicerollon/pkg/platform/httputil"
)

// Service defines the read side of the justice index.
type Service interface {
	Search(ctx context.Context, query string, limit int) ([]*models.Entry, error)
	Get(ctx context.Context, entryID domain.EntryID) (*models.Entry, error)
	Latest(ctx context.Context, petitionID domain.PetitionID) (*models.Entry, error)
}

// Handler serves the public index. No authentication: published entries are
// the platform's public record.
type Handler struct {
	logger *slog.Logger
	index  Service
}

func New(index Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, index: index}
}

// Register registers the index routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/index", func(r chi.Router) {
		r.Get("/", h.handleSearch)
		r.Get("/{entryID}", h.handleGet)
		r.Get("/petitions/{petitionID}", h.handleLatest)
	})
}

type entryResponse struct {
	ID          string        `json:"id"`
	PetitionID  string        `json:"petition_id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category"`
	Evidence    []evidenceRef `json:"evidence"`
	PublishedAt string        `json:"published_at"`
}

type evidenceRef struct {
	EvidenceID string `json:"evidence_id"`
	Title      string `json:"title"`
	FileType   string `json:"file_type"`
	CaseTag    string `json:"case_tag,omitempty"`
}

func toEntryResponse(e *models.Entry) entryResponse {
	resp := entryResponse{
		ID:          e.ID.String(),
		PetitionID:  e.PetitionID.String(),
		Title:       e.Title,
		Description: e.Description,
		Category:    e.Category.String(),
		Evidence:    make([]evidenceRef, 0, len(e.Evidence)),
		PublishedAt: e.PublishedAt.Format(time.RFC3339Nano),
	}
	for _, ref := range e.Evidence {
		resp.Evidence = append(resp.Evidence, evidenceRef{
			EvidenceID: ref.EvidenceID.String(),
			Title:      ref.Title,
			FileType:   ref.FileType.String(),
			CaseTag:    ref.CaseTag,
		})
	}
	return resp
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.index.Search(ctx, r.URL.Query().Get("q"), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	entryID, err := domain.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.index.Get(r.Context(), entryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntryResponse(e))
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	petitionID, err := domain.ParsePetitionID(chi.URLParam(r, "petitionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	e, err := h.index.Latest(r.Context(), petitionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEntryResponse(e))
}
