package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"justicerollon/internal/petition/models"
	"justicerollon/internal/platform/middleware"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/httputil"
)

// Service defines the interface for petition workflow operations.
type Service interface {
	Create(ctx context.Context, actorID domain.UserID, role domain.Role, title, description string, category domain.Category, visibility domain.Visibility) (*models.Petition, error)
	Get(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error)
	ListOwn(ctx context.Context, actorID domain.UserID) ([]*models.Petition, error)
	ListReviewQueue(ctx context.Context, role domain.Role) ([]*models.Petition, error)
	AttachEvidence(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID, title string, fileType domain.FileType, contentRef string, sizeBytes int64, caseTag string) (*models.Evidence, error)
	ListEvidence(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) ([]*models.Evidence, error)
	Submit(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error)
	RecordEvidenceVerdict(ctx context.Context, actorID domain.UserID, role domain.Role, evidenceID domain.EvidenceID, verified bool, reason string) (*models.Evidence, error)
	ConfirmVerification(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error)
	RejectByLawyer(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID, reason string) (*models.Petition, error)
	Publish(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error)
	RejectByAdmin(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID, reason string) (*models.Petition, error)
	Resubmit(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error)
	Withdraw(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error)
	Support(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (int, error)
}

// Handler handles petition workflow endpoints. All routes require a valid
// access token; role checks live in the service.
type Handler struct {
	logger       *slog.Logger
	petitions    Service
	jwtValidator middleware.JWTValidator
}

func New(petitions Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		petitions:    petitions,
		jwtValidator: jwtValidator,
	}
}

// Register registers the petition routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Route("/petitions", func(r chi.Router) {
			r.Post("/", h.handleCreate)
			r.Get("/mine", h.handleListOwn)
			r.Get("/queue", h.handleReviewQueue)

			r.Route("/{petitionID}", func(r chi.Router) {
				r.Get("/", h.handleGet)
				r.Get("/evidence", h.handleListEvidence)
				r.Post("/evidence", h.handleAttachEvidence)
				r.Post("/submit", h.handleSubmit)
				r.Post("/confirm-verification", h.handleConfirmVerification)
				r.Post("/reject-legal", h.handleRejectByLawyer)
				r.Post("/publish", h.handlePublish)
				r.Post("/reject-admin", h.handleRejectByAdmin)
				r.Post("/resubmit", h.handleResubmit)
				r.Post("/withdraw", h.handleWithdraw)
				r.Post("/support", h.handleSupport)
			})
		})

		r.Post("/evidence/{evidenceID}/verdict", h.handleEvidenceVerdict)
	})
}

type petitionResponse struct {
	ID             string   `json:"id"`
	OwnerID        string   `json:"owner_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Category       string   `json:"category"`
	Visibility     string   `json:"visibility"`
	Status         string   `json:"status"`
	EvidenceIDs    []string `json:"evidence_ids"`
	LawyerReason   string   `json:"lawyer_reason,omitempty"`
	AdminReason    string   `json:"admin_reason,omitempty"`
	SupporterCount int      `json:"supporter_count"`
	Version        int      `json:"version"`
	CreatedAt      string   `json:"created_at"`
	PublishedAt    string   `json:"published_at,omitempty"`
}

func toPetitionResponse(p *models.Petition) petitionResponse {
	resp := petitionResponse{
		ID:             p.ID.String(),
		OwnerID:        p.OwnerID.String(),
		Title:          p.Title,
		Description:    p.Description,
		Category:       p.Category.String(),
		Visibility:     p.Visibility.String(),
		Status:         p.Status.String(),
		EvidenceIDs:    make([]string, 0, len(p.EvidenceIDs)),
		LawyerReason:   p.LawyerReason,
		AdminReason:    p.AdminReason,
		SupporterCount: p.SupporterCount,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339Nano),
	}
	for _, id := range p.EvidenceIDs {
		resp.EvidenceIDs = append(resp.EvidenceIDs, id.String())
	}
	if p.PublishedAt != nil {
		resp.PublishedAt = p.PublishedAt.Format(time.RFC3339Nano)
	}
	return resp
}

type evidenceResponse struct {
	ID              string `json:"id"`
	PetitionID      string `json:"petition_id"`
	Title           string `json:"title"`
	FileType        string `json:"file_type"`
	ContentRef      string `json:"content_ref"`
	SizeBytes       int64  `json:"size_bytes"`
	CaseTag         string `json:"case_tag,omitempty"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	UploadedAt      string `json:"uploaded_at"`
}

func toEvidenceResponse(e *models.Evidence) evidenceResponse {
	return evidenceResponse{
		ID:              e.ID.String(),
		PetitionID:      e.PetitionID.String(),
		Title:           e.Title,
		FileType:        e.FileType.String(),
		ContentRef:      e.ContentRef,
		SizeBytes:       e.SizeBytes,
		CaseTag:         e.CaseTag,
		Status:          e.Status.String(),
		RejectionReason: e.RejectionReason,
		UploadedAt:      e.UploadedAt.Format(time.RFC3339Nano),
	}
}

type createPetitionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Visibility  string `json:"visibility"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, role, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	var req createPetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	visibility, err := domain.ParseVisibility(req.Visibility)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	p, err := h.petitions.Create(ctx, actorID, role, req.Title, req.Description, category, visibility)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPetitionResponse(p))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
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
	p, err := h.petitions.Get(ctx, actorID, role, petitionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPetitionResponse(p))
}

func (h *Handler) handleListOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, _, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	ps, err := h.petitions.ListOwn(ctx, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPetitionList(ps))
}

func (h *Handler) handleReviewQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	_, role, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	ps, err := h.petitions.ListReviewQueue(ctx, role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPetitionList(ps))
}

type attachEvidenceRequest struct {
	Title      string `json:"title"`
	FileType   string `json:"file_type"`
	ContentRef string `json:"content_ref"`
	SizeBytes  int64  `json:"size_bytes"`
	CaseTag    string `json:"case_tag"`
}

func (h *Handler) handleAttachEvidence(w http.ResponseWriter, r *http.Request) {
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
	var req attachEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	fileType, err := domain.ParseFileType(req.FileType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ev, err := h.petitions.AttachEvidence(ctx, actorID, role, petitionID, req.Title, fileType, req.ContentRef, req.SizeBytes, req.CaseTag)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toEvidenceResponse(ev))
}

func (h *Handler) handleListEvidence(w http.ResponseWriter, r *http.Request) {
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
	evs, err := h.petitions.ListEvidence(ctx, actorID, role, petitionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]evidenceResponse, 0, len(evs))
	for _, ev := range evs {
		out = append(out, toEvidenceResponse(ev))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type verdictRequest struct {
	Verified bool   `json:"verified"`
	Reason   string `json:"reason"`
}

func (h *Handler) handleEvidenceVerdict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, role, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	evidenceID, err := domain.ParseEvidenceID(chi.URLParam(r, "evidenceID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req verdictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ev, err := h.petitions.RecordEvidenceVerdict(ctx, actorID, role, evidenceID, req.Verified, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toEvidenceResponse(ev))
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
		return h.petitions.Submit(ctx, actorID, role, petitionID)
	})
}

func (h *Handler) handleConfirmVerification(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
		return h.petitions.ConfirmVerification(ctx, actorID, role, petitionID)
	})
}

func (h *Handler) handleRejectByLawyer(w http.ResponseWriter, r *http.Request) {
	h.transitionWithReason(w, r, h.petitions.RejectByLawyer)
}

func (h *Handler) handlePublish(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
		return h.petitions.Publish(ctx, actorID, role, petitionID)
	})
}

func (h *Handler) handleRejectByAdmin(w http.ResponseWriter, r *http.Request) {
	h.transitionWithReason(w, r, h.petitions.RejectByAdmin)
}

func (h *Handler) handleResubmit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
		return h.petitions.Resubmit(ctx, actorID, role, petitionID)
	})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
		return h.petitions.Withdraw(ctx, actorID, role, petitionID)
	})
}

type supportResponse struct {
	PetitionID     string `json:"petition_id"`
	SupporterCount int    `json:"supporter_count"`
}

func (h *Handler) handleSupport(w http.ResponseWriter, r *http.Request) {
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
	count, err := h.petitions.Support(ctx, actorID, role, petitionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, supportResponse{
		PetitionID:     petitionID.String(),
		SupporterCount: count,
	})
}

type transitionFunc func(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn transitionFunc) {
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
	p, err := fn(ctx, actorID, role, petitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "transition refused",
			"request_id", middleware.GetRequestID(ctx),
			"petition_id", petitionID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPetitionResponse(p))
}

func (h *Handler) transitionWithReason(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID, reason string) (*models.Petition, error)) {
	var req reasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	h.transition(w, r, func(ctx context.Context, actorID domain.UserID, role domain.Role, petitionID domain.PetitionID) (*models.Petition, error) {
		return fn(ctx, actorID, role, petitionID, req.Reason)
	})
}

func toPetitionList(ps []*models.Petition) []petitionResponse {
	out := make([]petitionResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPetitionResponse(p))
	}
	return out
}

func (h *Handler) actor(w http.ResponseWriter, ctx context.Context) (domain.UserID, domain.Role, bool) {
	actorID, err := domain.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.UserID{}, "", false
	}
	return actorID, middleware.GetRole(ctx), true
}
