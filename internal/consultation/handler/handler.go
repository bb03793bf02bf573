package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"justicerollon/internal/consultation/models"
	"justicerollon/internal/platform/middleware"
	"justicerollon/pkg/domain"
	dErrors "justicerollon/pkg/domain-errors"
	"justicerollon/pkg/platform/httputil"
)

// Service defines the interface for consultation scheduling.
type Service interface {
	CreateSlot(ctx context.Context, actorID domain.UserID, role domain.Role, startsAt, endsAt time.Time) (*models.Slot, error)
	ListOpenSlots(ctx context.Context) ([]*models.Slot, error)
	ListLawyerSlots(ctx context.Context, actorID domain.UserID, role domain.Role) ([]*models.Slot, error)
	Book(ctx context.Context, actorID domain.UserID, role domain.Role, slotID domain.SlotID, petitionID domain.PetitionID, note string) (*models.Booking, error)
	Confirm(ctx context.Context, actorID domain.UserID, role domain.Role, bookingID domain.BookingID) (*models.Booking, error)
	Cancel(ctx context.Context, actorID domain.UserID, role domain.Role, bookingID domain.BookingID) (*models.Booking, error)
	ListBookings(ctx context.Context, actorID domain.UserID) ([]*models.Booking, error)
}

// Handler handles consultation endpoints.
type Handler struct {
	logger        *slog.Logger
	consultations Service
	jwtValidator  middleware.JWTValidator
}

func New(consultations Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:        logger,
		consultations: consultations,
		jwtValidator:  jwtValidator,
	}
}

// Register registers the consultation routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

		r.Route("/consultations", func(r chi.Router) {
			r.Post("/slots", h.handleCreateSlot)
			r.Get("/slots", h.handleListOpenSlots)
			r.Get("/slots/mine", h.handleListLawyerSlots)
			r.Post("/slots/{slotID}/book", h.handleBook)
			r.Get("/bookings", h.handleListBookings)
			r.Post("/bookings/{bookingID}/confirm", h.handleConfirm)
			r.Post("/bookings/{bookingID}/cancel", h.handleCancel)
		})
	})
}

type slotResponse struct {
	ID       string `json:"id"`
	LawyerID string `json:"lawyer_id"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
	Status   string `json:"status"`
}

func toSlotResponse(s *models.Slot) slotResponse {
	return slotResponse{
		ID:       s.ID.String(),
		LawyerID: s.LawyerID.String(),
		StartsAt: s.StartsAt.Format(time.RFC3339),
		EndsAt:   s.EndsAt.Format(time.RFC3339),
		Status:   string(s.Status),
	}
}

type bookingResponse struct {
	ID         string `json:"id"`
	SlotID     string `json:"slot_id"`
	CitizenID  string `json:"citizen_id"`
	PetitionID string `json:"petition_id,omitempty"`
	Note       string `json:"note,omitempty"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

func toBookingResponse(b *models.Booking) bookingResponse {
	resp := bookingResponse{
		ID:        b.ID.String(),
		SlotID:    b.SlotID.String(),
		CitizenID: b.CitizenID.String(),
		Note:      b.Note,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.Format(time.RFC3339Nano),
	}
	if !b.PetitionID.IsNil() {
		resp.PetitionID = b.PetitionID.String()
	}
	return resp
}

type createSlotRequest struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func (h *Handler) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, role, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	var req createSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	slot, err := h.consultations.CreateSlot(ctx, actorID, role, req.StartsAt, req.EndsAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSlotResponse(slot))
}

func (h *Handler) handleListOpenSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.consultations.ListOpenSlots(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleListLawyerSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, role, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	slots, err := h.consultations.ListLawyerSlots(ctx, actorID, role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]slotResponse, 0, len(slots))
	for _, s := range slots {
		out = append(out, toSlotResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

type bookRequest struct {
	PetitionID string `json:"petition_id"`
	Note       string `json:"note"`
}

func (h *Handler) handleBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, role, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	slotID, err := domain.ParseSlotID(chi.URLParam(r, "slotID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	var petitionID domain.PetitionID
	if req.PetitionID != "" {
		petitionID, err = domain.ParsePetitionID(req.PetitionID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	booking, err := h.consultations.Book(ctx, actorID, role, slotID, petitionID, req.Note)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toBookingResponse(booking))
}

func (h *Handler) handleListBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, _, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	bookings, err := h.consultations.ListBookings(ctx, actorID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingResponse(b))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(w, r, h.consultations.Confirm)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.bookingAction(w, r, h.consultations.Cancel)
}

func (h *Handler) bookingAction(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actorID domain.UserID, role domain.Role, bookingID domain.BookingID) (*models.Booking, error)) {
	ctx := r.Context()

	actorID, role, ok := h.actor(w, ctx)
	if !ok {
		return
	}
	bookingID, err := domain.ParseBookingID(chi.URLParam(r, "bookingID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	booking, err := fn(ctx, actorID, role, bookingID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBookingResponse(booking))
}

func (h *Handler) actor(w http.ResponseWriter, ctx context.Context) (domain.UserID, domain.Role, bool) {
	actorID, err := domain.ParseUserID(middleware.GetUserID(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return domain.UserID{}, "", false
	}
	return actorID, middleware.GetRole(ctx), true
}
