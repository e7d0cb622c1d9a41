package review

import (
	"log/slog"
	"net/http"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/auth"
	"github.com/gellahi/EduConnect-Pakistan/internal/httputil"
	"github.com/gellahi/EduConnect-Pakistan/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validation.New(),
		logger:   logger,
	}
}

func (h *Handler) RegisterStudentRoutes(r chi.Router) {
	r.Post("/reviews", h.Create)
	r.Get("/tutor-reviews/{tutorId}", h.ListForTutor)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, apperror.FromValidator(err))
		return
	}

	rv, err := h.service.Create(r.Context(), caller.UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "review recorded", "review_id", rv.ID, "session_id", rv.SessionID, "rating", rv.Rating)
	httputil.RespondWithJSON(w, http.StatusCreated, rv)
}

func (h *Handler) ListForTutor(w http.ResponseWriter, r *http.Request) {
	tutorID, err := uuid.Parse(chi.URLParam(r, "tutorId"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid tutor id")
		return
	}

	reviews, err := h.service.ListForTutor(r.Context(), tutorID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, reviews)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httputil.RespondWithServiceError(w, r, h.logger, err)
}
