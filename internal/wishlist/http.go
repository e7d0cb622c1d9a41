package wishlist

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
	r.Get("/wishlist", h.Get)
	r.Post("/wishlist", h.Add)
	r.Delete("/wishlist/{tutorId}", h.Remove)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	list, err := h.service.Get(r.Context(), caller.UserID)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var req AddRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, apperror.FromValidator(err))
		return
	}

	list, err := h.service.Add(r.Context(), caller.UserID, req.TutorID)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, list)
}

func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	tutorID, err := uuid.Parse(chi.URLParam(r, "tutorId"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid tutor id")
		return
	}

	list, err := h.service.Remove(r.Context(), caller.UserID, tutorID)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, list)
}
