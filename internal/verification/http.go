package verification

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

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/tutors/pending", h.ListPending)
	r.Patch("/tutors/{id}/verify", h.Verify)
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListPending(r.Context())
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, profiles)
}

func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	profileID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid tutor profile id")
		return
	}

	var req Request
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, apperror.FromValidator(err))
		return
	}

	profile, err := h.service.Verify(r.Context(), caller.UserID, profileID, req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "tutor verification updated",
		"profile_id", profile.ID,
		"status", profile.VerificationStatus,
		"admin_id", caller.UserID,
	)
	httputil.RespondWithJSON(w, http.StatusOK, profile)
}
