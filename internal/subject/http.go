package subject

import (
	"log/slog"
	"net/http"

	"github.com/gellahi/EduConnect-Pakistan/internal/apperror"
	"github.com/gellahi/EduConnect-Pakistan/internal/httputil"
	"github.com/gellahi/EduConnect-Pakistan/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, validate: validation.New(), logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/subjects", h.Create)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.service.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, subjects)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, apperror.FromValidator(err))
		return
	}

	s, err := h.service.Create(r.Context(), req)
	if err != nil {
		httputil.RespondWithServiceError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "subject created", "subject_id", s.ID, "name", s.Name)
	httputil.RespondWithJSON(w, http.StatusCreated, s)
}
