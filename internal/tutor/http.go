package tutor

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

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

// RegisterStudentRoutes mounts the directory under a student-only router.
func (h *Handler) RegisterStudentRoutes(r chi.Router) {
	r.Get("/tutors/search", h.Search)
	r.Get("/tutors/{id}", h.GetTutor)
}

// RegisterTutorRoutes mounts profile management under a tutor-only router.
func (h *Handler) RegisterTutorRoutes(r chi.Router) {
	r.Get("/profile", h.GetProfile)
	r.Post("/profile", h.CreateProfile)
	r.Patch("/profile", h.UpdateProfile)
	r.Post("/availability", h.UpdateAvailability)
	r.Post("/subjects", h.AddSubjects)
	r.Delete("/subjects/{subjectId}", h.RemoveSubject)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	profiles, err := h.service.Search(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, profiles)
}

func parseFilter(q url.Values) (SearchFilter, error) {
	f := SearchFilter{
		City:      q.Get("city"),
		Day:       q.Get("day"),
		StartTime: q.Get("startTime"),
		EndTime:   q.Get("endTime"),
	}

	var fields []apperror.FieldError
	if v := q.Get("subject"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: "subject", Message: "must be a valid id"})
		} else {
			f.SubjectID = &id
		}
	}
	for name, dst := range map[string]**float64{
		"minPrice":  &f.MinPrice,
		"maxPrice":  &f.MaxPrice,
		"minRating": &f.MinRating,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fields = append(fields, apperror.FieldError{Field: name, Message: "must be a number"})
			continue
		}
		*dst = &n
	}

	if len(fields) > 0 {
		return f, apperror.Validation("invalid search filter", fields...)
	}
	return f, nil
}

func (h *Handler) GetTutor(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid tutor id")
		return
	}

	p, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	p, err := h.service.GetOwn(r.Context(), caller.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var req CreateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Create(r.Context(), caller.UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "tutor profile created", "profile_id", p.ID, "tutor_id", caller.UserID)
	httputil.RespondWithJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.Update(r.Context(), caller.UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var req AvailabilityRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.UpdateAvailability(r.Context(), caller.UserID, req.Availability)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) AddSubjects(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var req SubjectsRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.service.AddSubjects(r.Context(), caller.UserID, req.SubjectIDs)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) RemoveSubject(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	subjectID, err := uuid.Parse(chi.URLParam(r, "subjectId"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid subject id")
		return
	}

	p, err := h.service.RemoveSubject(r.Context(), caller.UserID, subjectID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, p)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := httputil.DecodeJSON(r, dst); err != nil {
		h.fail(w, r, err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.fail(w, r, apperror.FromValidator(err))
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httputil.RespondWithServiceError(w, r, h.logger, err)
}
