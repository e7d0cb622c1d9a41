package session

import (
	"log/slog"
	"net/http"
	"net/url"

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
	r.Post("/sessions/book", h.Book)
	r.Get("/tutor-availability", h.Availability)
	r.Get("/sessions", h.StudentSessions)
	r.Patch("/sessions/{id}", h.StudentUpdateStatus)
}

func (h *Handler) RegisterTutorRoutes(r chi.Router) {
	r.Get("/sessions", h.TutorSessions)
	r.Patch("/sessions/{id}/status", h.TutorUpdateStatus)
	r.Get("/earnings", h.Earnings)
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	var req BookRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.service.Book(r.Context(), caller.UserID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session booked",
		"session_id", sess.ID,
		"student_id", sess.StudentID,
		"tutor_id", sess.TutorID,
		"date", sess.Date.String(),
		"start_time", sess.StartTime,
	)
	httputil.RespondWithJSON(w, http.StatusCreated, sess)
}

func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var fields []apperror.FieldError
	tutorID, err := uuid.Parse(q.Get("tutorId"))
	if err != nil {
		fields = append(fields, apperror.FieldError{Field: "tutorId", Message: "must be a valid id"})
	}
	date, err := ParseDate(q.Get("date"))
	if err != nil {
		fields = append(fields, apperror.FieldError{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
	}
	if len(fields) > 0 {
		h.fail(w, r, apperror.Validation("tutorId and date are required", fields...))
		return
	}

	avail, err := h.service.Availability(r.Context(), tutorID, date)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, avail)
}

func (h *Handler) StudentSessions(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())

	sessions, err := h.service.StudentSessions(r.Context(), caller.UserID, Status(r.URL.Query().Get("status")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, sessions)
}

func (h *Handler) TutorSessions(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())
	q := r.URL.Query()

	f := TutorSessionFilter{Status: Status(q.Get("status"))}
	var err error
	if f.StartDate, f.EndDate, err = parseRange(q); err != nil {
		h.fail(w, r, err)
		return
	}

	sessions, err := h.service.TutorSessions(r.Context(), caller.UserID, f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, sessions)
}

func (h *Handler) StudentUpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, ActorStudent)
}

func (h *Handler) TutorUpdateStatus(w http.ResponseWriter, r *http.Request) {
	h.updateStatus(w, r, ActorTutor)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request, actor Actor) {
	caller, _ := auth.IdentityFrom(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req StatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	sess, err := h.service.UpdateStatus(r.Context(), caller.UserID, actor, id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "session status updated",
		"session_id", sess.ID,
		"status", sess.Status,
		"actor", actor,
	)
	httputil.RespondWithJSON(w, http.StatusOK, sess)
}

func (h *Handler) Earnings(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFrom(r.Context())
	q := r.URL.Query()

	query := EarningsQuery{Period: Period(q.Get("period"))}
	var err error
	if query.StartDate, query.EndDate, err = parseRange(q); err != nil {
		h.fail(w, r, err)
		return
	}

	earnings, err := h.service.Earnings(r.Context(), caller.UserID, query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondWithJSON(w, http.StatusOK, earnings)
}

func parseRange(q url.Values) (start, end *Date, err error) {
	var fields []apperror.FieldError
	for name, dst := range map[string]**Date{"startDate": &start, "endDate": &end} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		d, perr := ParseDate(v)
		if perr != nil {
			fields = append(fields, apperror.FieldError{Field: name, Message: "must be a date in YYYY-MM-DD format"})
			continue
		}
		*dst = &d
	}
	if len(fields) > 0 {
		return nil, nil, apperror.Validation("invalid date range", fields...)
	}
	return start, end, nil
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
