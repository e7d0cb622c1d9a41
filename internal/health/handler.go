package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gellahi/EduConnect-Pakistan/internal/httputil"
	"github.com/gellahi/EduConnect-Pakistan/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Checker is a dependency the service cannot serve traffic without.
type Checker interface {
	Name() string
	Check(ctx context.Context) error
}

// CheckFunc adapts a ping function to a Checker.
type CheckFunc struct {
	Dependency string
	Fn         func(ctx context.Context) error
}

func (c CheckFunc) Name() string                    { return c.Dependency }
func (c CheckFunc) Check(ctx context.Context) error { return c.Fn(ctx) }

type Handler struct {
	checkers []Checker
	metrics  *metrics.Metrics
	logger   *slog.Logger
	timeout  time.Duration
}

func NewHandler(m *metrics.Metrics, logger *slog.Logger, checkers ...Checker) *Handler {
	return &Handler{
		checkers: checkers,
		metrics:  m,
		logger:   logger,
		timeout:  2 * time.Second,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{Status: "ready", Checks: map[string]string{}}
	code := http.StatusOK

	for _, c := range h.checkers {
		start := time.Now()
		err := c.Check(ctx)
		h.metrics.Health.RecordDependencyCheck(ctx, c.Name(), time.Since(start), err)

		if err != nil {
			h.logger.WarnContext(ctx, "readiness check failed", "dependency", c.Name(), "error", err)
			resp.Checks[c.Name()] = "unavailable"
			resp.Status = "not ready"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[c.Name()] = "ok"
	}

	httputil.RespondWithJSON(w, code, resp)
}
