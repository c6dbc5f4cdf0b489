// Package health serves the dependency health endpoint.
package health

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a plain function to Checker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Response is the body of GET /healthz.
type Response struct {
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks"`
}

// Check reports a single dependency.
type Check struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
}

type Handler struct {
	checks  map[string]Checker
	logger  *slog.Logger
	timeout time.Duration
}

func NewHandler(logger *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{checks: checks, logger: logger, timeout: 3 * time.Second}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.check)
	return r
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := Response{Status: StatusOK, Checks: make(map[string]Check, len(names))}
	status := http.StatusOK

	for _, name := range names {
		start := time.Now()
		err := h.checks[name].Check(ctx)
		c := Check{Status: StatusOK, LatencyMs: time.Since(start).Milliseconds()}
		if err != nil {
			h.logger.Error("health check failed", "name", name, "error", err)
			c.Status = StatusError
			resp.Status = StatusError
			status = http.StatusServiceUnavailable
		}
		resp.Checks[name] = c
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
