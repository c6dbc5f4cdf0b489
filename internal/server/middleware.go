package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shuttlesplit/api/internal/badminton"
	"github.com/shuttlesplit/api/internal/store"
)

type ctxKey int

const (
	ctxKeyMatch ctxKey = iota
)

// matchMiddleware loads the match named by {id} and stores it in the
// request context.
func matchMiddleware(logger *slog.Logger, st store.MatchStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "id")
			if id == "" {
				writeError(w, http.StatusNotFound, "match not found")
				return
			}

			m, err := st.GetMatch(r.Context(), id)
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "match not found")
				return
			}
			if err != nil {
				logger.Error("loading match", "id", id, "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyMatch, m)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func matchFrom(r *http.Request) badminton.Match {
	return r.Context().Value(ctxKeyMatch).(badminton.Match)
}

// internalError logs err and answers 500 without leaking details.
func internalError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}
