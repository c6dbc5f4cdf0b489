package server

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/shuttlesplit/api/internal/store"
)

type ResetRequest struct {
	Password string `json:"password"`
}

// handleReset wipes players, matches and cost settings. When hash is set the
// request must carry the matching password.
func handleReset(logger *slog.Logger, st store.Store, n notifier, hash string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResetRequest
		if err := readOptionalJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if hash != "" {
			if req.Password == "" {
				writeError(w, http.StatusUnauthorized, "password required")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
				writeError(w, http.StatusUnauthorized, "invalid password")
				return
			}
		}

		if err := st.Reset(r.Context()); err != nil {
			internalError(w, logger, "resetting data", err)
			return
		}

		logger.Info("all data reset")
		n.changed(r.Context(), eventReset, "")
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
