package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/shuttlesplit/api/internal/store"
)

const maxPlayerName = 50

type PlayerRequest struct {
	Name string `json:"name"`
}

func (req *PlayerRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if utf8.RuneCountInString(req.Name) > maxPlayerName {
		return "name is too long"
	}
	return ""
}

func handleListPlayers(logger *slog.Logger, st store.PlayerStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := st.ListPlayers(r.Context())
		if err != nil {
			internalError(w, logger, "listing players", err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

func handleCreatePlayer(logger *slog.Logger, st store.PlayerStore, n notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PlayerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if msg := req.validate(); msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		p, err := st.CreatePlayer(r.Context(), req.Name)
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "player already exists")
			return
		}
		if err != nil {
			internalError(w, logger, "creating player", err)
			return
		}

		n.changed(r.Context(), eventPlayers, p.ID)
		writeJSON(w, http.StatusCreated, p)
	}
}

// handleDeletePlayer removes the player from the roster. Matches keep the
// id; the fee report lists it under unknownPlayerIds.
func handleDeletePlayer(logger *slog.Logger, st store.PlayerStore, n notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := st.DeletePlayer(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "player not found")
				return
			}
			internalError(w, logger, "deleting player", err)
			return
		}

		n.changed(r.Context(), eventPlayers, id)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
