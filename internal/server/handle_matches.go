package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shuttlesplit/api/internal/badminton"
	"github.com/shuttlesplit/api/internal/store"
)

// MatchRequest creates a match. Duration is given either as startedAt and
// endedAt or as durationMinutes, which is stored as a span ending now.
// isShareShuttlecockUsed is accepted as an alias of betShuttlecockUsed.
type MatchRequest struct {
	Team1                  []string       `json:"team1"`
	Team2                  []string       `json:"team2"`
	ShuttlecockUsed        int            `json:"shuttlecockUsed"`
	Winner                 badminton.Team `json:"winner"`
	StartedAt              *time.Time     `json:"startedAt"`
	EndedAt                *time.Time     `json:"endedAt"`
	DurationMinutes        *int           `json:"durationMinutes"`
	BetShuttlecockUsed     *bool          `json:"betShuttlecockUsed"`
	IsShareShuttlecockUsed *bool          `json:"isShareShuttlecockUsed"`
	ApplyStageFee          *bool          `json:"applyStageFee"`
}

func (req MatchRequest) toMatch(now time.Time) (badminton.Match, string) {
	m := badminton.Match{
		Team1:           req.Team1,
		Team2:           req.Team2,
		ShuttlecockUsed: req.ShuttlecockUsed,
		Winner:          req.Winner,
		StartedAt:       req.StartedAt,
		EndedAt:         req.EndedAt,
		ApplyStageFee:   true,
	}
	if req.ApplyStageFee != nil {
		m.ApplyStageFee = *req.ApplyStageFee
	}
	if bet := firstBool(req.BetShuttlecockUsed, req.IsShareShuttlecockUsed); bet != nil {
		m.BetShuttlecockUsed = *bet
	}
	if req.DurationMinutes != nil {
		if req.StartedAt != nil || req.EndedAt != nil {
			return m, "use either durationMinutes or startedAt/endedAt"
		}
		if msg := setDuration(&m, *req.DurationMinutes, now); msg != "" {
			return m, msg
		}
	}
	return m, ""
}

// MatchPatch updates the fields that are present and leaves the rest. When
// Version is set the patch applies only to that version of the match.
type MatchPatch struct {
	Version                *int64          `json:"version"`
	Team1                  *[]string       `json:"team1"`
	Team2                  *[]string       `json:"team2"`
	ShuttlecockUsed        *int            `json:"shuttlecockUsed"`
	Winner                 *badminton.Team `json:"winner"`
	StartedAt              *time.Time      `json:"startedAt"`
	EndedAt                *time.Time      `json:"endedAt"`
	DurationMinutes        *int            `json:"durationMinutes"`
	BetShuttlecockUsed     *bool           `json:"betShuttlecockUsed"`
	IsShareShuttlecockUsed *bool           `json:"isShareShuttlecockUsed"`
	ApplyStageFee          *bool           `json:"applyStageFee"`
}

func (p MatchPatch) touchesTeams() bool {
	return p.Team1 != nil || p.Team2 != nil
}

func (p MatchPatch) apply(m badminton.Match, now time.Time) (badminton.Match, string) {
	if p.Version != nil {
		m.Version = *p.Version
	}
	if p.Team1 != nil {
		m.Team1 = *p.Team1
	}
	if p.Team2 != nil {
		m.Team2 = *p.Team2
	}
	if p.ShuttlecockUsed != nil {
		m.ShuttlecockUsed = *p.ShuttlecockUsed
	}
	if p.Winner != nil {
		m.Winner = *p.Winner
	}
	if bet := firstBool(p.BetShuttlecockUsed, p.IsShareShuttlecockUsed); bet != nil {
		m.BetShuttlecockUsed = *bet
	}
	if p.ApplyStageFee != nil {
		m.ApplyStageFee = *p.ApplyStageFee
	}
	if p.StartedAt != nil {
		m.StartedAt = p.StartedAt
	}
	if p.EndedAt != nil {
		m.EndedAt = p.EndedAt
	}
	if p.DurationMinutes != nil {
		if p.StartedAt != nil || p.EndedAt != nil {
			return m, "use either durationMinutes or startedAt/endedAt"
		}
		if m.IsRunning {
			return m, "cannot set the duration of a running match"
		}
		end := now
		if m.EndedAt != nil {
			end = *m.EndedAt
		}
		if msg := setDuration(&m, *p.DurationMinutes, end); msg != "" {
			return m, msg
		}
	}
	return m, ""
}

// maxDurationMinutes caps the durationMinutes form at one day.
const maxDurationMinutes = 24 * 60

func setDuration(m *badminton.Match, minutes int, end time.Time) string {
	if minutes < 1 {
		return "durationMinutes must be at least 1"
	}
	if minutes > maxDurationMinutes {
		return "durationMinutes must be at most 1440"
	}
	end = end.UTC()
	start := end.Add(-time.Duration(minutes) * time.Minute)
	m.StartedAt = &start
	m.EndedAt = &end
	return ""
}

func firstBool(vals ...*bool) *bool {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func rosterIDs(r *http.Request, st store.PlayerStore) (map[string]bool, error) {
	players, err := st.ListPlayers(r.Context())
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(players))
	for _, p := range players {
		known[p.ID] = true
	}
	return known, nil
}

func handleListMatches(logger *slog.Logger, st store.MatchStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := st.ListMatches(r.Context())
		if err != nil {
			internalError(w, logger, "listing matches", err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func handleCreateMatch(logger *slog.Logger, st store.Store, n notifier, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MatchRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		m, msg := req.toMatch(now())
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		known, err := rosterIDs(r, st)
		if err != nil {
			internalError(w, logger, "loading roster", err)
			return
		}
		if err := m.Validate(known); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		created, err := st.CreateMatch(r.Context(), m)
		if err != nil {
			internalError(w, logger, "creating match", err)
			return
		}

		n.changed(r.Context(), eventMatches, created.ID)
		writeJSON(w, http.StatusCreated, created)
	}
}

func handleGetMatch() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, matchFrom(r))
	}
}

func handleUpdateMatch(logger *slog.Logger, st store.Store, n notifier, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch MatchPatch
		if err := readJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		m, msg := patch.apply(matchFrom(r), now())
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		// Players removed after the match was recorded stay valid unless
		// the teams themselves are being edited.
		var known map[string]bool
		if patch.touchesTeams() {
			var err error
			if known, err = rosterIDs(r, st); err != nil {
				internalError(w, logger, "loading roster", err)
				return
			}
		}
		if err := m.Validate(known); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		saveMatch(w, r, logger, st, n, m)
	}
}

func handleDeleteMatch(logger *slog.Logger, st store.MatchStore, n notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := matchFrom(r)

		if err := st.DeleteMatch(r.Context(), m.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "match not found")
				return
			}
			internalError(w, logger, "deleting match", err)
			return
		}

		n.changed(r.Context(), eventMatches, m.ID)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleStartMatch starts the live timer. Restarting a stopped match
// discards its previous span.
func handleStartMatch(logger *slog.Logger, st store.MatchStore, n notifier, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := matchFrom(r)
		if m.IsRunning {
			writeError(w, http.StatusConflict, "match is already running")
			return
		}

		start := now().UTC()
		m.StartedAt = &start
		m.EndedAt = nil
		m.IsRunning = true

		saveMatch(w, r, logger, st, n, m)
	}
}

func handleStopMatch(logger *slog.Logger, st store.MatchStore, n notifier, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := matchFrom(r)
		if !m.IsRunning {
			writeError(w, http.StatusConflict, "match is not running")
			return
		}

		end := now().UTC()
		if m.StartedAt == nil || end.Before(*m.StartedAt) {
			m.StartedAt = &end
		}
		m.EndedAt = &end
		m.IsRunning = false

		saveMatch(w, r, logger, st, n, m)
	}
}

func saveMatch(w http.ResponseWriter, r *http.Request, logger *slog.Logger, st store.MatchStore, n notifier, m badminton.Match) {
	updated, err := st.UpdateMatch(r.Context(), m)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}
	if errors.Is(err, store.ErrConflict) {
		writeError(w, http.StatusConflict, "match was changed by another request")
		return
	}
	if err != nil {
		internalError(w, logger, "updating match", err)
		return
	}

	n.changed(r.Context(), eventMatches, updated.ID)
	writeJSON(w, http.StatusOK, updated)
}
