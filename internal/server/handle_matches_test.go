package server

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shuttlesplit/api/internal/badminton"
	"github.com/shuttlesplit/api/internal/store"
)

func TestCreateMatch(t *testing.T) {
	env := newTestEnv(t)
	ids := env.addPlayers(t, "Linh", "Minh", "Hoa", "Tuan")

	start := env.clock.Now().Add(-45 * time.Minute)
	end := env.clock.Now()
	w := env.do(t, http.MethodPost, "/api/matches", map[string]any{
		"team1":           ids[:2],
		"team2":           ids[2:],
		"shuttlecockUsed": 3,
		"winner":          "team2",
		"startedAt":       start,
		"endedAt":         end,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	m := decode[badminton.Match](t, w)
	if m.ID == "" {
		t.Fatal("expected generated id")
	}
	if !m.ApplyStageFee {
		t.Error("applyStageFee should default to true")
	}
	if m.BetShuttlecockUsed {
		t.Error("betShuttlecockUsed should default to false")
	}
	if got := badminton.ToMinutes(m.Duration()); got != 45 {
		t.Errorf("duration = %d min, want 45", got)
	}

	w = env.do(t, http.MethodGet, "/api/matches/"+m.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	got := decode[badminton.Match](t, w)
	if got.Winner != badminton.Team2 || got.ShuttlecockUsed != 3 {
		t.Errorf("got winner=%q shuttles=%d", got.Winner, got.ShuttlecockUsed)
	}
}

func TestCreateMatchDurationMinutes(t *testing.T) {
	env := newTestEnv(t)
	ids := env.addPlayers(t, "Linh", "Minh")

	w := env.do(t, http.MethodPost, "/api/matches", map[string]any{
		"team1":                  ids[:1],
		"team2":                  ids[1:],
		"durationMinutes":        30,
		"isShareShuttlecockUsed": true,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	m := decode[badminton.Match](t, w)
	if !m.EndedAt.Equal(env.clock.Now()) {
		t.Errorf("endedAt = %s, want %s", m.EndedAt, env.clock.Now())
	}
	if got := badminton.ToMinutes(m.Duration()); got != 30 {
		t.Errorf("duration = %d min, want 30", got)
	}
	if !m.BetShuttlecockUsed {
		t.Error("isShareShuttlecockUsed alias not applied")
	}
}

func TestCreateMatchValidation(t *testing.T) {
	env := newTestEnv(t)
	ids := env.addPlayers(t, "A", "B", "C", "D", "E")
	start := env.clock.Now().Add(-time.Hour)
	end := env.clock.Now()

	tests := []struct {
		name string
		body map[string]any
	}{
		{"empty team", map[string]any{"team1": []string{}, "team2": ids[:1]}},
		{"three players", map[string]any{"team1": ids[:3], "team2": ids[3:4]}},
		{"overlap", map[string]any{"team1": ids[:2], "team2": ids[1:3]}},
		{"duplicate in team", map[string]any{"team1": []string{ids[0], ids[0]}, "team2": ids[1:2]}},
		{"unknown player", map[string]any{"team1": []string{"ghost"}, "team2": ids[:1]}},
		{"negative shuttles", map[string]any{"team1": ids[:1], "team2": ids[1:2], "shuttlecockUsed": -1}},
		{"bad winner", map[string]any{"team1": ids[:1], "team2": ids[1:2], "winner": "team3"}},
		{"end before start", map[string]any{"team1": ids[:1], "team2": ids[1:2], "startedAt": end, "endedAt": start}},
		{"zero duration", map[string]any{"team1": ids[:1], "team2": ids[1:2], "durationMinutes": 0}},
		{"duration over a day", map[string]any{"team1": ids[:1], "team2": ids[1:2], "durationMinutes": 24*60 + 1}},
		{"duration that overflows", map[string]any{"team1": ids[:1], "team2": ids[1:2], "durationMinutes": 153722867281}},
		{"both duration forms", map[string]any{"team1": ids[:1], "team2": ids[1:2], "durationMinutes": 10, "startedAt": start}},
		{"unknown field", map[string]any{"team1": ids[:1], "team2": ids[1:2], "court": 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/matches", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func createMatch(t *testing.T, env *testEnv, body map[string]any) badminton.Match {
	t.Helper()
	w := env.do(t, http.MethodPost, "/api/matches", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create match: %d %s", w.Code, w.Body.String())
	}
	return decode[badminton.Match](t, w)
}

func TestUpdateMatch(t *testing.T) {
	env := newTestEnv(t)
	ids := env.addPlayers(t, "Linh", "Minh", "Hoa")
	m := createMatch(t, env, map[string]any{"team1": ids[:1], "team2": ids[1:2], "durationMinutes": 20})

	w := env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{
		"winner":          "team1",
		"shuttlecockUsed": 2,
		"durationMinutes": 35,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	got := decode[badminton.Match](t, w)
	if got.Winner != badminton.Team1 || got.ShuttlecockUsed != 2 {
		t.Errorf("winner=%q shuttles=%d", got.Winner, got.ShuttlecockUsed)
	}
	if mins := badminton.ToMinutes(got.Duration()); mins != 35 {
		t.Errorf("duration = %d, want 35", mins)
	}
	if !got.EndedAt.Equal(*m.EndedAt) {
		t.Errorf("endedAt moved from %s to %s", m.EndedAt, got.EndedAt)
	}
	if !got.ApplyStageFee {
		t.Error("applyStageFee changed by a patch that did not set it")
	}

	// Removing a player must not block edits that leave the teams alone.
	env.do(t, http.MethodDelete, "/api/players/"+ids[0], nil)
	w = env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{"applyStageFee": false})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 after roster change, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{"team2": ids[2:3]})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when teams reference a removed player, got %d", w.Code)
	}

	w = env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{"team2": ids[:1]})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for overlapping teams, got %d", w.Code)
	}
}

func TestMatchNotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/matches/nope"},
		{http.MethodPatch, "/api/matches/nope"},
		{http.MethodDelete, "/api/matches/nope"},
		{http.MethodPost, "/api/matches/nope/start"},
		{http.MethodPost, "/api/matches/nope/stop"},
	} {
		w := env.do(t, tc.method, tc.path, map[string]any{})
		if w.Code != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", tc.method, tc.path, w.Code)
		}
	}
}

func TestDeleteMatch(t *testing.T) {
	env := newTestEnv(t)
	ids := env.addPlayers(t, "Linh", "Minh")
	m := createMatch(t, env, map[string]any{"team1": ids[:1], "team2": ids[1:]})

	w := env.do(t, http.MethodDelete, "/api/matches/"+m.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/matches", nil)
	if matches := decode[[]badminton.Match](t, w); len(matches) != 0 {
		t.Errorf("got %d matches after delete, want 0", len(matches))
	}
}

func TestStartStopMatch(t *testing.T) {
	env := newTestEnv(t)
	ids := env.addPlayers(t, "Linh", "Minh")
	m := createMatch(t, env, map[string]any{"team1": ids[:1], "team2": ids[1:]})

	w := env.do(t, http.MethodPost, "/api/matches/"+m.ID+"/stop", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("stop before start: expected 409, got %d", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/matches/"+m.ID+"/start", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	running := decode[badminton.Match](t, w)
	if !running.IsRunning || running.StartedAt == nil || running.EndedAt != nil {
		t.Fatalf("unexpected running state: %+v", running)
	}
	if running.Duration() != 0 {
		t.Errorf("running match duration = %s, want 0", running.Duration())
	}

	w = env.do(t, http.MethodPost, "/api/matches/"+m.ID+"/start", nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("double start: expected 409, got %d", w.Code)
	}

	w = env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{"durationMinutes": 10})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duration edit while running: expected 400, got %d", w.Code)
	}

	env.clock.Advance(42*time.Minute + 31*time.Second)

	w = env.do(t, http.MethodPost, "/api/matches/"+m.ID+"/stop", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	stopped := decode[badminton.Match](t, w)
	if stopped.IsRunning {
		t.Error("match still running after stop")
	}
	if got := badminton.ToMinutes(stopped.Duration()); got != 43 {
		t.Errorf("duration = %d min, want 43 (half-up)", got)
	}
}

func TestCreateMatchFullDay(t *testing.T) {
	env := newTestEnv(t)
	ids := env.addPlayers(t, "Linh", "Minh")

	m := createMatch(t, env, map[string]any{"team1": ids[:1], "team2": ids[1:], "durationMinutes": 24 * 60})
	if got := badminton.ToMinutes(m.Duration()); got != 24*60 {
		t.Errorf("duration = %d min, want 1440", got)
	}

	w := env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{"durationMinutes": 24*60 + 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("patch over a day: expected 400, got %d", w.Code)
	}
}

// snapshotStore runs afterGetMatch once, after a handler has loaded its
// snapshot of the match, to model another request writing in between.
type snapshotStore struct {
	*store.SQLiteStore
	once          sync.Once
	afterGetMatch func(badminton.Match)
}

func (s *snapshotStore) GetMatch(ctx context.Context, id string) (badminton.Match, error) {
	m, err := s.SQLiteStore.GetMatch(ctx, id)
	if err == nil && s.afterGetMatch != nil {
		s.once.Do(func() { s.afterGetMatch(m) })
	}
	return m, err
}

func TestPatchLosesRaceWithStop(t *testing.T) {
	var wrapped *snapshotStore
	env := newTestEnv(t, func(d *Deps) {
		wrapped = &snapshotStore{SQLiteStore: d.Store.(*store.SQLiteStore)}
		d.Store = wrapped
	})
	ids := env.addPlayers(t, "Linh", "Minh")
	m := createMatch(t, env, map[string]any{"team1": ids[:1], "team2": ids[1:]})
	if w := env.do(t, http.MethodPost, "/api/matches/"+m.ID+"/start", nil); w.Code != http.StatusOK {
		t.Fatalf("start: %d", w.Code)
	}
	env.clock.Advance(30 * time.Minute)

	wrapped.afterGetMatch = func(snap badminton.Match) {
		end := env.clock.Now()
		snap.EndedAt = &end
		snap.IsRunning = false
		if _, err := env.st.UpdateMatch(context.Background(), snap); err != nil {
			t.Errorf("concurrent stop: %v", err)
		}
	}

	w := env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{"shuttlecockUsed": 3})
	if w.Code != http.StatusConflict {
		t.Fatalf("patch on stale snapshot: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	got, err := env.st.GetMatch(context.Background(), m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IsRunning || got.EndedAt == nil {
		t.Errorf("stop was lost: %+v", got)
	}
	if badminton.ToMinutes(got.Duration()) != 30 {
		t.Errorf("duration = %s, want 30m", got.Duration())
	}

	// Retrying against the fresh state succeeds.
	w = env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{"shuttlecockUsed": 3})
	if w.Code != http.StatusOK {
		t.Fatalf("retry: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if updated := decode[badminton.Match](t, w); updated.IsRunning || updated.ShuttlecockUsed != 3 {
		t.Errorf("after retry = %+v, want stopped with 3 shuttles", updated)
	}
}

func TestPatchWithVersion(t *testing.T) {
	env := newTestEnv(t)
	ids := env.addPlayers(t, "Linh", "Minh")
	m := createMatch(t, env, map[string]any{"team1": ids[:1], "team2": ids[1:]})

	w := env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{"version": m.Version, "winner": "team1"})
	if w.Code != http.StatusOK {
		t.Fatalf("current version: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if updated := decode[badminton.Match](t, w); updated.Version != m.Version+1 {
		t.Errorf("version = %d, want %d", updated.Version, m.Version+1)
	}

	w = env.do(t, http.MethodPatch, "/api/matches/"+m.ID, map[string]any{"version": m.Version, "winner": "team2"})
	if w.Code != http.StatusConflict {
		t.Fatalf("old version: expected 409, got %d", w.Code)
	}
}
