package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shuttlesplit/api/internal/badminton"
	"github.com/shuttlesplit/api/internal/database"
	"github.com/shuttlesplit/api/internal/migrations"
	"github.com/shuttlesplit/api/internal/store"
)

func setupStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return store.NewSQLiteStore(db)
}

func TestPlayers(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	names := []string{"Linh", "Minh", "An"}
	for _, n := range names {
		if _, err := s.CreatePlayer(ctx, n); err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
	}

	players, err := s.ListPlayers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
	for i, p := range players {
		if p.Name != names[i] {
			t.Errorf("players[%d] = %q, want %q (insertion order)", i, p.Name, names[i])
		}
		if p.ID == "" {
			t.Errorf("players[%d] has empty id", i)
		}
	}

	if _, err := s.CreatePlayer(ctx, "Minh"); !errors.Is(err, store.ErrConflict) {
		t.Errorf("duplicate name: expected ErrConflict, got %v", err)
	}

	if err := s.DeletePlayer(ctx, players[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeletePlayer(ctx, players[1].ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}

	players, _ = s.ListPlayers(ctx)
	if len(players) != 2 {
		t.Errorf("expected 2 players after delete, got %d", len(players))
	}
}

func TestMatchRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	start := time.Date(2025, 6, 1, 19, 0, 0, 123_000_000, time.UTC)
	end := start.Add(47*time.Minute + 31*time.Second)
	in := badminton.Match{
		Team1:              []string{"a", "b"},
		Team2:              []string{"c"},
		ShuttlecockUsed:    3,
		Winner:             badminton.Team2,
		StartedAt:          &start,
		EndedAt:            &end,
		BetShuttlecockUsed: true,
		ApplyStageFee:      true,
	}

	created, err := s.CreateMatch(ctx, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and createdAt to be assigned, got %+v", created)
	}

	got, err := s.GetMatch(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Team1) != 2 || got.Team1[1] != "b" || len(got.Team2) != 1 {
		t.Errorf("teams = %v / %v", got.Team1, got.Team2)
	}
	if got.Winner != badminton.Team2 || got.ShuttlecockUsed != 3 {
		t.Errorf("winner=%q shuttles=%d", got.Winner, got.ShuttlecockUsed)
	}
	if !got.BetShuttlecockUsed || !got.ApplyStageFee || got.IsRunning {
		t.Errorf("flags bet=%v stage=%v running=%v", got.BetShuttlecockUsed, got.ApplyStageFee, got.IsRunning)
	}
	if got.Duration() != in.Duration() {
		t.Errorf("duration = %s, want %s", got.Duration(), in.Duration())
	}

	got.Winner = badminton.TeamNone
	got.EndedAt = nil
	got.IsRunning = true
	updated, err := s.UpdateMatch(ctx, got)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("createdAt changed on update")
	}

	got, _ = s.GetMatch(ctx, created.ID)
	if got.Winner != badminton.TeamNone || got.EndedAt != nil || !got.IsRunning {
		t.Errorf("update not persisted: %+v", got)
	}

	if _, err := s.UpdateMatch(ctx, badminton.Match{ID: "missing", Team1: []string{"a"}, Team2: []string{"b"}}); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update missing: expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteMatch(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetMatch(ctx, created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get after delete: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMatchStaleVersion(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	created, err := s.CreateMatch(ctx, badminton.Match{Team1: []string{"a"}, Team2: []string{"b"}, ApplyStageFee: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Version != 0 {
		t.Fatalf("new match version = %d, want 0", created.Version)
	}

	// Two requests load the same snapshot; the second write must not land.
	first, second := created, created
	first.IsRunning = true
	stored, err := s.UpdateMatch(ctx, first)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if stored.Version != 1 {
		t.Errorf("version after update = %d, want 1", stored.Version)
	}

	second.ShuttlecockUsed = 4
	if _, err := s.UpdateMatch(ctx, second); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("stale update: expected ErrConflict, got %v", err)
	}

	got, _ := s.GetMatch(ctx, created.ID)
	if !got.IsRunning || got.ShuttlecockUsed != 0 || got.Version != 1 {
		t.Errorf("stored match = %+v, want first update only", got)
	}
}

func TestCosts(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	if _, err := s.GetCosts(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	want := badminton.CostSettings{
		StageRate:       decimal.NewFromInt(120000),
		ShuttlecockRate: decimal.RequireFromString("24500.5"),
	}
	if err := s.SaveCosts(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	want.StageRate = decimal.NewFromInt(150000)
	if err := s.SaveCosts(ctx, want); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := s.GetCosts(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.StageRate.Equal(want.StageRate) || !got.ShuttlecockRate.Equal(want.ShuttlecockRate) {
		t.Errorf("costs = %+v, want %+v", got, want)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	a, _ := s.CreatePlayer(ctx, "A")
	b, _ := s.CreatePlayer(ctx, "B")
	s.CreateMatch(ctx, badminton.Match{Team1: []string{a.ID}, Team2: []string{b.ID}})
	s.SaveCosts(ctx, badminton.DefaultCostSettings())

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	players, _ := s.ListPlayers(ctx)
	matches, _ := s.ListMatches(ctx)
	if len(players) != 0 || len(matches) != 0 {
		t.Errorf("after reset: %d players, %d matches", len(players), len(matches))
	}
	if _, err := s.GetCosts(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("after reset: expected no costs, got %v", err)
	}
}
