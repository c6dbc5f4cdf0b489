package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shuttlesplit/api/internal/badminton"
)

// SQLiteStore implements Store on the schema created by the migrations
// package.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) ListPlayers(ctx context.Context) ([]badminton.Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM players ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []badminton.Player{}
	for rows.Next() {
		var p badminton.Player
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &createdAt); err != nil {
			return nil, err
		}
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (s *SQLiteStore) CreatePlayer(ctx context.Context, name string) (badminton.Player, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM players WHERE name = ?`, name).Scan(&exists)
	if err == nil {
		return badminton.Player{}, ErrConflict
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return badminton.Player{}, err
	}

	p := badminton.Player{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: s.now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO players (id, name, created_at) VALUES (?, ?, ?)
	`, p.ID, p.Name, formatTime(p.CreatedAt))
	if isUniqueViolation(err) {
		return badminton.Player{}, ErrConflict
	}
	if err != nil {
		return badminton.Player{}, err
	}
	return p, nil
}

func (s *SQLiteStore) DeletePlayer(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

const matchColumns = `id, team1, team2, shuttlecock_used, winner, started_at, ended_at,
	bet_shuttlecock_used, apply_stage_fee, is_running, created_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (badminton.Match, error) {
	var (
		m                          badminton.Match
		team1, team2, winner       string
		startedAt, endedAt         sql.NullString
		bet, applyStage, isRunning int
		createdAt                  string
	)
	err := row.Scan(&m.ID, &team1, &team2, &m.ShuttlecockUsed, &winner, &startedAt, &endedAt,
		&bet, &applyStage, &isRunning, &createdAt, &m.Version)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal([]byte(team1), &m.Team1); err != nil {
		return m, fmt.Errorf("decoding team1 of match %s: %w", m.ID, err)
	}
	if err := json.Unmarshal([]byte(team2), &m.Team2); err != nil {
		return m, fmt.Errorf("decoding team2 of match %s: %w", m.ID, err)
	}
	m.Winner = badminton.Team(winner)
	m.BetShuttlecockUsed = bet != 0
	m.ApplyStageFee = applyStage != 0
	m.IsRunning = isRunning != 0
	if m.StartedAt, err = parseNullTime(startedAt); err != nil {
		return m, err
	}
	if m.EndedAt, err = parseNullTime(endedAt); err != nil {
		return m, err
	}
	m.CreatedAt, err = parseTime(createdAt)
	return m, err
}

func (s *SQLiteStore) ListMatches(ctx context.Context) ([]badminton.Match, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+matchColumns+` FROM matches ORDER BY created_at, rowid`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []badminton.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (s *SQLiteStore) GetMatch(ctx context.Context, id string) (badminton.Match, error) {
	m, err := scanMatch(s.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return m, ErrNotFound
	}
	return m, err
}

// CreateMatch assigns an id and creation time when they are unset.
func (s *SQLiteStore) CreateMatch(ctx context.Context, m badminton.Match) (badminton.Match, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = s.now().UTC()
	}

	team1, team2, err := encodeTeams(m)
	if err != nil {
		return m, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, team1, team2, m.ShuttlecockUsed, string(m.Winner),
		formatNullTime(m.StartedAt), formatNullTime(m.EndedAt),
		boolInt(m.BetShuttlecockUsed), boolInt(m.ApplyStageFee), boolInt(m.IsRunning),
		formatTime(m.CreatedAt), m.Version)
	if isUniqueViolation(err) {
		return m, ErrConflict
	}
	return m, err
}

// UpdateMatch overwrites every mutable field of the stored match when its
// version still matches m.Version, and bumps the version.
func (s *SQLiteStore) UpdateMatch(ctx context.Context, m badminton.Match) (badminton.Match, error) {
	team1, team2, err := encodeTeams(m)
	if err != nil {
		return m, err
	}

	var createdAt string
	err = s.db.QueryRowContext(ctx, `
		UPDATE matches SET team1 = ?, team2 = ?, shuttlecock_used = ?, winner = ?,
			started_at = ?, ended_at = ?, bet_shuttlecock_used = ?, apply_stage_fee = ?,
			is_running = ?, version = version + 1
		WHERE id = ? AND version = ?
		RETURNING created_at, version
	`, team1, team2, m.ShuttlecockUsed, string(m.Winner),
		formatNullTime(m.StartedAt), formatNullTime(m.EndedAt),
		boolInt(m.BetShuttlecockUsed), boolInt(m.ApplyStageFee), boolInt(m.IsRunning),
		m.ID, m.Version).Scan(&createdAt, &m.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return m, s.missingOrStale(ctx, m.ID)
	}
	if err != nil {
		return m, err
	}
	m.CreatedAt, err = parseTime(createdAt)
	return m, err
}

func (s *SQLiteStore) missingOrStale(ctx context.Context, id string) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM matches WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func (s *SQLiteStore) DeleteMatch(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) GetCosts(ctx context.Context) (badminton.CostSettings, error) {
	var c badminton.CostSettings
	err := s.db.QueryRowContext(ctx, `
		SELECT stage_rate, shuttlecock_rate FROM cost_settings WHERE id = 1
	`).Scan(&c.StageRate, &c.ShuttlecockRate)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

func (s *SQLiteStore) SaveCosts(ctx context.Context, c badminton.CostSettings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cost_settings (id, stage_rate, shuttlecock_rate, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			stage_rate = excluded.stage_rate,
			shuttlecock_rate = excluded.shuttlecock_rate,
			updated_at = excluded.updated_at
	`, c.StageRate.String(), c.ShuttlecockRate.String(), formatTime(s.now().UTC()))
	return err
}

func (s *SQLiteStore) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"matches", "players", "cost_settings"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}

func encodeTeams(m badminton.Match) (string, string, error) {
	team1, err := json.Marshal(nonNil(m.Team1))
	if err != nil {
		return "", "", err
	}
	team2, err := json.Marshal(nonNil(m.Team2))
	if err != nil {
		return "", "", err
	}
	return string(team1), string(team2), nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
