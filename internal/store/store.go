// Package store persists players, matches and cost settings.
package store

import (
	"context"
	"errors"

	"github.com/shuttlesplit/api/internal/badminton"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

type PlayerStore interface {
	ListPlayers(ctx context.Context) ([]badminton.Player, error)
	CreatePlayer(ctx context.Context, name string) (badminton.Player, error)
	DeletePlayer(ctx context.Context, id string) error
}

type MatchStore interface {
	ListMatches(ctx context.Context) ([]badminton.Match, error)
	GetMatch(ctx context.Context, id string) (badminton.Match, error)
	CreateMatch(ctx context.Context, m badminton.Match) (badminton.Match, error)
	// UpdateMatch stores m only if the stored version still equals
	// m.Version, and returns ErrConflict otherwise.
	UpdateMatch(ctx context.Context, m badminton.Match) (badminton.Match, error)
	DeleteMatch(ctx context.Context, id string) error
}

// CostStore holds the singleton cost settings. GetCosts returns ErrNotFound
// until settings have been saved once.
type CostStore interface {
	GetCosts(ctx context.Context) (badminton.CostSettings, error)
	SaveCosts(ctx context.Context, c badminton.CostSettings) error
}

type Store interface {
	PlayerStore
	MatchStore
	CostStore

	// Reset removes every player, match and the cost settings.
	Reset(ctx context.Context) error
}
