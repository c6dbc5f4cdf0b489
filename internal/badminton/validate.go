package badminton

import (
	"fmt"
	"slices"
)

const maxTeamSize = 2

// ValidationError is returned for input that must be rejected before it
// reaches storage.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Validate checks the match against the roster ids in known. A nil known
// skips the roster check.
func (m Match) Validate(known map[string]bool) error {
	if err := validateTeam("team1", m.Team1, known); err != nil {
		return err
	}
	if err := validateTeam("team2", m.Team2, known); err != nil {
		return err
	}
	for _, id := range m.Team1 {
		if slices.Contains(m.Team2, id) {
			return invalid("player %s cannot play on both teams", id)
		}
	}
	if m.ShuttlecockUsed < 0 {
		return invalid("shuttlecockUsed must not be negative")
	}
	if !m.Winner.Valid() {
		return invalid("winner must be team1, team2 or empty")
	}
	if m.StartedAt != nil && m.EndedAt != nil && m.EndedAt.Before(*m.StartedAt) {
		return invalid("endedAt must not be before startedAt")
	}
	if m.IsRunning && m.EndedAt != nil {
		return invalid("a running match cannot have endedAt")
	}
	return nil
}

func validateTeam(name string, ids []string, known map[string]bool) error {
	if len(ids) == 0 {
		return invalid("%s needs at least one player", name)
	}
	if len(ids) > maxTeamSize {
		return invalid("%s has at most %d players", name, maxTeamSize)
	}
	for i, id := range ids {
		if id == "" {
			return invalid("%s has an empty player id", name)
		}
		if slices.Contains(ids[:i], id) {
			return invalid("%s lists player %s twice", name, id)
		}
		if known != nil && !known[id] {
			return invalid("unknown player %s", id)
		}
	}
	return nil
}

// Validate rejects rates below MinRate.
func (c CostSettings) Validate() error {
	if c.StageRate.LessThan(MinRate) {
		return invalid("stageRate must be at least %s", MinRate)
	}
	if c.ShuttlecockRate.LessThan(MinRate) {
		return invalid("shuttlecockRate must be at least %s", MinRate)
	}
	return nil
}
