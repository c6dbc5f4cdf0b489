// Package badminton defines the core domain types of a badminton session:
// players, matches and the cost settings used to split court rent and
// shuttlecock cost.
package badminton

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// MinRate is the lowest accepted stage or shuttlecock rate, in VND.
var MinRate = decimal.NewFromInt(1000)

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// CostSettings holds the court rent per hour and the price of a single
// shuttlecock.
type CostSettings struct {
	StageRate       decimal.Decimal `json:"stageRate"`
	ShuttlecockRate decimal.Decimal `json:"shuttlecockRate"`
}

// DefaultCostSettings is the baseline shown before anything is saved.
func DefaultCostSettings() CostSettings {
	return CostSettings{StageRate: MinRate, ShuttlecockRate: MinRate}
}

type Team string

const (
	TeamNone Team = ""
	Team1    Team = "team1"
	Team2    Team = "team2"
)

func (t Team) Valid() bool {
	return t == TeamNone || t == Team1 || t == Team2
}

type Match struct {
	ID                 string     `json:"id"`
	Team1              []string   `json:"team1"`
	Team2              []string   `json:"team2"`
	ShuttlecockUsed    int        `json:"shuttlecockUsed"`
	Winner             Team       `json:"winner,omitempty"`
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	EndedAt            *time.Time `json:"endedAt,omitempty"`
	BetShuttlecockUsed bool       `json:"betShuttlecockUsed"`
	ApplyStageFee      bool       `json:"applyStageFee"`
	IsRunning          bool       `json:"isRunning"`
	CreatedAt          time.Time  `json:"createdAt"`

	// Version increases with every stored update.
	Version int64 `json:"version"`
}

// Participants returns team1 followed by team2. Duplicates are kept.
func (m Match) Participants() []string {
	return slices.Concat(m.Team1, m.Team2)
}

// Outcome returns the winning and losing teams. Both are nil when no winner
// has been declared.
func (m Match) Outcome() (winners, losers []string) {
	switch m.Winner {
	case Team1:
		return m.Team1, m.Team2
	case Team2:
		return m.Team2, m.Team1
	}
	return nil, nil
}

// Duration is the stored match length: EndedAt - StartedAt when both are
// set, zero otherwise.
func (m Match) Duration() time.Duration {
	if m.StartedAt == nil || m.EndedAt == nil {
		return 0
	}
	return m.EndedAt.Sub(*m.StartedAt)
}

// Elapsed is the live duration at now: for a running match the time since
// it started, otherwise the stored duration.
func (m Match) Elapsed(now time.Time) time.Duration {
	if m.IsRunning && m.StartedAt != nil {
		return now.Sub(*m.StartedAt)
	}
	return m.Duration()
}

// HasPlayer reports whether id plays on either team.
func (m Match) HasPlayer(id string) bool {
	return slices.Contains(m.Team1, id) || slices.Contains(m.Team2, id)
}
