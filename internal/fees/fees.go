// Package fees splits court rent and shuttlecock cost across the players of
// a session.
//
// Compute is pure: it reads only its arguments and never touches storage.
// Amounts accumulate as exact decimals and are rounded once per player.
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/shuttlesplit/api/internal/badminton"
)

// Rounding selects where the round-up to RoundingUnit is applied.
type Rounding string

const (
	// RoundComponents rounds the stage and shuttlecock fees separately.
	RoundComponents Rounding = "component"
	// RoundTotal keeps components exact and rounds only the player total.
	RoundTotal Rounding = "total"
)

const DefaultRoundingUnit = 1000

type Options struct {
	Rounding     Rounding
	RoundingUnit int64
}

func (o Options) withDefaults() Options {
	if o.Rounding == "" {
		o.Rounding = RoundComponents
	}
	if o.RoundingUnit <= 0 {
		o.RoundingUnit = DefaultRoundingUnit
	}
	return o
}

type Result struct {
	PlayerID       string          `json:"playerId"`
	Name           string          `json:"name"`
	Matches        int             `json:"matches"`
	Wins           int             `json:"wins"`
	StageFee       decimal.Decimal `json:"stageFee"`
	ShuttlecockFee decimal.Decimal `json:"shuttlecockFee"`
	Total          decimal.Decimal `json:"total"`
}

type account struct {
	matches int
	wins    int
	stage   decimal.Decimal
	shuttle decimal.Decimal
}

var sixty = decimal.NewFromInt(60)

// Compute returns one Result per player, in roster order. Players that never
// played get a zero row. Ids in matches that are not in players are skipped.
func Compute(matches []badminton.Match, players []badminton.Player, costs badminton.CostSettings, opts Options) []Result {
	opts = opts.withDefaults()

	accounts := make(map[string]*account, len(players))
	for _, p := range players {
		accounts[p.ID] = &account{stage: decimal.Zero, shuttle: decimal.Zero}
	}

	for _, m := range matches {
		participants := m.Participants()
		if len(participants) == 0 {
			continue
		}
		winners, losers := m.Outcome()

		stageFee := decimal.Zero
		if m.ApplyStageFee {
			minutes := decimal.NewFromInt(badminton.ToMinutes(m.Duration()))
			stageFee = costs.StageRate.Mul(minutes).Div(sixty)
		}
		stageShare := stageFee.Div(decimal.NewFromInt(int64(len(participants))))

		for _, id := range participants {
			if a, ok := accounts[id]; ok {
				a.matches++
				a.stage = a.stage.Add(stageShare)
			}
		}
		for _, id := range winners {
			if a, ok := accounts[id]; ok {
				a.wins++
			}
		}

		if m.ShuttlecockUsed <= 0 {
			continue
		}
		payers := participants
		if m.BetShuttlecockUsed && m.Winner != badminton.TeamNone {
			payers = losers
		}
		if len(payers) == 0 {
			continue
		}
		shuttleShare := costs.ShuttlecockRate.
			Mul(decimal.NewFromInt(int64(m.ShuttlecockUsed))).
			Div(decimal.NewFromInt(int64(len(payers))))
		for _, id := range payers {
			if a, ok := accounts[id]; ok {
				a.shuttle = a.shuttle.Add(shuttleShare)
			}
		}
	}

	results := make([]Result, 0, len(players))
	for _, p := range players {
		a := accounts[p.ID]
		results = append(results, finalize(p, a, opts))
	}
	return results
}

func finalize(p badminton.Player, a *account, opts Options) Result {
	r := Result{
		PlayerID: p.ID,
		Name:     p.Name,
		Matches:  a.matches,
		Wins:     a.wins,
	}
	switch opts.Rounding {
	case RoundTotal:
		r.StageFee = a.stage
		r.ShuttlecockFee = a.shuttle
		r.Total = RoundUp(a.stage.Add(a.shuttle), opts.RoundingUnit)
	default:
		r.StageFee = RoundUp(a.stage, opts.RoundingUnit)
		r.ShuttlecockFee = RoundUp(a.shuttle, opts.RoundingUnit)
		r.Total = r.StageFee.Add(r.ShuttlecockFee)
	}
	return r
}
