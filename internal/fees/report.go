package fees

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/shuttlesplit/api/internal/badminton"
)

// Report is the fee table shown to the group: one row per player plus
// column totals.
type Report struct {
	Results          []Result               `json:"results"`
	StageTotal       decimal.Decimal        `json:"stageTotal"`
	ShuttlecockTotal decimal.Decimal        `json:"shuttlecockTotal"`
	GrandTotal       decimal.Decimal        `json:"grandTotal"`
	Rounding         Rounding               `json:"rounding"`
	Costs            badminton.CostSettings `json:"costs"`

	// UnknownPlayerIDs lists ids referenced by matches but missing from the
	// roster. Their share is not billed to anyone.
	UnknownPlayerIDs []string `json:"unknownPlayerIds"`
}

// BuildReport runs Compute and sums the columns.
func BuildReport(matches []badminton.Match, players []badminton.Player, costs badminton.CostSettings, opts Options) Report {
	opts = opts.withDefaults()
	results := Compute(matches, players, costs, opts)

	rep := Report{
		Results:          results,
		StageTotal:       decimal.Zero,
		ShuttlecockTotal: decimal.Zero,
		GrandTotal:       decimal.Zero,
		Rounding:         opts.Rounding,
		Costs:            costs,
		UnknownPlayerIDs: UnknownPlayers(matches, players),
	}
	for _, r := range results {
		rep.StageTotal = rep.StageTotal.Add(r.StageFee)
		rep.ShuttlecockTotal = rep.ShuttlecockTotal.Add(r.ShuttlecockFee)
		rep.GrandTotal = rep.GrandTotal.Add(r.Total)
	}
	return rep
}

// UnknownPlayers returns the sorted, de-duplicated ids that appear in
// matches but not in players. The result is never nil.
func UnknownPlayers(matches []badminton.Match, players []badminton.Player) []string {
	roster := make(map[string]bool, len(players))
	for _, p := range players {
		roster[p.ID] = true
	}

	unknown := []string{}
	for _, m := range matches {
		for _, id := range m.Participants() {
			if !roster[id] && !slices.Contains(unknown, id) {
				unknown = append(unknown, id)
			}
		}
	}
	slices.Sort(unknown)
	return unknown
}
