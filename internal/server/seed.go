package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shuttlesplit/api/internal/badminton"
	"github.com/shuttlesplit/api/internal/store"
)

var demoPlayers = []string{"Linh", "Minh", "Hoa", "Tuan"}

// SeedDemo fills an empty database with four players, typical Hanoi court
// prices and one finished doubles match. It does nothing if any player
// exists.
func SeedDemo(ctx context.Context, logger *slog.Logger, st store.Store, now time.Time) error {
	existing, err := st.ListPlayers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	ids := make([]string, 0, len(demoPlayers))
	for _, name := range demoPlayers {
		p, err := st.CreatePlayer(ctx, name)
		if err != nil {
			return fmt.Errorf("seeding player %s: %w", name, err)
		}
		ids = append(ids, p.ID)
	}

	err = st.SaveCosts(ctx, badminton.CostSettings{
		StageRate:       decimal.NewFromInt(120000),
		ShuttlecockRate: decimal.NewFromInt(25000),
	})
	if err != nil {
		return fmt.Errorf("seeding costs: %w", err)
	}

	end := now.UTC()
	start := end.Add(-40 * time.Minute)
	_, err = st.CreateMatch(ctx, badminton.Match{
		Team1:              ids[:2],
		Team2:              ids[2:],
		ShuttlecockUsed:    2,
		Winner:             badminton.Team1,
		StartedAt:          &start,
		EndedAt:            &end,
		BetShuttlecockUsed: true,
		ApplyStageFee:      true,
	})
	if err != nil {
		return fmt.Errorf("seeding match: %w", err)
	}

	logger.Info("demo data seeded", "players", len(ids))
	return nil
}
