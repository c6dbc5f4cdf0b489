package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/shuttlesplit/api/internal/badminton"
	"github.com/shuttlesplit/api/internal/store"
)

// ClockTick is one frame of the live match clock.
type ClockTick struct {
	MatchID   string `json:"matchId"`
	Running   bool   `json:"running"`
	ElapsedMs int64  `json:"elapsedMs"`
	Minutes   int64  `json:"minutes"`
	Display   string `json:"display"`
}

func newClockTick(m badminton.Match, now time.Time) ClockTick {
	elapsed := max(m.Elapsed(now), 0)
	secs := badminton.ToSeconds(elapsed)
	return ClockTick{
		MatchID:   m.ID,
		Running:   m.IsRunning,
		ElapsedMs: elapsed.Milliseconds(),
		Minutes:   badminton.ToMinutes(elapsed),
		Display:   fmt.Sprintf("%02d:%02d", secs/60, secs%60),
	}
}

// handleMatchClock streams the elapsed time of a match over a websocket,
// one tick per interval, until the match stops or the client goes away.
// Each tick re-reads the match so a stop from another client ends the
// stream.
func handleMatchClock(logger *slog.Logger, st store.MatchStore, interval time.Duration, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := matchFrom(r)
		id := m.ID

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 4*time.Hour)
		defer cancel()
		ctx = conn.CloseRead(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if err := wsjson.Write(ctx, conn, newClockTick(m, now())); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
			if !m.IsRunning {
				conn.Close(websocket.StatusNormalClosure, "match stopped")
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			m, err = st.GetMatch(ctx, id)
			if errors.Is(err, store.ErrNotFound) {
				conn.Close(websocket.StatusNormalClosure, "match deleted")
				return
			}
			if err != nil {
				logger.Error("loading match for clock", "id", id, "error", err)
				conn.Close(websocket.StatusInternalError, "internal error")
				return
			}
		}
	}
}
