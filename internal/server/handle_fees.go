package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shuttlesplit/api/internal/fees"
	"github.com/shuttlesplit/api/internal/store"
)

// FeeReportResponse is the fee report plus VND display strings keyed by
// player id.
type FeeReportResponse struct {
	fees.Report
	TotalDisplay      map[string]string `json:"totalDisplay"`
	GrandTotalDisplay string            `json:"grandTotalDisplay"`
}

func newFeeReportResponse(rep fees.Report) FeeReportResponse {
	display := make(map[string]string, len(rep.Results))
	for _, res := range rep.Results {
		display[res.PlayerID] = fees.FormatVND(res.Total)
	}
	return FeeReportResponse{
		Report:            rep,
		TotalDisplay:      display,
		GrandTotalDisplay: fees.FormatVND(rep.GrandTotal),
	}
}

// handleFees answers 409 until cost settings have been saved; the
// calculator is never run with defaults. The cache generation is read before
// the store so a write that lands mid-computation retires this report.
func handleFees(logger *slog.Logger, st store.Store, cache store.ReportCache, opts fees.Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rep, gen, ok, err := cache.Get(ctx)
		cacheable := err == nil
		if err != nil {
			logger.Warn("reading fee report cache", "error", err)
		}
		if ok {
			writeJSON(w, http.StatusOK, newFeeReportResponse(rep))
			return
		}

		costs, err := st.GetCosts(ctx)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusConflict, "cost settings required")
			return
		}
		if err != nil {
			internalError(w, logger, "loading costs", err)
			return
		}
		players, err := st.ListPlayers(ctx)
		if err != nil {
			internalError(w, logger, "listing players", err)
			return
		}
		matches, err := st.ListMatches(ctx)
		if err != nil {
			internalError(w, logger, "listing matches", err)
			return
		}

		rep = fees.BuildReport(matches, players, costs, opts)
		if len(rep.UnknownPlayerIDs) > 0 {
			logger.Warn("matches reference players missing from the roster", "ids", rep.UnknownPlayerIDs)
		}

		if cacheable {
			if err := cache.Set(ctx, gen, rep); err != nil {
				logger.Warn("writing fee report cache", "error", err)
			}
		}
		writeJSON(w, http.StatusOK, newFeeReportResponse(rep))
	}
}
