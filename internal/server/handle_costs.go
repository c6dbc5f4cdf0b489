package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/shuttlesplit/api/internal/badminton"
	"github.com/shuttlesplit/api/internal/store"
)

// CostsResponse reports the saved settings, or the defaults with
// configured=false when nothing has been saved yet.
type CostsResponse struct {
	StageRate       decimal.Decimal `json:"stageRate"`
	ShuttlecockRate decimal.Decimal `json:"shuttlecockRate"`
	Configured      bool            `json:"configured"`
}

type CostsRequest struct {
	StageRate       decimal.Decimal `json:"stageRate"`
	ShuttlecockRate decimal.Decimal `json:"shuttlecockRate"`
}

func handleGetCosts(logger *slog.Logger, st store.CostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := st.GetCosts(r.Context())
		configured := true
		if errors.Is(err, store.ErrNotFound) {
			c, configured, err = badminton.DefaultCostSettings(), false, nil
		}
		if err != nil {
			internalError(w, logger, "loading costs", err)
			return
		}

		writeJSON(w, http.StatusOK, CostsResponse{
			StageRate:       c.StageRate,
			ShuttlecockRate: c.ShuttlecockRate,
			Configured:      configured,
		})
	}
}

func handleSaveCosts(logger *slog.Logger, st store.CostStore, n notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CostsRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		c := badminton.CostSettings{StageRate: req.StageRate, ShuttlecockRate: req.ShuttlecockRate}
		if err := c.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := st.SaveCosts(r.Context(), c); err != nil {
			internalError(w, logger, "saving costs", err)
			return
		}

		n.changed(r.Context(), eventCosts, "")
		writeJSON(w, http.StatusOK, CostsResponse{
			StageRate:       c.StageRate,
			ShuttlecockRate: c.ShuttlecockRate,
			Configured:      true,
		})
	}
}
