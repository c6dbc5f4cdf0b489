package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/shuttlesplit/api/internal/handler/health"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	broker := NewBroker()
	n := notifier{logger: logger, cache: d.Cache, broker: broker}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Shuttlesplit API", "/openapi.json", "/docs"))
	r.Mount("/healthz", health.NewHandler(logger, d.Checks).Routes())

	r.Route("/api", func(r chi.Router) {
		r.Get("/players", handleListPlayers(logger, d.Store))
		r.Post("/players", handleCreatePlayer(logger, d.Store, n))
		r.Delete("/players/{id}", handleDeletePlayer(logger, d.Store, n))

		r.Get("/matches", handleListMatches(logger, d.Store))
		r.Post("/matches", handleCreateMatch(logger, d.Store, n, d.Now))
		r.Route("/matches/{id}", func(r chi.Router) {
			r.Use(matchMiddleware(logger, d.Store))
			r.Get("/", handleGetMatch())
			r.Patch("/", handleUpdateMatch(logger, d.Store, n, d.Now))
			r.Delete("/", handleDeleteMatch(logger, d.Store, n))
			r.Post("/start", handleStartMatch(logger, d.Store, n, d.Now))
			r.Post("/stop", handleStopMatch(logger, d.Store, n, d.Now))
			r.Get("/clock", handleMatchClock(logger, d.Store, d.ClockInterval, d.Now))
		})

		r.Get("/costs", handleGetCosts(logger, d.Store))
		r.Put("/costs", handleSaveCosts(logger, d.Store, n))

		r.Get("/fees", handleFees(logger, d.Store, d.Cache, d.FeeOptions))

		r.Delete("/data", handleReset(logger, d.Store, n, d.ResetPasswordHash))

		r.Get("/events", handleEvents(broker))
	})

	if d.SPADir != "" {
		if info, err := os.Stat(d.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", d.SPADir)
			r.NotFound(handleSPA(d.SPADir))
		}
	}
}
