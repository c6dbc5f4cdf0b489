package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/shuttlesplit/api/internal/badminton"
	"github.com/shuttlesplit/api/internal/handler/health"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

type idParam struct {
	ID string `path:"id"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Shuttlesplit API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Badminton session tracker with court and shuttlecock fee splitting.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(health.Response{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/players
	listPlayers, _ := r.NewOperationContext(http.MethodGet, "/api/players")
	listPlayers.SetSummary("List players")
	listPlayers.SetDescription("Returns the roster in the order players were added.")
	listPlayers.AddRespStructure([]badminton.Player{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listPlayers)

	// POST /api/players
	createPlayer, _ := r.NewOperationContext(http.MethodPost, "/api/players")
	createPlayer.SetSummary("Add player")
	createPlayer.SetDescription("Adds a player. Names are trimmed and must be unique.")
	createPlayer.AddReqStructure(PlayerRequest{})
	createPlayer.AddRespStructure(badminton.Player{}, openapi.WithHTTPStatus(http.StatusCreated))
	createPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createPlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(createPlayer)

	// DELETE /api/players/{id}
	deletePlayer, _ := r.NewOperationContext(http.MethodDelete, "/api/players/{id}")
	deletePlayer.SetSummary("Remove player")
	deletePlayer.SetDescription("Removes a player from the roster. Recorded matches are kept.")
	deletePlayer.AddReqStructure(idParam{})
	deletePlayer.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deletePlayer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deletePlayer)

	// GET /api/matches
	listMatches, _ := r.NewOperationContext(http.MethodGet, "/api/matches")
	listMatches.SetSummary("List matches")
	listMatches.SetDescription("Returns every match in creation order.")
	listMatches.AddRespStructure([]badminton.Match{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listMatches)

	// POST /api/matches
	createMatch, _ := r.NewOperationContext(http.MethodPost, "/api/matches")
	createMatch.SetSummary("Record match")
	createMatch.SetDescription("Creates a match. Teams hold one or two roster players and must not overlap.")
	createMatch.AddReqStructure(MatchRequest{})
	createMatch.AddRespStructure(badminton.Match{}, openapi.WithHTTPStatus(http.StatusCreated))
	createMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createMatch)

	// GET /api/matches/{id}
	getMatch, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{id}")
	getMatch.SetSummary("Get match")
	getMatch.SetDescription("Returns one match.")
	getMatch.AddReqStructure(idParam{})
	getMatch.AddRespStructure(badminton.Match{}, openapi.WithHTTPStatus(http.StatusOK))
	getMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getMatch)

	// PATCH /api/matches/{id}
	updateMatch, _ := r.NewOperationContext(http.MethodPatch, "/api/matches/{id}")
	updateMatch.SetSummary("Edit match")
	updateMatch.SetDescription("Updates the fields present in the body. Answers 409 when the match changed since it was read, or when version is given and no longer current.")
	updateMatch.AddReqStructure(idParam{})
	updateMatch.AddReqStructure(MatchPatch{})
	updateMatch.AddRespStructure(badminton.Match{}, openapi.WithHTTPStatus(http.StatusOK))
	updateMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	updateMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	updateMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(updateMatch)

	// DELETE /api/matches/{id}
	deleteMatch, _ := r.NewOperationContext(http.MethodDelete, "/api/matches/{id}")
	deleteMatch.SetSummary("Delete match")
	deleteMatch.SetDescription("Deletes a match.")
	deleteMatch.AddReqStructure(idParam{})
	deleteMatch.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	deleteMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteMatch)

	// POST /api/matches/{id}/start
	startMatch, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{id}/start")
	startMatch.SetSummary("Start timer")
	startMatch.SetDescription("Starts the live timer of a match, discarding any earlier span.")
	startMatch.AddReqStructure(idParam{})
	startMatch.AddRespStructure(badminton.Match{}, openapi.WithHTTPStatus(http.StatusOK))
	startMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	startMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(startMatch)

	// POST /api/matches/{id}/stop
	stopMatch, _ := r.NewOperationContext(http.MethodPost, "/api/matches/{id}/stop")
	stopMatch.SetSummary("Stop timer")
	stopMatch.SetDescription("Stops the live timer and commits the span to the match.")
	stopMatch.AddReqStructure(idParam{})
	stopMatch.AddRespStructure(badminton.Match{}, openapi.WithHTTPStatus(http.StatusOK))
	stopMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	stopMatch.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(stopMatch)

	// GET /api/matches/{id}/clock
	getClock, _ := r.NewOperationContext(http.MethodGet, "/api/matches/{id}/clock")
	getClock.SetSummary("Live match clock")
	getClock.SetDescription("Upgrades to a WebSocket that sends a ClockTick every interval while the match runs.")
	getClock.AddReqStructure(idParam{})
	getClock.AddRespStructure(ClockTick{}, openapi.WithHTTPStatus(http.StatusSwitchingProtocols))
	_ = r.AddOperation(getClock)

	// GET /api/costs
	getCosts, _ := r.NewOperationContext(http.MethodGet, "/api/costs")
	getCosts.SetSummary("Get cost settings")
	getCosts.SetDescription("Returns saved settings, or the defaults with configured=false.")
	getCosts.AddRespStructure(CostsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getCosts)

	// PUT /api/costs
	saveCosts, _ := r.NewOperationContext(http.MethodPut, "/api/costs")
	saveCosts.SetSummary("Save cost settings")
	saveCosts.SetDescription("Overwrites the court rent per hour and shuttlecock price. Both must be at least 1000.")
	saveCosts.AddReqStructure(CostsRequest{})
	saveCosts.AddRespStructure(CostsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	saveCosts.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(saveCosts)

	// GET /api/fees
	getFees, _ := r.NewOperationContext(http.MethodGet, "/api/fees")
	getFees.SetSummary("Fee report")
	getFees.SetDescription("Splits court rent and shuttlecock cost across players. Returns 409 until costs are saved.")
	getFees.AddRespStructure(FeeReportResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getFees.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getFees)

	// DELETE /api/data
	resetData, _ := r.NewOperationContext(http.MethodDelete, "/api/data")
	resetData.SetSummary("Reset all data")
	resetData.SetDescription("Deletes players, matches and cost settings. Requires password when a reset password is configured.")
	resetData.AddReqStructure(ResetRequest{})
	resetData.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	resetData.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(resetData)

	// GET /api/events
	events, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	events.SetSummary("SSE event stream")
	events.SetDescription("Server-Sent Events stream. The event name is the changed collection (players, matches, costs, reset); ?types=players,costs limits the stream.")
	events.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(events)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
