package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches/{matchID}/live", handler.GetLiveMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}/lineup", handler.GetMatchLineup)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/matches/{matchID}/poll", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.TriggerMatchPoll)))
	mux.Handle("POST /v1/internal/matches/{matchID}/settle", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ForceSettleMatch)))
	mux.Handle("POST /v1/internal/matches/{matchID}/resync-balls", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ResyncMatchBalls)))
	mux.Handle("POST /v1/internal/contests/{contestID}/replay-payout", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ReplaySettlementPayout)))
	mux.Handle("GET /v1/internal/contests/{contestID}/settlement-failures", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListSettlementFailures)))
}
