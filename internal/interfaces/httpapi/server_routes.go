package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicDomainRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/clubs", handler.ListClubStandings)
	mux.HandleFunc("GET /v1/clubs/{clubID}", handler.GetClub)
	mux.HandleFunc("GET /v1/clubs/{clubID}/matches", handler.ListClubMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/clubs/{clubID}/rankings/{gameFormat}", handler.ListClubRankings)
	mux.HandleFunc("GET /v1/clubs/{clubID}/rankings/user/{userID}", handler.ListUserRankings)
	mux.HandleFunc("GET /v1/clubs/{clubID}/users/{userID}/stats", handler.GetUserStats)
	mux.HandleFunc("GET /v1/clubs/{clubID}/users/{userID}/partnerships", handler.ListPartnerships)
}

func registerAuthorizedRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	mux.Handle("POST /v1/clubs", RequireAuth(verifier, http.HandlerFunc(handler.CreateClub)))
	mux.Handle("POST /v1/clubs/{clubID}/matches", RequireAuth(verifier, http.HandlerFunc(handler.CreateMatch)))
	mux.Handle("POST /v1/matches/{matchID}/accept", RequireAuth(verifier, http.HandlerFunc(handler.AcceptMatch)))
	mux.Handle("POST /v1/matches/{matchID}/reject", RequireAuth(verifier, http.HandlerFunc(handler.RejectMatch)))
	mux.Handle("POST /v1/matches/{matchID}/cancel", RequireAuth(verifier, http.HandlerFunc(handler.CancelMatch)))
	mux.Handle("POST /v1/matches/{matchID}/complete", RequireAuth(verifier, http.HandlerFunc(handler.CompleteMatch)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/jobs/recompute-rankings", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunRecomputeRankingsJob)))
}
