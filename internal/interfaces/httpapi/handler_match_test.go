package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/matchpoint/club-rank/internal/domain/user"
	"github.com/matchpoint/club-rank/internal/infrastructure/repository/memory"
	"github.com/matchpoint/club-rank/internal/platform/id"
	"github.com/matchpoint/club-rank/internal/platform/logging"
	"github.com/matchpoint/club-rank/internal/usecase"
)

const testJobToken = "job-secret"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	clubRepo := memory.NewClubRepository(memory.SeedClubs())
	matchRepo := memory.NewMatchRepository()
	rankingRepo := memory.NewRankingRepository()
	idGen := id.NewRandomGenerator()

	matchService := usecase.NewMatchService(matchRepo, clubRepo, rankingRepo, idGen, 32)
	rankingService := usecase.NewRankingService(rankingRepo, matchRepo, clubRepo, 32, 2)
	clubService := usecase.NewClubService(clubRepo, idGen)

	handler := NewHandler(matchService, rankingService, clubService, logging.NewNop())
	verifier := stubVerifier{principal: user.Principal{UserID: "user-auth", Email: "auth@example.com"}}

	return NewRouter(handler, verifier, logging.NewNop(), []string{"*"}, testJobToken)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost && !strings.HasPrefix(path, "/v1/internal/") {
		req.Header.Set("Authorization", "Bearer token-abc")
	}
	if strings.HasPrefix(path, "/v1/internal/") {
		req.Header.Set("X-Internal-Job-Token", testJobToken)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("unmarshal response for %s %s: %v\nbody: %s", method, path, err, rec.Body.String())
		}
	}

	return rec, decoded
}

func dataObject(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in envelope, got %v", body)
	}
	return data
}

func TestRouter_MatchLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	createBody := `{
		"receivingClubId": "club-bandung-racket",
		"gameFormat": "mens_singles",
		"participants": [
			{"userId": "user-1", "side": "requesting"},
			{"userId": "user-2", "side": "receiving"}
		],
		"location": "GOR Senayan"
	}`
	rec, body := doJSON(t, router, http.MethodPost, "/v1/clubs/club-smash-jakarta/matches", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create match: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	created := dataObject(t, body)
	matchID, _ := created["id"].(string)
	if matchID == "" {
		t.Fatalf("expected match id in create response")
	}
	if got, _ := created["status"].(string); got != "pending" {
		t.Fatalf("expected pending status, got %v", created["status"])
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/accept", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("accept match: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	completeBody := `{"result": "requesting_won", "requestingScore": 21, "receivingScore": 15}`
	rec, body = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/complete", completeBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete match: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	completion := dataObject(t, body)
	if got, _ := completion["alreadyCompleted"].(bool); got {
		t.Fatalf("first completion must not be flagged as replay")
	}
	deltas, _ := completion["deltas"].([]any)
	if len(deltas) != 2 {
		t.Fatalf("expected 2 delta rows, got %d", len(deltas))
	}

	// Replay with a contradicting result answers 200 with the stored outcome.
	rec, body = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/complete", `{"result": "receiving_won"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("replayed completion: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	replay := dataObject(t, body)
	if got, _ := replay["alreadyCompleted"].(bool); !got {
		t.Fatalf("expected alreadyCompleted=true on replay")
	}
	replayMatch, _ := replay["match"].(map[string]any)
	if got, _ := replayMatch["result"].(string); got != "requesting_won" {
		t.Fatalf("replay must return stored result, got %v", replayMatch["result"])
	}

	rec, body = doJSON(t, router, http.MethodGet, "/v1/matches/"+matchID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get match: expected 200, got %d", rec.Code)
	}
	detail := dataObject(t, body)
	if detailDeltas, _ := detail["deltas"].([]any); len(detailDeltas) != 2 {
		t.Fatalf("expected 2 delta rows on match detail, got %d", len(detailDeltas))
	}

	rec, body = doJSON(t, router, http.MethodGet, "/v1/clubs/club-smash-jakarta/rankings/mens_singles", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list rankings: expected 200, got %d", rec.Code)
	}
	ranked, _ := body["data"].([]any)
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked record for the requesting club, got %d", len(ranked))
	}
	top, _ := ranked[0].(map[string]any)
	record, _ := top["record"].(map[string]any)
	if got, _ := record["rating"].(float64); got != 1216 {
		t.Fatalf("expected winner rating 1216, got %v", record["rating"])
	}
}

func TestRouter_AcceptCompletedMatchConflicts(t *testing.T) {
	router := newTestRouter(t)

	createBody := `{
		"receivingClubId": "club-bandung-racket",
		"gameFormat": "mens_singles",
		"participants": [
			{"userId": "user-1", "side": "requesting"},
			{"userId": "user-2", "side": "receiving"}
		]
	}`
	_, body := doJSON(t, router, http.MethodPost, "/v1/clubs/club-smash-jakarta/matches", createBody)
	matchID, _ := dataObject(t, body)["id"].(string)

	rec, _ := doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/complete", `{"result": "draw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete match: expected 200, got %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/accept", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("accept after completion: expected 409, got %d", rec.Code)
	}
}

func TestRouter_CompleteWithoutResultIsBadRequest(t *testing.T) {
	router := newTestRouter(t)

	createBody := `{
		"receivingClubId": "club-bandung-racket",
		"gameFormat": "mens_singles",
		"participants": [
			{"userId": "user-1", "side": "requesting"},
			{"userId": "user-2", "side": "receiving"}
		]
	}`
	_, body := doJSON(t, router, http.MethodPost, "/v1/clubs/club-smash-jakarta/matches", createBody)
	matchID, _ := dataObject(t, body)["id"].(string)

	rec, _ := doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/complete", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("complete without result: expected 400, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestRouter_CreateMatchRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/clubs/club-smash-jakarta/matches", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}
}

func TestRouter_RecomputeJobRoute(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/v1/internal/jobs/recompute-rankings", `{"clubId": "club-smash-jakarta"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("recompute job: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	summary := dataObject(t, body)
	if got, _ := summary["clubsProcessed"].(float64); got != 1 {
		t.Fatalf("expected clubsProcessed=1, got %v", summary["clubsProcessed"])
	}
}

func TestRouter_HealthzIsPublic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
