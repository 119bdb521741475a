package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/matchpoint/club-rank/internal/usecase"
)

type recomputeRankingsRequest struct {
	ClubID string `json:"clubId"`
}

type recomputeSummaryDTO struct {
	ClubsProcessed  int   `json:"clubsProcessed"`
	MatchesReplayed int   `json:"matchesReplayed"`
	DurationMs      int64 `json:"durationMs"`
}

// RunRecomputeRankingsJob rebuilds rating tables from match history.
// An empty body recomputes every club; a clubId scopes the rebuild.
func (h *Handler) RunRecomputeRankingsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRecomputeRankingsJob")
	defer span.End()

	var req recomputeRankingsRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}

	clubID := strings.TrimSpace(req.ClubID)

	var (
		summary usecase.RecomputeSummary
		err     error
	)
	if clubID == "" {
		summary, err = h.rankingService.RecomputeAllRankings(ctx)
	} else {
		summary, err = h.rankingService.RecomputeClubRankings(ctx, clubID)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "recompute rankings job failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "recompute rankings job finished",
		"club_id", clubID,
		"clubs_processed", summary.ClubsProcessed,
		"matches_replayed", summary.MatchesReplayed,
		"duration_ms", summary.Duration.Milliseconds(),
	)

	writeSuccess(ctx, w, http.StatusOK, recomputeSummaryDTO{
		ClubsProcessed:  summary.ClubsProcessed,
		MatchesReplayed: summary.MatchesReplayed,
		DurationMs:      summary.Duration.Milliseconds(),
	})
}
