package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/matchpoint/club-rank/internal/domain/ranking"
	"github.com/matchpoint/club-rank/internal/usecase"
)

type rankingRecordDTO struct {
	UserID     string `json:"userId"`
	ClubID     string `json:"clubId"`
	GameFormat string `json:"gameFormat"`
	Rating     int    `json:"rating"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	Draws      int    `json:"draws"`
}

type rankedRecordDTO struct {
	Position int              `json:"position"`
	Record   rankingRecordDTO `json:"record"`
}

type userStatsDTO struct {
	UserID        string                `json:"userId"`
	ClubID        string                `json:"clubId"`
	Records       []rankingRecordDTO    `json:"records"`
	RecentDeltas  []participantDeltaDTO `json:"recentDeltas"`
	TotalWins     int                   `json:"totalWins"`
	TotalLosses   int                   `json:"totalLosses"`
	TotalDraws    int                   `json:"totalDraws"`
	BestRating    int                   `json:"bestRating"`
	NetRatingGain int                   `json:"netRatingGain"`
}

type partnershipDTO struct {
	PartnerID       string `json:"partnerId"`
	MatchesPlayed   int    `json:"matchesPlayed"`
	Wins            int    `json:"wins"`
	Losses          int    `json:"losses"`
	Draws           int    `json:"draws"`
	NetRatingChange int    `json:"netRatingChange"`
}

func (h *Handler) ListClubRankings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClubRankings")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))
	gameFormat := strings.TrimSpace(r.PathValue("gameFormat"))

	ranked, err := h.rankingService.ListClubRankings(ctx, clubID, gameFormat)
	if err != nil {
		h.logger.WarnContext(ctx, "list club rankings failed", "club_id", clubID, "game_format", gameFormat, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]rankedRecordDTO, 0, len(ranked))
	for _, entry := range ranked {
		items = append(items, rankedRecordDTO{
			Position: entry.Position,
			Record:   recordToDTO(ctx, entry.Record),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListUserRankings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUserRankings")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	records, err := h.rankingService.ListUserRankings(ctx, clubID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "list user rankings failed", "club_id", clubID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]rankingRecordDTO, 0, len(records))
	for _, record := range records {
		items = append(items, recordToDTO(ctx, record))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetUserStats")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	stats, err := h.rankingService.GetUserStats(ctx, clubID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "get user stats failed", "club_id", clubID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userStatsToDTO(ctx, stats))
}

func (h *Handler) ListPartnerships(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPartnerships")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))
	userID := strings.TrimSpace(r.PathValue("userID"))

	partnerships, err := h.rankingService.ListPartnerships(ctx, clubID, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "list partnerships failed", "club_id", clubID, "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]partnershipDTO, 0, len(partnerships))
	for _, p := range partnerships {
		items = append(items, partnershipDTO{
			PartnerID:       p.PartnerID,
			MatchesPlayed:   p.MatchesPlayed,
			Wins:            p.Wins,
			Losses:          p.Losses,
			Draws:           p.Draws,
			NetRatingChange: p.NetRatingChange,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func recordToDTO(ctx context.Context, v ranking.Record) rankingRecordDTO {
	ctx, span := startSpan(ctx, "httpapi.recordToDTO")
	defer span.End()

	return rankingRecordDTO{
		UserID:     v.UserID,
		ClubID:     v.ClubID,
		GameFormat: string(v.GameFormat),
		Rating:     v.Rating,
		Wins:       v.Wins,
		Losses:     v.Losses,
		Draws:      v.Draws,
	}
}

func userStatsToDTO(ctx context.Context, v usecase.UserStats) userStatsDTO {
	ctx, span := startSpan(ctx, "httpapi.userStatsToDTO")
	defer span.End()

	records := make([]rankingRecordDTO, 0, len(v.Records))
	for _, record := range v.Records {
		records = append(records, recordToDTO(ctx, record))
	}

	return userStatsDTO{
		UserID:        v.UserID,
		ClubID:        v.ClubID,
		Records:       records,
		RecentDeltas:  deltasToDTO(ctx, v.RecentDeltas),
		TotalWins:     v.TotalWins,
		TotalLosses:   v.TotalLosses,
		TotalDraws:    v.TotalDraws,
		BestRating:    v.BestRating,
		NetRatingGain: v.NetRatingGain,
	}
}
