package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/matchpoint/club-rank/internal/domain/club"
	"github.com/matchpoint/club-rank/internal/domain/match"
	"github.com/matchpoint/club-rank/internal/platform/logging"
	"github.com/matchpoint/club-rank/internal/usecase"
)

type Handler struct {
	matchService   *usecase.MatchService
	rankingService *usecase.RankingService
	clubService    *usecase.ClubService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	rankingService *usecase.RankingService,
	clubService *usecase.ClubService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService:   matchService,
		rankingService: rankingService,
		clubService:    clubService,
		logger:         logger,
		validator:      validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type participantDTO struct {
	UserID    string `json:"userId"`
	Side      string `json:"side"`
	PartnerID string `json:"partnerId,omitempty"`
}

type matchDTO struct {
	ID               string           `json:"id"`
	RequestingClubID string           `json:"requestingClubId"`
	ReceivingClubID  string           `json:"receivingClubId"`
	GameFormat       string           `json:"gameFormat"`
	Status           string           `json:"status"`
	Participants     []participantDTO `json:"participants"`
	Result           string           `json:"result,omitempty"`
	RequestingScore  int              `json:"requestingScore"`
	ReceivingScore   int              `json:"receivingScore"`
	CPChange         int              `json:"cpChange"`
	MatchDate        string           `json:"matchDate,omitempty"`
	Location         string           `json:"location,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CompletedAtUTC   string           `json:"completedAtUtc,omitempty"`
	CreatedAtUTC     string           `json:"createdAtUtc"`
	UpdatedAtUTC     string           `json:"updatedAtUtc"`
}

type participantDeltaDTO struct {
	MatchID      string `json:"matchId"`
	UserID       string `json:"userId"`
	Side         string `json:"side"`
	PartnerID    string `json:"partnerId,omitempty"`
	RatingBefore int    `json:"ratingBefore"`
	RatingAfter  int    `json:"ratingAfter"`
	Delta        int    `json:"delta"`
}

type matchDetailDTO struct {
	Match  matchDTO              `json:"match"`
	Deltas []participantDeltaDTO `json:"deltas"`
}

type completionDTO struct {
	Match            matchDTO              `json:"match"`
	Deltas           []participantDeltaDTO `json:"deltas"`
	AlreadyCompleted bool                  `json:"alreadyCompleted"`
}

type clubDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Region        string `json:"region,omitempty"`
	Description   string `json:"description,omitempty"`
	RankingPoints int    `json:"rankingPoints"`
	CreatedAtUTC  string `json:"createdAtUtc"`
	UpdatedAtUTC  string `json:"updatedAtUtc"`
}

func matchToDTO(ctx context.Context, v match.Match) matchDTO {
	ctx, span := startSpan(ctx, "httpapi.matchToDTO")
	defer span.End()

	participants := make([]participantDTO, 0, len(v.Participants))
	for _, p := range v.Participants {
		participants = append(participants, participantDTO{
			UserID:    p.UserID,
			Side:      string(p.Side),
			PartnerID: p.PartnerID,
		})
	}

	out := matchDTO{
		ID:               v.ID,
		RequestingClubID: v.RequestingClubID,
		ReceivingClubID:  v.ReceivingClubID,
		GameFormat:       string(v.GameFormat),
		Status:           string(v.Status),
		Participants:     participants,
		Result:           string(v.Result),
		RequestingScore:  v.RequestingScore,
		ReceivingScore:   v.ReceivingScore,
		CPChange:         v.CPChange,
		Location:         v.Location,
		Notes:            v.Notes,
		CreatedAtUTC:     v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:     v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.MatchDate != nil {
		out.MatchDate = v.MatchDate.UTC().Format(time.RFC3339)
	}
	if v.CompletedAt != nil {
		out.CompletedAtUTC = v.CompletedAt.UTC().Format(time.RFC3339)
	}

	return out
}

func deltasToDTO(ctx context.Context, deltas []match.ParticipantDelta) []participantDeltaDTO {
	ctx, span := startSpan(ctx, "httpapi.deltasToDTO")
	defer span.End()

	out := make([]participantDeltaDTO, 0, len(deltas))
	for _, d := range deltas {
		out = append(out, participantDeltaDTO{
			MatchID:      d.MatchID,
			UserID:       d.UserID,
			Side:         string(d.Side),
			PartnerID:    d.PartnerID,
			RatingBefore: d.RatingBefore,
			RatingAfter:  d.RatingAfter,
			Delta:        d.Delta,
		})
	}

	return out
}

func clubToDTO(ctx context.Context, v club.Club) clubDTO {
	ctx, span := startSpan(ctx, "httpapi.clubToDTO")
	defer span.End()

	return clubDTO{
		ID:            v.ID,
		Name:          v.Name,
		Region:        v.Region,
		Description:   v.Description,
		RankingPoints: v.RankingPoints,
		CreatedAtUTC:  v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAtUTC:  v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
