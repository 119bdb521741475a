package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/matchpoint/club-rank/internal/usecase"
)

type createMatchParticipantRequest struct {
	UserID    string `json:"userId" validate:"required"`
	Side      string `json:"side" validate:"required,oneof=requesting receiving"`
	PartnerID string `json:"partnerId"`
}

type createMatchRequest struct {
	ReceivingClubID string                          `json:"receivingClubId" validate:"required"`
	GameFormat      string                          `json:"gameFormat" validate:"required"`
	Participants    []createMatchParticipantRequest `json:"participants" validate:"required,min=2,max=4,dive"`
	MatchDate       string                          `json:"matchDate"`
	Location        string                          `json:"location" validate:"max=200"`
	Notes           string                          `json:"notes" validate:"max=1000"`
}

type completeMatchRequest struct {
	Result          string `json:"result" validate:"omitempty,oneof=requesting_won receiving_won draw"`
	RequestingScore int    `json:"requestingScore" validate:"min=0"`
	ReceivingScore  int    `json:"receivingScore" validate:"min=0"`
}

func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateMatch")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))

	var req createMatchRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	var matchDate *time.Time
	if strings.TrimSpace(req.MatchDate) != "" {
		parsed, err := time.Parse(time.RFC3339, req.MatchDate)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: matchDate must be RFC3339: %v", usecase.ErrInvalidInput, err))
			return
		}
		matchDate = &parsed
	}

	participants := make([]usecase.ParticipantInput, 0, len(req.Participants))
	for _, p := range req.Participants {
		participants = append(participants, usecase.ParticipantInput{
			UserID:    p.UserID,
			Side:      p.Side,
			PartnerID: p.PartnerID,
		})
	}

	created, err := h.matchService.CreateMatch(ctx, usecase.CreateMatchInput{
		RequestingClubID: clubID,
		ReceivingClubID:  req.ReceivingClubID,
		GameFormat:       req.GameFormat,
		Participants:     participants,
		MatchDate:        matchDate,
		Location:         req.Location,
		Notes:            req.Notes,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create match failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchToDTO(ctx, created))
}

func (h *Handler) ListClubMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClubMatches")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))
	matches, err := h.matchService.ListClubMatches(ctx, clubID)
	if err != nil {
		h.logger.WarnContext(ctx, "list club matches failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchDTO, 0, len(matches))
	for _, m := range matches {
		items = append(items, matchToDTO(ctx, m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	detail, err := h.matchService.GetMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchDetailDTO{
		Match:  matchToDTO(ctx, detail.Match),
		Deltas: deltasToDTO(ctx, detail.Deltas),
	})
}

func (h *Handler) AcceptMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	updated, err := h.matchService.AcceptMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "accept match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, updated))
}

func (h *Handler) RejectMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	updated, err := h.matchService.RejectMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "reject match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, updated))
}

func (h *Handler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	updated, err := h.matchService.CancelMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchToDTO(ctx, updated))
}

func (h *Handler) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CompleteMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))

	var req completeMatchRequest
	decoder := jsoniter.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.matchService.CompleteMatch(ctx, usecase.CompleteMatchInput{
		MatchID:         matchID,
		Result:          req.Result,
		RequestingScore: req.RequestingScore,
		ReceivingScore:  req.ReceivingScore,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "complete match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	// A replayed completion answers 200 with the stored outcome instead
	// of failing, so retried webhooks and double-taps stay harmless.
	writeSuccess(ctx, w, http.StatusOK, completionDTO{
		Match:            matchToDTO(ctx, result.Match),
		Deltas:           deltasToDTO(ctx, result.Deltas),
		AlreadyCompleted: result.AlreadyCompleted,
	})
}
