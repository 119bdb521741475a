package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/matchpoint/club-rank/internal/usecase"
)

type createClubRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Region      string `json:"region" validate:"max=120"`
	Description string `json:"description" validate:"max=500"`
}

type clubStandingDTO struct {
	Position int     `json:"position"`
	Club     clubDTO `json:"club"`
}

func (h *Handler) ListClubStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClubStandings")
	defer span.End()

	standings, err := h.clubService.ListClubStandings(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list club standings failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]clubStandingDTO, 0, len(standings))
	for _, standing := range standings {
		items = append(items, clubStandingDTO{
			Position: standing.Position,
			Club:     clubToDTO(ctx, standing.Club),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetClub")
	defer span.End()

	clubID := strings.TrimSpace(r.PathValue("clubID"))
	item, err := h.clubService.GetClub(ctx, clubID)
	if err != nil {
		h.logger.WarnContext(ctx, "get club failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, clubToDTO(ctx, item))
}

func (h *Handler) CreateClub(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateClub")
	defer span.End()

	var req createClubRequest
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

	created, err := h.clubService.CreateClub(ctx, usecase.CreateClubInput{
		Name:        req.Name,
		Region:      req.Region,
		Description: req.Description,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create club failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, clubToDTO(ctx, created))
}
