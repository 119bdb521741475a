package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/matchpoint/club-rank/internal/domain/club"
	idgen "github.com/matchpoint/club-rank/internal/platform/id"
)

type CreateClubInput struct {
	Name        string
	Region      string
	Description string
}

// ClubStanding is a club with its 1-based position in the power table.
type ClubStanding struct {
	Position int
	Club     club.Club
}

type ClubService struct {
	clubRepo club.Repository
	idGen    idgen.Generator
	now      func() time.Time
}

func NewClubService(clubRepo club.Repository, idGen idgen.Generator) *ClubService {
	return &ClubService{
		clubRepo: clubRepo,
		idGen:    idGen,
		now:      time.Now,
	}
}

func (s *ClubService) GetClub(ctx context.Context, clubID string) (club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "ClubService.GetClub")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return club.Club{}, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}

	c, exists, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		return club.Club{}, fmt.Errorf("get club: %w", err)
	}
	if !exists {
		return club.Club{}, fmt.Errorf("%w: club=%s", ErrNotFound, clubID)
	}

	return c, nil
}

// ListClubStandings returns all clubs ordered by club power descending,
// name ascending on ties.
func (s *ClubService) ListClubStandings(ctx context.Context) ([]ClubStanding, error) {
	ctx, span := startUsecaseSpan(ctx, "ClubService.ListClubStandings")
	defer span.End()

	clubs, err := s.clubRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}

	sort.Slice(clubs, func(i, j int) bool {
		if clubs[i].RankingPoints != clubs[j].RankingPoints {
			return clubs[i].RankingPoints > clubs[j].RankingPoints
		}
		return clubs[i].Name < clubs[j].Name
	})

	standings := make([]ClubStanding, 0, len(clubs))
	for i, c := range clubs {
		standings = append(standings, ClubStanding{Position: i + 1, Club: c})
	}
	return standings, nil
}

func (s *ClubService) CreateClub(ctx context.Context, input CreateClubInput) (club.Club, error) {
	ctx, span := startUsecaseSpan(ctx, "ClubService.CreateClub")
	defer span.End()

	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return club.Club{}, fmt.Errorf("%w: club name is required", ErrInvalidInput)
	}

	clubID, err := s.idGen.NewID()
	if err != nil {
		return club.Club{}, fmt.Errorf("generate club id: %w", err)
	}

	now := s.now().UTC()
	c := club.Club{
		ID:            clubID,
		Name:          input.Name,
		Region:        strings.TrimSpace(input.Region),
		Description:   strings.TrimSpace(input.Description),
		RankingPoints: club.DefaultPower,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.clubRepo.Create(ctx, c); err != nil {
		return club.Club{}, fmt.Errorf("create club: %w", err)
	}

	return c, nil
}
