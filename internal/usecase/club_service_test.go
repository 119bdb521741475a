package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/matchpoint/club-rank/internal/domain/club"
)

func TestClubService_ListClubStandings_OrdersByPower(t *testing.T) {
	t.Parallel()

	clubRepo := &stubClubRepository{
		byID: map[string]club.Club{
			"club-a": {ID: "club-a", Name: "Alpha", RankingPoints: 980},
			"club-b": {ID: "club-b", Name: "Beta", RankingPoints: 1040},
			"club-c": {ID: "club-c", Name: "Gamma", RankingPoints: 1040},
		},
	}
	service := NewClubService(clubRepo, &seqIDGenerator{})

	standings, err := service.ListClubStandings(context.Background())
	if err != nil {
		t.Fatalf("ListClubStandings error: %v", err)
	}
	if len(standings) != 3 {
		t.Fatalf("expected 3 standings, got %d", len(standings))
	}
	if standings[0].Club.Name != "Beta" || standings[0].Position != 1 {
		t.Fatalf("unexpected rank 1: %+v", standings[0])
	}
	if standings[1].Club.Name != "Gamma" || standings[1].Position != 2 {
		t.Fatalf("ties must break by name: %+v", standings[1])
	}
	if standings[2].Club.Name != "Alpha" || standings[2].Position != 3 {
		t.Fatalf("unexpected rank 3: %+v", standings[2])
	}
}

func TestClubService_CreateClub_SeedsDefaultPower(t *testing.T) {
	t.Parallel()

	clubRepo := &stubClubRepository{byID: map[string]club.Club{}}
	service := NewClubService(clubRepo, &seqIDGenerator{})

	created, err := service.CreateClub(context.Background(), CreateClubInput{Name: "Smash Pointe", Region: "Jakarta"})
	if err != nil {
		t.Fatalf("CreateClub error: %v", err)
	}
	if created.RankingPoints != club.DefaultPower {
		t.Fatalf("expected default power %d, got %d", club.DefaultPower, created.RankingPoints)
	}

	stored, exists, _ := clubRepo.GetByID(context.Background(), created.ID)
	if !exists || stored.Name != "Smash Pointe" {
		t.Fatalf("club was not persisted: %+v", stored)
	}
}

func TestClubService_GetClub_NotFound(t *testing.T) {
	t.Parallel()

	service := NewClubService(twoClubs(), &seqIDGenerator{})

	_, err := service.GetClub(context.Background(), "club-x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
