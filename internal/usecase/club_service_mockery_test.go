package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/matchpoint/club-rank/internal/domain/club"
	clubmock "github.com/matchpoint/club-rank/internal/mocks/domain/club"
	"github.com/matchpoint/club-rank/internal/platform/id"
)

func TestClubService_GetClub_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clubRepo := clubmock.NewRepository(t)
	service := NewClubService(clubRepo, id.NewRandomGenerator())

	expected := club.Club{ID: "club-smash-jakarta", Name: "Smash Jakarta", RankingPoints: 1000}

	clubRepo.
		On("GetByID", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), "club-smash-jakarta").
		Return(expected, true, nil).
		Once()

	got, err := service.GetClub(ctx, "club-smash-jakarta")
	if err != nil {
		t.Fatalf("get club: %v", err)
	}
	if got.Name != expected.Name {
		t.Fatalf("unexpected club name: got=%s want=%s", got.Name, expected.Name)
	}
}

func TestClubService_ListClubStandings_RepoErrorUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clubRepo := clubmock.NewRepository(t)
	service := NewClubService(clubRepo, id.NewRandomGenerator())

	repoErr := errors.New("connection reset")
	clubRepo.
		On("List", mock.Anything).
		Return(nil, repoErr).
		Once()

	if _, err := service.ListClubStandings(ctx); !errors.Is(err, repoErr) {
		t.Fatalf("expected repository error, got %v", err)
	}
}
