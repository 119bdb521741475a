package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/matchpoint/club-rank/internal/domain/match"
	"github.com/matchpoint/club-rank/internal/domain/ranking"
)

func TestRankingService_ListClubRankings_AssignsPositions(t *testing.T) {
	t.Parallel()

	clubRepo := twoClubs()
	rankingRepo := newStubRankingRepository()
	for _, seed := range []struct {
		userID string
		rating int
	}{
		{"u1", 1300},
		{"u2", 1450},
		{"u3", 1200},
	} {
		record := ranking.NewRecord(seed.userID, "club-a", match.FormatMensSingles)
		record.Rating = seed.rating
		if err := rankingRepo.Upsert(context.Background(), record); err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}

	service := NewRankingService(rankingRepo, newStubMatchRepository(), clubRepo, ranking.DefaultKFactor, 2)

	ranked, err := service.ListClubRankings(context.Background(), "club-a", "mens_singles")
	if err != nil {
		t.Fatalf("ListClubRankings error: %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(ranked))
	}
	if ranked[0].Record.UserID != "u2" || ranked[0].Position != 1 {
		t.Fatalf("unexpected rank 1 row: %+v", ranked[0])
	}
	if ranked[1].Record.UserID != "u1" || ranked[1].Position != 2 {
		t.Fatalf("unexpected rank 2 row: %+v", ranked[1])
	}
	if ranked[2].Record.UserID != "u3" || ranked[2].Position != 3 {
		t.Fatalf("unexpected rank 3 row: %+v", ranked[2])
	}
}

func TestRankingService_ListClubRankings_UnknownFormat(t *testing.T) {
	t.Parallel()

	service := NewRankingService(newStubRankingRepository(), newStubMatchRepository(), twoClubs(), ranking.DefaultKFactor, 2)

	_, err := service.ListClubRankings(context.Background(), "club-a", "triples")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRankingService_GetUserStats_Aggregates(t *testing.T) {
	t.Parallel()

	clubRepo := twoClubs()
	matchService := newTestMatchService(clubRepo)
	ctx := context.Background()

	// u1 wins a singles match and draws a doubles match, both in club-a.
	singles := createSinglesMatch(t, matchService)
	if _, err := matchService.CompleteMatch(ctx, CompleteMatchInput{MatchID: singles.ID, Result: "requesting_won"}); err != nil {
		t.Fatalf("complete singles: %v", err)
	}

	doubles, err := matchService.CreateMatch(ctx, CreateMatchInput{
		RequestingClubID: "club-a",
		ReceivingClubID:  "club-b",
		GameFormat:       "mixed_doubles",
		Participants: []ParticipantInput{
			{UserID: "u1", Side: "requesting", PartnerID: "u3"},
			{UserID: "u3", Side: "requesting", PartnerID: "u1"},
			{UserID: "u4", Side: "receiving", PartnerID: "u5"},
			{UserID: "u5", Side: "receiving", PartnerID: "u4"},
		},
	})
	if err != nil {
		t.Fatalf("create doubles: %v", err)
	}
	if _, err := matchService.CompleteMatch(ctx, CompleteMatchInput{MatchID: doubles.ID, Result: "draw"}); err != nil {
		t.Fatalf("complete doubles: %v", err)
	}

	service := NewRankingService(
		matchService.rankingRepo,
		matchService.matchRepo,
		clubRepo,
		ranking.DefaultKFactor,
		2,
	)

	stats, err := service.GetUserStats(ctx, "club-a", "u1")
	if err != nil {
		t.Fatalf("GetUserStats error: %v", err)
	}
	if len(stats.Records) != 2 {
		t.Fatalf("expected 2 format records, got %d", len(stats.Records))
	}
	if stats.TotalWins != 1 || stats.TotalDraws != 1 || stats.TotalLosses != 0 {
		t.Fatalf("unexpected totals: %+v", stats)
	}
	if stats.BestRating != 1216 {
		t.Fatalf("expected best rating 1216, got %d", stats.BestRating)
	}
	if stats.NetRatingGain != 16 {
		t.Fatalf("expected net gain 16, got %d", stats.NetRatingGain)
	}
	if len(stats.RecentDeltas) != 2 {
		t.Fatalf("expected 2 delta rows, got %d", len(stats.RecentDeltas))
	}
}

func TestRankingService_ListPartnerships_GroupsByPartner(t *testing.T) {
	t.Parallel()

	clubRepo := twoClubs()
	matchService := newTestMatchService(clubRepo)
	ctx := context.Background()

	playDoubles := func(result string) {
		m, err := matchService.CreateMatch(ctx, CreateMatchInput{
			RequestingClubID: "club-a",
			ReceivingClubID:  "club-b",
			GameFormat:       "mens_doubles",
			Participants: []ParticipantInput{
				{UserID: "u1", Side: "requesting", PartnerID: "u3"},
				{UserID: "u3", Side: "requesting", PartnerID: "u1"},
				{UserID: "u4", Side: "receiving", PartnerID: "u5"},
				{UserID: "u5", Side: "receiving", PartnerID: "u4"},
			},
		})
		if err != nil {
			t.Fatalf("create doubles: %v", err)
		}
		if _, err := matchService.CompleteMatch(ctx, CompleteMatchInput{MatchID: m.ID, Result: result}); err != nil {
			t.Fatalf("complete doubles: %v", err)
		}
	}
	playDoubles("requesting_won")
	playDoubles("receiving_won")
	playDoubles("draw")

	service := NewRankingService(
		matchService.rankingRepo,
		matchService.matchRepo,
		clubRepo,
		ranking.DefaultKFactor,
		2,
	)

	partnerships, err := service.ListPartnerships(ctx, "club-a", "u1")
	if err != nil {
		t.Fatalf("ListPartnerships error: %v", err)
	}
	if len(partnerships) != 1 {
		t.Fatalf("expected 1 partnership, got %d", len(partnerships))
	}
	p := partnerships[0]
	if p.PartnerID != "u3" || p.MatchesPlayed != 3 {
		t.Fatalf("unexpected partnership: %+v", p)
	}
	if p.Wins != 1 || p.Losses != 1 || p.Draws != 1 {
		t.Fatalf("unexpected partnership record: %+v", p)
	}
}

func TestRankingService_ListPartnerships_EmptyForSinglesOnlyUser(t *testing.T) {
	t.Parallel()

	clubRepo := twoClubs()
	matchService := newTestMatchService(clubRepo)
	ctx := context.Background()

	m := createSinglesMatch(t, matchService)
	if _, err := matchService.CompleteMatch(ctx, CompleteMatchInput{MatchID: m.ID, Result: "draw"}); err != nil {
		t.Fatalf("complete singles: %v", err)
	}

	service := NewRankingService(matchService.rankingRepo, matchService.matchRepo, clubRepo, ranking.DefaultKFactor, 2)

	partnerships, err := service.ListPartnerships(ctx, "club-a", "u1")
	if err != nil {
		t.Fatalf("ListPartnerships error: %v", err)
	}
	if len(partnerships) != 0 {
		t.Fatalf("expected no partnerships, got %d", len(partnerships))
	}
}

func TestRankingService_RecomputeClubRankings_RebuildsFromHistory(t *testing.T) {
	t.Parallel()

	clubRepo := twoClubs()
	matchService := newTestMatchService(clubRepo)
	ctx := context.Background()

	m := createSinglesMatch(t, matchService)
	if _, err := matchService.CompleteMatch(ctx, CompleteMatchInput{MatchID: m.ID, Result: "requesting_won"}); err != nil {
		t.Fatalf("complete match: %v", err)
	}

	rankingRepo := matchService.rankingRepo.(*stubRankingRepository)

	// Corrupt the stored record; the rebuild must restore the settled value.
	corrupted := ranking.NewRecord("u1", "club-a", match.FormatMensSingles)
	corrupted.Rating = 9999
	corrupted.Wins = 42
	if err := rankingRepo.Upsert(ctx, corrupted); err != nil {
		t.Fatalf("corrupt record: %v", err)
	}

	service := NewRankingService(rankingRepo, matchService.matchRepo, clubRepo, ranking.DefaultKFactor, 2)

	summary, err := service.RecomputeClubRankings(ctx, "club-a")
	if err != nil {
		t.Fatalf("RecomputeClubRankings error: %v", err)
	}
	if summary.ClubsProcessed != 1 || summary.MatchesReplayed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	record, ok, _ := rankingRepo.Get(ctx, "u1", "club-a", match.FormatMensSingles)
	if !ok || record.Rating != 1216 || record.Wins != 1 {
		t.Fatalf("rebuild did not restore the record: %+v", record)
	}

	// The opponent club's record is out of scope for a club-a rebuild.
	opponent, ok, _ := rankingRepo.Get(ctx, "u2", "club-b", match.FormatMensSingles)
	if !ok || opponent.Rating != 1184 {
		t.Fatalf("opponent record must be untouched: %+v", opponent)
	}
}

func TestRankingService_RecomputeAllRankings_CoversEveryClub(t *testing.T) {
	t.Parallel()

	clubRepo := twoClubs()
	matchService := newTestMatchService(clubRepo)
	ctx := context.Background()

	m := createSinglesMatch(t, matchService)
	if _, err := matchService.CompleteMatch(ctx, CompleteMatchInput{MatchID: m.ID, Result: "receiving_won"}); err != nil {
		t.Fatalf("complete match: %v", err)
	}

	service := NewRankingService(matchService.rankingRepo, matchService.matchRepo, clubRepo, ranking.DefaultKFactor, 2)

	summary, err := service.RecomputeAllRankings(ctx)
	if err != nil {
		t.Fatalf("RecomputeAllRankings error: %v", err)
	}
	if summary.ClubsProcessed != 2 {
		t.Fatalf("expected 2 clubs processed, got %d", summary.ClubsProcessed)
	}
	// The shared match replays once per club.
	if summary.MatchesReplayed != 2 {
		t.Fatalf("expected 2 replays, got %d", summary.MatchesReplayed)
	}

	rankingRepo := matchService.rankingRepo.(*stubRankingRepository)
	winner, _, _ := rankingRepo.Get(ctx, "u2", "club-b", match.FormatMensSingles)
	if winner.Rating != 1216 || winner.Wins != 1 {
		t.Fatalf("unexpected winner record after rebuild: %+v", winner)
	}
	loser, _, _ := rankingRepo.Get(ctx, "u1", "club-a", match.FormatMensSingles)
	if loser.Rating != 1184 || loser.Losses != 1 {
		t.Fatalf("unexpected loser record after rebuild: %+v", loser)
	}
}
