package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/matchpoint/club-rank/internal/domain/match"
)

func pendingMatch(id string) match.Match {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return match.Match{
		ID:               id,
		RequestingClubID: ClubIDSmashJakarta,
		ReceivingClubID:  ClubIDBandungRacket,
		GameFormat:       match.FormatMensSingles,
		Status:           match.StatusPending,
		Participants: []match.Participant{
			{UserID: "u1", Side: match.SideRequesting},
			{UserID: "u2", Side: match.SideReceiving},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMatchRepository_UpdateStatusIsConditional(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, pendingMatch("m1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	accepted, err := repo.UpdateStatus(ctx, "m1", match.StatusPending, match.StatusAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != match.StatusAccepted {
		t.Fatalf("expected accepted, got %s", accepted.Status)
	}

	if _, err := repo.UpdateStatus(ctx, "m1", match.StatusPending, match.StatusRejected); !errors.Is(err, match.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on stale transition, got %v", err)
	}
}

func TestMatchRepository_MarkCompletedExactlyOnce(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, pendingMatch("m1")); err != nil {
		t.Fatalf("create: %v", err)
	}

	completion := match.Completion{
		Result:      match.ResultRequestingWon,
		CPChange:    16,
		CompletedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Deltas: []match.ParticipantDelta{
			{MatchID: "m1", UserID: "u1", Side: match.SideRequesting, RatingBefore: 1200, RatingAfter: 1216, Delta: 16},
			{MatchID: "m1", UserID: "u2", Side: match.SideReceiving, RatingBefore: 1200, RatingAfter: 1184, Delta: -16},
		},
	}

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		already int
	)
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, err := repo.MarkCompleted(ctx, "m1", completion)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners++
			case errors.Is(err, match.ErrAlreadyCompleted):
				already++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if winners != 1 || already != callers-1 {
		t.Fatalf("expected 1 winner and %d replays, got %d and %d", callers-1, winners, already)
	}

	deltas, err := repo.ListDeltasByMatch(ctx, "m1")
	if err != nil {
		t.Fatalf("list deltas: %v", err)
	}
	if len(deltas) != 2 {
		t.Fatalf("expected 2 deltas, got %d", len(deltas))
	}
}

func TestMatchRepository_MarkCompletedRejectsTerminalStates(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, pendingMatch("m1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.UpdateStatus(ctx, "m1", match.StatusPending, match.StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := repo.MarkCompleted(ctx, "m1", match.Completion{Result: match.ResultDraw, CompletedAt: time.Now()})
	if !errors.Is(err, match.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestMatchRepository_ListCompletedByClubOrdersByCompletion(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, entry := range []struct {
		id          string
		completedAt time.Time
	}{
		{"m-late", base.Add(2 * time.Hour)},
		{"m-early", base},
	} {
		if err := repo.Create(ctx, pendingMatch(entry.id)); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.MarkCompleted(ctx, entry.id, match.Completion{
			Result:      match.ResultDraw,
			CompletedAt: entry.completedAt,
		}); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	completed, err := repo.ListCompletedByClub(ctx, ClubIDSmashJakarta)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(completed))
	}
	if completed[0].ID != "m-early" || completed[1].ID != "m-late" {
		t.Fatalf("wrong replay order: %s then %s", completed[0].ID, completed[1].ID)
	}
}

func TestMatchRepository_ListDeltasByUserScopesToClubSide(t *testing.T) {
	t.Parallel()

	repo := NewMatchRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, pendingMatch("m1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.MarkCompleted(ctx, "m1", match.Completion{
		Result:      match.ResultRequestingWon,
		CompletedAt: time.Now().UTC(),
		Deltas: []match.ParticipantDelta{
			{MatchID: "m1", UserID: "u1", Side: match.SideRequesting, Delta: 16},
			{MatchID: "m1", UserID: "u2", Side: match.SideReceiving, Delta: -16},
		},
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// u2 played on the receiving side, so the rows belong to the
	// receiving club, not the requesting one.
	rows, err := repo.ListDeltasByUser(ctx, "u2", ClubIDSmashJakarta)
	if err != nil {
		t.Fatalf("list deltas: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows for the wrong club, got %d", len(rows))
	}

	rows, err = repo.ListDeltasByUser(ctx, "u2", ClubIDBandungRacket)
	if err != nil {
		t.Fatalf("list deltas: %v", err)
	}
	if len(rows) != 1 || rows[0].Delta != -16 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
