package match

import (
	"context"
	"time"
)

// Completion carries everything MarkCompleted persists atomically: the
// terminal result, final scores, the requesting club's power delta and
// the per-participant audit rows.
type Completion struct {
	Result          Result
	RequestingScore int
	ReceivingScore  int
	CPChange        int
	Deltas          []ParticipantDelta
	CompletedAt     time.Time
}

type Repository interface {
	Create(ctx context.Context, m Match) error
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	ListByClub(ctx context.Context, clubID string) ([]Match, error)
	// ListCompletedByClub returns completed matches ordered by completion
	// time ascending, for replay.
	ListCompletedByClub(ctx context.Context, clubID string) ([]Match, error)

	// UpdateStatus transitions matchID from one status to another. The
	// transition is conditional on the current status: it fails with
	// ErrInvalidState when the match is not in from (ErrAlreadyCompleted
	// when it is already completed).
	UpdateStatus(ctx context.Context, matchID string, from, to Status) (Match, error)

	// MarkCompleted atomically compares the status against the open
	// states and transitions to completed, persisting the completion
	// payload. Exactly one concurrent caller succeeds; later callers get
	// ErrAlreadyCompleted. A cancelled or rejected match yields
	// ErrInvalidState.
	MarkCompleted(ctx context.Context, matchID string, completion Completion) (Match, error)

	ListDeltasByMatch(ctx context.Context, matchID string) ([]ParticipantDelta, error)
	ListDeltasByUser(ctx context.Context, userID, clubID string) ([]ParticipantDelta, error)
}
