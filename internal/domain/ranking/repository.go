package ranking

import (
	"context"

	"github.com/matchpoint/club-rank/internal/domain/match"
)

type Repository interface {
	// Get returns the stored record for the key. Absence is not an
	// error: callers fall back to NewRecord.
	Get(ctx context.Context, userID, clubID string, format match.Format) (Record, bool, error)
	// Upsert creates or overwrites the record for its key,
	// last-write-wins. Read-modify-write atomicity is the caller's
	// responsibility.
	Upsert(ctx context.Context, record Record) error
	// ListByClubAndFormat returns the club ranking table for one format,
	// ordered by rating descending.
	ListByClubAndFormat(ctx context.Context, clubID string, format match.Format) ([]Record, error)
	// ListByUser returns all format records for one user within a club.
	ListByUser(ctx context.Context, userID, clubID string) ([]Record, error)
	// DeleteByClub removes every record for a club. Used only by the
	// recompute job before replay.
	DeleteByClub(ctx context.Context, clubID string) error
}
