package ranking

import (
	"time"

	"github.com/matchpoint/club-rank/internal/domain/match"
)

// DefaultRating is the virgin rating for a (user, club, format) key with
// no prior record.
const DefaultRating = 1200

// Record is one player's rating state for a (user, club, format) key.
type Record struct {
	UserID     string
	ClubID     string
	GameFormat match.Format
	Rating     int
	Wins       int
	Losses     int
	Draws      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewRecord returns the virgin record for a key.
func NewRecord(userID, clubID string, format match.Format) Record {
	return Record{
		UserID:     userID,
		ClubID:     clubID,
		GameFormat: format,
		Rating:     DefaultRating,
	}
}

func (r Record) GamesPlayed() int {
	return r.Wins + r.Losses + r.Draws
}

// WinRate is the win percentage over games played, 0 when none.
func (r Record) WinRate() float64 {
	played := r.GamesPlayed()
	if played == 0 {
		return 0
	}
	return float64(r.Wins) / float64(played) * 100
}
