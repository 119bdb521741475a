package postgres

import (
	"database/sql"
	"time"
)

type matchTableModel struct {
	ID               int64          `db:"id"`
	PublicID         string         `db:"public_id"`
	RequestingClubID string         `db:"requesting_club_id"`
	ReceivingClubID  string         `db:"receiving_club_id"`
	GameFormat       string         `db:"game_format"`
	Status           string         `db:"status"`
	Result           sql.NullString `db:"result"`
	RequestingScore  int            `db:"requesting_score"`
	ReceivingScore   int            `db:"receiving_score"`
	CPChange         int            `db:"cp_change"`
	MatchDate        *time.Time     `db:"match_date"`
	Location         string         `db:"location"`
	Notes            string         `db:"notes"`
	CompletedAt      *time.Time     `db:"completed_at"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

type matchInsertModel struct {
	PublicID         string     `db:"public_id"`
	RequestingClubID string     `db:"requesting_club_id"`
	ReceivingClubID  string     `db:"receiving_club_id"`
	GameFormat       string     `db:"game_format"`
	Status           string     `db:"status"`
	MatchDate        *time.Time `db:"match_date"`
	Location         string     `db:"location"`
	Notes            string     `db:"notes"`
}

// matchParticipantTableModel is one roster row. The rating columns stay
// NULL until the match completes; after completion they are the frozen
// audit values.
type matchParticipantTableModel struct {
	ID            int64          `db:"id"`
	MatchPublicID string         `db:"match_public_id"`
	UserID        string         `db:"user_id"`
	Side          string         `db:"side"`
	PartnerID     sql.NullString `db:"partner_id"`
	RatingBefore  sql.NullInt64  `db:"rating_before"`
	RatingAfter   sql.NullInt64  `db:"rating_after"`
	RatingChange  sql.NullInt64  `db:"rating_change"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

type matchParticipantInsertModel struct {
	MatchPublicID string         `db:"match_public_id"`
	UserID        string         `db:"user_id"`
	Side          string         `db:"side"`
	PartnerID     sql.NullString `db:"partner_id"`
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
