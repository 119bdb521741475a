package postgres

import "time"

type rankingTableModel struct {
	ID            int64     `db:"id"`
	UserID        string    `db:"user_id"`
	ClubID        string    `db:"club_id"`
	GameFormat    string    `db:"game_format"`
	RatingPoints  int       `db:"rating_points"`
	Wins          int       `db:"wins"`
	Losses        int       `db:"losses"`
	Draws         int       `db:"draws"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type rankingInsertModel struct {
	UserID       string `db:"user_id"`
	ClubID       string `db:"club_id"`
	GameFormat   string `db:"game_format"`
	RatingPoints int    `db:"rating_points"`
	Wins         int    `db:"wins"`
	Losses       int    `db:"losses"`
	Draws        int    `db:"draws"`
}
