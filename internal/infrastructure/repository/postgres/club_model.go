package postgres

import "time"

type clubTableModel struct {
	ID            int64     `db:"id"`
	PublicID      string    `db:"public_id"`
	Name          string    `db:"name"`
	Region        string    `db:"region"`
	Description   string    `db:"description"`
	RankingPoints int       `db:"ranking_points"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type clubInsertModel struct {
	PublicID      string `db:"public_id"`
	Name          string `db:"name"`
	Region        string `db:"region"`
	Description   string `db:"description"`
	RankingPoints int    `db:"ranking_points"`
}
