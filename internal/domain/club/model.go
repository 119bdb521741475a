package club

import "time"

// DefaultPower is the club-power starting value for a new club.
const DefaultPower = 1000

// Club is the club context ratings are scoped to. RankingPoints is the
// club-power rating updated on inter-club match completion.
type Club struct {
	ID            string
	Name          string
	Region        string
	Description   string
	RankingPoints int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
