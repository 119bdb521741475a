package memory

import (
	"time"

	"github.com/matchpoint/club-rank/internal/domain/club"
)

const (
	ClubIDSmashJakarta  = "club-smash-jakarta"
	ClubIDBandungRacket = "club-bandung-racket"
	ClubIDSurabayaAce   = "club-surabaya-ace"
)

func SeedClubs() []club.Club {
	createdAt := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	return []club.Club{
		{
			ID:            ClubIDSmashJakarta,
			Name:          "Smash Jakarta",
			Region:        "Jakarta",
			Description:   "Weekend badminton club at GOR Senayan",
			RankingPoints: club.DefaultPower,
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		},
		{
			ID:            ClubIDBandungRacket,
			Name:          "Bandung Racket Society",
			Region:        "Bandung",
			Description:   "Competitive club with weekly inter-club ladders",
			RankingPoints: club.DefaultPower,
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		},
		{
			ID:            ClubIDSurabayaAce,
			Name:          "Surabaya Ace",
			Region:        "Surabaya",
			Description:   "Open-format club, singles and doubles",
			RankingPoints: club.DefaultPower,
			CreatedAt:     createdAt,
			UpdatedAt:     createdAt,
		},
	}
}
