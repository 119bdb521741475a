package club

import "context"

type Repository interface {
	List(ctx context.Context) ([]Club, error)
	GetByID(ctx context.Context, clubID string) (Club, bool, error)
	Create(ctx context.Context, c Club) error
	UpdateRankingPoints(ctx context.Context, clubID string, rankingPoints int) error
}
