package cache

import (
	"context"

	"github.com/matchpoint/club-rank/internal/domain/club"
	"github.com/matchpoint/club-rank/internal/domain/match"
	"github.com/matchpoint/club-rank/internal/domain/ranking"
	basecache "github.com/matchpoint/club-rank/internal/platform/cache"
)

type ClubRepository struct {
	next  club.Repository
	cache *basecache.Store
}

func NewClubRepository(next club.Repository, cache *basecache.Store) *ClubRepository {
	return &ClubRepository{next: next, cache: cache}
}

func (r *ClubRepository) List(ctx context.Context) ([]club.Club, error) {
	v, err := r.cache.GetOrLoad(ctx, "club:list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]club.Club(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]club.Club)
	return append([]club.Club(nil), items...), nil
}

func (r *ClubRepository) GetByID(ctx context.Context, clubID string) (club.Club, bool, error) {
	v, err := r.cache.GetOrLoad(ctx, clubByIDKey(clubID), func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, clubID)
		if err != nil {
			return nil, err
		}
		return cachedClubByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return club.Club{}, false, err
	}

	cached, _ := v.(cachedClubByID)
	return cached.value, cached.exists, nil
}

func (r *ClubRepository) Create(ctx context.Context, c club.Club) error {
	if err := r.next.Create(ctx, c); err != nil {
		return err
	}
	r.cache.Delete(ctx, "club:list")
	r.cache.Delete(ctx, clubByIDKey(c.ID))
	return nil
}

func (r *ClubRepository) UpdateRankingPoints(ctx context.Context, clubID string, rankingPoints int) error {
	if err := r.next.UpdateRankingPoints(ctx, clubID, rankingPoints); err != nil {
		return err
	}
	r.cache.Delete(ctx, "club:list")
	r.cache.Delete(ctx, clubByIDKey(clubID))
	return nil
}

type cachedClubByID struct {
	value  club.Club
	exists bool
}

func clubByIDKey(clubID string) string {
	return "club:id:" + clubID
}

type RankingRepository struct {
	next  ranking.Repository
	cache *basecache.Store
}

func NewRankingRepository(next ranking.Repository, cache *basecache.Store) *RankingRepository {
	return &RankingRepository{next: next, cache: cache}
}

// Get bypasses the cache: the settlement path reads records under its
// own locks and must always see the latest committed state.
func (r *RankingRepository) Get(ctx context.Context, userID, clubID string, format match.Format) (ranking.Record, bool, error) {
	return r.next.Get(ctx, userID, clubID, format)
}

func (r *RankingRepository) Upsert(ctx context.Context, record ranking.Record) error {
	if err := r.next.Upsert(ctx, record); err != nil {
		return err
	}
	r.cache.Delete(ctx, rankingTableKey(record.ClubID, record.GameFormat))
	r.cache.Delete(ctx, rankingByUserKey(record.UserID, record.ClubID))
	return nil
}

func (r *RankingRepository) ListByClubAndFormat(ctx context.Context, clubID string, format match.Format) ([]ranking.Record, error) {
	v, err := r.cache.GetOrLoad(ctx, rankingTableKey(clubID, format), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByClubAndFormat(ctx, clubID, format)
		if err != nil {
			return nil, err
		}
		return append([]ranking.Record(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]ranking.Record)
	return append([]ranking.Record(nil), items...), nil
}

func (r *RankingRepository) ListByUser(ctx context.Context, userID, clubID string) ([]ranking.Record, error) {
	v, err := r.cache.GetOrLoad(ctx, rankingByUserKey(userID, clubID), func(ctx context.Context) (any, error) {
		items, err := r.next.ListByUser(ctx, userID, clubID)
		if err != nil {
			return nil, err
		}
		return append([]ranking.Record(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]ranking.Record)
	return append([]ranking.Record(nil), items...), nil
}

func (r *RankingRepository) DeleteByClub(ctx context.Context, clubID string) error {
	if err := r.next.DeleteByClub(ctx, clubID); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, "ranking:table:"+clubID+":")
	r.cache.DeletePrefix(ctx, "ranking:user:")
	return nil
}

func rankingTableKey(clubID string, format match.Format) string {
	return "ranking:table:" + clubID + ":" + string(format)
}

func rankingByUserKey(userID, clubID string) string {
	return "ranking:user:" + userID + ":club:" + clubID
}
