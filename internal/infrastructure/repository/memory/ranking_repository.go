package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/matchpoint/club-rank/internal/domain/match"
	"github.com/matchpoint/club-rank/internal/domain/ranking"
)

type RankingRepository struct {
	mu    sync.RWMutex
	items map[string]ranking.Record
}

func NewRankingRepository() *RankingRepository {
	return &RankingRepository{items: make(map[string]ranking.Record)}
}

func rankingKey(userID, clubID string, format match.Format) string {
	return clubID + "|" + string(format) + "|" + userID
}

func (r *RankingRepository) Get(_ context.Context, userID, clubID string, format match.Format) (ranking.Record, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.items[rankingKey(userID, clubID, format)]
	if !ok {
		return ranking.Record{}, false, nil
	}

	return record, true, nil
}

func (r *RankingRepository) Upsert(_ context.Context, record ranking.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[rankingKey(record.UserID, record.ClubID, record.GameFormat)] = record

	return nil
}

func (r *RankingRepository) ListByClubAndFormat(_ context.Context, clubID string, format match.Format) ([]ranking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ranking.Record, 0)
	for _, record := range r.items {
		if record.ClubID == clubID && record.GameFormat == format {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].UserID < out[j].UserID
	})

	return out, nil
}

func (r *RankingRepository) ListByUser(_ context.Context, userID, clubID string) ([]ranking.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ranking.Record, 0)
	for _, record := range r.items {
		if record.UserID == userID && record.ClubID == clubID {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameFormat < out[j].GameFormat })

	return out, nil
}

func (r *RankingRepository) DeleteByClub(_ context.Context, clubID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, record := range r.items {
		if record.ClubID == clubID {
			delete(r.items, key)
		}
	}

	return nil
}
