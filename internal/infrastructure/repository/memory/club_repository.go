package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matchpoint/club-rank/internal/domain/club"
)

type ClubRepository struct {
	mu     sync.RWMutex
	items  map[string]club.Club
	orders []string
}

func NewClubRepository(clubs []club.Club) *ClubRepository {
	items := make(map[string]club.Club, len(clubs))
	orders := make([]string, 0, len(clubs))

	for _, c := range clubs {
		items[c.ID] = c
		orders = append(orders, c.ID)
	}

	return &ClubRepository{
		items:  items,
		orders: orders,
	}
}

func (r *ClubRepository) List(_ context.Context) ([]club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]club.Club, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}

	return out, nil
}

func (r *ClubRepository) GetByID(_ context.Context, clubID string) (club.Club, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[clubID]
	if !ok {
		return club.Club{}, false, nil
	}

	return c, true, nil
}

func (r *ClubRepository) Create(_ context.Context, c club.Club) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[c.ID]; exists {
		return fmt.Errorf("club %s already exists", c.ID)
	}
	r.items[c.ID] = c
	r.orders = append(r.orders, c.ID)

	return nil
}

func (r *ClubRepository) UpdateRankingPoints(_ context.Context, clubID string, rankingPoints int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[clubID]
	if !ok {
		return fmt.Errorf("club %s not found", clubID)
	}
	c.RankingPoints = rankingPoints
	c.UpdatedAt = time.Now().UTC()
	r.items[clubID] = c

	return nil
}
