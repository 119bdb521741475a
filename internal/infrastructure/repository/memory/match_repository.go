package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/matchpoint/club-rank/internal/domain/match"
)

type MatchRepository struct {
	mu     sync.RWMutex
	items  map[string]match.Match
	orders []string
	deltas map[string][]match.ParticipantDelta
}

func NewMatchRepository() *MatchRepository {
	return &MatchRepository{
		items:  make(map[string]match.Match),
		deltas: make(map[string][]match.ParticipantDelta),
	}
}

func (r *MatchRepository) Create(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[m.ID]; exists {
		return fmt.Errorf("match %s already exists", m.ID)
	}
	r.items[m.ID] = cloneMatch(m)
	r.orders = append(r.orders, m.ID)

	return nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.items[matchID]
	if !ok {
		return match.Match{}, false, nil
	}

	return cloneMatch(m), true, nil
}

func (r *MatchRepository) ListByClub(_ context.Context, clubID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, id := range r.orders {
		m := r.items[id]
		if m.RequestingClubID == clubID || m.ReceivingClubID == clubID {
			out = append(out, cloneMatch(m))
		}
	}

	return out, nil
}

func (r *MatchRepository) ListCompletedByClub(_ context.Context, clubID string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, id := range r.orders {
		m := r.items[id]
		if m.Status != match.StatusCompleted {
			continue
		}
		if m.RequestingClubID == clubID || m.ReceivingClubID == clubID {
			out = append(out, cloneMatch(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CompletedAt.Before(*out[j].CompletedAt)
	})

	return out, nil
}

func (r *MatchRepository) UpdateStatus(_ context.Context, matchID string, from, to match.Status) (match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return match.Match{}, fmt.Errorf("match %s not found", matchID)
	}
	if m.Status != from {
		if m.Status == match.StatusCompleted {
			return match.Match{}, match.ErrAlreadyCompleted
		}
		return match.Match{}, match.ErrInvalidState
	}

	m.Status = to
	r.items[matchID] = m

	return cloneMatch(m), nil
}

func (r *MatchRepository) MarkCompleted(_ context.Context, matchID string, completion match.Completion) (match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.items[matchID]
	if !ok {
		return match.Match{}, fmt.Errorf("match %s not found", matchID)
	}
	if m.Status == match.StatusCompleted {
		return match.Match{}, match.ErrAlreadyCompleted
	}
	if !m.Status.Open() {
		return match.Match{}, match.ErrInvalidState
	}

	completedAt := completion.CompletedAt
	m.Status = match.StatusCompleted
	m.Result = completion.Result
	m.RequestingScore = completion.RequestingScore
	m.ReceivingScore = completion.ReceivingScore
	m.CPChange = completion.CPChange
	m.CompletedAt = &completedAt
	m.UpdatedAt = completedAt
	r.items[matchID] = m
	r.deltas[matchID] = append([]match.ParticipantDelta(nil), completion.Deltas...)

	return cloneMatch(m), nil
}

func (r *MatchRepository) ListDeltasByMatch(_ context.Context, matchID string) ([]match.ParticipantDelta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]match.ParticipantDelta(nil), r.deltas[matchID]...), nil
}

func (r *MatchRepository) ListDeltasByUser(_ context.Context, userID, clubID string) ([]match.ParticipantDelta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.ParticipantDelta, 0)
	for _, id := range r.orders {
		m := r.items[id]
		for _, d := range r.deltas[id] {
			if d.UserID != userID {
				continue
			}
			sideClub := m.RequestingClubID
			if d.Side == match.SideReceiving {
				sideClub = m.ReceivingClubID
			}
			if sideClub == clubID {
				out = append(out, d)
			}
		}
	}

	return out, nil
}

func cloneMatch(m match.Match) match.Match {
	out := m
	out.Participants = append([]match.Participant(nil), m.Participants...)
	if m.MatchDate != nil {
		matchDate := *m.MatchDate
		out.MatchDate = &matchDate
	}
	if m.CompletedAt != nil {
		completedAt := *m.CompletedAt
		out.CompletedAt = &completedAt
	}
	return out
}
