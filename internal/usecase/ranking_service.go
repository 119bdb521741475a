package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/pool"

	"github.com/matchpoint/club-rank/internal/domain/club"
	"github.com/matchpoint/club-rank/internal/domain/match"
	"github.com/matchpoint/club-rank/internal/domain/ranking"
)

// RankedRecord is a rating record with its 1-based position in the club
// table for one format.
type RankedRecord struct {
	Position int
	Record   ranking.Record
}

// UserStats aggregates one user's standing within a club across formats.
type UserStats struct {
	UserID        string
	ClubID        string
	Records       []ranking.Record
	RecentDeltas  []match.ParticipantDelta
	TotalWins     int
	TotalLosses   int
	TotalDraws    int
	BestRating    int
	NetRatingGain int
}

// PartnershipStats summarizes one user's doubles record with a specific
// partner inside a club.
type PartnershipStats struct {
	PartnerID       string
	MatchesPlayed   int
	Wins            int
	Losses          int
	Draws           int
	NetRatingChange int
}

// RecomputeSummary reports one ranking rebuild run.
type RecomputeSummary struct {
	ClubsProcessed  int
	MatchesReplayed int
	Duration        time.Duration
}

// RankingService serves the read side of the rating system and the
// rebuild job that replays match history from scratch.
type RankingService struct {
	rankingRepo ranking.Repository
	matchRepo   match.Repository
	clubRepo    club.Repository
	kFactor     int
	workers     int
	now         func() time.Time
}

func NewRankingService(
	rankingRepo ranking.Repository,
	matchRepo match.Repository,
	clubRepo club.Repository,
	kFactor int,
	workers int,
) *RankingService {
	if kFactor <= 0 {
		kFactor = ranking.DefaultKFactor
	}
	if workers < 1 {
		workers = 1
	}
	return &RankingService{
		rankingRepo: rankingRepo,
		matchRepo:   matchRepo,
		clubRepo:    clubRepo,
		kFactor:     kFactor,
		workers:     workers,
		now:         time.Now,
	}
}

// ListClubRankings returns the club table for one format, best rating
// first, with dense positions starting at 1.
func (s *RankingService) ListClubRankings(ctx context.Context, clubID, gameFormat string) ([]RankedRecord, error) {
	ctx, span := startUsecaseSpan(ctx, "RankingService.ListClubRankings")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}
	format, err := match.ParseFormat(strings.TrimSpace(gameFormat))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if _, exists, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		return nil, fmt.Errorf("get club: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: club=%s", ErrNotFound, clubID)
	}

	records, err := s.rankingRepo.ListByClubAndFormat(ctx, clubID, format)
	if err != nil {
		return nil, fmt.Errorf("list club rankings: %w", err)
	}

	ranked := make([]RankedRecord, 0, len(records))
	for i, record := range records {
		ranked = append(ranked, RankedRecord{Position: i + 1, Record: record})
	}
	return ranked, nil
}

// ListUserRankings returns every format record one user holds in a club.
func (s *RankingService) ListUserRankings(ctx context.Context, clubID, userID string) ([]ranking.Record, error) {
	ctx, span := startUsecaseSpan(ctx, "RankingService.ListUserRankings")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	userID = strings.TrimSpace(userID)
	if clubID == "" || userID == "" {
		return nil, fmt.Errorf("%w: club id and user id are required", ErrInvalidInput)
	}

	records, err := s.rankingRepo.ListByUser(ctx, userID, clubID)
	if err != nil {
		return nil, fmt.Errorf("list user rankings: %w", err)
	}
	return records, nil
}

// GetUserStats fans out the record and delta lookups concurrently and
// folds them into one aggregate.
func (s *RankingService) GetUserStats(ctx context.Context, clubID, userID string) (UserStats, error) {
	ctx, span := startUsecaseSpan(ctx, "RankingService.GetUserStats")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	userID = strings.TrimSpace(userID)
	if clubID == "" || userID == "" {
		return UserStats{}, fmt.Errorf("%w: club id and user id are required", ErrInvalidInput)
	}

	var (
		records []ranking.Record
		deltas  []match.ParticipantDelta
	)
	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(func(ctx context.Context) error {
		out, err := s.rankingRepo.ListByUser(ctx, userID, clubID)
		if err != nil {
			return fmt.Errorf("list user rankings: %w", err)
		}
		records = out
		return nil
	})
	p.Go(func(ctx context.Context) error {
		out, err := s.matchRepo.ListDeltasByUser(ctx, userID, clubID)
		if err != nil {
			return fmt.Errorf("list user deltas: %w", err)
		}
		deltas = out
		return nil
	})
	if err := p.Wait(); err != nil {
		return UserStats{}, err
	}

	stats := UserStats{
		UserID:       userID,
		ClubID:       clubID,
		Records:      records,
		RecentDeltas: deltas,
	}
	for _, record := range records {
		stats.TotalWins += record.Wins
		stats.TotalLosses += record.Losses
		stats.TotalDraws += record.Draws
		if record.Rating > stats.BestRating {
			stats.BestRating = record.Rating
		}
	}
	for _, d := range deltas {
		stats.NetRatingGain += d.Delta
	}

	return stats, nil
}

// ListPartnerships groups the user's doubles history by partner. Match
// outcomes are resolved by loading each referenced match; the lookups run
// on a bounded concurrent pool.
func (s *RankingService) ListPartnerships(ctx context.Context, clubID, userID string) ([]PartnershipStats, error) {
	ctx, span := startUsecaseSpan(ctx, "RankingService.ListPartnerships")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	userID = strings.TrimSpace(userID)
	if clubID == "" || userID == "" {
		return nil, fmt.Errorf("%w: club id and user id are required", ErrInvalidInput)
	}

	deltas, err := s.matchRepo.ListDeltasByUser(ctx, userID, clubID)
	if err != nil {
		return nil, fmt.Errorf("list user deltas: %w", err)
	}

	partnered := make([]match.ParticipantDelta, 0, len(deltas))
	for _, d := range deltas {
		if d.PartnerID != "" {
			partnered = append(partnered, d)
		}
	}
	if len(partnered) == 0 {
		return []PartnershipStats{}, nil
	}

	matches := make(map[string]match.Match, len(partnered))
	var mu sync.Mutex
	p := pool.New().WithContext(ctx).WithMaxGoroutines(s.workers).WithCancelOnError()
	for _, d := range partnered {
		matchID := d.MatchID
		p.Go(func(ctx context.Context) error {
			m, exists, err := s.matchRepo.GetByID(ctx, matchID)
			if err != nil {
				return fmt.Errorf("get match %s: %w", matchID, err)
			}
			if !exists {
				return nil
			}
			mu.Lock()
			matches[matchID] = m
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	byPartner := make(map[string]*PartnershipStats)
	for _, d := range partnered {
		stats, ok := byPartner[d.PartnerID]
		if !ok {
			stats = &PartnershipStats{PartnerID: d.PartnerID}
			byPartner[d.PartnerID] = stats
		}
		stats.MatchesPlayed++
		stats.NetRatingChange += d.Delta

		m, ok := matches[d.MatchID]
		if !ok {
			continue
		}
		switch {
		case m.Result == match.ResultDraw:
			stats.Draws++
		case m.Result == match.ResultRequestingWon && d.Side == match.SideRequesting,
			m.Result == match.ResultReceivingWon && d.Side == match.SideReceiving:
			stats.Wins++
		default:
			stats.Losses++
		}
	}

	out := make([]PartnershipStats, 0, len(byPartner))
	for _, stats := range byPartner {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MatchesPlayed != out[j].MatchesPlayed {
			return out[i].MatchesPlayed > out[j].MatchesPlayed
		}
		return out[i].PartnerID < out[j].PartnerID
	})
	return out, nil
}

// RecomputeClubRankings drops a club's rating records and rebuilds them
// by replaying its completed matches in completion order. Participant
// audit rows are historical and left untouched.
func (s *RankingService) RecomputeClubRankings(ctx context.Context, clubID string) (RecomputeSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "RankingService.RecomputeClubRankings")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return RecomputeSummary{}, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}
	if _, exists, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		return RecomputeSummary{}, fmt.Errorf("get club: %w", err)
	} else if !exists {
		return RecomputeSummary{}, fmt.Errorf("%w: club=%s", ErrNotFound, clubID)
	}

	started := s.now()
	replayed, err := s.replayClub(ctx, clubID)
	if err != nil {
		return RecomputeSummary{}, err
	}

	return RecomputeSummary{
		ClubsProcessed:  1,
		MatchesReplayed: replayed,
		Duration:        s.now().Sub(started),
	}, nil
}

// RecomputeAllRankings rebuilds every club's tables. Clubs are
// independent, so they are replayed in parallel on a worker pool; within
// one club the replay stays strictly ordered.
func (s *RankingService) RecomputeAllRankings(ctx context.Context) (RecomputeSummary, error) {
	ctx, span := startUsecaseSpan(ctx, "RankingService.RecomputeAllRankings")
	defer span.End()

	clubs, err := s.clubRepo.List(ctx)
	if err != nil {
		return RecomputeSummary{}, fmt.Errorf("list clubs: %w", err)
	}

	workerPool, err := ants.NewPool(s.workers)
	if err != nil {
		return RecomputeSummary{}, fmt.Errorf("create recompute pool: %w", err)
	}
	defer workerPool.Release()

	started := s.now()
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		replayed int
		firstErr error
	)
	for _, c := range clubs {
		clubID := c.ID
		wg.Add(1)
		if err := workerPool.Submit(func() {
			defer wg.Done()
			n, err := s.replayClub(ctx, clubID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("recompute club %s: %w", clubID, err)
				return
			}
			replayed += n
		}); err != nil {
			wg.Done()
			return RecomputeSummary{}, fmt.Errorf("submit recompute task: %w", err)
		}
	}
	wg.Wait()
	if firstErr != nil {
		return RecomputeSummary{}, firstErr
	}

	return RecomputeSummary{
		ClubsProcessed:  len(clubs),
		MatchesReplayed: replayed,
		Duration:        s.now().Sub(started),
	}, nil
}

func (s *RankingService) replayClub(ctx context.Context, clubID string) (int, error) {
	if err := s.rankingRepo.DeleteByClub(ctx, clubID); err != nil {
		return 0, fmt.Errorf("delete club rankings: %w", err)
	}

	completed, err := s.matchRepo.ListCompletedByClub(ctx, clubID)
	if err != nil {
		return 0, fmt.Errorf("list completed matches: %w", err)
	}

	replayed := 0
	for _, m := range completed {
		// Inter-club matches surface in both clubs' replays; only the
		// side belonging to this club is rebuilt here. The opposing side
		// is reconstructed from the frozen audit rows so the replay sees
		// the same opponent ratings the original settlement saw.
		deltas, err := s.matchRepo.ListDeltasByMatch(ctx, m.ID)
		if err != nil {
			return 0, fmt.Errorf("list deltas for match %s: %w", m.ID, err)
		}
		beforeByUser := make(map[string]int, len(deltas))
		for _, d := range deltas {
			beforeByUser[d.UserID] = d.RatingBefore
		}

		requestingRecords, err := s.replaySideRecords(ctx, clubID, m.RequestingClubID, m.GameFormat, m.SideParticipants(match.SideRequesting), beforeByUser)
		if err != nil {
			return 0, err
		}
		receivingRecords, err := s.replaySideRecords(ctx, clubID, m.ReceivingClubID, m.GameFormat, m.SideParticipants(match.SideReceiving), beforeByUser)
		if err != nil {
			return 0, err
		}

		updates, err := ranking.Compute(requestingRecords, receivingRecords, m.Result, s.kFactor)
		if err != nil {
			return 0, fmt.Errorf("recompute match %s: %w", m.ID, err)
		}

		now := s.now().UTC()
		for _, u := range updates {
			if u.Record.ClubID != clubID {
				continue
			}
			record := u.Record
			if record.CreatedAt.IsZero() {
				record.CreatedAt = now
			}
			record.UpdatedAt = now
			if err := s.rankingRepo.Upsert(ctx, record); err != nil {
				return 0, fmt.Errorf("upsert rating record: %w", err)
			}
		}
		replayed++
	}

	return replayed, nil
}

// replaySideRecords yields the engine input for one side during replay.
// Participants of the club being rebuilt carry their running rebuilt
// record; everyone else carries the rating frozen in the audit row.
func (s *RankingService) replaySideRecords(ctx context.Context, replayClubID, sideClubID string, format match.Format, participants []match.Participant, beforeByUser map[string]int) ([]ranking.Record, error) {
	records := make([]ranking.Record, 0, len(participants))
	for _, p := range participants {
		if sideClubID != replayClubID {
			record := ranking.NewRecord(p.UserID, sideClubID, format)
			if before, ok := beforeByUser[p.UserID]; ok {
				record.Rating = before
			}
			records = append(records, record)
			continue
		}

		record, exists, err := s.rankingRepo.Get(ctx, p.UserID, sideClubID, format)
		if err != nil {
			return nil, fmt.Errorf("get rating record: %w", err)
		}
		if !exists {
			record = ranking.NewRecord(p.UserID, sideClubID, format)
		}
		records = append(records, record)
	}
	return records, nil
}
