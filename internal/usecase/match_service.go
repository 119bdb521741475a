package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matchpoint/club-rank/internal/domain/club"
	"github.com/matchpoint/club-rank/internal/domain/match"
	"github.com/matchpoint/club-rank/internal/domain/ranking"
	idgen "github.com/matchpoint/club-rank/internal/platform/id"
	"github.com/matchpoint/club-rank/internal/platform/resilience"
)

type ParticipantInput struct {
	UserID    string
	Side      string
	PartnerID string
}

type CreateMatchInput struct {
	RequestingClubID string
	ReceivingClubID  string
	GameFormat       string
	Participants     []ParticipantInput
	MatchDate        *time.Time
	Location         string
	Notes            string
}

type CompleteMatchInput struct {
	MatchID         string
	Result          string
	RequestingScore int
	ReceivingScore  int
}

// MatchDetail is a match together with its per-participant rating audit
// rows. Deltas is empty until the match completes.
type MatchDetail struct {
	Match  match.Match
	Deltas []match.ParticipantDelta
}

// CompletionResult reports one completion attempt. AlreadyCompleted marks
// the benign replay case: the returned match and deltas describe the
// completion that already happened, not the caller's payload.
type CompletionResult struct {
	Match            match.Match
	Deltas           []match.ParticipantDelta
	AlreadyCompleted bool
}

// MatchService owns the match lifecycle, including the rating settlement
// that runs at completion.
type MatchService struct {
	matchRepo   match.Repository
	clubRepo    club.Repository
	rankingRepo ranking.Repository
	idGen       idgen.Generator
	kFactor     int
	matchLocks  *resilience.KeyedMutex
	ratingLocks *resilience.KeyedMutex
	now         func() time.Time
}

func NewMatchService(
	matchRepo match.Repository,
	clubRepo club.Repository,
	rankingRepo ranking.Repository,
	idGen idgen.Generator,
	kFactor int,
) *MatchService {
	if kFactor <= 0 {
		kFactor = ranking.DefaultKFactor
	}
	return &MatchService{
		matchRepo:   matchRepo,
		clubRepo:    clubRepo,
		rankingRepo: rankingRepo,
		idGen:       idGen,
		kFactor:     kFactor,
		matchLocks:  resilience.NewKeyedMutex(),
		ratingLocks: resilience.NewKeyedMutex(),
		now:         time.Now,
	}
}

func (s *MatchService) CreateMatch(ctx context.Context, input CreateMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.CreateMatch")
	defer span.End()

	input.RequestingClubID = strings.TrimSpace(input.RequestingClubID)
	input.ReceivingClubID = strings.TrimSpace(input.ReceivingClubID)
	if input.RequestingClubID == "" || input.ReceivingClubID == "" {
		return match.Match{}, fmt.Errorf("%w: requesting and receiving club ids are required", ErrInvalidInput)
	}
	if input.RequestingClubID == input.ReceivingClubID {
		return match.Match{}, fmt.Errorf("%w: a club cannot challenge itself", ErrInvalidInput)
	}

	format, err := match.ParseFormat(strings.TrimSpace(input.GameFormat))
	if err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	participants := make([]match.Participant, 0, len(input.Participants))
	for _, p := range input.Participants {
		participants = append(participants, match.Participant{
			UserID:    strings.TrimSpace(p.UserID),
			Side:      match.Side(strings.TrimSpace(p.Side)),
			PartnerID: strings.TrimSpace(p.PartnerID),
		})
	}
	if err := match.ValidateParticipants(format, participants); err != nil {
		return match.Match{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for _, clubID := range []string{input.RequestingClubID, input.ReceivingClubID} {
		if _, exists, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
			return match.Match{}, fmt.Errorf("get club: %w", err)
		} else if !exists {
			return match.Match{}, fmt.Errorf("%w: club=%s", ErrNotFound, clubID)
		}
	}

	matchID, err := s.idGen.NewID()
	if err != nil {
		return match.Match{}, fmt.Errorf("generate match id: %w", err)
	}

	now := s.now().UTC()
	m := match.Match{
		ID:               matchID,
		RequestingClubID: input.RequestingClubID,
		ReceivingClubID:  input.ReceivingClubID,
		GameFormat:       format,
		Status:           match.StatusPending,
		Participants:     participants,
		MatchDate:        input.MatchDate,
		Location:         strings.TrimSpace(input.Location),
		Notes:            strings.TrimSpace(input.Notes),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.matchRepo.Create(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("create match: %w", err)
	}

	return m, nil
}

func (s *MatchService) GetMatch(ctx context.Context, matchID string) (MatchDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.GetMatch")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return MatchDetail{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return MatchDetail{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return MatchDetail{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	detail := MatchDetail{Match: m}
	if m.Status == match.StatusCompleted {
		deltas, err := s.matchRepo.ListDeltasByMatch(ctx, matchID)
		if err != nil {
			return MatchDetail{}, fmt.Errorf("list match deltas: %w", err)
		}
		detail.Deltas = deltas
	}

	return detail, nil
}

func (s *MatchService) ListClubMatches(ctx context.Context, clubID string) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.ListClubMatches")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}

	if _, exists, err := s.clubRepo.GetByID(ctx, clubID); err != nil {
		return nil, fmt.Errorf("get club: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: club=%s", ErrNotFound, clubID)
	}

	items, err := s.matchRepo.ListByClub(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("list club matches: %w", err)
	}

	return items, nil
}

func (s *MatchService) AcceptMatch(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.AcceptMatch")
	defer span.End()

	return s.transition(ctx, matchID, match.StatusAccepted, func(current match.Status) error {
		if current != match.StatusPending {
			return match.ErrInvalidState
		}
		return nil
	})
}

func (s *MatchService) RejectMatch(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.RejectMatch")
	defer span.End()

	return s.transition(ctx, matchID, match.StatusRejected, func(current match.Status) error {
		if current != match.StatusPending {
			return match.ErrInvalidState
		}
		return nil
	})
}

func (s *MatchService) CancelMatch(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.CancelMatch")
	defer span.End()

	return s.transition(ctx, matchID, match.StatusCancelled, func(current match.Status) error {
		if !current.Open() {
			return match.ErrInvalidState
		}
		return nil
	})
}

// transition loads the match under its key lock, checks the current status
// and applies a conditional status update. The repository CAS remains the
// authoritative guard; the lock only keeps the load and the update from
// interleaving with a concurrent completion.
func (s *MatchService) transition(ctx context.Context, matchID string, to match.Status, allowed func(match.Status) error) (match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	s.matchLocks.Lock(matchID)
	defer s.matchLocks.Unlock(matchID)

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if err := allowed(m.Status); err != nil {
		if m.Status == match.StatusCompleted {
			return match.Match{}, fmt.Errorf("%w: match=%s", match.ErrAlreadyCompleted, matchID)
		}
		return match.Match{}, fmt.Errorf("%w: match=%s status=%s", err, matchID, m.Status)
	}

	updated, err := s.matchRepo.UpdateStatus(ctx, matchID, m.Status, to)
	if err != nil {
		return match.Match{}, fmt.Errorf("update match status: %w", err)
	}

	return updated, nil
}

// CompleteMatch settles a match: it loads (or seeds) the rating record of
// every participant, runs the rating computation, persists the new records
// and marks the match completed in one conditional write. Re-completion is
// reported through AlreadyCompleted with the stored outcome, never as a
// second settlement.
func (s *MatchService) CompleteMatch(ctx context.Context, input CompleteMatchInput) (CompletionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "MatchService.CompleteMatch")
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	if input.MatchID == "" {
		return CompletionResult{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Result) == "" {
		return CompletionResult{}, fmt.Errorf("%w: match=%s", match.ErrMissingResult, input.MatchID)
	}
	result, err := match.ParseResult(strings.TrimSpace(input.Result))
	if err != nil {
		return CompletionResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.matchLocks.Lock(input.MatchID)
	defer s.matchLocks.Unlock(input.MatchID)

	m, exists, err := s.matchRepo.GetByID(ctx, input.MatchID)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return CompletionResult{}, fmt.Errorf("%w: match=%s", ErrNotFound, input.MatchID)
	}
	if m.Status == match.StatusCompleted {
		return s.completedResult(ctx, m)
	}
	if !m.Status.Open() {
		return CompletionResult{}, fmt.Errorf("%w: match=%s status=%s", match.ErrInvalidState, m.ID, m.Status)
	}

	requestingParticipants := m.SideParticipants(match.SideRequesting)
	receivingParticipants := m.SideParticipants(match.SideReceiving)

	unlock := s.ratingLocks.LockKeys(append(
		ratingKeys(m.RequestingClubID, m.GameFormat, requestingParticipants),
		ratingKeys(m.ReceivingClubID, m.GameFormat, receivingParticipants)...,
	))
	defer unlock()

	requestingRecords, err := s.loadRecords(ctx, m.RequestingClubID, m.GameFormat, requestingParticipants)
	if err != nil {
		return CompletionResult{}, err
	}
	receivingRecords, err := s.loadRecords(ctx, m.ReceivingClubID, m.GameFormat, receivingParticipants)
	if err != nil {
		return CompletionResult{}, err
	}

	updates, err := ranking.Compute(requestingRecords, receivingRecords, result, s.kFactor)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("compute rating updates: %w", err)
	}

	now := s.now().UTC()
	participants := append(append([]match.Participant(nil), requestingParticipants...), receivingParticipants...)
	deltas := make([]match.ParticipantDelta, 0, len(updates))
	for i, u := range updates {
		record := u.Record
		if record.CreatedAt.IsZero() {
			record.CreatedAt = now
		}
		record.UpdatedAt = now
		if err := s.rankingRepo.Upsert(ctx, record); err != nil {
			return CompletionResult{}, fmt.Errorf("upsert rating record: %w", err)
		}

		deltas = append(deltas, match.ParticipantDelta{
			MatchID:      m.ID,
			UserID:       participants[i].UserID,
			Side:         participants[i].Side,
			PartnerID:    participants[i].PartnerID,
			RatingBefore: u.RatingBefore,
			RatingAfter:  record.Rating,
			Delta:        u.Delta,
			CreatedAt:    now,
		})
	}

	cpChange, err := s.clubPowerDelta(ctx, m, result)
	if err != nil {
		return CompletionResult{}, err
	}

	completed, err := s.matchRepo.MarkCompleted(ctx, m.ID, match.Completion{
		Result:          result,
		RequestingScore: input.RequestingScore,
		ReceivingScore:  input.ReceivingScore,
		CPChange:        cpChange,
		Deltas:          deltas,
		CompletedAt:     now,
	})
	if errors.Is(err, match.ErrAlreadyCompleted) {
		reloaded, exists, getErr := s.matchRepo.GetByID(ctx, m.ID)
		if getErr != nil || !exists {
			return CompletionResult{}, fmt.Errorf("reload completed match: %w", err)
		}
		return s.completedResult(ctx, reloaded)
	}
	if err != nil {
		return CompletionResult{}, fmt.Errorf("mark match completed: %w", err)
	}

	if err := s.applyClubPower(ctx, completed, cpChange); err != nil {
		return CompletionResult{}, err
	}

	return CompletionResult{Match: completed, Deltas: deltas}, nil
}

func (s *MatchService) completedResult(ctx context.Context, m match.Match) (CompletionResult, error) {
	deltas, err := s.matchRepo.ListDeltasByMatch(ctx, m.ID)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("list match deltas: %w", err)
	}
	return CompletionResult{Match: m, Deltas: deltas, AlreadyCompleted: true}, nil
}

func (s *MatchService) loadRecords(ctx context.Context, clubID string, format match.Format, participants []match.Participant) ([]ranking.Record, error) {
	records := make([]ranking.Record, 0, len(participants))
	for _, p := range participants {
		record, exists, err := s.rankingRepo.Get(ctx, p.UserID, clubID, format)
		if err != nil {
			return nil, fmt.Errorf("get rating record: %w", err)
		}
		if !exists {
			record = ranking.NewRecord(p.UserID, clubID, format)
		}
		records = append(records, record)
	}
	return records, nil
}

// clubPowerDelta computes the requesting club's power change for the
// match outcome. Club power uses the same update rule as player ratings.
func (s *MatchService) clubPowerDelta(ctx context.Context, m match.Match, result match.Result) (int, error) {
	requesting, exists, err := s.clubRepo.GetByID(ctx, m.RequestingClubID)
	if err != nil {
		return 0, fmt.Errorf("get requesting club: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: club=%s", ErrNotFound, m.RequestingClubID)
	}
	receiving, exists, err := s.clubRepo.GetByID(ctx, m.ReceivingClubID)
	if err != nil {
		return 0, fmt.Errorf("get receiving club: %w", err)
	}
	if !exists {
		return 0, fmt.Errorf("%w: club=%s", ErrNotFound, m.ReceivingClubID)
	}

	return ranking.SideDelta(requesting.RankingPoints, receiving.RankingPoints, result, s.kFactor), nil
}

func (s *MatchService) applyClubPower(ctx context.Context, m match.Match, cpChange int) error {
	for _, side := range []struct {
		clubID string
		delta  int
	}{
		{m.RequestingClubID, cpChange},
		{m.ReceivingClubID, -cpChange},
	} {
		c, exists, err := s.clubRepo.GetByID(ctx, side.clubID)
		if err != nil {
			return fmt.Errorf("get club: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: club=%s", ErrNotFound, side.clubID)
		}
		power := c.RankingPoints + side.delta
		if power < 0 {
			power = 0
		}
		if err := s.clubRepo.UpdateRankingPoints(ctx, side.clubID, power); err != nil {
			return fmt.Errorf("update club power: %w", err)
		}
	}
	return nil
}

func ratingKeys(clubID string, format match.Format, participants []match.Participant) []string {
	keys := make([]string, 0, len(participants))
	for _, p := range participants {
		keys = append(keys, clubID+"|"+string(format)+"|"+p.UserID)
	}
	return keys
}
