package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/matchpoint/club-rank/internal/domain/match"
	qb "github.com/matchpoint/club-rank/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Create(ctx context.Context, m match.Match) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx create match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	insertModel := matchInsertModel{
		PublicID:         m.ID,
		RequestingClubID: m.RequestingClubID,
		ReceivingClubID:  m.ReceivingClubID,
		GameFormat:       string(m.GameFormat),
		Status:           string(m.Status),
		MatchDate:        m.MatchDate,
		Location:         m.Location,
		Notes:            m.Notes,
	}
	query, args, err := qb.InsertModel("club_matches", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create match query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create match: %w", err)
	}

	for _, p := range m.Participants {
		participantModel := matchParticipantInsertModel{
			MatchPublicID: m.ID,
			UserID:        p.UserID,
			Side:          string(p.Side),
			PartnerID:     nullString(p.PartnerID),
		}
		query, args, err := qb.InsertModel("match_participants", participantModel, "")
		if err != nil {
			return fmt.Errorf("build create match participant query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("create match participant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create match: %w", err)
	}

	return nil
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select("*").From("club_matches").
		Where(qb.Eq("public_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match by id query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match by id: %w", err)
	}

	participants, err := r.participantsByMatch(ctx, []string{matchID})
	if err != nil {
		return match.Match{}, false, err
	}

	return matchFromRow(row, participants[matchID]), true, nil
}

func (r *MatchRepository) ListByClub(ctx context.Context, clubID string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("club_matches").
		Where(qb.Expr("(requesting_club_id = ? OR receiving_club_id = ?)", clubID, clubID)).
		OrderBy("created_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list club matches query: %w", err)
	}

	return r.selectMatches(ctx, query, args)
}

func (r *MatchRepository) ListCompletedByClub(ctx context.Context, clubID string) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("club_matches").
		Where(
			qb.Expr("(requesting_club_id = ? OR receiving_club_id = ?)", clubID, clubID),
			qb.Eq("status", string(match.StatusCompleted)),
		).
		OrderBy("completed_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list completed matches query: %w", err)
	}

	return r.selectMatches(ctx, query, args)
}

func (r *MatchRepository) UpdateStatus(ctx context.Context, matchID string, from, to match.Status) (match.Match, error) {
	query, args, err := qb.Update("club_matches").
		Set("status", string(to)).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", matchID),
			qb.Eq("status", string(from)),
		).
		ToSQL()
	if err != nil {
		return match.Match{}, fmt.Errorf("build update match status query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return match.Match{}, fmt.Errorf("update match status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return match.Match{}, fmt.Errorf("rows affected update match status: %w", err)
	}
	if affected == 0 {
		return match.Match{}, r.staleTransitionError(ctx, matchID)
	}

	m, exists, err := r.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if !exists {
		return match.Match{}, fmt.Errorf("match %s not found after status update", matchID)
	}

	return m, nil
}

func (r *MatchRepository) MarkCompleted(ctx context.Context, matchID string, completion match.Completion) (match.Match, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return match.Match{}, fmt.Errorf("begin tx complete match: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Update("club_matches").
		Set("status", string(match.StatusCompleted)).
		Set("result", string(completion.Result)).
		Set("requesting_score", completion.RequestingScore).
		Set("receiving_score", completion.ReceivingScore).
		Set("cp_change", completion.CPChange).
		Set("completed_at", completion.CompletedAt).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("public_id", matchID),
			qb.In("status", []any{string(match.StatusPending), string(match.StatusAccepted)}),
		).
		ToSQL()
	if err != nil {
		return match.Match{}, fmt.Errorf("build complete match query: %w", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return match.Match{}, fmt.Errorf("complete match: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return match.Match{}, fmt.Errorf("rows affected complete match: %w", err)
	}
	if affected == 0 {
		return match.Match{}, r.staleTransitionError(ctx, matchID)
	}

	for _, d := range completion.Deltas {
		query, args, err := qb.Update("match_participants").
			Set("rating_before", d.RatingBefore).
			Set("rating_after", d.RatingAfter).
			Set("rating_change", d.Delta).
			SetExpr("updated_at", "NOW()").
			Where(
				qb.Eq("match_public_id", matchID),
				qb.Eq("user_id", d.UserID),
			).
			ToSQL()
		if err != nil {
			return match.Match{}, fmt.Errorf("build update participant rating query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return match.Match{}, fmt.Errorf("update participant rating: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return match.Match{}, fmt.Errorf("commit complete match: %w", err)
	}

	m, exists, err := r.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if !exists {
		return match.Match{}, fmt.Errorf("match %s not found after completion", matchID)
	}

	return m, nil
}

func (r *MatchRepository) ListDeltasByMatch(ctx context.Context, matchID string) ([]match.ParticipantDelta, error) {
	query, args, err := qb.Select("*").From("match_participants").
		Where(
			qb.Eq("match_public_id", matchID),
			qb.Expr("rating_change IS NOT NULL"),
		).
		OrderBy("id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list match deltas query: %w", err)
	}

	var rows []matchParticipantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list match deltas: %w", err)
	}

	out := make([]match.ParticipantDelta, 0, len(rows))
	for _, row := range rows {
		out = append(out, deltaFromRow(row))
	}

	return out, nil
}

func (r *MatchRepository) ListDeltasByUser(ctx context.Context, userID, clubID string) ([]match.ParticipantDelta, error) {
	query, args, err := qb.Select(
		"p.id", "p.match_public_id", "p.user_id", "p.side", "p.partner_id",
		"p.rating_before", "p.rating_after", "p.rating_change", "p.created_at", "p.updated_at",
	).
		From("match_participants p JOIN club_matches m ON m.public_id = p.match_public_id").
		Where(
			qb.Eq("p.user_id", userID),
			qb.Expr("p.rating_change IS NOT NULL"),
			qb.Expr("CASE WHEN p.side = 'requesting' THEN m.requesting_club_id ELSE m.receiving_club_id END = ?", clubID),
		).
		OrderBy("m.completed_at DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list user deltas query: %w", err)
	}

	var rows []matchParticipantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list user deltas: %w", err)
	}

	out := make([]match.ParticipantDelta, 0, len(rows))
	for _, row := range rows {
		out = append(out, deltaFromRow(row))
	}

	return out, nil
}

// staleTransitionError maps a failed conditional update to the precise
// sentinel by re-reading the current status.
func (r *MatchRepository) staleTransitionError(ctx context.Context, matchID string) error {
	query, args, err := qb.Select("status").From("club_matches").
		Where(qb.Eq("public_id", matchID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build get match status query: %w", err)
	}

	var status string
	if err := r.db.GetContext(ctx, &status, query, args...); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("match %s not found", matchID)
		}
		return fmt.Errorf("get match status: %w", err)
	}

	if match.Status(status) == match.StatusCompleted {
		return match.ErrAlreadyCompleted
	}
	return match.ErrInvalidState
}

func (r *MatchRepository) selectMatches(ctx context.Context, query string, args []any) ([]match.Match, error) {
	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}
	if len(rows) == 0 {
		return []match.Match{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PublicID)
	}
	participants, err := r.participantsByMatch(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, matchFromRow(row, participants[row.PublicID]))
	}

	return out, nil
}

func (r *MatchRepository) participantsByMatch(ctx context.Context, matchIDs []string) (map[string][]match.Participant, error) {
	ids := make([]any, 0, len(matchIDs))
	for _, id := range matchIDs {
		ids = append(ids, id)
	}

	query, args, err := qb.Select("*").From("match_participants").
		Where(qb.In("match_public_id", ids)).
		OrderBy("id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list participants query: %w", err)
	}

	var rows []matchParticipantTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}

	out := make(map[string][]match.Participant, len(matchIDs))
	for _, row := range rows {
		out[row.MatchPublicID] = append(out[row.MatchPublicID], match.Participant{
			UserID:    row.UserID,
			Side:      match.Side(row.Side),
			PartnerID: row.PartnerID.String,
		})
	}

	return out, nil
}

func matchFromRow(row matchTableModel, participants []match.Participant) match.Match {
	return match.Match{
		ID:               row.PublicID,
		RequestingClubID: row.RequestingClubID,
		ReceivingClubID:  row.ReceivingClubID,
		GameFormat:       match.Format(row.GameFormat),
		Status:           match.Status(row.Status),
		Participants:     participants,
		Result:           match.Result(row.Result.String),
		RequestingScore:  row.RequestingScore,
		ReceivingScore:   row.ReceivingScore,
		CPChange:         row.CPChange,
		MatchDate:        row.MatchDate,
		Location:         row.Location,
		Notes:            row.Notes,
		CompletedAt:      row.CompletedAt,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
}

func deltaFromRow(row matchParticipantTableModel) match.ParticipantDelta {
	return match.ParticipantDelta{
		MatchID:      row.MatchPublicID,
		UserID:       row.UserID,
		Side:         match.Side(row.Side),
		PartnerID:    row.PartnerID.String,
		RatingBefore: int(row.RatingBefore.Int64),
		RatingAfter:  int(row.RatingAfter.Int64),
		Delta:        int(row.RatingChange.Int64),
		CreatedAt:    row.CreatedAt,
	}
}
