package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/matchpoint/club-rank/internal/domain/match"
	"github.com/matchpoint/club-rank/internal/domain/ranking"
	qb "github.com/matchpoint/club-rank/internal/platform/querybuilder"
)

type RankingRepository struct {
	db *sqlx.DB
}

func NewRankingRepository(db *sqlx.DB) *RankingRepository {
	return &RankingRepository{db: db}
}

func (r *RankingRepository) Get(ctx context.Context, userID, clubID string, format match.Format) (ranking.Record, bool, error) {
	query, args, err := qb.Select("*").From("user_ranking_points").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("club_id", clubID),
			qb.Eq("game_format", string(format)),
		).
		ToSQL()
	if err != nil {
		return ranking.Record{}, false, fmt.Errorf("build get rating record query: %w", err)
	}

	var row rankingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return ranking.Record{}, false, nil
		}
		return ranking.Record{}, false, fmt.Errorf("get rating record: %w", err)
	}

	return recordFromRow(row), true, nil
}

func (r *RankingRepository) Upsert(ctx context.Context, record ranking.Record) error {
	insertModel := rankingInsertModel{
		UserID:       record.UserID,
		ClubID:       record.ClubID,
		GameFormat:   string(record.GameFormat),
		RatingPoints: record.Rating,
		Wins:         record.Wins,
		Losses:       record.Losses,
		Draws:        record.Draws,
	}
	query, args, err := qb.InsertModel("user_ranking_points", insertModel, `ON CONFLICT (user_id, club_id, game_format)
DO UPDATE SET
    rating_points = EXCLUDED.rating_points,
    wins = EXCLUDED.wins,
    losses = EXCLUDED.losses,
    draws = EXCLUDED.draws,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert rating record query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert rating record: %w", err)
	}

	return nil
}

func (r *RankingRepository) ListByClubAndFormat(ctx context.Context, clubID string, format match.Format) ([]ranking.Record, error) {
	query, args, err := qb.Select("*").From("user_ranking_points").
		Where(
			qb.Eq("club_id", clubID),
			qb.Eq("game_format", string(format)),
		).
		OrderBy("rating_points DESC", "user_id ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list club rankings query: %w", err)
	}

	var rows []rankingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list club rankings: %w", err)
	}

	out := make([]ranking.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, recordFromRow(row))
	}

	return out, nil
}

func (r *RankingRepository) ListByUser(ctx context.Context, userID, clubID string) ([]ranking.Record, error) {
	query, args, err := qb.Select("*").From("user_ranking_points").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("club_id", clubID),
		).
		OrderBy("game_format ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list user rankings query: %w", err)
	}

	var rows []rankingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list user rankings: %w", err)
	}

	out := make([]ranking.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, recordFromRow(row))
	}

	return out, nil
}

func (r *RankingRepository) DeleteByClub(ctx context.Context, clubID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_ranking_points WHERE club_id = $1", clubID); err != nil {
		return fmt.Errorf("delete club rankings: %w", err)
	}

	return nil
}

func recordFromRow(row rankingTableModel) ranking.Record {
	return ranking.Record{
		UserID:     row.UserID,
		ClubID:     row.ClubID,
		GameFormat: match.Format(row.GameFormat),
		Rating:     row.RatingPoints,
		Wins:       row.Wins,
		Losses:     row.Losses,
		Draws:      row.Draws,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
}
