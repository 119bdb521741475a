package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/matchpoint/club-rank/internal/domain/club"
	qb "github.com/matchpoint/club-rank/internal/platform/querybuilder"
)

type ClubRepository struct {
	db *sqlx.DB
}

func NewClubRepository(db *sqlx.DB) *ClubRepository {
	return &ClubRepository{db: db}
}

func (r *ClubRepository) List(ctx context.Context) ([]club.Club, error) {
	query, args, err := qb.Select("*").From("clubs").
		OrderBy("ranking_points DESC", "name ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select clubs query: %w", err)
	}

	var rows []clubTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select clubs: %w", err)
	}

	out := make([]club.Club, 0, len(rows))
	for _, row := range rows {
		out = append(out, clubFromRow(row))
	}

	return out, nil
}

func (r *ClubRepository) GetByID(ctx context.Context, clubID string) (club.Club, bool, error) {
	query, args, err := qb.Select("*").From("clubs").
		Where(qb.Eq("public_id", clubID)).
		ToSQL()
	if err != nil {
		return club.Club{}, false, fmt.Errorf("build get club by id query: %w", err)
	}

	var row clubTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Club{}, false, nil
		}
		return club.Club{}, false, fmt.Errorf("get club by id: %w", err)
	}

	return clubFromRow(row), true, nil
}

func (r *ClubRepository) Create(ctx context.Context, c club.Club) error {
	insertModel := clubInsertModel{
		PublicID:      c.ID,
		Name:          c.Name,
		Region:        c.Region,
		Description:   c.Description,
		RankingPoints: c.RankingPoints,
	}
	query, args, err := qb.InsertModel("clubs", insertModel, "")
	if err != nil {
		return fmt.Errorf("build create club query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create club: %w", err)
	}

	return nil
}

func (r *ClubRepository) UpdateRankingPoints(ctx context.Context, clubID string, rankingPoints int) error {
	query, args, err := qb.Update("clubs").
		Set("ranking_points", rankingPoints).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("public_id", clubID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update club power query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update club power: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected update club power: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update club power: club %s not found", clubID)
	}

	return nil
}

func clubFromRow(row clubTableModel) club.Club {
	return club.Club{
		ID:            row.PublicID,
		Name:          row.Name,
		Region:        row.Region,
		Description:   row.Description,
		RankingPoints: row.RankingPoints,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}
