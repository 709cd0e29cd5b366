// Package comments provides the PostgreSQL-backed comment store.
package comments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/dbx"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByCampground(ctx context.Context, campgroundID string) ([]*models.Comment, error) {
	query := `SELECT id, campground_id, text, author_id, author_username, position, created_at FROM comments
		WHERE campground_id = $1 ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, campgroundID)
	if err != nil {
		return nil, fmt.Errorf("failed to select comments: %w", err)
	}
	defer rows.Close()

	var result []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.CampgroundID, &c.Text, &c.Author.ID, &c.Author.Username, &c.Position, &c.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT id, campground_id, text, author_id, author_username, position, created_at FROM comments
		WHERE id = $1`

	var c models.Comment
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&c.ID, &c.CampgroundID, &c.Text, &c.Author.ID, &c.Author.Username, &c.Position, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &c, nil
}

// Create appends the comment: position comes from an identity column, so
// it is always greater than any existing comment's.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	query :=
		`INSERT INTO comments (campground_id, text, author_id, author_username)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, position, created_at
		 `

	err := r.db.QueryRowContext(ctx, query, c.CampgroundID, c.Text, c.Author.ID, c.Author.Username).
		Scan(&c.ID, &c.Position, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) UpdateText(ctx context.Context, id, text string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE comments SET text = $2 WHERE id = $1`, id, text)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) DeleteByCampground(ctx context.Context, campgroundID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE campground_id = $1`, campgroundID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
