// Package campgrounds provides the PostgreSQL-backed listing store.
package campgrounds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/yelpcamp/internal/common"
	"github.com/dmitrijs2005/yelpcamp/internal/dbx"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
)

const selectCampground = `SELECT id, name, price, description, location, lat, lng, image_url, image_id,
		 author_id, author_username, created_at FROM campgrounds`

// PostgresRepository implements campground storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List uses strpos rather than LIKE or a regex so that the search text has no
// metacharacters at all.
func (r *PostgresRepository) List(ctx context.Context, search string) ([]*models.Campground, error) {
	if search == "" {
		return r.query(ctx, selectCampground+` ORDER BY created_at DESC, id`)
	}
	return r.query(ctx, selectCampground+` WHERE strpos(lower(name), lower($1)) > 0 ORDER BY created_at DESC, id`, search)
}

func (r *PostgresRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Campground, error) {
	return r.query(ctx, selectCampground+` WHERE author_id = $1 ORDER BY created_at DESC, id`, authorID)
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Campground, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select campgrounds: %w", err)
	}
	defer rows.Close()

	var result []*models.Campground
	for rows.Next() {
		c, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Campground, error) {
	var c models.Campground
	err := s.Scan(&c.ID, &c.Name, &c.Price, &c.Description, &c.Location, &c.Lat, &c.Lng,
		&c.ImageURL, &c.ImageID, &c.Author.ID, &c.Author.Username, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Campground, error) {
	c, err := scan(r.db.QueryRowContext(ctx, selectCampground+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Campground) (*models.Campground, error) {
	query :=
		`INSERT INTO campgrounds (name, price, description, location, lat, lng, image_url, image_id, author_id, author_username)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.Name, c.Price, c.Description, c.Location, c.Lat, c.Lng, c.ImageURL, c.ImageID, c.Author.ID, c.Author.Username,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

// Update rewrites the mutable fields. The author snapshot and creation time
// are never touched.
func (r *PostgresRepository) Update(ctx context.Context, c *models.Campground) error {
	query :=
		`UPDATE campgrounds SET name = $2, price = $3, description = $4, location = $5, lat = $6, lng = $7,
		 image_url = $8, image_id = $9
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.Name, c.Price, c.Description, c.Location, c.Lat, c.Lng, c.ImageURL, c.ImageID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campgrounds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
