package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blog-api/models"
)

type TagRepo struct {
	DB *pgxpool.Pool
}

func NewTagRepo(db *pgxpool.Pool) *TagRepo { return &TagRepo{DB: db} }

func (r *TagRepo) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	var t models.Tag
	err := getExecutor(ctx, r.DB).QueryRow(ctx, `SELECT id, name FROM tags WHERE name=$1`, name).Scan(&t.ID, &t.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("find tag", err)
	}
	return &t, nil
}

// Create upserts on the unique name so two resolvers racing on the same new
// tag end up with the same row.
func (r *TagRepo) Create(ctx context.Context, t *models.Tag) error {
	err := getExecutor(ctx, r.DB).QueryRow(ctx,
		`INSERT INTO tags(id, name) VALUES ($1,$2)
		 ON CONFLICT (name) DO UPDATE SET name=EXCLUDED.name
		 RETURNING id`, t.ID, t.Name).Scan(&t.ID)
	return dbError("insert tag", err)
}
