package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS posts(
		id UUID PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		content TEXT NOT NULL,
		category TEXT NOT NULL,
		user_id TEXT NOT NULL,
		image_urls TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_category_created ON posts(category, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created ON posts(created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS tags(
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS post_tags(
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		position INT NOT NULL,
		PRIMARY KEY(post_id, tag_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_post_tags_tag ON post_tags(tag_id)`,
	`CREATE TABLE IF NOT EXISTS comments(
		id UUID PRIMARY KEY,
		content VARCHAR(500) NOT NULL,
		user_id TEXT NOT NULL,
		post_id UUID NOT NULL REFERENCES posts(id) ON DELETE RESTRICT,
		parent_comment_id UUID REFERENCES comments(id) ON DELETE RESTRICT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments(parent_comment_id)`,
	`CREATE TABLE IF NOT EXISTS likes(
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		post_id UUID REFERENCES posts(id) ON DELETE RESTRICT,
		comment_id UUID REFERENCES comments(id) ON DELETE RESTRICT,
		created_at TIMESTAMPTZ NOT NULL,
		CHECK ((post_id IS NULL) <> (comment_id IS NULL))
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_likes_user_post ON likes(user_id, post_id) WHERE post_id IS NOT NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_likes_user_comment ON likes(user_id, comment_id) WHERE comment_id IS NOT NULL`,
	`CREATE TABLE IF NOT EXISTS activity_logs(
		id BIGSERIAL PRIMARY KEY,
		action TEXT NOT NULL,
		post_id UUID NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
