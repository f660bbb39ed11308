package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blog-api/models"
)

type CommentRepo struct {
	DB *pgxpool.Pool
}

func NewCommentRepo(db *pgxpool.Pool) *CommentRepo { return &CommentRepo{DB: db} }

const commentColumns = `id, content, user_id, post_id, parent_comment_id, created_at`

func (r *CommentRepo) Create(ctx context.Context, c *models.Comment) error {
	_, err := getExecutor(ctx, r.DB).Exec(ctx,
		`INSERT INTO comments(`+commentColumns+`) VALUES ($1,$2,$3,$4,$5,$6)`,
		c.ID, c.Content, c.UserID, c.PostID, c.ParentCommentID, c.CreatedAt)
	return dbError("insert comment", err)
}

func (r *CommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	row := getExecutor(ctx, r.DB).QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id=$1`, id)
	c, err := scanComment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("get comment", err)
	}
	return c, nil
}

func (r *CommentRepo) ExistsInPost(ctx context.Context, id, postID uuid.UUID) (bool, error) {
	var ok bool
	err := getExecutor(ctx, r.DB).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM comments WHERE id=$1 AND post_id=$2)`, id, postID).Scan(&ok)
	return ok, dbError("check comment", err)
}

func (r *CommentRepo) ListTopLevel(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	return r.query(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE post_id=$1 AND parent_comment_id IS NULL
		 ORDER BY created_at, id`, postID)
}

func (r *CommentRepo) ListReplies(ctx context.Context, parentIDs []uuid.UUID) ([]models.Comment, error) {
	if len(parentIDs) == 0 {
		return []models.Comment{}, nil
	}
	return r.query(ctx,
		`SELECT `+commentColumns+` FROM comments
		 WHERE parent_comment_id = ANY($1::uuid[])
		 ORDER BY created_at, id`, uuidStrings(parentIDs))
}

func (r *CommentRepo) UpdateContent(ctx context.Context, id uuid.UUID, content string) error {
	_, err := getExecutor(ctx, r.DB).Exec(ctx, `UPDATE comments SET content=$1 WHERE id=$2`, content, id)
	return dbError("update comment", err)
}

// ThreadIDs walks the reply tree below id; the deepest replies come first so
// they can be deleted without tripping the parent foreign key.
func (r *CommentRepo) ThreadIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	return r.ids(ctx,
		`WITH RECURSIVE thread(id, depth) AS (
			SELECT id, 0 FROM comments WHERE id=$1
			UNION ALL
			SELECT c.id, t.depth + 1 FROM comments c JOIN thread t ON c.parent_comment_id = t.id
		)
		SELECT id FROM thread ORDER BY depth DESC`, id)
}

func (r *CommentRepo) IDsByPost(ctx context.Context, postID uuid.UUID) ([]uuid.UUID, error) {
	return r.ids(ctx,
		`WITH RECURSIVE thread(id, depth) AS (
			SELECT id, 0 FROM comments WHERE post_id=$1 AND parent_comment_id IS NULL
			UNION ALL
			SELECT c.id, t.depth + 1 FROM comments c JOIN thread t ON c.parent_comment_id = t.id
		)
		SELECT id FROM thread ORDER BY depth DESC`, postID)
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := getExecutor(ctx, r.DB).Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	return dbError("delete comment", err)
}

func (r *CommentRepo) query(ctx context.Context, q string, args ...any) ([]models.Comment, error) {
	rows, err := getExecutor(ctx, r.DB).Query(ctx, q, args...)
	if err != nil {
		return nil, dbError("list comments", err)
	}
	defer rows.Close()
	out := []models.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, dbError("scan comment", err)
		}
		out = append(out, *c)
	}
	return out, dbError("list comments", rows.Err())
}

func (r *CommentRepo) ids(ctx context.Context, q string, arg uuid.UUID) ([]uuid.UUID, error) {
	rows, err := getExecutor(ctx, r.DB).Query(ctx, q, arg)
	if err != nil {
		return nil, dbError("walk comment thread", err)
	}
	defer rows.Close()
	out := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, dbError("scan comment id", err)
		}
		out = append(out, id)
	}
	return out, dbError("walk comment thread", rows.Err())
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.Content, &c.UserID, &c.PostID, &c.ParentCommentID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
