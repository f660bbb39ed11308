package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blog-api/models"
)

type PostRepo struct {
	DB *pgxpool.Pool
}

func NewPostRepo(db *pgxpool.Pool) *PostRepo { return &PostRepo{DB: db} }

const postColumns = `p.id, p.title, p.content, p.category, p.user_id, p.image_urls, p.created_at, p.updated_at`

func (r *PostRepo) Create(ctx context.Context, p *models.Post) error {
	_, err := getExecutor(ctx, r.DB).Exec(ctx,
		`INSERT INTO posts(id, title, content, category, user_id, image_urls, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.Title, p.Content, string(p.Category), p.UserID, p.ImageURLs, p.CreatedAt, p.UpdatedAt,
	)
	return dbError("insert post", err)
}

// Update rewrites the mutable columns; id, user_id and created_at never change.
func (r *PostRepo) Update(ctx context.Context, p *models.Post) error {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	add("title", p.Title)
	add("content", p.Content)
	add("category", string(p.Category))
	add("image_urls", p.ImageURLs)
	add("updated_at", p.UpdatedAt)
	args = append(args, p.ID)

	_, err := getExecutor(ctx, r.DB).Exec(ctx,
		fmt.Sprintf(`UPDATE posts SET %s WHERE id=$%d`, strings.Join(set, ","), len(args)), args...)
	return dbError("update post", err)
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := getExecutor(ctx, r.DB).Exec(ctx, `DELETE FROM posts WHERE id=$1`, id)
	return dbError("delete post", err)
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	exec := getExecutor(ctx, r.DB)
	row := exec.QueryRow(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id=$1`, id)
	p, err := scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("get post", err)
	}
	posts := []models.Post{*p}
	if err := r.loadTags(ctx, exec, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *PostRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := getExecutor(ctx, r.DB).QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id=$1)`, id).Scan(&ok)
	return ok, dbError("check post", err)
}

func (r *PostRepo) List(ctx context.Context, f models.PostFilter) ([]models.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts p`
	args := []any{}
	if f.TitleContains != "" {
		args = append(args, "%"+escapeLike(f.TitleContains)+"%")
		q += fmt.Sprintf(` WHERE p.title ILIKE $%d ESCAPE '\'`, len(args))
	}
	if f.SortByCreated && f.Ascending {
		q += ` ORDER BY p.created_at ASC, p.id`
	} else {
		q += ` ORDER BY p.created_at DESC, p.id`
	}
	return r.query(ctx, q, args...)
}

// ListByCategory counts and pages inside one read-only snapshot so the total
// always matches the rows it was computed from.
func (r *PostRepo) ListByCategory(ctx context.Context, c models.Category, offset, limit int) ([]models.Post, int, error) {
	var (
		posts []models.Post
		total int
	)
	err := runTx(ctx, r.DB, snapshotRead, func(ctx context.Context) error {
		exec := getExecutor(ctx, r.DB)
		if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM posts WHERE category=$1`, string(c)).Scan(&total); err != nil {
			return dbError("count posts", err)
		}
		var err error
		posts, err = r.query(ctx,
			`SELECT `+postColumns+` FROM posts p WHERE p.category=$1
			 ORDER BY p.created_at DESC, p.id OFFSET $2 LIMIT $3`,
			string(c), offset, limit)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *PostRepo) ListByTag(ctx context.Context, tag string) ([]models.Post, error) {
	return r.query(ctx,
		`SELECT `+postColumns+` FROM posts p
		 JOIN post_tags pt ON pt.post_id = p.id
		 JOIN tags t ON t.id = pt.tag_id
		 WHERE t.name=$1
		 ORDER BY p.created_at DESC, p.id`, tag)
}

// ReplaceTags clears the association and re-inserts it in the given order.
func (r *PostRepo) ReplaceTags(ctx context.Context, postID uuid.UUID, tagIDs []uuid.UUID) error {
	exec := getExecutor(ctx, r.DB)
	if _, err := exec.Exec(ctx, `DELETE FROM post_tags WHERE post_id=$1`, postID); err != nil {
		return dbError("clear post tags", err)
	}
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := exec.Exec(ctx,
		`INSERT INTO post_tags(post_id, tag_id, position)
		 SELECT $1, t.id, t.pos FROM unnest($2::uuid[]) WITH ORDINALITY AS t(id, pos)`,
		postID, uuidStrings(tagIDs))
	return dbError("insert post tags", err)
}

func (r *PostRepo) LogActivity(ctx context.Context, action string, postID uuid.UUID) error {
	_, err := getExecutor(ctx, r.DB).Exec(ctx,
		`INSERT INTO activity_logs(action, post_id) VALUES ($1,$2)`, action, postID)
	return dbError("insert activity log", err)
}

func (r *PostRepo) query(ctx context.Context, q string, args ...any) ([]models.Post, error) {
	exec := getExecutor(ctx, r.DB)
	rows, err := exec.Query(ctx, q, args...)
	if err != nil {
		return nil, dbError("list posts", err)
	}
	defer rows.Close()

	out := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, dbError("scan post", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("list posts", err)
	}
	if err := r.loadTags(ctx, exec, out); err != nil {
		return nil, err
	}
	return out, nil
}

// loadTags fills Tags for every post with one query.
func (r *PostRepo) loadTags(ctx context.Context, exec executor, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	idx := make(map[uuid.UUID]int, len(posts))
	ids := make([]uuid.UUID, 0, len(posts))
	for i := range posts {
		posts[i].Tags = []models.Tag{}
		idx[posts[i].ID] = i
		ids = append(ids, posts[i].ID)
	}
	rows, err := exec.Query(ctx,
		`SELECT pt.post_id, t.id, t.name FROM post_tags pt
		 JOIN tags t ON t.id = pt.tag_id
		 WHERE pt.post_id = ANY($1::uuid[])
		 ORDER BY pt.post_id, pt.position`, uuidStrings(ids))
	if err != nil {
		return dbError("load post tags", err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID uuid.UUID
		var t models.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name); err != nil {
			return dbError("scan post tag", err)
		}
		i := idx[postID]
		posts[i].Tags = append(posts[i].Tags, t)
	}
	return dbError("load post tags", rows.Err())
}

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	var category string
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &category, &p.UserID, &p.ImageURLs, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Category = models.Category(category)
	if p.ImageURLs == nil {
		p.ImageURLs = []string{}
	}
	return &p, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
