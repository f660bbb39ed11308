package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"blog-api/models"
)

type LikeRepo struct {
	DB *pgxpool.Pool
}

func NewLikeRepo(db *pgxpool.Pool) *LikeRepo { return &LikeRepo{DB: db} }

// targetColumn is safe to splice into SQL: it only ever returns constants.
func targetColumn(kind models.TargetKind) string {
	if kind == models.TargetComment {
		return "comment_id"
	}
	return "post_id"
}

// LockTarget takes a transaction-scoped advisory lock on (user, target). It
// must run inside WithTx.
func (r *LikeRepo) LockTarget(ctx context.Context, userID string, t models.LikeTarget) error {
	_, err := getExecutor(ctx, r.DB).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, "like:"+userID+":"+t.String())
	return dbError("lock like target", err)
}

func (r *LikeRepo) Find(ctx context.Context, userID string, t models.LikeTarget) (*models.Like, error) {
	l := models.Like{UserID: userID, Target: t}
	err := getExecutor(ctx, r.DB).QueryRow(ctx,
		`SELECT id, created_at FROM likes WHERE user_id=$1 AND `+targetColumn(t.Kind)+`=$2`,
		userID, t.ID).Scan(&l.ID, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dbError("find like", err)
	}
	return &l, nil
}

func (r *LikeRepo) Create(ctx context.Context, l *models.Like) error {
	_, err := getExecutor(ctx, r.DB).Exec(ctx,
		`INSERT INTO likes(id, user_id, post_id, comment_id, created_at) VALUES ($1,$2,$3,$4,$5)`,
		l.ID, l.UserID, l.Target.PostID(), l.Target.CommentID(), l.CreatedAt)
	return dbError("insert like", err)
}

func (r *LikeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := getExecutor(ctx, r.DB).Exec(ctx, `DELETE FROM likes WHERE id=$1`, id)
	return dbError("delete like", err)
}

func (r *LikeRepo) ListByTargets(ctx context.Context, kind models.TargetKind, ids []uuid.UUID) ([]models.Like, error) {
	if len(ids) == 0 {
		return []models.Like{}, nil
	}
	col := targetColumn(kind)
	rows, err := getExecutor(ctx, r.DB).Query(ctx,
		`SELECT id, user_id, `+col+`, created_at FROM likes
		 WHERE `+col+` = ANY($1::uuid[])
		 ORDER BY created_at, id`, uuidStrings(ids))
	if err != nil {
		return nil, dbError("list likes", err)
	}
	defer rows.Close()
	out := []models.Like{}
	for rows.Next() {
		l := models.Like{Target: models.LikeTarget{Kind: kind}}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Target.ID, &l.CreatedAt); err != nil {
			return nil, dbError("scan like", err)
		}
		out = append(out, l)
	}
	return out, dbError("list likes", rows.Err())
}

func (r *LikeRepo) DeleteByTargets(ctx context.Context, kind models.TargetKind, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := getExecutor(ctx, r.DB).Exec(ctx,
		`DELETE FROM likes WHERE `+targetColumn(kind)+` = ANY($1::uuid[])`, uuidStrings(ids))
	return dbError("delete likes", err)
}
