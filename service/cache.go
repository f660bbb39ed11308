package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"blog-api/logger"
	"blog-api/models"
)

var errCacheMiss = errors.New("cache miss")

func postKey(id uuid.UUID) string { return "post:" + id.String() }

// genKey holds a token that changes on every invalidation of the post view.
func genKey(id uuid.UUID) string { return "post:" + id.String() + ":gen" }

func postGeneration(ctx context.Context, c Cache, id uuid.UUID) string {
	gen, err := c.Get(ctx, genKey(id))
	if err != nil {
		return ""
	}
	return gen
}

func cachedPost(ctx context.Context, c Cache, id uuid.UUID) (*models.PostView, bool) {
	val, err := c.Get(ctx, postKey(id))
	if err != nil || val == "" {
		return nil, false
	}
	var v models.PostView
	if err := json.Unmarshal([]byte(val), &v); err != nil {
		return nil, false
	}
	return &v, true
}

// storePost fills the cache unless the post was invalidated after gen was
// read, in which case v may predate that write.
func storePost(ctx context.Context, c Cache, v models.PostView, gen string) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.SetIfEqual(ctx, postKey(v.ID), string(b), genKey(v.ID), gen); err != nil {
		logger.From(ctx).Warn("cache set failed", slog.String("post_id", v.ID.String()), slog.Any("error", err))
	}
}

// invalidatePost drops the cached post view; called after any write that
// changes the post, its comments or its likes.
func invalidatePost(ctx context.Context, c Cache, id uuid.UUID) {
	if err := c.Set(ctx, genKey(id), uuid.NewString()); err != nil {
		logger.From(ctx).Warn("cache generation bump failed", slog.String("post_id", id.String()), slog.Any("error", err))
	}
	if err := c.Del(ctx, postKey(id)); err != nil {
		logger.From(ctx).Warn("cache invalidation failed", slog.String("post_id", id.String()), slog.Any("error", err))
	}
}

func publish(ctx context.Context, p Publisher, subject string, event any) {
	if err := p.Publish(ctx, subject, event); err != nil {
		logger.From(ctx).Warn("event publish failed", slog.String("subject", subject), slog.Any("error", err))
	}
}
