package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"blog-api/apperror"
	"blog-api/logger"
	"blog-api/models"
)

type LikeService struct {
	deps Deps
}

func NewLikeService(d Deps) *LikeService {
	return &LikeService{deps: d.withDefaults()}
}

// Toggle flips the like state of userID on the target and reports whether
// the target is liked afterwards.
func (s *LikeService) Toggle(ctx context.Context, userID string, req models.ToggleLikeReq) (bool, error) {
	target, ok := models.NewLikeTarget(req.PostID, req.CommentID)
	if !ok {
		return false, apperror.InvalidArgument("must specify exactly one of post or comment")
	}
	postID, err := s.targetPost(ctx, target)
	if err != nil {
		return false, err
	}

	var liked bool
	err = s.deps.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.deps.Likes.LockTarget(ctx, userID, target); err != nil {
			return apperror.Wrap("lock like target", err)
		}
		existing, err := s.deps.Likes.Find(ctx, userID, target)
		if err != nil {
			return apperror.Wrap("find like", err)
		}
		if existing != nil {
			if err := s.deps.Likes.Delete(ctx, existing.ID); err != nil {
				return apperror.Wrap("remove like", err)
			}
			liked = false
			return nil
		}
		l := &models.Like{ID: uuid.New(), UserID: userID, Target: target, CreatedAt: s.deps.Now()}
		if err := s.deps.Likes.Create(ctx, l); err != nil {
			return apperror.Wrap("add like", err)
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	logger.From(ctx).Info("like toggled",
		slog.String("target", target.String()), slog.Bool("liked", liked))

	invalidatePost(ctx, s.deps.Cache, postID)
	publish(ctx, s.deps.Events, models.SubjectLikeToggled, models.LikeToggled{
		UserID: userID, TargetType: target.Kind, TargetID: target.ID, Liked: liked,
	})
	return liked, nil
}

func (s *LikeService) ListForPost(ctx context.Context, postID uuid.UUID) ([]models.LikeView, error) {
	t := models.LikeTarget{Kind: models.TargetPost, ID: postID}
	if _, err := s.targetPost(ctx, t); err != nil {
		return nil, err
	}
	return s.list(ctx, t)
}

func (s *LikeService) ListForComment(ctx context.Context, commentID uuid.UUID) ([]models.LikeView, error) {
	t := models.LikeTarget{Kind: models.TargetComment, ID: commentID}
	if _, err := s.targetPost(ctx, t); err != nil {
		return nil, err
	}
	return s.list(ctx, t)
}

func (s *LikeService) list(ctx context.Context, t models.LikeTarget) ([]models.LikeView, error) {
	likes, err := s.deps.Likes.ListByTargets(ctx, t.Kind, []uuid.UUID{t.ID})
	if err != nil {
		return nil, apperror.Wrap("list likes", err)
	}
	return models.ToLikeViews(likes), nil
}

// targetPost checks that the target exists and returns the post it belongs
// to, which owns the cached view.
func (s *LikeService) targetPost(ctx context.Context, t models.LikeTarget) (uuid.UUID, error) {
	switch t.Kind {
	case models.TargetPost:
		ok, err := s.deps.Posts.Exists(ctx, t.ID)
		if err != nil {
			return uuid.Nil, apperror.Wrap("check blog post", err)
		}
		if !ok {
			return uuid.Nil, apperror.NotFound("blog post", t.ID)
		}
		return t.ID, nil
	default:
		c, err := s.deps.Comments.GetByID(ctx, t.ID)
		if err != nil {
			return uuid.Nil, apperror.Wrap("get comment", err)
		}
		if c == nil {
			return uuid.Nil, apperror.NotFound("comment", t.ID)
		}
		return c.PostID, nil
	}
}
