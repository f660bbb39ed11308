package service

import (
	"context"

	"github.com/google/uuid"

	"blog-api/apperror"
	"blog-api/models"
)

// threadBuilder assembles comment views one level deep: each comment with
// its likes and direct replies, each reply with its likes only.
type threadBuilder struct {
	comments CommentRepository
	likes    LikeRepository
}

func (b threadBuilder) build(ctx context.Context, roots []models.Comment) ([]models.CommentView, error) {
	if len(roots) == 0 {
		return []models.CommentView{}, nil
	}
	rootIDs := commentIDs(roots)
	replies, err := b.comments.ListReplies(ctx, rootIDs)
	if err != nil {
		return nil, apperror.Wrap("list replies", err)
	}

	likeIDs := append(rootIDs, commentIDs(replies)...)
	likes, err := b.likes.ListByTargets(ctx, models.TargetComment, likeIDs)
	if err != nil {
		return nil, apperror.Wrap("list comment likes", err)
	}
	likesBy := groupLikes(likes)

	repliesBy := make(map[uuid.UUID][]models.CommentView, len(roots))
	for _, r := range replies {
		parent := *r.ParentCommentID
		repliesBy[parent] = append(repliesBy[parent], models.ToCommentView(r, likesBy[r.ID], nil))
	}

	out := make([]models.CommentView, 0, len(roots))
	for _, c := range roots {
		out = append(out, models.ToCommentView(c, likesBy[c.ID], repliesBy[c.ID]))
	}
	return out, nil
}

func commentIDs(cs []models.Comment) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.ID)
	}
	return ids
}

func groupLikes(likes []models.Like) map[uuid.UUID][]models.Like {
	m := make(map[uuid.UUID][]models.Like)
	for _, l := range likes {
		m[l.Target.ID] = append(m[l.Target.ID], l)
	}
	return m
}
