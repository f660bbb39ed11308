package service

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"blog-api/apperror"
	"blog-api/logger"
	"blog-api/models"
)

type CommentService struct {
	deps    Deps
	threads threadBuilder
}

func NewCommentService(d Deps) *CommentService {
	d = d.withDefaults()
	return &CommentService{deps: d, threads: threadBuilder{comments: d.Comments, likes: d.Likes}}
}

func (s *CommentService) Create(ctx context.Context, req models.CreateCommentReq, authorID string) (*models.CommentView, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	ok, err := s.deps.Posts.Exists(ctx, req.PostID)
	if err != nil {
		return nil, apperror.Wrap("check blog post", err)
	}
	if !ok {
		return nil, apperror.NotFound("blog post", req.PostID)
	}
	if req.ParentCommentID != nil {
		ok, err := s.deps.Comments.ExistsInPost(ctx, *req.ParentCommentID, req.PostID)
		if err != nil {
			return nil, apperror.Wrap("check parent comment", err)
		}
		if !ok {
			return nil, apperror.NotFound("parent comment", *req.ParentCommentID)
		}
	}

	c := &models.Comment{
		ID:              uuid.New(),
		Content:         req.Content,
		UserID:          authorID,
		PostID:          req.PostID,
		ParentCommentID: req.ParentCommentID,
		CreatedAt:       s.deps.Now(),
	}
	if err := s.deps.Comments.Create(ctx, c); err != nil {
		return nil, apperror.Wrap("create comment", err)
	}
	logger.From(ctx).Info("comment created",
		slog.String("comment_id", c.ID.String()), slog.String("post_id", c.PostID.String()))

	invalidatePost(ctx, s.deps.Cache, c.PostID)
	publish(ctx, s.deps.Events, models.SubjectCommentCreated, models.CommentCreated{
		CommentID: c.ID, PostID: c.PostID, ParentCommentID: c.ParentCommentID, UserID: authorID,
	})
	v := models.ToCommentView(*c, nil, nil)
	return &v, nil
}

func (s *CommentService) GetByID(ctx context.Context, id uuid.UUID) (*models.CommentView, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, *c)
}

// ListForPost returns the top-level comments of a post, oldest first. A post
// without comments is reported as NotFound.
func (s *CommentService) ListForPost(ctx context.Context, postID uuid.UUID) ([]models.CommentView, error) {
	ok, err := s.deps.Posts.Exists(ctx, postID)
	if err != nil {
		return nil, apperror.Wrap("check blog post", err)
	}
	if !ok {
		return nil, apperror.NotFound("blog post", postID)
	}
	roots, err := s.deps.Comments.ListTopLevel(ctx, postID)
	if err != nil {
		return nil, apperror.Wrap("list comments", err)
	}
	if len(roots) == 0 {
		return nil, apperror.NotFoundf("no comments for this post")
	}
	return s.threads.build(ctx, roots)
}

// Update applies an RFC 6902 patch to the comment's editable document,
// which only has a content field.
func (s *CommentService) Update(ctx context.Context, id uuid.UUID, patch []byte, userID string) (*models.CommentView, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, apperror.Forbidden()
	}

	req, err := applyCommentPatch(models.UpdateCommentReq{Content: c.Content}, patch)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.deps.Comments.UpdateContent(ctx, id, req.Content); err != nil {
		return nil, apperror.Wrap("update comment", err)
	}
	c.Content = req.Content

	invalidatePost(ctx, s.deps.Cache, c.PostID)
	return s.view(ctx, *c)
}

// Delete removes the comment, every descendant reply and all their likes in
// one transaction.
func (s *CommentService) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return apperror.Forbidden()
	}

	var removed int
	err = s.deps.Tx.WithTx(ctx, func(ctx context.Context) error {
		ids, err := s.deps.Comments.ThreadIDs(ctx, id)
		if err != nil {
			return apperror.Wrap("load comment thread", err)
		}
		if err := s.deps.Likes.DeleteByTargets(ctx, models.TargetComment, ids); err != nil {
			return apperror.Wrap("delete comment likes", err)
		}
		for _, cid := range ids {
			if err := s.deps.Comments.Delete(ctx, cid); err != nil {
				return apperror.Wrap("delete comment", err)
			}
		}
		removed = len(ids)
		return nil
	})
	if err != nil {
		return err
	}
	logger.From(ctx).Info("comment deleted",
		slog.String("comment_id", id.String()), slog.Int("removed", removed))

	invalidatePost(ctx, s.deps.Cache, c.PostID)
	publish(ctx, s.deps.Events, models.SubjectCommentDeleted, models.CommentDeleted{
		CommentID: id, PostID: c.PostID, Removed: removed,
	})
	return nil
}

func (s *CommentService) load(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := s.deps.Comments.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap("get comment", err)
	}
	if c == nil {
		return nil, apperror.NotFound("comment", id)
	}
	return c, nil
}

func (s *CommentService) view(ctx context.Context, c models.Comment) (*models.CommentView, error) {
	views, err := s.threads.build(ctx, []models.Comment{c})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func applyCommentPatch(current models.UpdateCommentReq, patch []byte) (models.UpdateCommentReq, error) {
	ops, err := jsonpatch.DecodePatch(patch)
	if err != nil {
		return current, apperror.InvalidArgument("invalid patch document", err.Error())
	}
	doc, err := json.Marshal(current)
	if err != nil {
		return current, apperror.Wrap("encode comment", err)
	}
	patched, err := ops.Apply(doc)
	if err != nil {
		return current, apperror.InvalidArgument("patch could not be applied", err.Error())
	}

	var out models.UpdateCommentReq
	dec := json.NewDecoder(bytes.NewReader(patched))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return current, apperror.InvalidArgument("patch may only change content", err.Error())
	}
	return out, nil
}
