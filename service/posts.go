package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"blog-api/apperror"
	"blog-api/imageurl"
	"blog-api/logger"
	"blog-api/models"
)

const (
	defaultPageSize   = 10
	maxPageSize       = 100
	defaultSearchSize = 10
)

type PostService struct {
	deps    Deps
	tags    *TagResolver
	threads threadBuilder
}

func NewPostService(d Deps) *PostService {
	d = d.withDefaults()
	return &PostService{
		deps:    d,
		tags:    NewTagResolver(d.Tags),
		threads: threadBuilder{comments: d.Comments, likes: d.Likes},
	}
}

func (s *PostService) Create(ctx context.Context, req models.CreatePostReq, authorID string) (*models.PostView, error) {
	images, err := checkPostReq(req)
	if err != nil {
		return nil, err
	}
	now := s.deps.Now()
	p := &models.Post{
		ID:        uuid.New(),
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		UserID:    authorID,
		ImageURLs: images,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.deps.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.deps.Posts.Create(ctx, p); err != nil {
			return apperror.Wrap("create blog post", err)
		}
		if err := s.attachTags(ctx, p, req.Tags); err != nil {
			return err
		}
		return apperror.Wrap("log activity", s.deps.Posts.LogActivity(ctx, "create_post", p.ID))
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("post created", slog.String("post_id", p.ID.String()))

	s.index(ctx, *p)
	publish(ctx, s.deps.Events, models.SubjectPostCreated, models.PostCreated{
		PostID: p.ID, UserID: authorID, Title: p.Title, Category: p.Category,
	})
	v := models.ToPostView(*p, nil, nil)
	return &v, nil
}

// GetByID serves from cache when possible and fills it on a miss. The fill is
// skipped when a write invalidated the post while it was being loaded.
func (s *PostService) GetByID(ctx context.Context, id uuid.UUID) (*models.PostView, error) {
	if v, ok := cachedPost(ctx, s.deps.Cache, id); ok {
		return v, nil
	}
	gen := postGeneration(ctx, s.deps.Cache, id)
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	roots, err := s.deps.Comments.ListTopLevel(ctx, id)
	if err != nil {
		return nil, apperror.Wrap("list comments", err)
	}
	comments, err := s.threads.build(ctx, roots)
	if err != nil {
		return nil, err
	}
	likes, err := s.deps.Likes.ListByTargets(ctx, models.TargetPost, []uuid.UUID{id})
	if err != nil {
		return nil, apperror.Wrap("list post likes", err)
	}
	v := models.ToPostView(*p, likes, comments)
	storePost(ctx, s.deps.Cache, v, gen)
	return &v, nil
}

// ListAll returns posts with tags and likes but without comments, unlike
// GetByID which materializes the comment threads. Listing stays one query per
// page of posts instead of one per post. Unknown filter or sort fields are
// ignored.
func (s *PostService) ListAll(ctx context.Context, q models.ListPostsQuery) ([]models.PostView, error) {
	posts, err := s.deps.Posts.List(ctx, toPostFilter(q))
	if err != nil {
		return nil, apperror.Wrap("list blog posts", err)
	}
	return s.views(ctx, posts)
}

func (s *PostService) ListByCategory(ctx context.Context, category string, pageNumber, pageSize int) (*models.Page[models.PostView], error) {
	c, ok := models.ParseCategory(category)
	if !ok {
		return nil, apperror.InvalidArgument("unknown category", category)
	}
	pageNumber, pageSize = normalizePage(pageNumber, pageSize)

	posts, total, err := s.deps.Posts.ListByCategory(ctx, c, (pageNumber-1)*pageSize, pageSize)
	if err != nil {
		return nil, apperror.Wrap("list blog posts by category", err)
	}
	items, err := s.views(ctx, posts)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.PostView]{
		Items:      items,
		TotalCount: total,
		PageNumber: pageNumber,
		PageSize:   pageSize,
	}, nil
}

func (s *PostService) ListByTag(ctx context.Context, tag string) ([]models.PostView, error) {
	names := NormalizeTagNames([]string{tag})
	if len(names) == 0 {
		return nil, apperror.InvalidArgument("tag is required")
	}
	posts, err := s.deps.Posts.ListByTag(ctx, names[0])
	if err != nil {
		return nil, apperror.Wrap("list blog posts by tag", err)
	}
	return s.views(ctx, posts)
}

// Update fully replaces the editable fields, the tag set and the image set.
func (s *PostService) Update(ctx context.Context, id uuid.UUID, req models.UpdatePostReq, userID string) (*models.PostView, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, apperror.Forbidden()
	}
	images, err := checkPostReq(req)
	if err != nil {
		return nil, err
	}
	p.Title = req.Title
	p.Content = req.Content
	p.Category = req.Category
	p.ImageURLs = images
	p.UpdatedAt = s.deps.Now()

	err = s.deps.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.deps.Posts.Update(ctx, p); err != nil {
			return apperror.Wrap("update blog post", err)
		}
		if err := s.attachTags(ctx, p, req.Tags); err != nil {
			return err
		}
		return apperror.Wrap("log activity", s.deps.Posts.LogActivity(ctx, "update_post", p.ID))
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("post updated", slog.String("post_id", id.String()))

	invalidatePost(ctx, s.deps.Cache, id)
	s.index(ctx, *p)
	publish(ctx, s.deps.Events, models.SubjectPostUpdated, models.PostUpdated{PostID: id, UserID: userID})
	return s.GetByID(ctx, id)
}

// Delete removes the post together with its comments and every like on the
// post or its comments.
func (s *PostService) Delete(ctx context.Context, id uuid.UUID, userID string) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if p.UserID != userID {
		return apperror.Forbidden()
	}

	err = s.deps.Tx.WithTx(ctx, func(ctx context.Context) error {
		commentIDs, err := s.deps.Comments.IDsByPost(ctx, id)
		if err != nil {
			return apperror.Wrap("load post comments", err)
		}
		if err := s.deps.Likes.DeleteByTargets(ctx, models.TargetComment, commentIDs); err != nil {
			return apperror.Wrap("delete comment likes", err)
		}
		for _, cid := range commentIDs {
			if err := s.deps.Comments.Delete(ctx, cid); err != nil {
				return apperror.Wrap("delete comment", err)
			}
		}
		if err := s.deps.Likes.DeleteByTargets(ctx, models.TargetPost, []uuid.UUID{id}); err != nil {
			return apperror.Wrap("delete post likes", err)
		}
		if err := s.deps.Posts.LogActivity(ctx, "delete_post", id); err != nil {
			return apperror.Wrap("log activity", err)
		}
		return apperror.Wrap("delete blog post", s.deps.Posts.Delete(ctx, id))
	})
	if err != nil {
		return err
	}
	logger.From(ctx).Info("post deleted", slog.String("post_id", id.String()))

	invalidatePost(ctx, s.deps.Cache, id)
	if err := s.deps.Search.DeletePost(ctx, id.String()); err != nil {
		logger.From(ctx).Warn("search delete failed", slog.String("post_id", id.String()), slog.Any("error", err))
	}
	publish(ctx, s.deps.Events, models.SubjectPostDeleted, models.PostDeleted{PostID: id, UserID: userID})
	return nil
}

func (s *PostService) GetImages(ctx context.Context, id uuid.UUID) ([]string, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(p.ImageURLs))
	copy(out, p.ImageURLs)
	return out, nil
}

func (s *PostService) Search(ctx context.Context, q string, size int) ([]models.SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.InvalidArgument("search query is required")
	}
	hits, err := s.deps.Search.Search(ctx, q, searchSize(size))
	if err != nil {
		return nil, apperror.Wrap("search blog posts", err)
	}
	return hits, nil
}

// Related finds posts sharing at least one tag with the given post.
func (s *PostService) Related(ctx context.Context, id uuid.UUID, size int) ([]models.SearchHit, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	doc := models.ToPostDocument(*p)
	if len(doc.Tags) == 0 {
		return []models.SearchHit{}, nil
	}
	hits, err := s.deps.Search.Related(ctx, doc.Tags, doc.ID, searchSize(size))
	if err != nil {
		return nil, apperror.Wrap("find related posts", err)
	}
	return hits, nil
}

func (s *PostService) load(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := s.deps.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap("get blog post", err)
	}
	if p == nil {
		return nil, apperror.NotFound("blog post", id)
	}
	return p, nil
}

func (s *PostService) attachTags(ctx context.Context, p *models.Post, names []string) error {
	tags, err := s.tags.Resolve(ctx, names)
	if err != nil {
		return err
	}
	ids := make([]uuid.UUID, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	if err := s.deps.Posts.ReplaceTags(ctx, p.ID, ids); err != nil {
		return apperror.Wrap("associate tags", err)
	}
	p.Tags = tags
	return nil
}

func (s *PostService) views(ctx context.Context, posts []models.Post) ([]models.PostView, error) {
	ids := make([]uuid.UUID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	likes, err := s.deps.Likes.ListByTargets(ctx, models.TargetPost, ids)
	if err != nil {
		return nil, apperror.Wrap("list post likes", err)
	}
	likesBy := groupLikes(likes)
	out := make([]models.PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, models.ToPostView(p, likesBy[p.ID], nil))
	}
	return out, nil
}

func (s *PostService) index(ctx context.Context, p models.Post) {
	if err := s.deps.Search.IndexPost(ctx, models.ToPostDocument(p)); err != nil {
		logger.From(ctx).Warn("search index failed", slog.String("post_id", p.ID.String()), slog.Any("error", err))
	}
}

// checkPostReq validates the request and returns the deduplicated images.
func checkPostReq(req models.CreatePostReq) ([]string, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if len(req.ImageURLs) == 0 {
		return []string{}, nil
	}
	if ok, invalid := imageurl.Validate(req.ImageURLs); !ok {
		return nil, apperror.InvalidArgument("invalid image URLs", invalid...)
	}
	return imageurl.Dedupe(req.ImageURLs), nil
}

func toPostFilter(q models.ListPostsQuery) models.PostFilter {
	var f models.PostFilter
	if strings.EqualFold(strings.TrimSpace(q.FilterOn), "title") {
		f.TitleContains = strings.TrimSpace(q.FilterQuery)
	}
	switch strings.ToLower(strings.TrimSpace(q.SortBy)) {
	case "createdat", "created_at":
		f.SortByCreated = true
		f.Ascending = q.IsAscending == nil || *q.IsAscending
	}
	return f
}

func normalizePage(number, size int) (int, int) {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return number, size
}

func searchSize(size int) int {
	if size < 1 {
		return defaultSearchSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}
