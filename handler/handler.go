// Package handler is the gin HTTP surface of the blog API.
package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"blog-api/metrics"
	"blog-api/models"
)

type PostService interface {
	Create(ctx context.Context, req models.CreatePostReq, authorID string) (*models.PostView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.PostView, error)
	ListAll(ctx context.Context, q models.ListPostsQuery) ([]models.PostView, error)
	ListByCategory(ctx context.Context, category string, pageNumber, pageSize int) (*models.Page[models.PostView], error)
	ListByTag(ctx context.Context, tag string) ([]models.PostView, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdatePostReq, userID string) (*models.PostView, error)
	Delete(ctx context.Context, id uuid.UUID, userID string) error
	GetImages(ctx context.Context, id uuid.UUID) ([]string, error)
	Search(ctx context.Context, q string, size int) ([]models.SearchHit, error)
	Related(ctx context.Context, id uuid.UUID, size int) ([]models.SearchHit, error)
}

type CommentService interface {
	Create(ctx context.Context, req models.CreateCommentReq, authorID string) (*models.CommentView, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.CommentView, error)
	ListForPost(ctx context.Context, postID uuid.UUID) ([]models.CommentView, error)
	Update(ctx context.Context, id uuid.UUID, patch []byte, userID string) (*models.CommentView, error)
	Delete(ctx context.Context, id uuid.UUID, userID string) error
}

type LikeService interface {
	Toggle(ctx context.Context, userID string, req models.ToggleLikeReq) (bool, error)
	ListForPost(ctx context.Context, postID uuid.UUID) ([]models.LikeView, error)
	ListForComment(ctx context.Context, commentID uuid.UUID) ([]models.LikeView, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	Posts    PostService
	Comments CommentService
	Likes    LikeService
	Checks   map[string]HealthCheck
}

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = err.Error()
			continue
		}
		deps[name] = "ok"
	}
	c.JSON(status, gin.H{"ok": status == http.StatusOK, "time": time.Now().UTC(), "deps": deps})
}

// ---- posts ----

func (h *Handler) ListPosts(c *gin.Context) {
	var q models.ListPostsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query", err.Error())
		return
	}
	posts, err := h.Posts.ListAll(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) SearchPosts(c *gin.Context) {
	size, ok := intQuery(c, "size", 10)
	if !ok {
		return
	}
	hits, err := h.Posts.Search(c.Request.Context(), c.Query("q"), size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hits)
}

func (h *Handler) ListPostsByCategory(c *gin.Context) {
	page, ok := intQuery(c, "pageNumber", 1)
	if !ok {
		return
	}
	size, ok := intQuery(c, "pageSize", 10)
	if !ok {
		return
	}
	res, err := h.Posts.ListByCategory(c.Request.Context(), c.Param("category"), page, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListPostsByTag(c *gin.Context) {
	posts, err := h.Posts.ListByTag(c.Request.Context(), c.Param("tag"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) GetPost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	p, err := h.Posts.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) GetPostImages(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	imgs, err := h.Posts.GetImages(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, imgs)
}

func (h *Handler) RelatedPosts(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	size, ok := intQuery(c, "size", 5)
	if !ok {
		return
	}
	hits, err := h.Posts.Related(c.Request.Context(), id, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, hits)
}

func (h *Handler) CreatePost(c *gin.Context) {
	var req models.CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	p, err := h.Posts.Create(c.Request.Context(), req, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req models.UpdatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	p, err := h.Posts.Update(c.Request.Context(), id, req, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePost(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Posts.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- comments ----

func (h *Handler) CreateComment(c *gin.Context) {
	var req models.CreateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	v, err := h.Comments.Create(c.Request.Context(), req, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetComment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	v, err := h.Comments.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) ListPostComments(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	list, err := h.Comments.ListForPost(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// PatchComment takes an RFC 6902 document as the raw body.
func (h *Handler) PatchComment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	patch, err := io.ReadAll(io.LimitReader(c.Request.Body, 64<<10))
	if err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	v, err := h.Comments.Update(c.Request.Context(), id, patch, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteComment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Comments.Delete(c.Request.Context(), id, currentUser(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ---- likes ----

func (h *Handler) ToggleLike(c *gin.Context) {
	var req models.ToggleLikeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body", err.Error())
		return
	}
	liked, err := h.Likes.Toggle(c.Request.Context(), currentUser(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	target := models.TargetPost
	if req.CommentID != nil {
		target = models.TargetComment
	}
	metrics.ObserveLikeToggle(string(target), liked)
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *Handler) ListPostLikes(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	likes, err := h.Likes.ListForPost(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

func (h *Handler) ListCommentLikes(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	likes, err := h.Likes.ListForComment(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, likes)
}

func idParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id", c.Param("id"))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+key, raw)
		return 0, false
	}
	return n, true
}
