package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"blog-api/metrics"
)

type RouterConfig struct {
	JWTSecret      string
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// NewRouter builds the engine with every route registered.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(cfg.Logger), metrics.Middleware(), Timeout(cfg.RequestTimeout))

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := Auth(cfg.JWTSecret)
	api := r.Group("/api")

	posts := api.Group("/posts")
	posts.GET("", h.ListPosts)
	posts.GET("/search", h.SearchPosts)
	posts.GET("/category/:category", h.ListPostsByCategory)
	posts.GET("/tag/:tag", h.ListPostsByTag)
	posts.GET("/:id", h.GetPost)
	posts.GET("/:id/images", h.GetPostImages)
	posts.GET("/:id/related", h.RelatedPosts)
	posts.POST("", auth, h.CreatePost)
	posts.PUT("/:id", auth, h.UpdatePost)
	posts.DELETE("/:id", auth, h.DeletePost)

	comments := api.Group("/comments")
	comments.POST("", auth, h.CreateComment)
	comments.GET("/:id", h.GetComment)
	comments.GET("/blogpost/:id", h.ListPostComments)
	comments.PATCH("/:id", auth, h.PatchComment)
	comments.DELETE("/:id", auth, h.DeleteComment)

	likes := api.Group("/likes")
	likes.POST("", auth, h.ToggleLike)
	likes.GET("/post/:id", h.ListPostLikes)
	likes.GET("/comment/:id", h.ListCommentLikes)

	return r
}
