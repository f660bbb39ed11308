package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"blog-api/cache"
	"blog-api/config"
	"blog-api/events"
	"blog-api/handler"
	"blog-api/logger"
	"blog-api/repository"
	"blog-api/repository/memory"
	"blog-api/search"
	"blog-api/service"
	"blog-api/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}
	log := logger.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracing init", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	checks := map[string]handler.HealthCheck{}
	var deps service.Deps

	// ---- Storage
	switch cfg.Store {
	case "memory":
		store := memory.New()
		deps = service.Deps{
			Tx: store, Posts: store.Posts(), Comments: store.Comments(), Likes: store.Likes(), Tags: store.Tags(),
		}
		log.Warn("using in-memory store; data is lost on restart")
	default:
		dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := repository.Open(dbCtx, cfg.DSN())
		cancel()
		if err != nil {
			log.Error("db open", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := repository.Migrate(ctx, pool); err != nil {
			log.Error("db migrate", slog.Any("error", err))
			os.Exit(1)
		}
		log.Info("db connected")
		deps = service.Deps{
			Tx:       repository.NewTxManager(pool),
			Posts:    repository.NewPostRepo(pool),
			Comments: repository.NewCommentRepo(pool),
			Likes:    repository.NewLikeRepo(pool),
			Tags:     repository.NewTagRepo(pool),
		}
		checks["postgres"] = pool.Ping
	}

	// ---- Optional integrations
	if cfg.RedisAddr != "" {
		rc := cache.New(cfg.RedisAddr, cfg.RedisDB, cfg.CacheTTL())
		defer rc.Close()
		deps.Cache = rc
		checks["redis"] = rc.Ping
	}

	if cfg.ESAddr != "" {
		es, err := search.New(cfg.ESAddr, cfg.ESIndex, otelhttp.NewTransport(http.DefaultTransport))
		if err != nil {
			log.Error("es init", slog.Any("error", err))
			os.Exit(1)
		}
		if err := es.EnsureIndex(ctx); err != nil {
			log.Warn("es ensure index", slog.Any("error", err))
		}
		deps.Search = es
	}

	if cfg.NATSURL != "" {
		pub, err := events.NewPublisher(cfg.NATSURL, cfg.ServiceName)
		if err != nil {
			log.Error("nats connect", slog.Any("error", err))
			os.Exit(1)
		}
		defer pub.Close()
		deps.Events = pub
		checks["nats"] = func(context.Context) error {
			if !pub.IsConnected() {
				return errors.New("not connected")
			}
			return nil
		}
	}

	h := &handler.Handler{
		Posts:    service.NewPostService(deps),
		Comments: service.NewCommentService(deps),
		Likes:    service.NewLikeService(deps),
		Checks:   checks,
	}

	gin.SetMode(gin.ReleaseMode)
	r := handler.NewRouter(h, handler.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(r, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", slog.Any("error", err))
	}
	log.Info("stopped")
}
