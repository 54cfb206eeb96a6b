package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia/internal/auth"
	"github.com/gokatarajesh/trivia/internal/auth/jwt"
	"github.com/gokatarajesh/trivia/internal/catalog"
	"github.com/gokatarajesh/trivia/internal/config"
	"github.com/gokatarajesh/trivia/internal/db/repository"
	"github.com/gokatarajesh/trivia/internal/logging"
	"github.com/gokatarajesh/trivia/internal/play"
	"github.com/gokatarajesh/trivia/internal/server"
	ws "github.com/gokatarajesh/trivia/pkg/http/ws"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	hub   *ws.Hub
	http  *http.Server
}

// New bootstraps the logger, Postgres, the optional Redis cache and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	poolCfg, err := pgxpool.ParseConfig(cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.Postgres.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	var (
		redisClient *redis.Client
		cache       catalog.Cache
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		cache = catalog.NewRedisCache(redisClient, cfg.Catalog.CacheTTL)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; catalog cache disabled")
	}

	questionRepo := repository.NewQuestionRepository(pool)
	catalogSvc := catalog.NewService(questionRepo, cache, logger, catalog.ServiceOptions{
		QuestionsPerPage: cfg.Catalog.QuestionsPerPage,
		QueryTimeout:     cfg.Catalog.QueryTimeout,
	})

	authSvc := auth.NewService(cfg.Security.AdminPasswordHash, jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.TokenTTL,
		Issuer: cfg.Name,
	}, logger)
	if !authSvc.Enabled() {
		logger.Warn().Msg("ADMIN_PASSWORD_HASH not set; question writes are open")
	}

	wsHub := ws.NewHub(logger)
	playHandler := play.NewHandler(
		catalogSvc.QuizSource(),
		catalogSvc.CategoryProvider(),
		wsHub,
		server.NewWSUpgrader(cfg.CORS),
		logger,
	)

	deps := server.Dependencies{
		Postgres: pool,
		Redis:    redisClient,
		Catalog:  catalog.NewHTTPHandler(catalogSvc, logger),
		Auth:     authSvc,
		Play:     playHandler.HandleWebSocket,
	}
	apiServer := server.NewHTTPServer(cfg, logger, deps)

	return &Application{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		redis:  redisClient,
		hub:    wsHub,
		http:   apiServer,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}
	// Hijacked WebSocket connections are not tracked by Shutdown.
	a.hub.CloseAll()

	a.pool.Close()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}
