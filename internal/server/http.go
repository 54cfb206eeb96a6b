package server

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia/internal/auth"
	"github.com/gokatarajesh/trivia/internal/catalog"
	"github.com/gokatarajesh/trivia/internal/config"
	"github.com/gokatarajesh/trivia/internal/logging"
	httperrors "github.com/gokatarajesh/trivia/pkg/http/errors"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the components mounted on the API mux. Any of them
// may be nil; the matching routes are then left out.
type Dependencies struct {
	Postgres Pinger
	Redis    *redis.Client
	Catalog  *catalog.HTTPHandler
	Auth     *auth.Service
	Play     http.HandlerFunc
}

// NewWSUpgrader builds the WebSocket upgrader, accepting the configured
// CORS origins and same-origin clients with no Origin header.
func NewWSUpgrader(cors config.CORS) *websocket.Upgrader {
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(cors.AllowedOrigins, origin)
		},
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
}

// NewHTTPServer wires the API routes and middleware.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Dependencies) *http.Server {
	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: NewRouter(cfg, logger, deps),
	}
}

// NewRouter returns the fully wrapped API handler.
func NewRouter(cfg *config.App, logger zerolog.Logger, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		if err := pingDependencies(r.Context(), deps.Postgres, deps.Redis); err != nil {
			logging.FromContext(r.Context()).Error().Err(err).Msg("dependency ping failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeUpstreamError, "upstream error")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	if deps.Catalog != nil {
		deps.Catalog.Register(mux, auth.RequireAdmin(deps.Auth))
	}

	if deps.Auth != nil {
		mux.HandleFunc("POST /auth/login", deps.Auth.HandleLogin)
	}

	if deps.Play != nil {
		mux.HandleFunc("GET /ws/play", deps.Play)
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if allowed := allowedMethods(mux, r); len(allowed) > 0 {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			httperrors.RespondMethodNotAllowed(w)
			return
		}
		httperrors.RespondNotFound(w, httperrors.ErrCodeNotFound, "resource not found")
	})

	var handler http.Handler = mux
	handler = metricsMiddleware(handler)
	handler = requestLogger(logger)(handler)
	handler = corsMiddleware(cfg.CORS)(handler)
	return handler
}

func pingDependencies(ctx context.Context, pool Pinger, rdb *redis.Client) error {
	if pool != nil {
		if err := pool.Ping(ctx); err != nil {
			return err
		}
	}
	if rdb != nil {
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}

// allowedMethods lists the methods another route accepts for r's path, so
// the fallback can answer 405 instead of 404.
func allowedMethods(mux *http.ServeMux, r *http.Request) []string {
	var allowed []string
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		if method == r.Method {
			continue
		}
		probe := r.Clone(r.Context())
		probe.Method = method
		if _, pattern := mux.Handler(probe); pattern != "" && pattern != "/" {
			allowed = append(allowed, method)
		}
	}
	return allowed
}

func originAllowed(allowed []string, origin string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
