package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gokatarajesh/trivia/internal/catalog"
	"github.com/gokatarajesh/trivia/internal/config"
	"github.com/gokatarajesh/trivia/internal/db/migrations"
	"github.com/gokatarajesh/trivia/internal/db/repository"
	"github.com/gokatarajesh/trivia/internal/importer"
)

func main() {
	var (
		command = flag.String("command", "up", "Command: up, down, status, or seed")
		source  = flag.String("source", "opentdb", "Seed source: opentdb, triviaapi, or generator")
		amount  = flag.Int("amount", 20, "Number of questions to seed")
		apiKey  = flag.String("api-key", os.Getenv("TRIVIA_API_KEY"), "API key for triviaapi")
		genURL  = flag.String("generator-url", os.Getenv("QUESTION_GENERATOR_URL"), "Question generator base URL")
		genKey  = flag.String("generator-key", os.Getenv("QUESTION_GENERATOR_KEY"), "Question generator bearer key")
		genCat  = flag.String("category", "General", "Category for generated questions")
	)
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg, err := config.Load(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *command {
	case "up", "down", "status":
		if err := migrate(*command, cfg.Postgres); err != nil {
			log.Fatal().Err(err).Str("command", *command).Msg("migration failed")
		}
	case "seed":
		fetcher, err := newFetcher(*source, *apiKey, importer.GeneratorConfig{URL: *genURL, Key: *genKey, Category: *genCat})
		if err != nil {
			log.Fatal().Err(err).Msg("invalid seed source")
		}
		if err := seed(ctx, cfg, fetcher, *amount); err != nil {
			log.Fatal().Err(err).Str("source", fetcher.Name()).Msg("seed failed")
		}
	default:
		log.Fatal().Str("command", *command).Msg("unknown command. Use: up, down, status, or seed")
	}
}

func migrate(command string, pg config.Postgres) error {
	// Connect using pgx via stdlib (database/sql compatible)
	db, err := sql.Open("pgx", pg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return err
	}

	log.Info().
		Str("host", pg.Host).
		Int("port", pg.Port).
		Str("database", pg.Database).
		Msg("connected to database")

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("goose_db_version")
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	switch command {
	case "up":
		if err := goose.Up(db, "."); err != nil {
			return err
		}
		log.Info().Msg("migrations applied successfully")
	case "down":
		if err := goose.Down(db, "."); err != nil {
			return err
		}
		log.Info().Msg("migrations rolled back successfully")
	case "status":
		return goose.Status(db, ".")
	}
	return nil
}

func newFetcher(source, apiKey string, gen importer.GeneratorConfig) (importer.Fetcher, error) {
	switch source {
	case "opentdb":
		return importer.NewOpenTDBClient("", nil), nil
	case "triviaapi":
		return importer.NewTriviaAPIClient("", apiKey, nil), nil
	case "generator":
		return importer.NewGeneratorClient(gen, nil), nil
	default:
		return nil, fmt.Errorf("unknown source %q, use opentdb, triviaapi, or generator", source)
	}
}

func seed(ctx context.Context, cfg *config.App, fetcher importer.Fetcher, amount int) error {
	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	var cache importer.Invalidator
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		defer rdb.Close()
		cache = catalog.NewRedisCache(rdb, cfg.Catalog.CacheTTL)
	}

	report, err := importer.New(repository.NewQuestionRepository(pool), cache, log.Logger).Run(ctx, fetcher, amount)
	if err != nil {
		return err
	}
	log.Info().Int("inserted", report.Inserted).Int("skipped", report.Skipped).Msg("seed complete")
	return nil
}
