// Package importer seeds the question bank from public trivia APIs.
package importer

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia/internal/catalog"
)

// Item is one question as delivered by an upstream API.
type Item struct {
	Category   string
	Question   string
	Answer     string
	Difficulty string
}

// Fetcher pulls a batch of questions from an upstream API.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, amount int) ([]Item, error)
}

// Sink stores imported questions. *repository.QuestionRepository
// satisfies it.
type Sink interface {
	EnsureCategory(ctx context.Context, name string) (catalog.Category, error)
	SearchQuestions(ctx context.Context, term string) ([]catalog.Question, error)
	InsertQuestion(ctx context.Context, q catalog.NewQuestion) (catalog.Question, error)
}

// Invalidator drops cached question pages after an import.
type Invalidator interface {
	InvalidateQuestions(ctx context.Context) error
}

// Report summarizes one import run.
type Report struct {
	Fetched  int
	Inserted int
	Skipped  int
}

// Importer copies questions from a Fetcher into a Sink.
type Importer struct {
	sink   Sink
	cache  Invalidator
	logger zerolog.Logger
}

// New creates an importer. cache may be nil.
func New(sink Sink, cache Invalidator, logger zerolog.Logger) *Importer {
	return &Importer{
		sink:   sink,
		cache:  cache,
		logger: logger.With().Str("component", "importer").Logger(),
	}
}

// Run fetches amount questions and inserts the ones not already stored.
func (im *Importer) Run(ctx context.Context, source Fetcher, amount int) (Report, error) {
	if amount <= 0 {
		return Report{}, fmt.Errorf("amount must be positive, got %d", amount)
	}

	items, err := source.Fetch(ctx, amount)
	if err != nil {
		return Report{}, fmt.Errorf("fetch from %s: %w", source.Name(), err)
	}

	report := Report{Fetched: len(items)}
	categoryIDs := make(map[string]int)

	for _, item := range items {
		nq, categoryName, ok := Normalize(item)
		if !ok {
			report.Skipped++
			continue
		}

		exists, err := im.alreadyStored(ctx, nq.Text)
		if err != nil {
			return report, err
		}
		if exists {
			report.Skipped++
			continue
		}

		id, cached := categoryIDs[categoryName]
		if !cached {
			category, err := im.sink.EnsureCategory(ctx, categoryName)
			if err != nil {
				return report, fmt.Errorf("ensure category %q: %w", categoryName, err)
			}
			id = category.ID
			categoryIDs[categoryName] = id
		}
		nq.CategoryID = id

		if _, err := im.sink.InsertQuestion(ctx, nq); err != nil {
			return report, fmt.Errorf("insert question: %w", err)
		}
		report.Inserted++
	}

	if report.Inserted > 0 && im.cache != nil {
		if err := im.cache.InvalidateQuestions(ctx); err != nil {
			im.logger.Warn().Err(err).Msg("cache invalidation failed")
		}
	}

	im.logger.Info().
		Str("source", source.Name()).
		Int("fetched", report.Fetched).
		Int("inserted", report.Inserted).
		Int("skipped", report.Skipped).
		Msg("import finished")
	return report, nil
}

func (im *Importer) alreadyStored(ctx context.Context, text string) (bool, error) {
	matches, err := im.sink.SearchQuestions(ctx, text)
	if err != nil {
		return false, fmt.Errorf("look up existing question: %w", err)
	}
	for _, q := range matches {
		if strings.EqualFold(q.Text, text) {
			return true, nil
		}
	}
	return false, nil
}

// Normalize unescapes HTML entities, maps the difficulty and derives the
// category name. Items missing question or answer text are rejected.
func Normalize(item Item) (catalog.NewQuestion, string, bool) {
	text := strings.TrimSpace(html.UnescapeString(item.Question))
	answer := strings.TrimSpace(html.UnescapeString(item.Answer))
	if text == "" || answer == "" {
		return catalog.NewQuestion{}, "", false
	}

	return catalog.NewQuestion{
		Text:       text,
		Answer:     answer,
		Difficulty: MapDifficulty(item.Difficulty),
	}, CategoryName(item.Category), true
}

// MapDifficulty converts easy/medium/hard to the 1..5 scale.
func MapDifficulty(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "easy":
		return 1
	case "hard":
		return 5
	default:
		return 3
	}
}

// CategoryName keeps the top-level part of names such as
// "Entertainment: Film" and title-cases slugs such as "general_knowledge".
func CategoryName(raw string) string {
	name := strings.TrimSpace(html.UnescapeString(raw))
	if head, _, found := strings.Cut(name, ":"); found {
		name = strings.TrimSpace(head)
	}
	if strings.Contains(name, "_") {
		words := strings.Fields(strings.ReplaceAll(name, "_", " "))
		for i, w := range words {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		name = strings.Join(words, " ")
	}
	if name == "" {
		return "General"
	}
	return name
}
