package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia/internal/quiz"
)

const defaultQuestionsPerPage = 10

// ServiceOptions configures the catalog service.
type ServiceOptions struct {
	QuestionsPerPage int
	QueryTimeout     time.Duration
	// Pick chooses an index in [0, n); defaults to math/rand.
	Pick func(n int) int
}

// Service implements the question bank operations behind the REST API.
type Service struct {
	store   Store
	cache   Cache
	logger  zerolog.Logger
	perPage int
	timeout time.Duration
	pick    func(n int) int
}

// NewService wires a store and an optional cache (nil disables caching).
func NewService(store Store, cache Cache, logger zerolog.Logger, opts ServiceOptions) *Service {
	perPage := opts.QuestionsPerPage
	if perPage <= 0 {
		perPage = defaultQuestionsPerPage
	}
	pick := opts.Pick
	if pick == nil {
		pick = rand.IntN
	}
	return &Service{
		store:   store,
		cache:   cache,
		logger:  logger.With().Str("component", "catalog").Logger(),
		perPage: perPage,
		timeout: opts.QueryTimeout,
		pick:    pick,
	}
}

// QuestionsPerPage reports the page size of Questions.
func (s *Service) QuestionsPerPage() int {
	return s.perPage
}

// Categories returns every category.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if s.cache != nil {
		if cached, err := s.cache.GetCategories(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.logger.Warn().Err(err).Msg("category cache read failed")
		}
	}

	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetCategories(ctx, categories); err != nil {
			s.logger.Warn().Err(err).Msg("category cache write failed")
		}
	}
	return categories, nil
}

// Questions returns page number (1-based) of the question listing.
// Pages past the end are empty.
func (s *Service) Questions(ctx context.Context, number int) (Page, error) {
	if number < 1 {
		return Page{}, ErrInvalidPage
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		cached, v, err := s.cache.GetPage(ctx, number, s.perPage)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Int("page", number).Msg("page cache read failed")
		case cached != nil:
			return *cached, nil
		default:
			version, cacheable = v, true
		}
	}

	total, err := s.store.CountQuestions(ctx)
	if err != nil {
		return Page{}, fmt.Errorf("count questions: %w", err)
	}
	questions, err := s.store.ListQuestions(ctx, s.perPage, (number-1)*s.perPage)
	if err != nil {
		return Page{}, fmt.Errorf("list questions: %w", err)
	}
	categories, err := s.Categories(ctx)
	if err != nil {
		return Page{}, err
	}

	page := Page{
		Number:     number,
		Questions:  questions,
		Total:      total,
		Categories: categories,
	}
	if cacheable {
		if err := s.cache.SetPage(ctx, version, s.perPage, page); err != nil {
			s.logger.Warn().Err(err).Int("page", number).Msg("page cache write failed")
		}
	}
	return page, nil
}

// QuestionsByCategory lists every question of a category.
func (s *Service) QuestionsByCategory(ctx context.Context, categoryID int) (Category, []Question, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	category, err := s.store.GetCategory(ctx, categoryID)
	if err != nil {
		return Category{}, nil, err
	}
	questions, err := s.store.ListQuestionsByCategory(ctx, categoryID)
	if err != nil {
		return Category{}, nil, fmt.Errorf("list category questions: %w", err)
	}
	return category, questions, nil
}

// Search returns the questions whose text contains term, ignoring case.
func (s *Service) Search(ctx context.Context, term string) ([]Question, error) {
	if strings.TrimSpace(term) == "" {
		return nil, &ValidationError{Field: "search_term", Message: "search_term is required"}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	questions, err := s.store.SearchQuestions(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("search questions: %w", err)
	}
	return questions, nil
}

// Create validates and stores a new question.
func (s *Service) Create(ctx context.Context, q NewQuestion) (Question, error) {
	q.Text = strings.TrimSpace(q.Text)
	q.Answer = strings.TrimSpace(q.Answer)
	if err := validateNewQuestion(q); err != nil {
		return Question{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.store.GetCategory(ctx, q.CategoryID); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return Question{}, &ValidationError{Field: "category", Message: fmt.Sprintf("category %d does not exist", q.CategoryID)}
		}
		return Question{}, err
	}

	created, err := s.store.InsertQuestion(ctx, q)
	if err != nil {
		return Question{}, fmt.Errorf("insert question: %w", err)
	}
	s.invalidate(ctx)

	s.logger.Info().Int("question_id", created.ID).Int("category", created.CategoryID).Msg("question created")
	return created, nil
}

// Delete removes a question by id.
func (s *Service) Delete(ctx context.Context, id int) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)

	s.logger.Info().Int("question_id", id).Msg("question deleted")
	return nil
}

// NextQuizQuestion draws a random question of filter that is not in
// exclude. Last is set when the drawn question was the only candidate.
func (s *Service) NextQuizQuestion(ctx context.Context, exclude []int, filter quiz.CategoryFilter) (QuizDraw, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var categoryID *int
	if id, ok := filter.CategoryID(); ok {
		categoryID = &id
	}

	candidates, err := s.store.QuizCandidates(ctx, categoryID, exclude)
	if err != nil {
		return QuizDraw{}, fmt.Errorf("quiz candidates: %w", err)
	}
	if len(candidates) == 0 {
		return QuizDraw{Last: true}, nil
	}

	q := candidates[s.pick(len(candidates))]
	return QuizDraw{Question: &q, Last: len(candidates) == 1}, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateQuestions(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("page cache invalidation failed")
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func validateNewQuestion(q NewQuestion) error {
	switch {
	case q.Text == "":
		return &ValidationError{Field: "question", Message: "question is required"}
	case q.Answer == "":
		return &ValidationError{Field: "answer", Message: "answer is required"}
	case q.CategoryID <= 0:
		return &ValidationError{Field: "category", Message: "category is required"}
	case q.Difficulty < MinDifficulty || q.Difficulty > MaxDifficulty:
		return &ValidationError{Field: "difficulty", Message: fmt.Sprintf("difficulty must be between %d and %d", MinDifficulty, MaxDifficulty)}
	}
	return nil
}
