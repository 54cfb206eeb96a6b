package catalog

import (
	"context"
	"errors"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrInvalidPage      = errors.New("page must be a positive integer")
)

// Difficulty bounds accepted for new questions.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// Category groups questions; Name is served as "type" on the wire.
type Category struct {
	ID   int
	Name string
}

// Question is a stored trivia question.
type Question struct {
	ID         int
	Text       string
	Answer     string
	CategoryID int
	Difficulty int
}

// NewQuestion is the payload of Create.
type NewQuestion struct {
	Text       string
	Answer     string
	CategoryID int
	Difficulty int
}

// Page is one slice of the paginated question listing.
type Page struct {
	Number     int
	Questions  []Question
	Total      int
	Categories []Category
}

// QuizDraw is the next quiz question; Question is nil when every
// candidate was excluded.
type QuizDraw struct {
	Question *Question
	Last     bool
}

// ValidationError describes a rejected field of a request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Store is the persistence the catalog runs on (implemented by
// repository.QuestionRepository over Postgres).
type Store interface {
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int) (Category, error)
	CountQuestions(ctx context.Context) (int, error)
	ListQuestions(ctx context.Context, limit, offset int) ([]Question, error)
	ListQuestionsByCategory(ctx context.Context, categoryID int) ([]Question, error)
	SearchQuestions(ctx context.Context, term string) ([]Question, error)
	InsertQuestion(ctx context.Context, q NewQuestion) (Question, error)
	DeleteQuestion(ctx context.Context, id int) error
	QuizCandidates(ctx context.Context, categoryID *int, exclude []int) ([]Question, error)
}

// Cache keeps hot listings out of Postgres. Getters return nil on a miss.
type Cache interface {
	GetCategories(ctx context.Context) ([]Category, error)
	SetCategories(ctx context.Context, categories []Category) error
	// GetPage returns nil on a miss along with the cache version the lookup
	// used; SetPage stores under that version.
	GetPage(ctx context.Context, number, perPage int) (*Page, int64, error)
	SetPage(ctx context.Context, version int64, perPage int, page Page) error
	InvalidateQuestions(ctx context.Context) error
}
