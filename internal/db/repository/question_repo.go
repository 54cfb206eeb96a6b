package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gokatarajesh/trivia/internal/catalog"
)

// querier is the subset of pgxpool.Pool the repository needs.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const questionColumns = `id, question, answer, category, difficulty`

// QuestionRepository stores categories and questions in Postgres.
type QuestionRepository struct {
	db querier
}

var _ catalog.Store = (*QuestionRepository)(nil)

func NewQuestionRepository(db querier) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// ListCategories returns every category ordered by id.
func (r *QuestionRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, type FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

// GetCategory fetches a category or returns catalog.ErrCategoryNotFound.
func (r *QuestionRepository) GetCategory(ctx context.Context, id int) (catalog.Category, error) {
	var c catalog.Category
	err := r.db.QueryRow(ctx, `SELECT id, type FROM categories WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Category{}, catalog.ErrCategoryNotFound
	}
	if err != nil {
		return catalog.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// EnsureCategory returns the category named name, creating it if needed.
func (r *QuestionRepository) EnsureCategory(ctx context.Context, name string) (catalog.Category, error) {
	var c catalog.Category
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (type) VALUES ($1)
		ON CONFLICT (type) DO UPDATE SET type = EXCLUDED.type
		RETURNING id, type`, name).Scan(&c.ID, &c.Name)
	if err != nil {
		return catalog.Category{}, fmt.Errorf("ensure category %q: %w", name, err)
	}
	return c, nil
}

func (r *QuestionRepository) CountQuestions(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM questions`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// ListQuestions returns a window of questions ordered by id.
func (r *QuestionRepository) ListQuestions(ctx context.Context, limit, offset int) ([]catalog.Question, error) {
	return r.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *QuestionRepository) ListQuestionsByCategory(ctx context.Context, categoryID int) ([]catalog.Question, error) {
	return r.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE category = $1 ORDER BY id`, categoryID)
}

// SearchQuestions matches term as a case-insensitive literal substring.
func (r *QuestionRepository) SearchQuestions(ctx context.Context, term string) ([]catalog.Question, error) {
	return r.queryQuestions(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE question ILIKE '%' || $1 || '%' ESCAPE '\' ORDER BY id`,
		escapeLike(term))
}

func (r *QuestionRepository) InsertQuestion(ctx context.Context, q catalog.NewQuestion) (catalog.Question, error) {
	var out catalog.Question
	err := r.db.QueryRow(ctx, `
		INSERT INTO questions (question, answer, category, difficulty)
		VALUES ($1, $2, $3, $4)
		RETURNING `+questionColumns,
		q.Text, q.Answer, q.CategoryID, q.Difficulty,
	).Scan(&out.ID, &out.Text, &out.Answer, &out.CategoryID, &out.Difficulty)
	if err != nil {
		return catalog.Question{}, err
	}
	return out, nil
}

// DeleteQuestion removes a question or returns catalog.ErrQuestionNotFound.
func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrQuestionNotFound
	}
	return nil
}

// QuizCandidates lists questions of the category (every category when nil)
// whose id is not in exclude.
func (r *QuestionRepository) QuizCandidates(ctx context.Context, categoryID *int, exclude []int) ([]catalog.Question, error) {
	return r.queryQuestions(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE ($1::int8 IS NULL OR category = $1)
		  AND NOT (id = ANY(COALESCE($2::int8[], '{}')))
		ORDER BY id`,
		toInt64(categoryID), toInt64s(exclude))
}

func (r *QuestionRepository) queryQuestions(ctx context.Context, sql string, args ...any) ([]catalog.Question, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanQuestion)
}

func scanQuestion(row pgx.CollectableRow) (catalog.Question, error) {
	var q catalog.Question
	err := row.Scan(&q.ID, &q.Text, &q.Answer, &q.CategoryID, &q.Difficulty)
	return q, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// Client-supplied ids are bound as int8 so out-of-range values never wrap
// onto a real id.
func toInt64s(ids []int) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		out = append(out, int64(id))
	}
	return out
}

func toInt64(id *int) *int64 {
	if id == nil {
		return nil
	}
	v := int64(*id)
	return &v
}
