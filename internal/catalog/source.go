package catalog

import (
	"context"

	"github.com/gokatarajesh/trivia/internal/metrics"
	"github.com/gokatarajesh/trivia/internal/quiz"
)

// QuizSource serves quiz questions straight from the catalog, for sessions
// hosted inside the API process.
func (s *Service) QuizSource() quiz.QuestionSource {
	return quizSource{svc: s}
}

// CategoryProvider lists catalog categories for in-process sessions.
func (s *Service) CategoryProvider() quiz.CategoryProvider {
	return categoryProvider{svc: s}
}

type quizSource struct {
	svc *Service
}

func (q quizSource) Next(ctx context.Context, exclude []int, filter quiz.CategoryFilter) (quiz.Draw, error) {
	draw, err := q.svc.NextQuizQuestion(ctx, exclude, filter)
	if err != nil {
		return quiz.Draw{}, err
	}
	metrics.QuizDraws.WithLabelValues(metrics.DrawResult(draw.Question != nil, draw.Last)).Inc()
	if draw.Question == nil {
		return quiz.Draw{Last: true}, nil
	}
	out := ToQuiz(*draw.Question)
	return quiz.Draw{Question: &out, Last: draw.Last}, nil
}

type categoryProvider struct {
	svc *Service
}

func (c categoryProvider) Categories(ctx context.Context) ([]quiz.Category, error) {
	categories, err := c.svc.Categories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]quiz.Category, 0, len(categories))
	for _, cat := range categories {
		out = append(out, quiz.Category{ID: cat.ID, Name: cat.Name})
	}
	return out, nil
}

// ToQuiz converts a stored question into the session's model.
func ToQuiz(q Question) quiz.Question {
	return quiz.Question{
		ID:         q.ID,
		Text:       q.Text,
		Answer:     q.Answer,
		Difficulty: q.Difficulty,
		CategoryID: q.CategoryID,
	}
}
