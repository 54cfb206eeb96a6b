package client

import (
	"context"

	"github.com/gokatarajesh/trivia/internal/quiz"
	"github.com/gokatarajesh/trivia/pkg/api"
)

// QuestionSource adapts the client to a quiz session.
func (c *Client) QuestionSource() quiz.QuestionSource {
	return remoteSource{client: c}
}

// CategoryProvider lists categories over the API for a quiz session.
func (c *Client) CategoryProvider() quiz.CategoryProvider {
	return remoteCategories{client: c}
}

type remoteSource struct {
	client *Client
}

func (s remoteSource) Next(ctx context.Context, exclude []int, filter quiz.CategoryFilter) (quiz.Draw, error) {
	resp, err := s.client.NextQuestion(ctx, exclude, WireCategory(filter))
	if err != nil {
		return quiz.Draw{}, err
	}
	if resp.Question == nil {
		return quiz.Draw{Last: true}, nil
	}
	q := FromAPI(*resp.Question)
	return quiz.Draw{Question: &q, Last: resp.LastQuestion}, nil
}

type remoteCategories struct {
	client *Client
}

func (r remoteCategories) Categories(ctx context.Context) ([]quiz.Category, error) {
	categories, err := r.client.Categories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]quiz.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, quiz.Category{ID: c.ID, Name: c.Type})
	}
	return out, nil
}

// WireCategory maps a filter to the quiz_category field.
func WireCategory(filter quiz.CategoryFilter) int {
	if id, ok := filter.CategoryID(); ok {
		return id
	}
	return api.AllCategoriesID
}

// FromAPI converts a wire question to the session model.
func FromAPI(q api.Question) quiz.Question {
	return quiz.Question{
		ID:         q.ID,
		Text:       q.Question,
		Answer:     q.Answer,
		Difficulty: q.Difficulty,
		CategoryID: q.Category,
	}
}
