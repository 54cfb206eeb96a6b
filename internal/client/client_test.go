package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia/internal/quiz"
	"github.com/gokatarajesh/trivia/pkg/api"
	httperrors "github.com/gokatarajesh/trivia/pkg/http/errors"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client(), zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestCategories(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/categories", r.URL.Path)
		writeJSON(w, http.StatusOK, api.CategoriesResponse{Success: true, Categories: []api.Category{{ID: 1, Type: "Science"}}})
	}))

	cats, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []api.Category{{ID: 1, Type: "Science"}}, cats)
}

func TestQuestionsSendsPage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		writeJSON(w, http.StatusOK, api.QuestionsResponse{Success: true, TotalQuestions: 19})
	}))

	resp, err := c.Questions(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 19, resp.TotalQuestions)
}

func TestStatusErrorsBecomeTransportErrors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeCategoryNotFound, "category not found")
	}))

	_, err := c.CategoryQuestions(context.Background(), 99)
	require.Error(t, err)

	var transportErr *quiz.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "list category questions", transportErr.Op)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, httperrors.ErrCodeCategoryNotFound, apiErr.Code)
	assert.Equal(t, "category not found", apiErr.Message)
	assert.True(t, IsNotFound(err))
}

func TestNetworkErrorsBecomeTransportErrors(t *testing.T) {
	c := New("http://example.test", &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	}, zerolog.Nop())

	_, err := c.Categories(context.Background())
	var transportErr *quiz.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestMalformedBodyIsTransportError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))

	_, err := c.Categories(context.Background())
	var transportErr *quiz.TransportError
	require.ErrorAs(t, err, &transportErr)
}

func TestLoginStoresToken(t *testing.T) {
	var deleteAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hunter22", req.Password)
		writeJSON(w, http.StatusOK, api.LoginResponse{AccessToken: "tok", TokenType: "Bearer", ExpiresIn: 60})
	})
	mux.HandleFunc("DELETE /questions/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleteAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, api.DeleteQuestionResponse{Success: true, ID: 4})
	})
	c := newTestClient(t, mux)

	_, err := c.Login(context.Background(), "hunter22")
	require.NoError(t, err)
	require.NoError(t, c.DeleteQuestion(context.Background(), 4))
	assert.Equal(t, "Bearer tok", deleteAuth)
}

func TestQuestionSource(t *testing.T) {
	var got api.QuizRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if len(got.PreviousQuestions) >= 2 {
			writeJSON(w, http.StatusOK, api.QuizResponse{Success: true, LastQuestion: true})
			return
		}
		writeJSON(w, http.StatusOK, api.QuizResponse{
			Success:      true,
			Question:     &api.Question{ID: 7, Question: "Largest planet?", Answer: "Jupiter", Category: 1, Difficulty: 2},
			LastQuestion: false,
		})
	}))
	src := c.QuestionSource()

	t.Run("all categories map to zero", func(t *testing.T) {
		draw, err := src.Next(context.Background(), nil, quiz.AllCategories())
		require.NoError(t, err)
		assert.Equal(t, 0, got.QuizCategory)
		assert.NotNil(t, got.PreviousQuestions)
		require.NotNil(t, draw.Question)
		assert.Equal(t, "Jupiter", draw.Question.Answer)
		assert.Equal(t, "Largest planet?", draw.Question.Text)
	})

	t.Run("category id is forwarded", func(t *testing.T) {
		_, err := src.Next(context.Background(), []int{3}, quiz.ByCategory(5))
		require.NoError(t, err)
		assert.Equal(t, 5, got.QuizCategory)
		assert.Equal(t, []int{3}, got.PreviousQuestions)
	})

	t.Run("null question is exhaustion", func(t *testing.T) {
		draw, err := src.Next(context.Background(), []int{3, 7}, quiz.AllCategories())
		require.NoError(t, err)
		assert.True(t, draw.Exhausted())
	})
}

func TestSessionOverClient(t *testing.T) {
	questions := []api.Question{
		{ID: 1, Question: "Q1", Answer: "Apollo 13", Category: 1},
		{ID: 2, Question: "Q2", Answer: "Mars", Category: 1},
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req api.QuizRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var remaining []api.Question
		for _, q := range questions {
			if !slices.Contains(req.PreviousQuestions, q.ID) {
				remaining = append(remaining, q)
			}
		}
		if len(remaining) == 0 {
			writeJSON(w, http.StatusOK, api.QuizResponse{Success: true, LastQuestion: true})
			return
		}
		writeJSON(w, http.StatusOK, api.QuizResponse{Success: true, Question: &remaining[0], LastQuestion: len(remaining) == 1})
	}))

	session := quiz.NewSession(c.QuestionSource(), c.CategoryProvider(), zerolog.Nop())
	ctx := context.Background()

	_, err := session.SelectCategory(ctx, quiz.Config{Category: quiz.AllCategories()})
	require.NoError(t, err)
	assert.True(t, session.SubmitGuess("13").State.LastCorrect)

	res, err := session.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.State.Current.ID)
	session.SubmitGuess("mars")

	// The second draw was flagged last, so no further request is needed.
	res, err = session.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseFinished, res.State.Phase)
	assert.Equal(t, 2, res.State.CorrectCount)
	assert.Equal(t, []int{1, 2}, res.State.AskedIDs)
}
