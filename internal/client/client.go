// Package client talks to the trivia REST API. Every failure it returns is
// a *quiz.TransportError so a quiz session can surface it unchanged.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia/internal/quiz"
	"github.com/gokatarajesh/trivia/pkg/api"
	httperrors "github.com/gokatarajesh/trivia/pkg/http/errors"
)

var ErrServiceUnavailable = errors.New("trivia service unavailable")

// APIError is a non-2xx answer from the API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether err carries a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client is a REST client for the trivia API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     zerolog.Logger
}

// New creates a client. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, logger zerolog.Logger) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:5000"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.With().Str("component", "api_client").Logger(),
	}
}

// BaseURL reports the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetToken sets the bearer token sent with write requests.
func (c *Client) SetToken(token string) {
	c.token = strings.TrimSpace(token)
}

// Categories lists all categories.
func (c *Client) Categories(ctx context.Context) ([]api.Category, error) {
	var payload api.CategoriesResponse
	if err := c.doJSON(ctx, "list categories", http.MethodGet, "/categories", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Categories, nil
}

// Questions fetches one page of the question listing.
func (c *Client) Questions(ctx context.Context, page int) (api.QuestionsResponse, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}

	var payload api.QuestionsResponse
	path := "/questions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	err := c.doJSON(ctx, "list questions", http.MethodGet, path, nil, &payload)
	return payload, err
}

// CategoryQuestions lists the questions of one category.
func (c *Client) CategoryQuestions(ctx context.Context, categoryID int) (api.QuestionsResponse, error) {
	var payload api.QuestionsResponse
	path := "/categories/" + strconv.Itoa(categoryID) + "/questions"
	err := c.doJSON(ctx, "list category questions", http.MethodGet, path, nil, &payload)
	return payload, err
}

// Search finds questions whose text contains term.
func (c *Client) Search(ctx context.Context, term string) (api.SearchResponse, error) {
	var payload api.SearchResponse
	err := c.doJSON(ctx, "search questions", http.MethodPost, "/questions/search", api.SearchRequest{SearchTerm: &term}, &payload)
	return payload, err
}

// CreateQuestion adds a question to the bank.
func (c *Client) CreateQuestion(ctx context.Context, req api.CreateQuestionRequest) (api.Question, error) {
	var payload api.CreateQuestionResponse
	if err := c.doJSON(ctx, "create question", http.MethodPost, "/questions", req, &payload); err != nil {
		return api.Question{}, err
	}
	return payload.Question, nil
}

// DeleteQuestion removes a question by id.
func (c *Client) DeleteQuestion(ctx context.Context, id int) error {
	var payload api.DeleteQuestionResponse
	return c.doJSON(ctx, "delete question", http.MethodDelete, "/questions/"+strconv.Itoa(id), nil, &payload)
}

// NextQuestion asks POST /quizzes for a question not in previous.
func (c *Client) NextQuestion(ctx context.Context, previous []int, categoryID int) (api.QuizResponse, error) {
	if previous == nil {
		previous = []int{}
	}
	req := api.QuizRequest{PreviousQuestions: previous, QuizCategory: categoryID}

	var payload api.QuizResponse
	err := c.doJSON(ctx, "next question", http.MethodPost, "/quizzes", req, &payload)
	return payload, err
}

// Login exchanges the admin password for a token and keeps it for
// subsequent requests.
func (c *Client) Login(ctx context.Context, password string) (api.LoginResponse, error) {
	var payload api.LoginResponse
	if err := c.doJSON(ctx, "login", http.MethodPost, "/auth/login", api.LoginRequest{Password: password}, &payload); err != nil {
		return api.LoginResponse{}, err
	}
	c.SetToken(payload.AccessToken)
	return payload, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, requestBody, responseBody any) error {
	if err := c.do(ctx, method, path, requestBody, responseBody); err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("request failed")
		return &quiz.TransportError{Op: op, Err: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, requestBody, responseBody any) error {
	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	request.Header.Set("Accept", "application/json")
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload httperrors.ErrorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			apiErr.Code = payload.Code
			apiErr.Message = payload.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
