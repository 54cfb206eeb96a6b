package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia/internal/metrics"
	"github.com/gokatarajesh/trivia/internal/quiz"
	"github.com/gokatarajesh/trivia/pkg/api"
	httperrors "github.com/gokatarajesh/trivia/pkg/http/errors"
)

// HTTPHandler exposes the catalog as the trivia REST API.
type HTTPHandler struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandler creates the REST handlers.
func NewHTTPHandler(service *Service, logger zerolog.Logger) *HTTPHandler {
	return &HTTPHandler{
		service: service,
		logger:  logger.With().Str("component", "catalog_http").Logger(),
	}
}

// Register mounts the API routes. guardWrites wraps the mutating routes;
// pass nil to leave them open.
func (h *HTTPHandler) Register(mux *http.ServeMux, guardWrites func(http.Handler) http.Handler) {
	if guardWrites == nil {
		guardWrites = func(next http.Handler) http.Handler { return next }
	}

	mux.HandleFunc("GET /categories", h.ListCategories)
	mux.HandleFunc("GET /categories/{id}/questions", h.ListCategoryQuestions)
	mux.HandleFunc("GET /questions", h.ListQuestions)
	mux.Handle("POST /questions", guardWrites(http.HandlerFunc(h.CreateQuestion)))
	mux.HandleFunc("POST /questions/search", h.SearchQuestions)
	mux.Handle("DELETE /questions/{id}", guardWrites(http.HandlerFunc(h.DeleteQuestion)))
	mux.HandleFunc("POST /quizzes", h.NextQuizQuestion)
}

// ListCategories handles GET /categories
func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		h.internalError(w, err, "list categories")
		return
	}
	httperrors.RespondJSON(w, http.StatusOK, api.CategoriesResponse{
		Success:    true,
		Categories: toAPICategories(categories),
	})
}

// ListQuestions handles GET /questions?page=N
func (h *HTTPHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	number, err := parsePage(r)
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPage, err.Error())
		return
	}

	page, err := h.service.Questions(r.Context(), number)
	if err != nil {
		if errors.Is(err, ErrInvalidPage) {
			httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPage, err.Error())
			return
		}
		h.internalError(w, err, "list questions")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, api.QuestionsResponse{
		Success:        true,
		Questions:      toAPIQuestions(page.Questions),
		TotalQuestions: page.Total,
		Categories:     toAPICategories(page.Categories),
	})
}

// ListCategoryQuestions handles GET /categories/{id}/questions
func (h *HTTPHandler) ListCategoryQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeCategoryNotFound, "Resource not found")
		return
	}

	category, questions, err := h.service.QuestionsByCategory(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeCategoryNotFound, "Resource not found")
			return
		}
		h.internalError(w, err, "list category questions")
		return
	}

	current := toAPICategory(category)
	httperrors.RespondJSON(w, http.StatusOK, api.QuestionsResponse{
		Success:         true,
		Questions:       toAPIQuestions(questions),
		TotalQuestions:  len(questions),
		CurrentCategory: &current,
	})
}

// CreateQuestion handles POST /questions
func (h *HTTPHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req api.CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	created, err := h.service.Create(r.Context(), NewQuestion{
		Text:       req.Question,
		Answer:     req.Answer,
		CategoryID: req.Category,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, verr.Message, verr.Field)
			return
		}
		h.internalError(w, err, "create question")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, api.CreateQuestionResponse{
		Success:  true,
		Message:  "Question successfully created",
		Question: toAPIQuestion(created),
	})
}

// SearchQuestions handles POST /questions/search
func (h *HTTPHandler) SearchQuestions(w http.ResponseWriter, r *http.Request) {
	var req api.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.SearchTerm == nil {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, "search_term is required", "search_term")
		return
	}

	questions, err := h.service.Search(r.Context(), *req.SearchTerm)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeMissingField, verr.Message, verr.Field)
			return
		}
		h.internalError(w, err, "search questions")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, api.SearchResponse{
		Success:        true,
		Questions:      toAPIQuestions(questions),
		TotalQuestions: len(questions),
	})
}

// DeleteQuestion handles DELETE /questions/{id}
func (h *HTTPHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionNotFound, "Resource not found")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeQuestionNotFound, "Resource not found")
			return
		}
		h.internalError(w, err, "delete question")
		return
	}

	httperrors.RespondJSON(w, http.StatusOK, api.DeleteQuestionResponse{
		Success: true,
		Message: "Question successfully deleted",
		ID:      id,
	})
}

// NextQuizQuestion handles POST /quizzes. quiz_category 0 selects every
// category.
func (h *HTTPHandler) NextQuizQuestion(w http.ResponseWriter, r *http.Request) {
	var req api.QuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.QuizCategory < 0 {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "quiz_category must not be negative", "quiz_category")
		return
	}

	draw, err := h.service.NextQuizQuestion(r.Context(), req.PreviousQuestions, FilterFromWire(req.QuizCategory))
	if err != nil {
		h.internalError(w, err, "draw quiz question")
		return
	}
	metrics.QuizDraws.WithLabelValues(metrics.DrawResult(draw.Question != nil, draw.Last)).Inc()

	resp := api.QuizResponse{Success: true, LastQuestion: draw.Last}
	if draw.Question != nil {
		q := toAPIQuestion(*draw.Question)
		resp.Question = &q
	}
	httperrors.RespondJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) internalError(w http.ResponseWriter, err error, op string) {
	h.logger.Error().Err(err).Str("op", op).Msg("request failed")
	httperrors.RespondInternalError(w, "Internal server error")
}

// FilterFromWire maps the quiz_category wire value onto a filter.
func FilterFromWire(categoryID int) quiz.CategoryFilter {
	if categoryID == api.AllCategoriesID {
		return quiz.AllCategories()
	}
	return quiz.ByCategory(categoryID)
}

func parsePage(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, ErrInvalidPage
	}
	return page, nil
}

func toAPICategory(c Category) api.Category {
	return api.Category{ID: c.ID, Type: c.Name}
}

func toAPICategories(categories []Category) []api.Category {
	out := make([]api.Category, 0, len(categories))
	for _, c := range categories {
		out = append(out, toAPICategory(c))
	}
	return out
}

func toAPIQuestion(q Question) api.Question {
	return api.Question{
		ID:         q.ID,
		Question:   q.Text,
		Answer:     q.Answer,
		Category:   q.CategoryID,
		Difficulty: q.Difficulty,
	}
}

func toAPIQuestions(questions []Question) []api.Question {
	out := make([]api.Question, 0, len(questions))
	for _, q := range questions {
		out = append(out, toAPIQuestion(q))
	}
	return out
}
