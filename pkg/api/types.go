// Package api holds the JSON wire types of the trivia REST API, shared by
// the server handlers and the Go client.
package api

// AllCategoriesID is the quiz_category value that selects every category.
const AllCategoriesID = 0

type Category struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

type Question struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

type CategoriesResponse struct {
	Success    bool       `json:"success"`
	Categories []Category `json:"categories"`
}

// QuestionsResponse serves both the paginated listing and the
// per-category listing.
type QuestionsResponse struct {
	Success         bool       `json:"success"`
	Questions       []Question `json:"questions"`
	TotalQuestions  int        `json:"total_questions"`
	Categories      []Category `json:"categories,omitempty"`
	CurrentCategory *Category  `json:"current_category"`
}

type CreateQuestionRequest struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

type CreateQuestionResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Question Question `json:"question"`
}

type DeleteQuestionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// SearchRequest uses a pointer so a missing term can be told apart from
// an empty one.
type SearchRequest struct {
	SearchTerm *string `json:"search_term"`
}

type SearchResponse struct {
	Success        bool       `json:"success"`
	Questions      []Question `json:"questions"`
	TotalQuestions int        `json:"total_questions"`
}

type QuizRequest struct {
	PreviousQuestions []int `json:"previous_questions"`
	QuizCategory      int   `json:"quiz_category"`
}

// QuizResponse carries a nil question when nothing is left to ask.
type QuizResponse struct {
	Success      bool      `json:"success"`
	Question     *Question `json:"question"`
	LastQuestion bool      `json:"last_question"`
}

type LoginRequest struct {
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
