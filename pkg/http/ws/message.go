package ws

import "encoding/json"

// MessageType constants for the play WebSocket protocol.
const (
	// Client -> Server
	TypeListCategories = "list_categories"
	TypeSelectCategory = "select_category"
	TypeSubmitGuess    = "submit_guess"
	TypeNextQuestion   = "next_question"
	TypeRestart        = "restart"
	TypeRequestState   = "request_state"

	// Server -> Client
	TypeCategories = "categories"
	TypeState      = "state"
	TypeError      = "error"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// NewMessage marshals payload into a Message of the given type.
func NewMessage(msgType, requestID string, payload interface{}) (Message, error) {
	msg := Message{Type: msgType, RequestID: requestID}
	if payload == nil {
		return msg, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = raw
	return msg, nil
}

// Client Messages (incoming)

// SelectCategoryPayload picks the round's category. A missing or zero
// category id means all categories.
type SelectCategoryPayload struct {
	CategoryID *int `json:"category_id,omitempty"`
}

type SubmitGuessPayload struct {
	Guess string `json:"guess"`
}

// Server Messages (outgoing)

type CategoryPayload struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
}

type CategoriesPayload struct {
	Categories []CategoryPayload `json:"categories"`
}

type QuestionPayload struct {
	ID         int    `json:"id"`
	Question   string `json:"question"`
	Category   int    `json:"category"`
	Difficulty int    `json:"difficulty"`
}

// StatePayload mirrors a quiz session snapshot. The answer is only
// revealed once a guess has been evaluated.
type StatePayload struct {
	SessionID      string           `json:"session_id"`
	Phase          string           `json:"phase"`
	Category       int              `json:"category"`
	Question       *QuestionPayload `json:"question"`
	Answer         string           `json:"answer,omitempty"`
	Guess          string           `json:"guess,omitempty"`
	LastCorrect    bool             `json:"last_correct"`
	CorrectCount   int              `json:"correct_count"`
	AskedQuestions []int            `json:"asked_questions"`
	MaxQuestions   int              `json:"max_questions"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
