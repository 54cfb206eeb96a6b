package play

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia/internal/metrics"
	"github.com/gokatarajesh/trivia/internal/quiz"
	httperrors "github.com/gokatarajesh/trivia/pkg/http/errors"
	ws "github.com/gokatarajesh/trivia/pkg/http/ws"
)

// Handler hosts one quiz session per WebSocket connection.
type Handler struct {
	source     quiz.QuestionSource
	categories quiz.CategoryProvider
	hub        *ws.Hub
	upgrader   *websocket.Upgrader
	logger     zerolog.Logger
}

// NewHandler creates a play WebSocket handler.
func NewHandler(source quiz.QuestionSource, categories quiz.CategoryProvider, hub *ws.Hub, upgrader *websocket.Upgrader, logger zerolog.Logger) *Handler {
	return &Handler{
		source:     source,
		categories: categories,
		hub:        hub,
		upgrader:   upgrader,
		logger:     logger.With().Str("component", "play").Logger(),
	}
}

// HandleWebSocket handles GET /ws/play.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	h.HandleConnection(r.Context(), conn)
}

// HandleConnection runs the session until the peer disconnects.
func (h *Handler) HandleConnection(parent context.Context, conn *websocket.Conn) {
	sessionID := uuid.New()
	logger := h.logger.With().Str("session_id", sessionID.String()).Logger()

	// The request context ends with the handler; in-flight fetches should
	// not outlive the connection either.
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))

	p := &player{
		id:      sessionID,
		session: quiz.NewSession(h.source, h.categories, logger),
		hub:     h.hub,
		logger:  logger,
	}

	wsConn := ws.NewConnection(conn, logger)
	h.hub.Register(sessionID, wsConn)
	metrics.PlaySessions.Inc()
	logger.Info().Msg("play session opened")

	go wsConn.WritePump()

	p.sendState("")
	wsConn.ReadPump(func(msg ws.Message) error {
		return p.handleMessage(ctx, msg)
	})

	cancel()
	p.pending.Wait()
	h.hub.Unregister(sessionID)
	metrics.PlaySessions.Dec()
	logger.Info().Msg("play session closed")
}

type player struct {
	id      uuid.UUID
	session *quiz.Session
	hub     *ws.Hub
	logger  zerolog.Logger
	pending sync.WaitGroup
}

// handleMessage routes incoming WebSocket messages.
func (p *player) handleMessage(ctx context.Context, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeListCategories:
		p.async(func() { p.listCategories(ctx, msg.RequestID) })
		return nil
	case ws.TypeSelectCategory:
		return p.handleSelectCategory(ctx, msg)
	case ws.TypeSubmitGuess:
		return p.handleSubmitGuess(msg)
	case ws.TypeNextQuestion:
		p.async(func() { p.next(ctx, msg.RequestID) })
		return nil
	case ws.TypeRestart:
		p.session.Restart()
		return p.sendState(msg.RequestID)
	case ws.TypeRequestState:
		return p.sendState(msg.RequestID)
	default:
		return p.sendError(msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

// async runs a source-bound operation off the read loop so a restart can
// overtake it.
func (p *player) async(fn func()) {
	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		fn()
	}()
}

func (p *player) handleSelectCategory(ctx context.Context, msg ws.Message) error {
	var req ws.SelectCategoryPayload
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return p.sendError(msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid select_category payload")
		}
	}

	filter := quiz.AllCategories()
	if req.CategoryID != nil && *req.CategoryID != 0 {
		filter = quiz.ByCategory(*req.CategoryID)
	}

	p.async(func() {
		res, err := p.session.SelectCategory(ctx, quiz.Config{Category: filter})
		p.report(msg.RequestID, res, err)
	})
	return nil
}

func (p *player) handleSubmitGuess(msg ws.Message) error {
	var req ws.SubmitGuessPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return p.sendError(msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid submit_guess payload")
	}

	res := p.session.SubmitGuess(req.Guess)
	if res.Outcome == quiz.OutcomeApplied {
		metrics.Guesses.WithLabelValues(strconv.FormatBool(res.State.LastCorrect)).Inc()
	}
	return p.sendSnapshot(msg.RequestID, res.State)
}

// next advances from the result screen, or skips the unanswered question.
func (p *player) next(ctx context.Context, requestID string) {
	var (
		res quiz.Result
		err error
	)
	if p.session.State().Phase == quiz.PhaseShowingResult {
		res, err = p.session.Advance(ctx)
	} else {
		res, err = p.session.RequestNextQuestion(ctx)
	}
	p.report(requestID, res, err)
}

func (p *player) listCategories(ctx context.Context, requestID string) {
	categories, err := p.session.Categories(ctx)
	if err != nil {
		p.logger.Warn().Err(err).Msg("list categories failed")
		p.sendError(requestID, httperrors.ErrCodeUpstreamError, "Categories are unavailable")
		return
	}

	payload := ws.CategoriesPayload{Categories: make([]ws.CategoryPayload, 0, len(categories))}
	for _, c := range categories {
		payload.Categories = append(payload.Categories, ws.CategoryPayload{ID: c.ID, Type: c.Name})
	}
	p.send(ws.TypeCategories, requestID, payload)
}

// report delivers the outcome of a fetching operation.
func (p *player) report(requestID string, res quiz.Result, err error) {
	var transportErr *quiz.TransportError
	switch {
	case errors.As(err, &transportErr):
		p.sendError(requestID, httperrors.ErrCodeQuestionUnavailable, "Could not load the next question, try again")
		return
	case err != nil:
		p.logger.Error().Err(err).Msg("session operation failed")
		p.sendError(requestID, httperrors.ErrCodeInternalError, "Internal server error")
		return
	}

	switch res.Outcome {
	case quiz.OutcomeDiscarded:
		metrics.StaleResponses.Inc()
		return
	case quiz.OutcomeApplied:
		if res.State.Phase == quiz.PhaseFinished {
			metrics.RoundsFinished.Inc()
		}
	}
	p.sendSnapshot(requestID, res.State)
}

func (p *player) sendState(requestID string) error {
	return p.sendSnapshot(requestID, p.session.State())
}

func (p *player) sendSnapshot(requestID string, snap quiz.Snapshot) error {
	return p.send(ws.TypeState, requestID, StatePayload(p.id, snap))
}

func (p *player) sendError(requestID, code, message string) error {
	return p.send(ws.TypeError, requestID, ws.ErrorPayload{Code: code, Message: message})
}

func (p *player) send(msgType, requestID string, payload interface{}) error {
	msg, err := ws.NewMessage(msgType, requestID, payload)
	if err != nil {
		return err
	}
	return p.hub.Send(p.id, msg)
}

// StatePayload renders a session snapshot for the wire. The answer is
// only included on the result screen.
func StatePayload(sessionID uuid.UUID, snap quiz.Snapshot) ws.StatePayload {
	out := ws.StatePayload{
		SessionID:      sessionID.String(),
		Phase:          snap.Phase.String(),
		LastCorrect:    snap.LastCorrect,
		CorrectCount:   snap.CorrectCount,
		AskedQuestions: snap.AskedIDs,
		MaxQuestions:   quiz.MaxQuestionsPerRound,
	}
	if out.AskedQuestions == nil {
		out.AskedQuestions = []int{}
	}
	if id, ok := snap.Category.CategoryID(); ok {
		out.Category = id
	}
	if snap.Current != nil && snap.Phase != quiz.PhaseFinished {
		out.Question = &ws.QuestionPayload{
			ID:         snap.Current.ID,
			Question:   snap.Current.Text,
			Category:   snap.Current.CategoryID,
			Difficulty: snap.Current.Difficulty,
		}
	}
	if snap.Phase == quiz.PhaseShowingResult && snap.Current != nil {
		out.Answer = snap.Current.Answer
		out.Guess = snap.Guess
	}
	return out
}
