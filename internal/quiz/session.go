package quiz

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// Session drives one trivia round: up to MaxQuestionsPerRound questions
// requested one at a time from a QuestionSource, with guesses judged
// locally.
//
// Operations invoked in a phase where they do not apply are ignored and
// reported as OutcomeIgnored. Only one source request may be in flight;
// a response that arrives after Restart is discarded.
type Session struct {
	source     QuestionSource
	categories CategoryProvider
	logger     zerolog.Logger

	mu           sync.Mutex
	phase        Phase
	filter       CategoryFilter
	started      bool
	current      *Question
	asked        []int
	correct      int
	guess        string
	lastCorrect  bool
	lastQuestion bool
	inFlight     bool
	generation   uint64
}

// NewSession creates a session in PhaseNotStarted. categories may be nil
// when the caller lists categories some other way.
func NewSession(source QuestionSource, categories CategoryProvider, logger zerolog.Logger) *Session {
	return &Session{
		source:     source,
		categories: categories,
		logger:     logger.With().Str("component", "quiz_session").Logger(),
	}
}

type fetchRequest struct {
	generation uint64
	exclude    []int
	filter     CategoryFilter
}

// Categories lists the categories available for SelectCategory.
func (s *Session) Categories(ctx context.Context) ([]Category, error) {
	if s.categories == nil {
		return nil, nil
	}
	cats, err := s.categories.Categories(ctx)
	if err != nil {
		return nil, AsTransportError("list categories", err)
	}
	return cats, nil
}

// SelectCategory starts the round and fetches its first question.
func (s *Session) SelectCategory(ctx context.Context, cfg Config) (Result, error) {
	s.mu.Lock()
	if s.phase != PhaseNotStarted || s.started || s.inFlight {
		res := s.resultLocked(OutcomeIgnored)
		s.mu.Unlock()
		return res, nil
	}
	req := s.beginFetchLocked(nil, cfg.Category)
	s.mu.Unlock()

	return s.fetch(ctx, req)
}

// RequestNextQuestion records the current question as asked and fetches
// the next one, or finishes the round when the limit is reached or the
// previous draw was the last.
func (s *Session) RequestNextQuestion(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if !s.started || s.phase == PhaseFinished || s.phase == PhaseNotStarted || s.inFlight {
		res := s.resultLocked(OutcomeIgnored)
		s.mu.Unlock()
		return res, nil
	}
	return s.nextLocked(ctx)
}

// SubmitGuess judges text against the current answer.
func (s *Session) SubmitGuess(text string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseAwaitingGuess || s.inFlight || s.current == nil {
		return s.resultLocked(OutcomeIgnored)
	}

	s.guess = text
	s.lastCorrect = EvaluateAnswer(text, s.current.Answer)
	if s.lastCorrect {
		s.correct++
	}
	s.phase = PhaseShowingResult

	s.logger.Debug().
		Int("question_id", s.current.ID).
		Bool("correct", s.lastCorrect).
		Int("correct_count", s.correct).
		Msg("guess evaluated")
	return s.resultLocked(OutcomeApplied)
}

// Advance leaves the result screen: finish the round or fetch the next
// question.
func (s *Session) Advance(ctx context.Context) (Result, error) {
	s.mu.Lock()
	if s.phase != PhaseShowingResult || s.inFlight {
		res := s.resultLocked(OutcomeIgnored)
		s.mu.Unlock()
		return res, nil
	}
	return s.nextLocked(ctx)
}

// Restart resets the session to PhaseNotStarted from any phase. Responses
// still in flight for the previous round are discarded when they land.
func (s *Session) Restart() Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.phase = PhaseNotStarted
	s.filter = AllCategories()
	s.started = false
	s.current = nil
	s.asked = nil
	s.correct = 0
	s.guess = ""
	s.lastCorrect = false
	s.lastQuestion = false
	s.inFlight = false

	s.logger.Debug().Uint64("generation", s.generation).Msg("session restarted")
	return s.resultLocked(OutcomeApplied)
}

// State returns a copy of the current session state.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// nextLocked must be called with s.mu held; it releases the lock.
func (s *Session) nextLocked(ctx context.Context) (Result, error) {
	staged := slices.Clone(s.asked)
	if s.current != nil && !slices.Contains(staged, s.current.ID) {
		staged = append(staged, s.current.ID)
	}

	if s.lastQuestion || len(staged) >= MaxQuestionsPerRound {
		s.asked = staged
		s.phase = PhaseFinished
		s.logger.Debug().
			Int("asked", len(s.asked)).
			Int("correct_count", s.correct).
			Bool("source_exhausted", s.lastQuestion).
			Msg("round finished")
		res := s.resultLocked(OutcomeApplied)
		s.mu.Unlock()
		return res, nil
	}

	req := s.beginFetchLocked(staged, s.filter)
	s.mu.Unlock()
	return s.fetch(ctx, req)
}

func (s *Session) beginFetchLocked(exclude []int, filter CategoryFilter) fetchRequest {
	s.inFlight = true
	return fetchRequest{
		generation: s.generation,
		exclude:    exclude,
		filter:     filter,
	}
}

// fetch calls the source without holding the lock and applies the
// response only if the session was not restarted meanwhile.
func (s *Session) fetch(ctx context.Context, req fetchRequest) (Result, error) {
	draw, err := s.source.Next(ctx, slices.Clone(req.exclude), req.filter)

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.generation != s.generation {
		s.logger.Warn().
			Uint64("request_generation", req.generation).
			Uint64("generation", s.generation).
			Msg("discarding response for restarted session")
		return s.resultLocked(OutcomeDiscarded), nil
	}
	s.inFlight = false

	if err != nil {
		s.logger.Warn().Err(err).Str("filter", req.filter.String()).Msg("question fetch failed")
		return s.resultLocked(OutcomeFailed), AsTransportError("next question", err)
	}

	s.filter = req.filter
	s.started = true
	s.asked = req.exclude

	// A repeated question means the source has nothing new to offer.
	if draw.Exhausted() || slices.Contains(s.asked, draw.Question.ID) {
		s.phase = PhaseFinished
		s.logger.Debug().Int("asked", len(s.asked)).Msg("question source exhausted")
		return s.resultLocked(OutcomeApplied), nil
	}

	q := *draw.Question
	s.current = &q
	s.guess = ""
	s.lastCorrect = false
	s.lastQuestion = draw.Last
	s.phase = PhaseAwaitingGuess

	s.logger.Debug().
		Int("question_id", q.ID).
		Int("asked", len(s.asked)).
		Bool("last", draw.Last).
		Msg("question received")
	return s.resultLocked(OutcomeApplied), nil
}

func (s *Session) resultLocked(outcome Outcome) Result {
	return Result{Outcome: outcome, State: s.snapshotLocked()}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:        s.phase,
		Category:     s.filter,
		Started:      s.started,
		AskedIDs:     slices.Clone(s.asked),
		CorrectCount: s.correct,
		Guess:        s.guess,
		LastCorrect:  s.lastCorrect,
		Generation:   s.generation,
	}
	if s.current != nil {
		q := *s.current
		snap.Current = &q
	}
	return snap
}
