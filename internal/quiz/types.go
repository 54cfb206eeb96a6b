package quiz

import (
	"context"
	"fmt"
)

// MaxQuestionsPerRound caps how many questions a single round shows.
const MaxQuestionsPerRound = 5

// Category is a question grouping supplied by a CategoryProvider.
type Category struct {
	ID   int
	Name string
}

// Question is an immutable trivia question as served by a QuestionSource.
type Question struct {
	ID         int
	Text       string
	Answer     string
	Difficulty int
	CategoryID int
}

// CategoryFilter selects which questions a round draws from: every
// category, or exactly one.
type CategoryFilter struct {
	id   int
	byID bool
}

// AllCategories draws from the whole question bank.
func AllCategories() CategoryFilter {
	return CategoryFilter{}
}

// ByCategory restricts the round to a single category.
func ByCategory(id int) CategoryFilter {
	return CategoryFilter{id: id, byID: true}
}

// IsAll reports whether the filter spans every category.
func (f CategoryFilter) IsAll() bool {
	return !f.byID
}

// CategoryID returns the selected category and true, or 0 and false for All.
func (f CategoryFilter) CategoryID() (int, bool) {
	return f.id, f.byID
}

func (f CategoryFilter) String() string {
	if !f.byID {
		return "ALL"
	}
	return fmt.Sprintf("category:%d", f.id)
}

// Config is chosen once when a session starts.
type Config struct {
	Category CategoryFilter
}

// Draw is the answer of a QuestionSource: the next unseen question, or
// none when the source is exhausted for the filter.
type Draw struct {
	Question *Question
	Last     bool
}

// Exhausted reports whether the source had nothing left to serve.
func (d Draw) Exhausted() bool {
	return d.Question == nil
}

// CategoryProvider lists the categories a player can choose from.
type CategoryProvider interface {
	Categories(ctx context.Context) ([]Category, error)
}

// QuestionSource returns the next question not in exclude for filter.
type QuestionSource interface {
	Next(ctx context.Context, exclude []int, filter CategoryFilter) (Draw, error)
}

// Phase is the position of a session in its round.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseAwaitingGuess
	PhaseShowingResult
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseAwaitingGuess:
		return "awaiting_guess"
	case PhaseShowingResult:
		return "showing_result"
	case PhaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Outcome tells the caller what an operation did to the session.
type Outcome int

const (
	// OutcomeApplied means the operation changed the session.
	OutcomeApplied Outcome = iota
	// OutcomeIgnored means the operation was not valid in the current
	// phase (or a request was already in flight). It is not an error.
	OutcomeIgnored
	// OutcomeDiscarded means a response arrived for a session that has
	// since been restarted and was dropped.
	OutcomeDiscarded
	// OutcomeFailed means a collaborator failed; the state is unchanged.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Snapshot is a copy of the render-relevant session state.
type Snapshot struct {
	Phase        Phase
	Category     CategoryFilter
	Started      bool
	Current      *Question
	AskedIDs     []int
	CorrectCount int
	Guess        string
	LastCorrect  bool
	Generation   uint64
}

// Result pairs an Outcome with the state observed after the operation.
type Result struct {
	Outcome Outcome
	State   Snapshot
}
