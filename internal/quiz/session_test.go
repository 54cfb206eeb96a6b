package quiz

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sourceCall struct {
	exclude []int
	filter  CategoryFilter
}

// bankSource serves questions in order, skipping excluded ids.
type bankSource struct {
	mu        sync.Mutex
	questions []Question
	calls     []sourceCall
	failNext  error
	markLast  bool
}

func newBankSource(n int) *bankSource {
	src := &bankSource{}
	for i := 1; i <= n; i++ {
		src.questions = append(src.questions, Question{
			ID:         i * 10,
			Text:       "Question",
			Answer:     "Answer Number",
			Difficulty: 1 + i%5,
			CategoryID: 1,
		})
	}
	return src
}

func (b *bankSource) Next(_ context.Context, exclude []int, filter CategoryFilter) (Draw, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.calls = append(b.calls, sourceCall{exclude: slices.Clone(exclude), filter: filter})
	if b.failNext != nil {
		err := b.failNext
		b.failNext = nil
		return Draw{}, err
	}

	var remaining []Question
	for _, q := range b.questions {
		if id, ok := filter.CategoryID(); ok && q.CategoryID != id {
			continue
		}
		if !slices.Contains(exclude, q.ID) {
			remaining = append(remaining, q)
		}
	}
	if len(remaining) == 0 {
		return Draw{Last: true}, nil
	}
	q := remaining[0]
	return Draw{Question: &q, Last: b.markLast && len(remaining) == 1}, nil
}

func (b *bankSource) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func newTestSession(src QuestionSource) *Session {
	return NewSession(src, nil, zerolog.Nop())
}

func TestSessionFullRoundScoresCorrectGuesses(t *testing.T) {
	src := newBankSource(10)
	s := newTestSession(src)
	ctx := context.Background()

	res, err := s.SelectCategory(ctx, Config{Category: AllCategories()})
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, res.Outcome)

	guesses := []string{"answer", "nope", "NUMBER!", "wrong", "Answer"}
	for i, guess := range guesses {
		require.Equal(t, PhaseAwaitingGuess, s.State().Phase, "round %d", i)
		res = s.SubmitGuess(guess)
		require.Equal(t, OutcomeApplied, res.Outcome)
		require.Equal(t, PhaseShowingResult, res.State.Phase)

		res, err = s.Advance(ctx)
		require.NoError(t, err)
	}

	state := s.State()
	assert.Equal(t, PhaseFinished, state.Phase)
	assert.Equal(t, 3, state.CorrectCount)
	assert.Equal(t, []int{10, 20, 30, 40, 50}, state.AskedIDs)
	assert.Equal(t, 5, src.callCount(), "the fifth advance must not hit the source")
}

func TestSessionExclusionListIncludesAnsweredQuestion(t *testing.T) {
	src := newBankSource(10)
	s := newTestSession(src)
	ctx := context.Background()

	_, err := s.SelectCategory(ctx, Config{Category: ByCategory(1)})
	require.NoError(t, err)
	s.SubmitGuess("x")
	_, err = s.Advance(ctx)
	require.NoError(t, err)
	s.SubmitGuess("x")
	_, err = s.Advance(ctx)
	require.NoError(t, err)

	require.Len(t, src.calls, 3)
	assert.Empty(t, src.calls[0].exclude)
	assert.Equal(t, []int{10}, src.calls[1].exclude)
	assert.Equal(t, []int{10, 20}, src.calls[2].exclude)
	for _, call := range src.calls {
		assert.Equal(t, ByCategory(1), call.filter)
	}
}

func TestSessionLastQuestionFinishesWithoutFetching(t *testing.T) {
	src := newBankSource(2)
	src.markLast = true
	s := newTestSession(src)
	ctx := context.Background()

	_, err := s.SelectCategory(ctx, Config{Category: AllCategories()})
	require.NoError(t, err)
	s.SubmitGuess("answer")
	_, err = s.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, PhaseAwaitingGuess, s.State().Phase)

	s.SubmitGuess("answer")
	calls := src.callCount()
	res, err := s.Advance(ctx)
	require.NoError(t, err)

	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, PhaseFinished, res.State.Phase)
	assert.Equal(t, calls, src.callCount())
	assert.Equal(t, 2, res.State.CorrectCount)
	assert.Equal(t, []int{10, 20}, res.State.AskedIDs)
}

func TestSessionExhaustedSourceFinishes(t *testing.T) {
	src := newBankSource(0)
	s := newTestSession(src)

	res, err := s.SelectCategory(context.Background(), Config{Category: ByCategory(7)})
	require.NoError(t, err)
	assert.Equal(t, PhaseFinished, res.State.Phase)
	assert.Nil(t, res.State.Current)
	assert.Empty(t, res.State.AskedIDs)
}

func TestSessionRepeatedQuestionTreatedAsExhaustion(t *testing.T) {
	s := newTestSession(repeatingSource{})
	ctx := context.Background()

	_, err := s.SelectCategory(ctx, Config{Category: AllCategories()})
	require.NoError(t, err)
	s.SubmitGuess("x")
	res, err := s.Advance(ctx)
	require.NoError(t, err)

	assert.Equal(t, PhaseFinished, res.State.Phase)
	assert.Equal(t, []int{1}, res.State.AskedIDs)
}

type repeatingSource struct{}

func (repeatingSource) Next(context.Context, []int, CategoryFilter) (Draw, error) {
	return Draw{Question: &Question{ID: 1, Answer: "same"}}, nil
}

func TestSessionIgnoresOutOfPhaseOperations(t *testing.T) {
	src := newBankSource(10)
	s := newTestSession(src)
	ctx := context.Background()

	before := s.State()
	res := s.SubmitGuess("anything")
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, before, s.State())

	res, err := s.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)

	res, err = s.RequestNextQuestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Zero(t, src.callCount())

	_, err = s.SelectCategory(ctx, Config{Category: AllCategories()})
	require.NoError(t, err)

	res, err = s.SelectCategory(ctx, Config{Category: ByCategory(2)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.True(t, res.State.Category.IsAll())

	res, err = s.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome, "advance before a guess")

	s.SubmitGuess("answer")
	snap := s.State()
	res = s.SubmitGuess("answer")
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, snap, s.State(), "second guess must not score again")
	assert.Equal(t, 1, snap.CorrectCount)
}

func TestSessionIgnoresEverythingButRestartWhenFinished(t *testing.T) {
	s := newTestSession(newBankSource(1))
	ctx := context.Background()

	_, err := s.SelectCategory(ctx, Config{Category: AllCategories()})
	require.NoError(t, err)
	s.SubmitGuess("answer")
	_, err = s.Advance(ctx)
	require.NoError(t, err)
	require.Equal(t, PhaseFinished, s.State().Phase)

	res, err := s.RequestNextQuestion(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, OutcomeIgnored, s.SubmitGuess("answer").Outcome)
	res, err = s.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.Equal(t, PhaseFinished, s.State().Phase)
}

func TestSessionRestartFromFinished(t *testing.T) {
	src := newBankSource(10)
	s := newTestSession(src)
	ctx := context.Background()

	_, err := s.SelectCategory(ctx, Config{Category: ByCategory(1)})
	require.NoError(t, err)
	for s.State().Phase != PhaseFinished {
		s.SubmitGuess("answer")
		_, err = s.Advance(ctx)
		require.NoError(t, err)
	}
	require.Equal(t, 5, s.State().CorrectCount)

	res := s.Restart()
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, PhaseNotStarted, res.State.Phase)
	assert.Zero(t, res.State.CorrectCount)
	assert.Empty(t, res.State.AskedIDs)
	assert.Nil(t, res.State.Current)
	assert.False(t, res.State.Started)
	assert.True(t, res.State.Category.IsAll())

	res, err = s.SelectCategory(ctx, Config{Category: AllCategories()})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)
	assert.Equal(t, 10, res.State.Current.ID)
}

func TestSessionTransportErrorKeepsStateForRetry(t *testing.T) {
	src := newBankSource(10)
	s := newTestSession(src)
	ctx := context.Background()
	boom := errors.New("connection refused")

	src.failNext = boom
	res, err := s.SelectCategory(ctx, Config{Category: ByCategory(1)})
	require.Error(t, err)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, PhaseNotStarted, res.State.Phase)
	assert.False(t, res.State.Started)

	res, err = s.SelectCategory(ctx, Config{Category: ByCategory(1)})
	require.NoError(t, err)
	require.Equal(t, PhaseAwaitingGuess, res.State.Phase)

	s.SubmitGuess("answer")
	src.failNext = boom
	res, err = s.Advance(ctx)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, PhaseShowingResult, res.State.Phase)
	assert.Empty(t, res.State.AskedIDs, "exclusion list commits only on success")
	assert.Equal(t, 10, res.State.Current.ID)

	res, err = s.Advance(ctx)
	require.NoError(t, err)
	assert.Equal(t, PhaseAwaitingGuess, res.State.Phase)
	assert.Equal(t, []int{10}, res.State.AskedIDs)
	assert.Equal(t, 20, res.State.Current.ID)
}

// gatedSource blocks every call until released.
type gatedSource struct {
	entered chan struct{}
	release chan Draw
}

func (g *gatedSource) Next(ctx context.Context, _ []int, _ CategoryFilter) (Draw, error) {
	g.entered <- struct{}{}
	select {
	case d := <-g.release:
		return d, nil
	case <-ctx.Done():
		return Draw{}, ctx.Err()
	}
}

func TestSessionDiscardsResponseAfterRestart(t *testing.T) {
	src := &gatedSource{entered: make(chan struct{}), release: make(chan Draw)}
	s := newTestSession(src)
	ctx := context.Background()

	done := make(chan Result, 1)
	go func() {
		res, _ := s.SelectCategory(ctx, Config{Category: AllCategories()})
		done <- res
	}()

	<-src.entered
	assert.Equal(t, OutcomeIgnored, s.SubmitGuess("x").Outcome)
	res, err := s.SelectCategory(ctx, Config{Category: ByCategory(3)})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, res.Outcome, "no overlapping requests")

	restarted := s.Restart()
	require.Equal(t, PhaseNotStarted, restarted.State.Phase)

	src.release <- Draw{Question: &Question{ID: 99, Answer: "late"}}
	stale := <-done
	assert.Equal(t, OutcomeDiscarded, stale.Outcome)

	state := s.State()
	assert.Equal(t, PhaseNotStarted, state.Phase)
	assert.Nil(t, state.Current)
	assert.Equal(t, restarted.State.Generation, state.Generation)

	go func() {
		res, _ := s.SelectCategory(ctx, Config{Category: ByCategory(3)})
		done <- res
	}()
	<-src.entered
	src.release <- Draw{Question: &Question{ID: 7, Answer: "fresh"}}
	fresh := <-done
	assert.Equal(t, OutcomeApplied, fresh.Outcome)
	assert.Equal(t, 7, fresh.State.Current.ID)
	assert.Equal(t, ByCategory(3), fresh.State.Category)
}

func TestSessionAskedIDsBoundedAndUnique(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		src := newBankSource(rng.Intn(9))
		src.markLast = rng.Intn(2) == 0
		s := newTestSession(src)

		_, err := s.SelectCategory(ctx, Config{Category: AllCategories()})
		require.NoError(t, err)

		for step := 0; step < 20; step++ {
			switch rng.Intn(4) {
			case 0:
				s.SubmitGuess("answer")
			case 1:
				_, err = s.Advance(ctx)
			case 2:
				_, err = s.RequestNextQuestion(ctx)
			case 3:
				s.SubmitGuess("wrong")
			}
			require.NoError(t, err)

			state := s.State()
			assert.LessOrEqual(t, len(state.AskedIDs), MaxQuestionsPerRound)
			assert.Len(t, uniqueInts(state.AskedIDs), len(state.AskedIDs))
			assert.LessOrEqual(t, state.CorrectCount, len(state.AskedIDs)+1)
		}
	}
}

func TestSessionCategoriesWrapsProviderErrors(t *testing.T) {
	s := NewSession(newBankSource(1), failingCategories{}, zerolog.Nop())
	_, err := s.Categories(context.Background())

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "list categories", te.Op)
}

type failingCategories struct{}

func (failingCategories) Categories(context.Context) ([]Category, error) {
	return nil, errors.New("timeout")
}

func TestCategoryFilter(t *testing.T) {
	all := AllCategories()
	assert.True(t, all.IsAll())
	_, ok := all.CategoryID()
	assert.False(t, ok)
	assert.Equal(t, "ALL", all.String())

	science := ByCategory(1)
	id, ok := science.CategoryID()
	assert.True(t, ok)
	assert.Equal(t, 1, id)
	assert.False(t, science.IsAll())
	assert.NotEqual(t, all, ByCategory(0), "category 0 is not ALL")
}

func uniqueInts(in []int) map[int]struct{} {
	out := make(map[int]struct{}, len(in))
	for _, v := range in {
		out[v] = struct{}{}
	}
	return out
}
