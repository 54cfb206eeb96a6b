package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gokatarajesh/trivia/internal/quiz"
)

func (a *app) runPlay(ctx context.Context, args []string) error {
	fs := a.flags("play")
	category := fs.Int("category", -1, "category id, 0 for all; asked interactively when omitted")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	session := quiz.NewSession(a.client.QuestionSource(), a.client.CategoryProvider(), a.logger)
	err := Play(ctx, session, a.reader, a.out, *category)
	if errors.Is(err, io.EOF) {
		fmt.Fprintln(a.out)
		return nil
	}
	return err
}

// Play runs rounds on session until the player declines another one.
// A negative category asks the player before every round.
func Play(ctx context.Context, session *quiz.Session, reader *bufio.Reader, out io.Writer, category int) error {
	for {
		filter, err := chooseCategory(ctx, session, reader, out, category)
		if err != nil {
			return err
		}

		res, err := withRetry(reader, out, func() (quiz.Result, error) {
			return session.SelectCategory(ctx, quiz.Config{Category: filter})
		})
		if err != nil {
			return err
		}

		for res.State.Phase != quiz.PhaseFinished {
			switch res.State.Phase {
			case quiz.PhaseAwaitingGuess:
				q := res.State.Current
				fmt.Fprintf(out, "\nQ%d/%d (difficulty %d): %s\n", len(res.State.AskedIDs)+1, quiz.MaxQuestionsPerRound, q.Difficulty, q.Text)
				fmt.Fprint(out, "Your answer: ")
				guess, err := readLine(reader)
				if err != nil {
					return err
				}
				res = session.SubmitGuess(guess)

			case quiz.PhaseShowingResult:
				if res.State.LastCorrect {
					fmt.Fprintln(out, "Correct!")
				} else {
					fmt.Fprintf(out, "Wrong. The answer was %s\n", res.State.Current.Answer)
				}
				res, err = withRetry(reader, out, func() (quiz.Result, error) {
					return session.Advance(ctx)
				})
				if err != nil {
					return err
				}

			default:
				return fmt.Errorf("unexpected session phase %s", res.State.Phase)
			}
		}

		printFinalScore(out, res.State)

		again, err := promptYesNo(reader, out, "Play again? [y/n]: ")
		if err != nil {
			return err
		}
		if !again {
			return nil
		}
		session.Restart()
	}
}

func chooseCategory(ctx context.Context, session *quiz.Session, reader *bufio.Reader, out io.Writer, category int) (quiz.CategoryFilter, error) {
	if category == 0 {
		return quiz.AllCategories(), nil
	}
	if category > 0 {
		return quiz.ByCategory(category), nil
	}

	categories, err := session.Categories(ctx)
	if err != nil {
		return quiz.CategoryFilter{}, err
	}

	fmt.Fprintln(out, "Categories:")
	fmt.Fprintf(out, "%3d  All\n", 0)
	for _, c := range categories {
		fmt.Fprintf(out, "%3d  %s\n", c.ID, c.Name)
	}
	for {
		id, err := promptInt(reader, out, "Choose a category: ")
		if err != nil {
			return quiz.CategoryFilter{}, err
		}
		if id == 0 {
			return quiz.AllCategories(), nil
		}
		for _, c := range categories {
			if c.ID == id {
				return quiz.ByCategory(id), nil
			}
		}
		fmt.Fprintln(out, "No such category.")
	}
}

// withRetry repeats a fetching operation while the player wants to retry
// after a transport error. The session state is unchanged by failures.
func withRetry(reader *bufio.Reader, out io.Writer, op func() (quiz.Result, error)) (quiz.Result, error) {
	for {
		res, err := op()
		var transportErr *quiz.TransportError
		if !errors.As(err, &transportErr) {
			return res, err
		}

		fmt.Fprintf(out, "Could not reach the trivia service: %v\n", transportErr.Err)
		retry, promptErr := promptYesNo(reader, out, "Retry? [y/n]: ")
		if promptErr != nil {
			return res, promptErr
		}
		if !retry {
			return res, err
		}
	}
}

func printFinalScore(out io.Writer, state quiz.Snapshot) {
	asked := len(state.AskedIDs)
	if asked == 0 {
		fmt.Fprintln(out, "\nNo questions available for this category.")
		return
	}
	fmt.Fprintf(out, "\nFinal score: %d/%d\n", state.CorrectCount, asked)
}
