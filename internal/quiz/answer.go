package quiz

import (
	"regexp"
	"slices"
	"strings"
)

// guessPunctuation is stripped from guesses before comparison.
var guessPunctuation = regexp.MustCompile("[.,/#!$%^&*;:{}=\\-_`~()]")

// NormalizeGuess removes punctuation and lowercases a free-text guess.
// Whitespace is kept, so a multi-word guess never equals a single token.
func NormalizeGuess(guess string) string {
	return strings.ToLower(guessPunctuation.ReplaceAllString(guess, ""))
}

// AnswerTokens splits the lowercased answer on whitespace.
func AnswerTokens(answer string) []string {
	return strings.Fields(strings.ToLower(answer))
}

// EvaluateAnswer reports whether the normalized guess equals one token of
// the answer.
func EvaluateAnswer(guess, answer string) bool {
	normalized := NormalizeGuess(guess)
	if normalized == "" {
		return false
	}
	return slices.Contains(AnswerTokens(answer), normalized)
}
