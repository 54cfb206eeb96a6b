package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gokatarajesh/trivia/internal/client"
)

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := readLine(reader)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(line) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

// promptInt reads a non-negative integer, re-asking on bad input.
func promptInt(reader *bufio.Reader, out io.Writer, prompt string) (int, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := readLine(reader)
		if err != nil {
			return 0, err
		}
		value, convErr := strconv.Atoi(line)
		if convErr == nil && value >= 0 {
			return value, nil
		}
		fmt.Fprintln(out, "Please enter a number.")
	}
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, client.ErrServiceUnavailable) {
		return fmt.Errorf("trivia service unavailable at %s", serverURL)
	}
	return err
}
