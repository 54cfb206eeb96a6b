// Package cli implements the trivia terminal client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia/internal/client"
	"github.com/gokatarajesh/trivia/internal/config"
)

const defaultHTTPTimeout = 5 * time.Second

// ErrUsage is returned for unknown commands or bad flags.
var ErrUsage = errors.New("invalid usage")

type app struct {
	client *client.Client
	reader *bufio.Reader
	out    io.Writer
	logger zerolog.Logger
}

// Run executes one trivia command. args excludes the program name.
func Run(ctx context.Context, args []string, in io.Reader, out io.Writer, cfg config.Client, logger zerolog.Logger) error {
	global := flag.NewFlagSet("trivia", flag.ContinueOnError)
	global.SetOutput(out)
	server := global.String("server", cfg.APIURL, "trivia API base URL")
	token := global.String("token", cfg.Token, "admin access token for write commands")
	timeout := global.Duration("timeout", cfg.Timeout, "HTTP timeout")
	global.Usage = func() { printUsage(out) }
	if err := global.Parse(args); err != nil {
		return ErrUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		printUsage(out)
		return ErrUsage
	}
	if *timeout <= 0 {
		*timeout = defaultHTTPTimeout
	}

	api := client.New(*server, &http.Client{Timeout: *timeout}, logger)
	api.SetToken(*token)

	a := &app{
		client: api,
		reader: bufio.NewReader(in),
		out:    out,
		logger: logger,
	}

	command, cmdArgs := strings.ToLower(rest[0]), rest[1:]
	var err error
	switch command {
	case "categories":
		err = a.runCategories(ctx, cmdArgs)
	case "list":
		err = a.runList(ctx, cmdArgs)
	case "category":
		err = a.runCategory(ctx, cmdArgs)
	case "search":
		err = a.runSearch(ctx, cmdArgs)
	case "add":
		err = a.runAdd(ctx, cmdArgs)
	case "delete":
		err = a.runDelete(ctx, cmdArgs)
	case "login":
		err = a.runLogin(ctx, cmdArgs)
	case "play":
		err = a.runPlay(ctx, cmdArgs)
	case "help":
		printUsage(out)
		return nil
	default:
		fmt.Fprintf(out, "unknown command %q\n\n", command)
		printUsage(out)
		return ErrUsage
	}
	return describeClientError(err, api.BaseURL())
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(fs.Output(), "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return ErrUsage
	}
	return nil
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "usage: trivia [-server URL] [-token TOKEN] <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  categories                      list categories")
	fmt.Fprintln(out, "  list [-page N]                  list questions, 10 per page")
	fmt.Fprintln(out, "  category -id N                  list questions of a category")
	fmt.Fprintln(out, "  search -term T                  search question text")
	fmt.Fprintln(out, "  add -question Q -answer A -category N -difficulty D")
	fmt.Fprintln(out, "  delete -id N                    delete a question")
	fmt.Fprintln(out, "  login [-password P]             get an admin token")
	fmt.Fprintln(out, "  play [-category N]              play a round of up to 5 questions")
}
