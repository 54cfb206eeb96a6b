package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gokatarajesh/trivia/pkg/api"
)

func (a *app) runCategories(ctx context.Context, args []string) error {
	if err := parseFlags(a.flags("categories"), args); err != nil {
		return err
	}

	categories, err := a.client.Categories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Fprintln(a.out, "No categories.")
		return nil
	}
	for _, c := range categories {
		fmt.Fprintf(a.out, "%3d  %s\n", c.ID, c.Type)
	}
	return nil
}

func (a *app) runList(ctx context.Context, args []string) error {
	fs := a.flags("list")
	page := fs.Int("page", 1, "page number")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	resp, err := a.client.Questions(ctx, *page)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Page %d: %d of %d questions\n", *page, len(resp.Questions), resp.TotalQuestions)
	printQuestions(a.out, resp.Questions, categoryNames(resp.Categories))
	return nil
}

func (a *app) runCategory(ctx context.Context, args []string) error {
	fs := a.flags("category")
	id := fs.Int("id", 0, "category id (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fmt.Fprintln(a.out, "category: -id is required")
		return ErrUsage
	}

	resp, err := a.client.CategoryQuestions(ctx, *id)
	if err != nil {
		return err
	}

	names := map[int]string{}
	if resp.CurrentCategory != nil {
		names[resp.CurrentCategory.ID] = resp.CurrentCategory.Type
		fmt.Fprintf(a.out, "%s: %d questions\n", resp.CurrentCategory.Type, resp.TotalQuestions)
	}
	printQuestions(a.out, resp.Questions, names)
	return nil
}

func (a *app) runSearch(ctx context.Context, args []string) error {
	fs := a.flags("search")
	term := fs.String("term", "", "text to search for (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if strings.TrimSpace(*term) == "" {
		fmt.Fprintln(a.out, "search: -term is required")
		return ErrUsage
	}

	resp, err := a.client.Search(ctx, *term)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d matching questions\n", resp.TotalQuestions)
	printQuestions(a.out, resp.Questions, nil)
	return nil
}

func (a *app) runAdd(ctx context.Context, args []string) error {
	fs := a.flags("add")
	question := fs.String("question", "", "question text (required)")
	answer := fs.String("answer", "", "answer text (required)")
	category := fs.Int("category", 0, "category id (required)")
	difficulty := fs.Int("difficulty", 1, "difficulty 1-5")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	created, err := a.client.CreateQuestion(ctx, api.CreateQuestionRequest{
		Question:   *question,
		Answer:     *answer,
		Category:   *category,
		Difficulty: *difficulty,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created question %d\n", created.ID)
	return nil
}

func (a *app) runDelete(ctx context.Context, args []string) error {
	fs := a.flags("delete")
	id := fs.Int("id", 0, "question id (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *id <= 0 {
		fmt.Fprintln(a.out, "delete: -id is required")
		return ErrUsage
	}

	if err := a.client.DeleteQuestion(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted question %d\n", *id)
	return nil
}

func (a *app) runLogin(ctx context.Context, args []string) error {
	fs := a.flags("login")
	password := fs.String("password", "", "admin password; read from stdin when empty")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *password == "" {
		fmt.Fprint(a.out, "Admin password: ")
		line, err := readLine(a.reader)
		if err != nil {
			return err
		}
		*password = line
	}

	resp, err := a.client.Login(ctx, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Token valid for %ds. Use it with:\n  export TRIVIA_API_TOKEN=%s\n", resp.ExpiresIn, resp.AccessToken)
	return nil
}

func categoryNames(categories []api.Category) map[int]string {
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Type
	}
	return names
}

func printQuestions(out io.Writer, questions []api.Question, names map[int]string) {
	for _, q := range questions {
		category := names[q.Category]
		if category == "" {
			category = fmt.Sprintf("category %d", q.Category)
		}
		fmt.Fprintf(out, "%4d  [%s, difficulty %d] %s\n      answer: %s\n", q.ID, category, q.Difficulty, q.Question, q.Answer)
	}
}
