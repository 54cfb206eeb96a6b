package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// GeneratorConfig holds connection details for a question generator
// service that answers POST /generate.
type GeneratorConfig struct {
	URL        string
	Key        string
	Category   string
	Difficulty string
	Timeout    time.Duration
}

// GeneratorClient fetches generated questions as an import source.
type GeneratorClient struct {
	httpClient  *http.Client
	config      GeneratorConfig
	generateURL string
}

func NewGeneratorClient(cfg GeneratorConfig, httpClient *http.Client) *GeneratorClient {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if cfg.Category == "" {
		cfg.Category = "General"
	}

	return &GeneratorClient{
		httpClient:  httpClient,
		config:      cfg,
		generateURL: strings.TrimSuffix(cfg.URL, "/") + "/generate",
	}
}

type generatorRequest struct {
	Category   string `json:"category"`
	Difficulty string `json:"difficulty,omitempty"`
	Count      int    `json:"count"`
}

type generatedQuestion struct {
	Prompt     string `json:"prompt"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

type generatorResponse struct {
	Questions []generatedQuestion `json:"questions"`
}

// Name identifies the source in logs and flags.
func (g *GeneratorClient) Name() string {
	return "generator"
}

func (g *GeneratorClient) Fetch(ctx context.Context, amount int) ([]Item, error) {
	if g.config.URL == "" {
		return nil, fmt.Errorf("generator endpoint not configured")
	}

	body, err := json.Marshal(generatorRequest{
		Category:   g.config.Category,
		Difficulty: g.config.Difficulty,
		Count:      amount,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.generateURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.Key != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.Key)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var payload generatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode generator payload: %w", err)
	}
	if len(payload.Questions) == 0 {
		return nil, fmt.Errorf("generator returned empty question set")
	}

	items := make([]Item, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = g.config.Difficulty
		}
		items = append(items, Item{
			Category:   g.config.Category,
			Question:   q.Prompt,
			Answer:     q.Answer,
			Difficulty: difficulty,
		})
	}
	return items, nil
}
