// Package api is the HTTP client for the trivia platform's question
// backend: topic/difficulty catalogs, AI question generation, question
// persistence, public game listings, and player statistics. Responses
// follow the backend's envelope convention, {"success": bool, ...} or
// {"success": false, "error": "..."}.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quizlive-client/internal/domain"
)

type Client struct {
	baseURL string
	httpc   *http.Client
	token   string
}

// NewClient builds a client for the backend at baseURL. token is the
// bearer token attached to authenticated endpoints; empty means
// anonymous.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
		token:   token,
	}
}

// GenerateRequest describes one AI generation call.
type GenerateRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
	UseAI      bool   `json:"useAI"`
}

// Topics fetches the generation topic catalog.
func (c *Client) Topics(ctx context.Context) ([]string, error) {
	var out struct {
		envelope
		Topics []string `json:"topics"`
	}
	if err := c.get(ctx, "/api/ai/topics", &out); err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return out.Topics, nil
}

// DifficultyLevels fetches the supported difficulty levels.
func (c *Client) DifficultyLevels(ctx context.Context) ([]string, error) {
	var out struct {
		envelope
		Levels []string `json:"levels"`
	}
	if err := c.get(ctx, "/api/ai/difficulty-levels", &out); err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return out.Levels, nil
}

// GenerateQuestions asks the backend to produce a question set. The
// topic is validated locally before any network call.
func (c *Client) GenerateQuestions(ctx context.Context, req GenerateRequest) ([]domain.AuthoredQuestion, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, domain.ErrNoTopic
	}
	var out struct {
		envelope
		Questions []domain.AuthoredQuestion `json:"questions"`
	}
	if err := c.post(ctx, "/api/ai/generate-questions", req, &out); err != nil {
		return nil, err
	}
	if err := out.err(); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

// CreateQuestion persists one manually authored question. Validation
// failures are reported locally with no server round-trip.
func (c *Client) CreateQuestion(ctx context.Context, q domain.AuthoredQuestion) error {
	if err := ValidateAuthored(q); err != nil {
		return err
	}
	var out envelope
	if err := c.post(ctx, "/api/questions", q, &out); err != nil {
		return err
	}
	return out.err()
}

// BulkCreateQuestions persists a whole authored set in one call. The
// set must be saved successfully before any game is created from it.
func (c *Client) BulkCreateQuestions(ctx context.Context, questions []domain.AuthoredQuestion) error {
	for _, q := range questions {
		if err := ValidateAuthored(q); err != nil {
			return err
		}
	}
	body := struct {
		Questions []domain.AuthoredQuestion `json:"questions"`
	}{Questions: questions}
	var out envelope
	if err := c.post(ctx, "/api/questions/bulk", body, &out); err != nil {
		return err
	}
	return out.err()
}

// PublicGames lists joinable public sessions. The endpoint returns a
// bare array rather than the usual envelope.
func (c *Client) PublicGames(ctx context.Context) ([]domain.PublicGame, error) {
	var out []domain.PublicGame
	if err := c.get(ctx, "/api/games", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MyStats fetches the caller's accumulated statistics.
func (c *Client) MyStats(ctx context.Context, uid string) (domain.PlayerStats, error) {
	var out struct {
		envelope
		Stats domain.PlayerStats `json:"stats"`
	}
	path := "/api/users/me/stats?uid=" + url.QueryEscape(uid)
	if err := c.get(ctx, path, &out); err != nil {
		return domain.PlayerStats{}, err
	}
	if err := out.err(); err != nil {
		return domain.PlayerStats{}, err
	}
	return out.Stats, nil
}

// ValidateAuthored enforces the authoring rules before anything leaves
// the client: non-empty text, every option filled, in-range correct
// index, and a topic.
func ValidateAuthored(q domain.AuthoredQuestion) error {
	if strings.TrimSpace(q.Text) == "" {
		return domain.ErrEmptyQuestion
	}
	if len(q.Options) < 2 {
		return domain.ErrEmptyOption
	}
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return domain.ErrEmptyOption
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return domain.ErrInvalidIndex
	}
	if strings.TrimSpace(q.Category) == "" {
		return domain.ErrNoTopic
	}
	return nil
}

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// err folds the envelope into a Go error. A missing success field is
// treated as success so bare-payload endpoints keep working.
func (e envelope) err() error {
	if e.Success != nil && !*e.Success {
		if e.Error != "" {
			return fmt.Errorf("backend: %s", e.Error)
		}
		return fmt.Errorf("backend: request failed")
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(raw), out)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Error bodies still follow the envelope when the backend is
		// the one answering; fall back to the status line otherwise.
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			return fmt.Errorf("backend: %s", env.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
