package quizapi

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

	"github.com/vytor/quizrunner/internal/logger"
	"github.com/vytor/quizrunner/internal/models"
)

const maxQuizBytes = 4 << 20

// IdempotencyHeader carries the attempt id so that a retried submission is
// recorded only once by the quiz service.
const IdempotencyHeader = "Idempotency-Key"

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. with an OAuth2 client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

// New returns a client for the quiz service rooted at baseURL. Requests
// forward the learner's bearer token found on the request context.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: &bearerTransport{base: http.DefaultTransport},
		},
		log: logger.Default().WithPrefix("quizapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (c *Client) quizURL(quizID string, suffix ...string) string {
	parts := append([]string{c.baseURL, "quizzes", url.PathEscape(quizID)}, suffix...)
	return strings.Join(parts, "/")
}

func (c *Client) FetchQuiz(ctx context.Context, quizID string) (*models.Quiz, error) {
	log := logger.FromContext(ctx).WithPrefix("quizapi").WithField("quiz_id", quizID)
	endpoint := c.quizURL(quizID)

	log.Debug("fetching quiz from: %s", endpoint)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to fetch quiz: %v", err)
		return nil, fmt.Errorf("fetch quiz: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("quiz response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("quiz request failed: status=%d, body=%s", resp.StatusCode, string(body))
		return nil, &StatusError{Op: "fetch quiz", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var quiz models.Quiz
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxQuizBytes)).Decode(&quiz); err != nil {
		log.Error("failed to decode quiz response: %v", err)
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	if quiz.ID == "" {
		quiz.ID = quizID
	}

	log.Info("fetched quiz with %d questions", len(quiz.Questions))
	return &quiz, nil
}

func (c *Client) SubmitResult(ctx context.Context, quizID, attemptID string, result models.AttemptResult) error {
	log := logger.FromContext(ctx).WithPrefix("quizapi").WithFields(map[string]any{
		"quiz_id":    quizID,
		"attempt_id": attemptID,
	})
	endpoint := c.quizURL(quizID, "results")

	body, err := json.Marshal(result)
	if err != nil {
		return err
	}

	log.Debug("submitting result correct=%d wrong=%d time=%d", result.Correct, result.Wrong, result.Time)
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		log.Error("failed to create request: %v", err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if attemptID != "" {
		req.Header.Set(IdempotencyHeader, attemptID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("failed to submit result: %v", err)
		return fmt.Errorf("submit result: %w", err)
	}
	defer resp.Body.Close()

	log.Debug("submit response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode/100 != 2 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Warn("submit request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
		return &StatusError{Op: "submit result", StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	log.Info("result submitted")
	return nil
}
