package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/grapplehub/grapplehub/models"
)

const (
	defaultTimeout = 15 * time.Second

	// MaxRowsPerRequest ограничивает размер тела запроса к внешнему
	// эндпоинту (стоимость и латентность генерации).
	MaxRowsPerRequest = 20
)

var ErrSummarizerUnavailable = errors.New("summarizer endpoint unavailable")

// RemoteError — ошибка, возвращённая самим эндпоинтом в теле ответа.
// Её текст показывается вызывающей стороне как есть, без повторных попыток.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return e.Message
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("summarizer base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
	}, nil
}

type summarizeRequest struct {
	Logs []models.SummaryRow `json:"logs"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
	Error   string `json:"error"`
}

// Summarize отправляет не более MaxRowsPerRequest строк на генерацию сводки.
func (c *Client) Summarize(ctx context.Context, rows []models.SummaryRow) (string, error) {
	if len(rows) > MaxRowsPerRequest {
		rows = rows[:MaxRowsPerRequest]
	}

	body, err := json.Marshal(summarizeRequest{Logs: rows})
	if err != nil {
		return "", fmt.Errorf("failed to marshal summarize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build summarize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummarizerUnavailable, err)
	}
	defer resp.Body.Close()

	var parsed summarizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %w", ErrSummarizerUnavailable, err)
	}

	if parsed.Error != "" {
		return "", &RemoteError{Message: parsed.Error}
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrSummarizerUnavailable, resp.StatusCode)
	}
	if parsed.Summary == "" {
		return "", fmt.Errorf("%w: empty summary in response", ErrSummarizerUnavailable)
	}

	return parsed.Summary, nil
}
