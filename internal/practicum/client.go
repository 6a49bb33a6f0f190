// Package practicum talks to the Practicum homework-review API: one
// timestamped GET per poll, classified failures, and shape validation of the
// returned payload.
package practicum

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultEndpoint is the production homework-statuses endpoint.
const DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

// maxBodyBytes caps how much of a response body is read. Status payloads are
// tiny; anything larger is hostile or broken.
const maxBodyBytes = 1 << 20

type Config struct {
	Endpoint string        // defaults to DefaultEndpoint
	Token    string        // OAuth token, required
	Timeout  time.Duration // HTTP client timeout, defaults to 15s
}

// Client issues homework-status requests. It performs exactly one outbound
// GET per HomeworkStatuses call and never retries on its own.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("practicum token is empty")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
	}, nil
}

// HomeworkStatuses fetches review changes since the given unix timestamp and
// returns the raw JSON payload. Failures come back as *APIError; callers
// classify via its Kind.
func (c *Client) HomeworkStatuses(ctx context.Context, from int64) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, http.NoBody)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Err: err}
	}
	q := req.URL.Query()
	q.Set("from_date", strconv.FormatInt(from, 10))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "OAuth "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &APIError{Kind: classifyStatus(resp.StatusCode), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &APIError{Kind: KindNetwork, Err: err}
	}
	if !json.Valid(body) {
		return nil, &APIError{Kind: KindMalformed, Err: errors.New("body is not valid JSON")}
	}
	return json.RawMessage(body), nil
}

func classifyStatus(code int) ErrorKind {
	switch {
	case code >= 400 && code < 500:
		return KindClient
	case code >= 500 && code < 600:
		return KindServer
	default:
		return KindUnexpectedStatus
	}
}
