package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/justinabrahms/chesspvp/internal/chess"
)

// Errors mapped from relay status codes.
var (
	ErrNotFound     = errors.New("relay: game not found")
	ErrStaleTurn    = errors.New("relay: turn is stale")
	ErrForbidden    = errors.New("relay: seat does not allow this move")
	ErrUnauthorized = errors.New("relay: missing or invalid seat token")
)

// Client talks to a relay server over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient returns a client for the relay at baseURL, e.g.
// "http://localhost:8080".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the relay root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) CreateGame(ctx context.Context, fen string) (*CreateGameResponse, error) {
	var resp CreateGameResponse
	if err := c.do(ctx, "POST", "/api/games", "", CreateGameRequest{FEN: fen}, &resp); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return &resp, nil
}

func (c *Client) GetGame(ctx context.Context, gameID string) (*State, error) {
	var state State
	if err := c.do(ctx, "GET", "/api/games/"+url.PathEscape(gameID), "", nil, &state); err != nil {
		return nil, fmt.Errorf("failed to fetch game %s: %w", gameID, err)
	}
	return &state, nil
}

func (c *Client) GetSnapshot(ctx context.Context, gameID string) (*Snapshot, error) {
	var snap Snapshot
	if err := c.do(ctx, "GET", "/api/games/"+url.PathEscape(gameID)+"/snapshot", "", nil, &snap); err != nil {
		return nil, fmt.Errorf("failed to fetch snapshot of %s: %w", gameID, err)
	}
	return &snap, nil
}

// MakeMove submits a move made at turn. An Illegal outcome is returned as a
// result, not an error.
func (c *Client) MakeMove(ctx context.Context, gameID, token string, from, to string, turn int) (*chess.MoveResult, error) {
	req := MoveRequest{From: from, To: to, Turn: &turn}

	var result chess.MoveResult
	err := c.do(ctx, "POST", "/api/games/"+url.PathEscape(gameID)+"/moves", token, req, &result)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Code == http.StatusUnprocessableEntity {
		if jsonErr := json.Unmarshal(statusErr.Body, &result); jsonErr == nil {
			return &result, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to submit move %s-%s: %w", from, to, err)
	}
	return &result, nil
}

func (c *Client) Reset(ctx context.Context, gameID, token string) (*State, error) {
	var state State
	if err := c.do(ctx, "POST", "/api/games/"+url.PathEscape(gameID)+"/reset", token, nil, &state); err != nil {
		return nil, fmt.Errorf("failed to reset game %s: %w", gameID, err)
	}
	return &state, nil
}

// StatusError is a non-2xx reply from the relay.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay returned %d: %s", e.Code, strings.TrimSpace(string(e.Body)))
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrStaleTurn
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: data}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
