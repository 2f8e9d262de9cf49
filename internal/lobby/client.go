package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("game not found")
	ErrJoinRejected = errors.New("join rejected")
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lobby api error: status=%d body=%s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case fasthttp.StatusUnauthorized, fasthttp.StatusForbidden:
		return ErrUnauthorized
	case fasthttp.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
	retryMax       int
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.defaultTimeout = d
		}
	}
}

func WithRetry(max int) Option {
	return func(c *Client) { c.retryMax = max }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 8},
		defaultTimeout: 10 * time.Second,
		retryMax:       3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	return c.auth(ctx, "/auth/register", username, password)
}

// Login returns a token for an existing account.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	return c.auth(ctx, "/auth/login", username, password)
}

func (c *Client) auth(ctx context.Context, path, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", errors.New("username and password required")
	}
	var resp AuthResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, path, "", Credentials{Username: username, Password: password}, &resp, false); err != nil {
		return "", err
	}
	if resp.Token == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("%w: %s", ErrUnauthorized, resp.Error)
		}
		return "", fmt.Errorf("%w: no token in response", ErrUnauthorized)
	}
	return resp.Token, nil
}

// CreateGame opens a new session and returns its shareable code.
func (c *Client) CreateGame(ctx context.Context, token string) (string, error) {
	var resp CreateResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/game/create", token, nil, &resp, false); err != nil {
		return "", err
	}
	if resp.GameCode == "" {
		return "", errors.New("create game: no code in response")
	}
	return resp.GameCode, nil
}

// JoinGame takes the free seat of the session with the given code.
func (c *Client) JoinGame(ctx context.Context, token, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return errors.New("game code required")
	}
	var resp JoinResponse
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/game/join/"+url.PathEscape(code), token, nil, &resp, false); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrJoinRejected, code)
	}
	return nil
}

// Game fetches the stored state of one session.
func (c *Client) Game(ctx context.Context, token, code string) (*GameState, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, errors.New("game code required")
	}
	var gs GameState
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/game/"+url.PathEscape(code), token, nil, &gs, true); err != nil {
		return nil, err
	}
	return &gs, nil
}

// Games lists the caller's sessions, newest first as the service orders them.
func (c *Client) Games(ctx context.Context, token string) ([]GameSummary, error) {
	var out []GameSummary
	if err := c.doJSON(ctx, fasthttp.MethodGet, "/user/games", token, nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in any, out any, retry bool) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")
	if token != "" {
		req.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+token)
	}

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	attempts := 1
	if retry {
		attempts = c.retryMax
		if attempts <= 0 {
			attempts = 1
		}
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx))
		if err != nil {
			if attempt == attempts || !retry {
				return fmt.Errorf("request failed: %w", err)
			}
			lastErr = err
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		status := resp.StatusCode()
		if status < 200 || status >= 300 {
			err := &APIError{Status: status, Message: errorMessage(resp.Body())}
			if attempt == attempts || !retry || !shouldRetryStatus(status) {
				return err
			}
			lastErr = err
			if sleepErr := sleepWithContext(ctx, backoffDuration(attempt)); sleepErr != nil {
				return lastErr
			}
			continue
		}

		if out != nil {
			if err := json.Unmarshal(resp.Body(), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
		}
		return nil
	}

	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return lastErr
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

// errorMessage prefers the service's {"error": "..."} body over raw text.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return truncate(strings.TrimSpace(string(body)), 512)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 6 {
		attempt = 6
	}
	return time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
}

func shouldRetryStatus(code int) bool {
	switch code {
	case 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
