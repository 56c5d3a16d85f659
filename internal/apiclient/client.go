package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"harvestly/internal/models"
)

const defaultTimeout = 10 * time.Second

// Envelope is the response body every API endpoint returns. Failures carry
// either a single error string or a list of {message} objects.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Errors  []struct {
		Field   string `json:"field,omitempty"`
		Path    string `json:"path,omitempty"`
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// ErrorMessage picks the most specific failure text in the envelope.
func (e Envelope) ErrorMessage() string {
	if len(e.Errors) > 0 {
		messages := make([]string, 0, len(e.Errors))
		for _, item := range e.Errors {
			if item.Message != "" {
				messages = append(messages, item.Message)
			}
		}
		if len(messages) > 0 {
			return strings.Join(messages, ", ")
		}
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func (e Envelope) validationError() *models.ValidationError {
	verr := &models.ValidationError{}
	for _, item := range e.Errors {
		field := item.Field
		if field == "" {
			field = item.Path
		}
		verr.Add(field, item.Message)
	}
	return verr
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithUnauthorizedHook registers fn to run after a 401 cleared the token.
func WithUnauthorizedHook(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

// Client is the uniform request helper for the Harvestly REST API. It is
// safe for concurrent use.
type Client struct {
	baseURL        string
	http           *http.Client
	onUnauthorized func()

	mu    sync.RWMutex
	token string
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// OnUnauthorized replaces the 401 hook.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	if len(query) > 0 {
		path = path + "?" + query.Encode()
	}
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out)
}

// Do sends one request and decodes the envelope's data into out when out is
// non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.Printf("[API] [ERROR] %s failed: %v", op, err)
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	var env Envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			log.Printf("[API] [ERROR] %s returned unreadable body: %v", op, err)
			return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		log.Printf("[API] [WARN] %s returned 401, clearing session", op)
		c.mu.Lock()
		c.token = ""
		hook := c.onUnauthorized
		c.mu.Unlock()
		if hook != nil {
			hook()
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= 300 || (!env.Success && env.ErrorMessage() != "") {
		if (resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity) && len(env.Errors) > 0 {
			return env.validationError()
		}
		message := env.ErrorMessage()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		log.Printf("[API] [ERROR] %s returned %d: %s", op, resp.StatusCode, message)
		return &APIError{Status: resp.StatusCode, Message: message}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
