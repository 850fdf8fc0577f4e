// Copyright (c) 2025 Stemma Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stemma-labs/stemma-tui/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeUnreachable
	ErrTypeTimeout
	ErrTypeUnauthorized
	ErrTypeNoToken
	ErrTypeNoStream
	ErrTypeInvalidResponse
	ErrTypeServer
)

// Sentinel errors for easy checking.
var (
	ErrUnreachable  = &ClientError{Type: ErrTypeUnreachable, Message: "backend is unreachable"}
	ErrTimeout      = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrUnauthorized = &ClientError{Type: ErrTypeUnauthorized, Message: "authentication failed"}
	ErrNoToken      = &ClientError{Type: ErrTypeNoToken, Message: "no auth token available"}
	ErrNoStream     = &ClientError{Type: ErrTypeNoStream, Message: "response had no stream body"}
)

// IsAuthNotReady reports whether the error means the token source has not
// produced a token yet. Views treat this as an empty state, not a failure.
func IsAuthNotReady(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeNoToken
}

// IsUnauthorized reports whether the backend rejected the bearer token.
func IsUnauthorized(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeUnauthorized
}

// =============================================================================
// TOKEN SOURCE
// =============================================================================

// TokenSource supplies the bearer token for backend requests. An empty
// token means authentication is not ready; every request then fails with
// ErrNoToken before touching the network.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource wrapping a fixed string.
type StaticToken string

// Token returns the wrapped token.
func (t StaticToken) Token() string {
	return string(t)
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the backend client.
type Config struct {
	// BaseURL is the backend base URL (default: http://localhost:8000)
	BaseURL string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// MaxRetries for transient failures on idempotent requests (default: 3)
	MaxRetries int

	// RetryDelay base for exponential backoff between retries (default: 500ms)
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "http://localhost:8000",
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the chat backend.
//
// The Client is safe for concurrent use. Non-streaming requests share a
// pooled HTTP client with a timeout; streaming requests use a separate
// client without one, cancellation is the caller's context.
type Client struct {
	config       *Config
	tokens       TokenSource
	httpClient   *http.Client
	streamClient *http.Client
}

// sharedTransport pools connections across all clients.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// NewClient creates a backend client with the given configuration. A nil
// config uses DefaultConfig; zero-valued fields are filled in.
func NewClient(config *Config, tokens TokenSource) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	return &Client{
		config: config,
		tokens: tokens,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   config.Timeout,
		},
		streamClient: &http.Client{
			Transport: sharedTransport,
			// No timeout for streaming, controlled via context
		},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// bearerToken returns the current token or ErrNoToken when the source has
// none yet.
func (c *Client) bearerToken() (string, error) {
	if c.tokens == nil {
		return "", ErrNoToken
	}
	token := strings.TrimSpace(c.tokens.Token())
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// newRequest builds an authenticated JSON request. A nil body sends no
// payload.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	token, err := c.bearerToken()
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeUnreachable, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// do executes a request and maps transport and HTTP errors onto the
// taxonomy. On success the caller owns the response body.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()
	return nil, mapStatusError(resp)
}

// doWithRetry executes an idempotent request with exponential backoff on
// server errors and connection failures. The request must have no body.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.do(req.Clone(ctx))
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func mapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return &ClientError{Type: ErrTypeUnreachable, Message: "request failed", Cause: err}
}

func mapStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = resp.Status
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &ClientError{Type: ErrTypeUnauthorized, Message: "authentication failed: " + msg}
	case resp.StatusCode >= 500:
		return &ClientError{Type: ErrTypeServer, Message: "backend error: " + msg}
	default:
		return &ClientError{
			Type:    ErrTypeUnknown,
			Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, msg),
		}
	}
}

func isRetryable(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeServer || ce.Type == ErrTypeUnreachable
	}
	return false
}

// decodeJSON reads the whole response body and unmarshals it.
func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read response", Cause: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// chatsEnvelope is the wrapped form of the chat list response.
type chatsEnvelope struct {
	Data []model.Chat `json:"data"`
}

// ListChats fetches every chat the user owns. The backend has shipped two
// payload shapes for this endpoint, a bare array and a {"data": [...]}
// envelope; both decode. Anything else coerces to an empty list.
func (c *Client) ListChats(ctx context.Context) ([]model.Chat, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/chats", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read response", Cause: err}
	}

	var chats []model.Chat
	if err := json.Unmarshal(body, &chats); err == nil {
		return chats, nil
	}

	var envelope chatsEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	return []model.Chat{}, nil
}

// createChatResponse is the payload returned by POST /chats.
type createChatResponse struct {
	ChatID string `json:"chat_id"`
}

// CreateChat creates an empty chat and returns its ID.
func (c *Client) CreateChat(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/chats", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}

	var created createChatResponse
	if err := decodeJSON(resp, &created); err != nil {
		return "", err
	}
	if created.ChatID == "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "create chat returned no chat_id"}
	}
	return created.ChatID, nil
}

// DeleteChat removes a chat. Any 2xx status is success.
func (c *Client) DeleteChat(ctx context.Context, chatID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/chats/"+chatID, nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// ListMessages fetches the persisted transcript of a chat in order.
func (c *Client) ListMessages(ctx context.Context, chatID string) ([]model.Message, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/chats/"+chatID+"/messages", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	var messages []model.Message
	if err := decodeJSON(resp, &messages); err != nil {
		return nil, err
	}
	for i := range messages {
		messages[i].State = model.MessageSettled
	}
	return messages, nil
}

// branchRequest is the payload for POST /chats/{id}/branch-from/{messageID}.
type branchRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// branchResponse is the payload returned by the branch endpoint.
type branchResponse struct {
	NewChatID string `json:"new_chat_id"`
}

// BranchFrom forks a new chat off an existing message. The backend copies
// the history up to and including that message and returns the new chat ID.
func (c *Client) BranchFrom(ctx context.Context, chatID, messageID, name string, tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	req, err := c.newRequest(ctx, http.MethodPost,
		"/chats/"+chatID+"/branch-from/"+messageID,
		branchRequest{Name: name, Tags: tags})
	if err != nil {
		return "", err
	}

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}

	var branched branchResponse
	if err := decodeJSON(resp, &branched); err != nil {
		return "", err
	}
	if branched.NewChatID == "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "branch returned no new_chat_id"}
	}
	return branched.NewChatID, nil
}
