// Package backend is the typed client for the remote FinSim REST API. All
// user, subscription, ticket and admin data lives behind that API; this
// package only translates console operations into authenticated requests
// and validates input before anything leaves the process.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/finsim-app/admin-console/internal/config"
)

// ErrValidation marks input rejected before any request was sent.
var ErrValidation = errors.New("validation failed")

// APIError is a failed backend request. Message carries the backend's
// human-readable message when one was present, else a generic
// operation-specific fallback.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.StatusCode)
}

// Client issues authenticated requests against the FinSim backend.
type Client struct {
	origin       string
	serviceToken string
	httpClient   *http.Client
}

// NewClient constructs a backend client from config.
func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		origin:       strings.TrimRight(cfg.Origin, "/"),
		serviceToken: cfg.ServiceToken,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
}

// envelope is the common response wrapper the backend uses.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// do performs one request. Every request carries the JSON content type and
// the fixed service credential; token is attached as a bearer when
// non-empty. Non-2xx responses become an *APIError with fallback as the
// message of last resort. No retry is performed; a failure is terminal
// for the attempt.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any, fallback string) error {
	var buf bytes.Buffer
	if body != nil {
		if errEncode := json.NewEncoder(&buf).Encode(body); errEncode != nil {
			return fmt.Errorf("backend: encode request: %w", errEncode)
		}
	}

	req, errReq := http.NewRequestWithContext(ctx, method, c.origin+path, &buf)
	if errReq != nil {
		return fmt.Errorf("backend: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.serviceToken != "" {
		req.Header.Set("X-CSRFTOKEN", c.serviceToken)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, errDo := c.httpClient.Do(req)
	if errDo != nil {
		return fmt.Errorf("backend: %s: %w", fallback, errDo)
	}
	defer resp.Body.Close()

	raw, errRead := io.ReadAll(resp.Body)
	if errRead != nil {
		return fmt.Errorf("backend: read response: %w", errRead)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := fallback
		var env envelope
		if errEnv := json.Unmarshal(raw, &env); errEnv == nil && strings.TrimSpace(env.Message) != "" {
			message = strings.TrimSpace(env.Message)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out != nil {
		if errDecode := json.Unmarshal(raw, out); errDecode != nil {
			return fmt.Errorf("backend: decode response: %w", errDecode)
		}
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// validEmail reports whether s looks like an email address.
func validEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

var otpPattern = regexp.MustCompile(`^[0-9]{6}$`)

// validOTP reports whether s is exactly six digits.
func validOTP(s string) bool {
	return otpPattern.MatchString(s)
}

// minPasswordLength matches the backend's password policy.
const minPasswordLength = 6

func validationErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
