package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is the remote API used by the CLI services.
type Client interface {
	Register(ctx context.Context, name, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Register creates the account, or replaces its name and password when the
// server accepts upserts. A 409 means the deployment rejects duplicates.
func (c *HTTPClient) Register(ctx context.Context, name, email, password string) (*User, error) {
	var user User
	status, err := c.post(ctx, "/v1/users", registerRequest{Name: name, Email: email, Password: password}, &user)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusCreated:
		return &user, nil
	case http.StatusConflict:
		return nil, ErrAlreadyRegistered
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}
}

// Login exchanges credentials for an access token.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	var resp loginResponse
	status, err := c.post(ctx, "/v1/user_tokens", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return "", err
	}

	switch status {
	case http.StatusOK:
		if resp.AccessToken == "" {
			return "", fmt.Errorf("%w: empty token", ErrUnexpectedStatus)
		}
		return resp.AccessToken, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return "", ErrUnauthorized
	default:
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, status)
	}
}

// post sends body as JSON and decodes a 2xx response into out.
func (c *HTTPClient) post(ctx context.Context, path string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if err := json.Unmarshal(data, out); err != nil {
			return 0, fmt.Errorf("%w: decode response: %w", ErrUnexpectedStatus, err)
		}
		return resp.StatusCode, nil
	}

	if resp.StatusCode >= 500 {
		var er errorResponse
		_ = json.Unmarshal(data, &er)
		return 0, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, er.Message)
	}

	return resp.StatusCode, nil
}
