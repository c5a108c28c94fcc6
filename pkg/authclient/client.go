// Package authclient is a Go client for the authentication API together with
// an observable session store for front ends.
//
// Client performs the HTTP calls. Store holds {user, loading, error} and
// notifies subscribers on every change. Session ties the two together and
// runs each user action as loading, one network call, then exactly one of
// success or failure.
package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Default request timeout of the underlying http.Client.
const defaultTimeout = 10 * time.Second

const (
	pathRegister       = "/api/auth/register"
	pathLogin          = "/api/auth/login"
	pathLogout         = "/api/auth/logout"
	pathMe             = "/api/auth/me"
	pathForgotPassword = "/api/auth/forgotpassword"
	pathResetPassword  = "/api/auth/resetpassword/"
	pathCheckUser      = "/api/auth/check-user"
	pathDirectReset    = "/api/auth/direct-reset-password"
)

// ErrNetwork marks failures where no response was received from the server.
var ErrNetwork = errors.New("network error")

// APIError is a failure reported by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// IsNetworkError reports whether err was caused by the transport rather than
// the server.
func IsNetworkError(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// User is the public view of an account.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// AuthResult is a session issued by register, login or reset.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client calls the authentication API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStorage
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. The caller's client keeps
// its own cookie jar, if any.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokenStorage sets where the session token is persisted.
func WithTokenStorage(ts TokenStorage) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Jar: jar, Timeout: defaultTimeout},
		tokens:     NewMemoryTokenStorage(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the stored session token, if any.
func (c *Client) Token() string {
	token, _ := c.tokens.Load()
	return token
}

// Register creates an account and stores its session token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	return c.authenticate(ctx, http.MethodPost, pathRegister, body)
}

// Login opens a session and stores its token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, http.MethodPost, pathLogin, body)
}

// Logout revokes the session on the server. The stored token is cleared
// even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, pathLogout, nil, nil)
	if clearErr := c.tokens.Clear(); clearErr != nil && err == nil {
		err = fmt.Errorf("clearing stored token: %w", clearErr)
	}
	return err
}

// Me returns the user of the current session.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var env envelope
	if err := c.do(ctx, http.MethodGet, pathMe, nil, &env); err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(env.Data, &user); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	return &user, nil
}

// ForgotPassword requests a reset email and returns the server's message.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	var env envelope
	if err := c.do(ctx, http.MethodPost, pathForgotPassword, map[string]string{"email": email}, &env); err != nil {
		return "", err
	}
	return env.Message, nil
}

// ResetPassword sets a new password using the emailed secret and stores the
// fresh session token.
func (c *Client) ResetPassword(ctx context.Context, secret, password string) (*AuthResult, error) {
	path := pathResetPassword + url.PathEscape(secret)
	return c.authenticate(ctx, http.MethodPut, path, map[string]string{"password": password})
}

// CheckUser reports whether an account exists for email.
func (c *Client) CheckUser(ctx context.Context, email string) (bool, error) {
	var resp struct {
		Exists bool `json:"exists"`
	}
	if err := c.do(ctx, http.MethodPost, pathCheckUser, map[string]string{"email": email}, &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// DirectResetPassword resets the password of email with the emailed secret.
// No session is issued.
func (c *Client) DirectResetPassword(ctx context.Context, email, secret, password string) (*User, error) {
	body := map[string]string{"email": email, "token": secret, "password": password}
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, pathDirectReset, body, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *Client) authenticate(ctx context.Context, method, path string, body interface{}) (*AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, method, path, body, &result); err != nil {
		return nil, err
	}
	if err := c.tokens.Save(result.Token); err != nil {
		return nil, fmt.Errorf("storing token: %w", err)
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func decodeAPIError(status int, data []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var env envelope
	if err := json.Unmarshal(data, &env); err == nil {
		apiErr.Message = env.Message
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			if apiErr.Message == "" {
				apiErr.Message = env.Error.Message
			}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
