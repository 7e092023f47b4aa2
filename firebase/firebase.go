// Package firebase authenticates parley users against the Firebase Identity
// Toolkit REST API.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fwojciec/parley"
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

const (
	signUpPath = "/accounts:signUp"
	updatePath = "/accounts:update"
	signInPath = "/accounts:signInWithPassword"
	lookupPath = "/accounts:lookup"
)

// Interface compliance check.
var _ parley.Authenticator = (*Client)(nil)

// Client implements [parley.Authenticator] for Firebase email/password
// accounts.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger for provider errors and degraded responses.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock sets the time source used when the provider omits timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a new Firebase [Client] with the given web API key and options.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Register creates an account, sets its display name and returns the
// signed-in session.
func (c *Client) Register(ctx context.Context, name, email, password string) (parley.Session, error) {
	var signUp authResponse
	err := c.call(ctx, signUpPath, credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &signUp)
	if err != nil {
		return parley.Session{}, err
	}

	token := signUp.IDToken
	var updated authResponse
	err = c.call(ctx, updatePath, updateRequest{
		IDToken:           token,
		DisplayName:       name,
		ReturnSecureToken: true,
	}, &updated)
	switch {
	case err != nil:
		c.logger.Warn("set display name failed", "uid", signUp.LocalID, "error", err)
	default:
		signUp.DisplayName = updated.DisplayName
		if updated.IDToken != "" {
			token = updated.IDToken
		}
	}

	return c.session(ctx, signUp, token), nil
}

// Login signs in with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (parley.Session, error) {
	var resp authResponse
	err := c.call(ctx, signInPath, credentialsRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}, &resp)
	if err != nil {
		return parley.Session{}, err
	}
	return c.session(ctx, resp, resp.IDToken), nil
}

// session builds the Session for an authenticated account, enriching it with
// verification status and timestamps from accounts:lookup when available.
func (c *Client) session(ctx context.Context, resp authResponse, token string) parley.Session {
	s := parley.Session{
		UID:          resp.LocalID,
		Email:        resp.Email,
		DisplayName:  resp.DisplayName,
		Token:        token,
		LastSignInAt: c.now(),
	}

	var lookup lookupResponse
	if err := c.call(ctx, lookupPath, lookupRequest{IDToken: token}, &lookup); err != nil {
		c.logger.Warn("account lookup failed", "uid", s.UID, "error", err)
		return s
	}
	if len(lookup.Users) == 0 {
		return s
	}
	u := lookup.Users[0]
	s.EmailVerified = u.EmailVerified
	if s.DisplayName == "" {
		s.DisplayName = u.DisplayName
	}
	if t, ok := parseMillis(u.CreatedAt); ok {
		s.CreatedAt = t
	}
	if t, ok := parseMillis(u.LastLoginAt); ok {
		s.LastSignInAt = t
	}
	return s
}

// call posts body to path and decodes a successful response into out.
// Failures are returned as *parley.AuthError, except context cancellation.
func (c *Client) call(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("firebase: %w", err)
	}
	url := c.baseURL + path + "?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("firebase: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("firebase: %w", ctxErr)
		}
		return &parley.AuthError{Kind: parley.AuthNetworkFailure, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseHTTPError(path, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &parley.AuthError{Kind: parley.AuthUnknown, Err: fmt.Errorf("decode %s response: %w", path, err)}
	}
	return nil
}

func (c *Client) parseHTTPError(path string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Message == "" {
		c.logger.Warn("identity provider error", "path", path, "status", resp.StatusCode)
		return &parley.AuthError{
			Kind: parley.AuthUnknown,
			Err:  fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	code := ErrorCode(apiErr.Error.Message)
	c.logger.Debug("identity provider rejected request", "path", path, "code", code)
	return &parley.AuthError{Kind: KindForCode(code), Err: errors.New(apiErr.Error.Message)}
}

// ErrorCode extracts the provider error code from an error message such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func ErrorCode(message string) string {
	code, _, _ := strings.Cut(message, ":")
	return strings.TrimSpace(code)
}

// KindForCode normalizes a provider error code.
func KindForCode(code string) parley.AuthErrorKind {
	switch {
	case code == "EMAIL_NOT_FOUND", code == "INVALID_PASSWORD", code == "INVALID_LOGIN_CREDENTIALS":
		return parley.AuthInvalidCredentials
	case code == "EMAIL_EXISTS":
		return parley.AuthEmailInUse
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		return parley.AuthWeakPassword
	case code == "INVALID_EMAIL", code == "MISSING_EMAIL":
		return parley.AuthInvalidEmail
	case code == "USER_DISABLED":
		return parley.AuthAccountDisabled
	case code == "TOO_MANY_ATTEMPTS_TRY_LATER":
		return parley.AuthRateLimited
	default:
		return parley.AuthUnknown
	}
}

func parseMillis(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

type credentialsRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type updateRequest struct {
	IDToken           string `json:"idToken"`
	DisplayName       string `json:"displayName"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type authResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IDToken     string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		EmailVerified bool   `json:"emailVerified"`
		CreatedAt     string `json:"createdAt"`
		LastLoginAt   string `json:"lastLoginAt"`
	} `json:"users"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
