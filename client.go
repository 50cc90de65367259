package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	loginPath    = "/api/auth/login"
	registerPath = "/api/auth/register"
	mePath       = "/api/auth/me"
	logoutPath   = "/api/auth/logout"
)

// HTTPAuthService talks to the platform auth endpoints over plain HTTP,
// carrying the session cookie across calls. Transport failures map to the
// network error kind, 401 to unauthorized, 409 to already-exists; server
// error messages are propagated verbatim.
type HTTPAuthService struct {
	baseURL     string
	client      *http.Client
	logger      Logger
	tokenSource func() string
}

var _ AuthService = (*HTTPAuthService)(nil)

// HTTPOption customizes the HTTP auth service.
type HTTPOption func(*HTTPAuthService)

// WithHTTPClient replaces the underlying client (e.g. for custom TLS or
// timeouts). The replacement should carry a cookie jar.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(s *HTTPAuthService) {
		if client != nil {
			s.client = client
		}
	}
}

// WithHTTPLogger overrides the default logger.
func WithHTTPLogger(logger Logger) HTTPOption {
	return func(s *HTTPAuthService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTokenSource attaches a bearer token to every request; the function is
// consulted per call so a freshly persisted token is picked up immediately.
func WithTokenSource(source func() string) HTTPOption {
	return func(s *HTTPAuthService) {
		s.tokenSource = source
	}
}

// NewHTTPAuthService returns a client rooted at baseURL.
func NewHTTPAuthService(baseURL string, opts ...HTTPOption) *HTTPAuthService {
	jar, _ := cookiejar.New(nil)

	s := &HTTPAuthService{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		logger: defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Login implements AuthService.
func (s *HTTPAuthService) Login(ctx context.Context, identifier, secret string) (*AuthResult, error) {
	body := map[string]string{
		"username": identifier,
		"password": secret,
	}

	result := &AuthResult{}
	if err := s.doJSON(ctx, http.MethodPost, loginPath, body, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Register implements AuthService.
func (s *HTTPAuthService) Register(ctx context.Context, payload RegisterUserMessage) (*AuthResult, error) {
	result := &AuthResult{}
	if err := s.doJSON(ctx, http.MethodPost, registerPath, payload, result); err != nil {
		return nil, err
	}
	return result, nil
}

// Me implements AuthService.
func (s *HTTPAuthService) Me(ctx context.Context) (*User, error) {
	envelope := struct {
		User *User `json:"user"`
	}{}
	if err := s.doJSON(ctx, http.MethodGet, mePath, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.User == nil {
		return nil, ErrUnauthorized
	}
	return envelope.User, nil
}

// Logout implements AuthService.
func (s *HTTPAuthService) Logout(ctx context.Context) error {
	return s.doJSON(ctx, http.MethodPost, logoutPath, nil, nil)
}

func (s *HTTPAuthService) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to encode request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to build request")
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.tokenSource != nil {
		if token := s.tokenSource(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("auth request failed: %s %s: %v", method, path, err)
		return withMetadata(ErrNetwork, map[string]any{
			"path":  path,
			"cause": err.Error(),
		})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return s.statusError(resp, path)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to decode response").
			WithMetadata(map[string]any{"path": path})
	}

	return nil
}

func (s *HTTPAuthService) statusError(resp *http.Response, path string) error {
	payload := struct {
		Error string `json:"error"`
	}{}
	if raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
		_ = json.Unmarshal(raw, &payload)
	}

	meta := map[string]any{
		"path":   path,
		"status": resp.StatusCode,
	}
	if payload.Error != "" {
		meta["server_error"] = payload.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return withMetadata(ErrUnauthorized, meta)
	case http.StatusConflict:
		return withMetadata(ErrAlreadyExists, meta)
	}

	message := payload.Error
	if message == "" {
		message = "auth service returned " + resp.Status
	}

	return goerrors.New(message, goerrors.CategoryOperation).
		WithTextCode("AUTH_SERVICE_ERROR").
		WithMetadata(meta)
}
