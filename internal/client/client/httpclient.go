package client

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

	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
	"github.com/dmitrijs2005/cashbackhub/internal/client/tokens"
	"github.com/dmitrijs2005/cashbackhub/internal/logging"
)

// HTTPClient talks to the platform REST API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for baseURL. base may be nil, in which case
// http.DefaultTransport is used underneath the credential handling.
func NewHTTPClient(baseURL string, timeout time.Duration, store tokens.Store, base http.RoundTripper, logger logging.Logger) *HTTPClient {
	baseURL = strings.TrimRight(baseURL, "/")
	transport := newAuthTransport(base, store, baseURL, logger)
	if timeout > 0 {
		transport.refreshTimeout = timeout
	}
	return &HTTPClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

func (c *HTTPClient) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(withAuthMode(ctx, authAnonymous), http.MethodPost, "/auth/login", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Register(ctx context.Context, profile models.RegistrationProfile) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.do(withAuthMode(ctx, authAnonymous), http.MethodPost, "/auth/register", profile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type userEnvelope struct {
	User *models.User `json:"user"`
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("current user: empty response")
	}
	return out.User, nil
}

func (c *HTTPClient) Logout(ctx context.Context, refreshToken string) error {
	body := map[string]string{"refreshToken": refreshToken}
	return c.do(withAuthMode(ctx, authBearerNoRefresh), http.MethodPost, "/auth/logout", body, nil)
}

func (c *HTTPClient) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend-verification", map[string]string{"email": email}, nil)
}

func (c *HTTPClient) ResetPassword(ctx context.Context, change models.PasswordChange) error {
	return c.do(ctx, http.MethodPost, "/auth/reset-password", change, nil)
}

func (c *HTTPClient) SetupTwoFactor(ctx context.Context) (*models.TwoFactorSetup, error) {
	var out models.TwoFactorSetup
	if err := c.do(ctx, http.MethodPost, "/auth/2fa/setup", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DisableTwoFactor(ctx context.Context, password string) error {
	return c.do(ctx, http.MethodPost, "/auth/2fa/disable", map[string]string{"password": password}, nil)
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.User, error) {
	var out userEnvelope
	if err := c.do(ctx, http.MethodPut, "/users/me", patch, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("update profile: empty response")
	}
	return out.User, nil
}

func (c *HTTPClient) Dashboard(ctx context.Context, role models.Role) (*models.DashboardSummary, error) {
	if !role.IsKnown() {
		role = models.RoleUser
	}
	var out models.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/"+role.String()+"/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(withAuthMode(ctx, authAnonymous), http.MethodGet, "/health", nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return classifyTransportError(ctx, err)
	}
	defer drain(resp)

	c.logger.Debug(ctx, "api call", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// classifyTransportError keeps session expiry and caller cancellation
// intact and reports everything else as an unreachable backend.
func classifyTransportError(ctx context.Context, err error) error {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrSessionExpired):
		return ErrSessionExpired
	case errors.As(err, &apiErr):
		return apiErr
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
}

type errorBody struct {
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
	Message string `json:"message"`
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != nil {
			apiErr.Code = body.Error.Code
			apiErr.Message = body.Error.Message
			apiErr.Details = body.Error.Details
		} else {
			apiErr.Message = body.Message
		}
	} else if len(raw) > 0 {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}
