package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
	"github.com/dmitrijs2005/cashbackhub/internal/client/tokens"
	"github.com/dmitrijs2005/cashbackhub/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	headerAuthorization = "Authorization"
	headerRequestID     = "X-Request-ID"

	refreshPath = "/auth/refresh"

	// defaultRefreshTimeout bounds a refresh exchange when the client has no
	// request timeout of its own.
	defaultRefreshTimeout = 30 * time.Second

	// maxRefreshRetries bounds how many times a single call is replayed after
	// a credential refresh.
	maxRefreshRetries = 1
)

type authMode int

const (
	// authBearer attaches the access token and refreshes it on 401.
	authBearer authMode = iota
	// authBearerNoRefresh attaches the access token but returns a 401 as-is.
	authBearerNoRefresh
	// authAnonymous sends no credentials at all.
	authAnonymous
)

type authModeKey struct{}

func withAuthMode(ctx context.Context, mode authMode) context.Context {
	return context.WithValue(ctx, authModeKey{}, mode)
}

func authModeFrom(ctx context.Context) authMode {
	if m, ok := ctx.Value(authModeKey{}).(authMode); ok {
		return m
	}
	return authBearer
}

var errRefreshDiscarded = errors.New("refresh result discarded: credentials changed meanwhile")

// authTransport decorates a RoundTripper with bearer credentials from the
// token store and a single refresh-and-retry on 401.
type authTransport struct {
	base           http.RoundTripper
	tokens         tokens.Store
	refreshURL     string
	refreshTimeout time.Duration
	logger         logging.Logger
	group          singleflight.Group
}

func newAuthTransport(base http.RoundTripper, store tokens.Store, baseURL string, logger logging.Logger) *authTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &authTransport{
		base:           base,
		tokens:         store,
		refreshURL:     baseURL + refreshPath,
		refreshTimeout: defaultRefreshTimeout,
		logger:         logger,
	}
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	mode := authModeFrom(ctx)

	requestID := req.Header.Get(headerRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	ctx = logging.WithRequestID(ctx, requestID)

	var pair *models.CredentialPair
	if mode != authAnonymous {
		var err error
		pair, err = t.tokens.Get(ctx)
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
	}

	attempt, err := t.prepare(req, requestID, accessOf(pair))
	if err != nil {
		return nil, err
	}
	resp, err := t.base.RoundTrip(attempt)
	if err != nil {
		return nil, err
	}

	for retries := 0; retries < maxRefreshRetries; retries++ {
		if resp.StatusCode != http.StatusUnauthorized || mode != authBearer || pair == nil || pair.RefreshToken == "" {
			return resp, nil
		}
		drain(resp)

		t.logger.Debug(ctx, "access token rejected, refreshing", "path", req.URL.Path)
		access, err := t.refresh(ctx, pair, requestID)
		if err != nil {
			return nil, err
		}

		attempt, err = t.prepare(req, requestID, access)
		if err != nil {
			return nil, err
		}
		if resp, err = t.base.RoundTrip(attempt); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// prepare clones req for one attempt, rewinding the body and setting headers.
func (t *authTransport) prepare(req *http.Request, requestID, access string) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		r.Body = body
	}
	r.Header.Set(headerRequestID, requestID)
	r.Header.Del(headerAuthorization)
	if access != "" {
		r.Header.Set(headerAuthorization, "Bearer "+access)
	}
	return r, nil
}

// refresh returns a usable access token for a call that was sent with sent.
// If another call already replaced the credentials, those are reused;
// otherwise the refresh token is exchanged once, shared between concurrent
// callers holding the same refresh token.
func (t *authTransport) refresh(ctx context.Context, sent *models.CredentialPair, requestID string) (string, error) {
	current, err := t.tokens.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read credentials: %w", err)
	}
	if current == nil || current.RefreshToken == "" {
		return "", ErrSessionExpired
	}
	if current.AccessToken != "" && current.AccessToken != sent.AccessToken {
		return current.AccessToken, nil
	}

	refreshToken := current.RefreshToken
	ch := t.group.DoChan(refreshToken, func() (any, error) {
		// Detached from the caller that started it; others may have joined.
		exchangeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.refreshTimeout)
		defer cancel()
		return t.exchange(exchangeCtx, refreshToken, requestID)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	v, err, shared := res.Val, res.Err, res.Shared
	if shared {
		t.logger.Debug(ctx, "joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (t *authTransport) exchange(ctx context.Context, refreshToken, requestID string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerRequestID, requestID)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		t.logger.Warn(ctx, "refresh token rejected, clearing credentials", "status", resp.StatusCode)
		if err := t.tokens.Clear(ctx); err != nil {
			t.logger.Error(ctx, "failed to clear credentials", "error", err)
		}
		return "", ErrSessionExpired
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return "", decodeAPIError(resp)
	}

	var out models.RefreshResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if out.AccessToken == "" {
		if err := t.tokens.Clear(ctx); err != nil {
			t.logger.Error(ctx, "failed to clear credentials", "error", err)
		}
		return "", ErrSessionExpired
	}

	rotated, err := t.tokens.Rotate(ctx, refreshToken, models.CredentialPair{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken})
	if err != nil {
		return "", fmt.Errorf("store refreshed credentials: %w", err)
	}
	if !rotated {
		t.logger.Info(ctx, "discarding refreshed credentials")
		return "", fmt.Errorf("%w: %w", ErrSessionExpired, errRefreshDiscarded)
	}
	return out.AccessToken, nil
}

func accessOf(pair *models.CredentialPair) string {
	if pair == nil {
		return ""
	}
	return pair.AccessToken
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
