package showads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/meiro/showads-connector/internal/config"
	"github.com/meiro/showads-connector/internal/pkg/httpretry"
)

// authState tracks the token lifecycle explicitly instead of inferring
// it from field values.
type authState int

const (
	stateUnauthenticated authState = iota
	stateValid
	stateExpired
)

// expirySafetyMargin keeps a token from being presented moments before
// the server would reject it: a token inside the margin counts as
// expired locally.
const expirySafetyMargin = 60 * time.Second

// defaultTokenTTL applies when the auth response carries no ExpiresIn.
const defaultTokenTTL = 24 * time.Hour

// TokenManager owns the bearer token for one project key. Tokens are
// fetched lazily: nothing happens at construction, and a token is only
// requested when a caller needs one.
type TokenManager struct {
	baseURL    string
	projectKey string
	httpClient httpretry.HTTPDoer

	mu        sync.Mutex
	state     authState
	token     string
	expiresAt time.Time

	now func() time.Time
}

// NewTokenManager creates a TokenManager for the configured project.
func NewTokenManager(cfg config.ShowAdsConfig) *TokenManager {
	return &TokenManager{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		projectKey: cfg.ProjectKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, cfg.MaxRetries, cfg.RetryDelay()),
		now: time.Now,
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (m *TokenManager) SetHTTPClient(client httpretry.HTTPDoer) {
	m.httpClient = client
}

// Token returns a token that is currently safe to present, refreshing
// first when the cached one is missing, expired, or inside the safety
// margin. The whole call is serialized, so concurrent callers wait for
// a single in-flight refresh instead of issuing their own.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateValid && m.now().Add(expirySafetyMargin).Before(m.expiresAt) {
		return m.token, nil
	}

	if err := m.refresh(ctx); err != nil {
		return "", err
	}
	return m.token, nil
}

// MarkExpired discards the cached token so the next Token call must
// refresh. The API client calls this when a request comes back 401/403.
func (m *TokenManager) MarkExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == stateValid {
		m.state = stateExpired
	}
}

// refresh authenticates with the project key. The caller holds mu.
func (m *TokenManager) refresh(ctx context.Context) error {
	body, err := json.Marshal(AuthRequest{ProjectKey: m.projectKey})
	if err != nil {
		return &AuthError{Err: fmt.Errorf("failed to marshal auth request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/auth", bytes.NewReader(body))
	if err != nil {
		return &AuthError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return &AuthError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &AuthError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &AuthError{Err: &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}}
	}

	var auth AuthResponse
	if err := json.Unmarshal(respBody, &auth); err != nil {
		return &AuthError{Err: fmt.Errorf("failed to parse auth response: %w", err)}
	}
	if auth.AccessToken == "" {
		return &AuthError{Err: fmt.Errorf("auth response contains no token")}
	}

	ttl := defaultTokenTTL
	if auth.ExpiresIn > 0 {
		ttl = time.Duration(auth.ExpiresIn) * time.Second
	}

	m.token = auth.AccessToken
	m.expiresAt = m.now().Add(ttl)
	m.state = stateValid
	log.Printf("showads: authenticated, token valid until %s", m.expiresAt.Format(time.RFC3339))
	return nil
}
