package showads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/meiro/showads-connector/internal/batch"
	"github.com/meiro/showads-connector/internal/config"
	"github.com/meiro/showads-connector/internal/pkg/httpretry"
)

// Client is the ShowAds API client. Submission is all-or-nothing per
// batch: a nil error from SubmitBatch means the API accepted every
// customer in it.
type Client struct {
	baseURL    string
	tokens     *TokenManager
	httpClient httpretry.HTTPDoer // single-banner requests
	bulkClient httpretry.HTTPDoer // bulk requests, longer timeout
}

// NewClient creates a new ShowAds API client
func NewClient(cfg config.ShowAdsConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  NewTokenManager(cfg),
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.Timeout(),
		}, cfg.MaxRetries, cfg.RetryDelay()),
		bulkClient: httpretry.NewRetryClient(&http.Client{
			Timeout: cfg.BulkTimeout(),
		}, cfg.MaxRetries, cfg.RetryDelay()),
	}
}

// SetHTTPClient sets a custom HTTP client for every request the client
// and its token manager make (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
	c.bulkClient = client
	c.tokens.SetHTTPClient(client)
}

// SubmitBatch sends one batch of validated customers. Batches of one go
// to /banners/show, larger batches to /banners/show/bulk; the outcome
// semantics are identical.
//
// Transient failures (timeouts, connection errors, 429, 5xx) are retried
// with backoff inside the HTTP layer. A 401/403 means the token went
// stale: the cached token is discarded and the batch is retried exactly
// once with a fresh one; a second rejection is a permanent AuthError.
func (c *Client) SubmitBatch(ctx context.Context, b batch.Batch) error {
	if len(b) == 0 {
		return fmt.Errorf("refusing to submit an empty batch")
	}
	if len(b) > config.MaxBatchSize {
		return fmt.Errorf("batch of %d exceeds the bulk limit of %d", len(b), config.MaxBatchSize)
	}

	err := c.submit(ctx, b)
	if !isTokenRejected(err) {
		return err
	}

	log.Printf("showads: token rejected, refreshing and retrying batch once")
	c.tokens.MarkExpired()

	err = c.submit(ctx, b)
	if isTokenRejected(err) {
		return &AuthError{Err: err}
	}
	return err
}

// isTokenRejected reports whether err is the API refusing our bearer
// token (as opposed to refusing the request for any other reason).
func isTokenRejected(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

func (c *Client) submit(ctx context.Context, b batch.Batch) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var (
		endpoint string
		payload  any
		doer     httpretry.HTTPDoer
	)
	if len(b) == 1 {
		endpoint = "/banners/show"
		payload = banner(b[0])
		doer = c.httpClient
	} else {
		endpoint = "/banners/show/bulk"
		payload = BulkShowBannerRequest{Data: banners(b)}
		doer = c.bulkClient
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := doer.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	return nil
}
