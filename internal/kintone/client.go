// Package kintone provides a client for the kintone records API used to
// synchronize inspection records with the cloud app.
package kintone

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aoikanri/aoidata/internal/models"
	"github.com/aoikanri/aoidata/internal/ratelimit"
)

const (
	defaultMaxAttempts = 3
	// kintone allows 100 requests per second per app; stay well under it.
	defaultRatePerSecond = 10
)

// ErrMissingCredentials is returned when the client is constructed without
// a subdomain or API token.
var ErrMissingCredentials = errors.New("kintone subdomain and API token are required")

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client is a kintone records API client.
type Client struct {
	appID         int
	apiToken      string
	baseURL       string
	httpClient    HTTPDoer
	rateLimiter   *ratelimit.Limiter
	retryAttempts int
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client, mainly for tests.
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) { c.httpClient = doer }
}

// WithBaseURL overrides the derived API base URL, mainly for tests.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithRetryAttempts sets the number of attempts per request.
func WithRetryAttempts(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.retryAttempts = attempts
		}
	}
}

// NewClient creates a kintone client for the given subdomain and app.
func NewClient(subdomain string, appID int, apiToken string, opts ...Option) (*Client, error) {
	if subdomain == "" || apiToken == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		appID:         appID,
		apiToken:      apiToken,
		baseURL:       fmt.Sprintf("https://%s.cybozu.com/k/v1", subdomain),
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		rateLimiter:   ratelimit.New("kintone", defaultRatePerSecond),
		retryAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// PostDefectRecords upserts defect records into the kintone app, keyed by
// the record's unique ID. It returns a copy of the input with the remote
// record IDs filled in.
func (c *Client) PostDefectRecords(ctx context.Context, defects []models.DefectRecord) ([]models.DefectRecord, error) {
	if len(defects) == 0 {
		return nil, nil
	}

	payload := upsertRequest{
		App:     c.appID,
		Upsert:  true,
		Records: defectUpsertRecords(defects),
	}

	var resp upsertResponse
	if err := c.doJSON(ctx, http.MethodPut, "/records.json", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to post defect records: %w", err)
	}

	updated := make([]models.DefectRecord, len(defects))
	copy(updated, defects)
	for i, rec := range resp.Records {
		if i < len(updated) {
			updated[i].KintoneRecordID = rec.ID
		}
	}
	return updated, nil
}

// PostRepairRecords upserts repair records into the kintone app.
// It returns a copy of the input with the remote record IDs filled in.
func (c *Client) PostRepairRecords(ctx context.Context, repairs []models.RepairRecord) ([]models.RepairRecord, error) {
	if len(repairs) == 0 {
		return nil, nil
	}

	payload := upsertRequest{
		App:     c.appID,
		Upsert:  true,
		Records: repairUpsertRecords(repairs),
	}

	var resp upsertResponse
	if err := c.doJSON(ctx, http.MethodPut, "/records.json", payload, &resp); err != nil {
		return nil, fmt.Errorf("failed to post repair records: %w", err)
	}

	updated := make([]models.RepairRecord, len(repairs))
	copy(updated, repairs)
	for i, rec := range resp.Records {
		if i < len(updated) {
			updated[i].KintoneRecordID = rec.ID
		}
	}
	return updated, nil
}

// DeleteRecord removes one record from the kintone app by its remote ID.
func (c *Client) DeleteRecord(ctx context.Context, recordID string) error {
	payload := deleteRequest{
		App: c.appID,
		IDs: []string{recordID},
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/records.json", payload, nil); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", recordID, err)
	}
	return nil
}
