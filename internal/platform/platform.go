// Package platform is the client for the security-asset-management
// platform's GraphQL API. It lists the assets already imported for a
// company and submits new import candidates.
//
// Imports are not assumed to be idempotent on the platform side; callers
// are responsible for not re-sending assets that already exist.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultPageSize  = 100
	maxRetriesOn429  = 3
	maxErrorBodySize = 1 << 20 // 1 MiB

	integrationType = "BACKSTAGE"
)

var (
	ErrAPI = errors.New("platform api error")
	// ErrTimeout marks failures caused by the request deadline, so callers
	// can distinguish a slow platform from a broken one.
	ErrTimeout = errors.New("platform request timed out")
)

// APIError is a non-2xx or GraphQL-level failure from the platform.
type APIError struct {
	StatusCode int
	Status     string
	Summary    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	status := strings.TrimSpace(e.Status)
	summary := strings.TrimSpace(e.Summary)
	switch {
	case status != "" && summary != "":
		return fmt.Sprintf("platform api error: %s: %s", status, summary)
	case status != "":
		return fmt.Sprintf("platform api error: %s", status)
	case summary != "":
		return fmt.Sprintf("platform api error: %s", summary)
	}
	return "platform api error"
}

func (e *APIError) Unwrap() error { return ErrAPI }

// Asset is one record already imported into the platform.
type Asset struct {
	ID   string
	Name string
}

// ImportCandidate is a catalog entity mapped into the platform's asset shape.
type ImportCandidate struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URL         string   `json:"url,omitempty"`
	RepoURL     string   `json:"repoUrl,omitempty"`
	Lifecycle   string   `json:"lifeCycleStage,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Owner       string   `json:"owner,omitempty"`
	AssetType   string   `json:"assetType,omitempty"`
}

// ImportResult reports the outcome of one import mutation.
type ImportResult struct {
	Success       bool
	ImportedCount int
	Errors        []string
}

type Client struct {
	BaseURL  string
	APIKey   string
	PageSize int
	HTTP     *http.Client
}

// New creates a platform client. baseURL and apiKey are required.
func New(baseURL, apiKey string) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	apiKey = strings.TrimSpace(apiKey)

	if base == "" {
		return nil, errors.New("platform base URL is required")
	}
	if apiKey == "" {
		return nil, errors.New("platform api key is required")
	}

	return &Client{
		BaseURL:  base,
		APIKey:   apiKey,
		PageSize: defaultPageSize,
		HTTP:     &http.Client{Timeout: defaultTimeout},
	}, nil
}

func (c *Client) ensureClient() error {
	if c.BaseURL == "" {
		return errors.New("platform base URL is required")
	}
	if c.APIKey == "" {
		return errors.New("platform api key is required")
	}
	if c.HTTP == nil {
		return errors.New("platform http client is not configured")
	}
	return nil
}

const listAssetsQuery = `query ListAssets($companyId: Int!, $page: Int!, $limit: Int!, $integrationType: String!) {
  assets(companyId: $companyId, page: $page, limit: $limit, integrationType: $integrationType) {
    collection { id name }
    metadata { currentPage totalPages }
  }
}`

const importAssetsMutation = `mutation ImportAssets($companyId: Int!, $assets: [AssetInput!]!) {
  importAssets(companyId: $companyId, assets: $assets) {
    success
    importedCount
    errors
  }
}`

// ListAssets fetches the complete set of assets already imported for a
// company, paginating internally and filtering to the Backstage
// integration type.
func (c *Client) ListAssets(ctx context.Context, companyID int64) ([]Asset, error) {
	if err := c.ensureClient(); err != nil {
		return nil, err
	}
	if companyID <= 0 {
		return nil, errors.New("platform company id is required")
	}

	pageSize := c.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	var out []Asset
	for page := 1; ; page++ {
		body, err := c.post(ctx, listAssetsQuery, map[string]any{
			"companyId":       companyID,
			"page":            page,
			"limit":           pageSize,
			"integrationType": integrationType,
		})
		if err != nil {
			return nil, err
		}

		var payload struct {
			Assets struct {
				Collection []struct {
					ID   string `json:"id"`
					Name string `json:"name"`
				} `json:"collection"`
				Metadata struct {
					CurrentPage int `json:"currentPage"`
					TotalPages  int `json:"totalPages"`
				} `json:"metadata"`
			} `json:"assets"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}

		for _, a := range payload.Assets.Collection {
			name := strings.TrimSpace(a.Name)
			if name == "" {
				continue
			}
			out = append(out, Asset{ID: strings.TrimSpace(a.ID), Name: name})
		}

		if len(payload.Assets.Collection) == 0 {
			break
		}
		if payload.Assets.Metadata.TotalPages > 0 && page >= payload.Assets.Metadata.TotalPages {
			break
		}
	}
	return out, nil
}

// ImportAssets submits candidates for import. The platform reports
// partial failures in ImportResult.Errors rather than failing the call.
func (c *Client) ImportAssets(ctx context.Context, companyID int64, candidates []ImportCandidate) (ImportResult, error) {
	if err := c.ensureClient(); err != nil {
		return ImportResult{}, err
	}
	if companyID <= 0 {
		return ImportResult{}, errors.New("platform company id is required")
	}
	if len(candidates) == 0 {
		return ImportResult{Success: true}, nil
	}

	body, err := c.post(ctx, importAssetsMutation, map[string]any{
		"companyId": companyID,
		"assets":    candidates,
	})
	if err != nil {
		return ImportResult{}, err
	}

	var payload struct {
		ImportAssets struct {
			Success       bool     `json:"success"`
			ImportedCount int      `json:"importedCount"`
			Errors        []string `json:"errors"`
		} `json:"importAssets"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ImportResult{}, err
	}
	return ImportResult{
		Success:       payload.ImportAssets.Success,
		ImportedCount: payload.ImportAssets.ImportedCount,
		Errors:        payload.ImportAssets.Errors,
	}, nil
}

// post sends one GraphQL request and returns the data payload. Rate
// limits (429) are retried with exponential backoff; every other failure
// is returned as-is.
func (c *Client) post(ctx context.Context, query string, variables map[string]any) ([]byte, error) {
	reqBody, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetriesOn429), ctx)

	var data []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("x-api-key", c.APIKey)
		req.Header.Set("User-Agent", "shieldsync")

		resp, err := c.HTTP.Do(req)
		if err != nil {
			return backoff.Permanent(classifyTransportError(err))
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		resp.Body.Close()
		if readErr != nil {
			return backoff.Permanent(readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			// Retryable; honor Retry-After when present by sleeping here,
			// on top of the backoff policy's own delay.
			if wait, ok := retryAfterDuration(resp.Header.Get("Retry-After")); ok {
				if err := sleep(ctx, wait); err != nil {
					return backoff.Permanent(err)
				}
			}
			return apiError(resp, body)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return backoff.Permanent(apiError(resp, body))
		}

		parsed, err := parseGraphQLBody(body)
		if err != nil {
			return backoff.Permanent(err)
		}
		data = parsed
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return data, nil
}

func parseGraphQLBody(body []byte) ([]byte, error) {
	var payload struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if len(payload.Errors) > 0 {
		messages := make([]string, 0, len(payload.Errors))
		for _, e := range payload.Errors {
			if msg := strings.TrimSpace(e.Message); msg != "" {
				messages = append(messages, msg)
			}
		}
		return nil, &APIError{Summary: strings.Join(messages, "; ")}
	}
	if len(payload.Data) == 0 {
		return nil, &APIError{Summary: "empty response"}
	}
	return payload.Data, nil
}

func classifyTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func apiError(resp *http.Response, body []byte) error {
	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Summary:    extractAPIErrorMessage(body),
	}
}

func extractAPIErrorMessage(body []byte) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if len(payload.Errors) > 0 {
			if msg := strings.TrimSpace(payload.Errors[0].Message); msg != "" {
				return msg
			}
		}
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(payload.Message); msg != "" {
			return msg
		}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		return ""
	}
	if strings.HasPrefix(msg, "<!DOCTYPE html") || strings.HasPrefix(msg, "<html") {
		return ""
	}
	msg = strings.Join(strings.Fields(msg), " ")
	const maxLen = 300
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "…"
	}
	return msg
}

func retryAfterDuration(header string) (time.Duration, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
