// Package catalog is a read-only client for the Backstage catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTimeout   = 120 * time.Second
	defaultPageSize  = 500
	maxErrorBodySize = 1 << 20 // 1 MiB

	// Standard Backstage annotation keys carried through to import candidates.
	AnnotationSourceLocation = "backstage.io/source-location"
	AnnotationProjectSlug    = "github.com/project-slug"
)

// Entity is a catalog entity in the subset of the Backstage entity
// envelope this service consumes.
type Entity struct {
	Kind     string         `json:"kind"`
	Metadata EntityMetadata `json:"metadata"`
	Spec     EntitySpec     `json:"spec"`
}

type EntityMetadata struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Annotations map[string]string `json:"annotations"`
	Tags        []string          `json:"tags"`
}

type EntitySpec struct {
	Type      string `json:"type"`
	Lifecycle string `json:"lifecycle"`
	Owner     string `json:"owner"`
}

type Client struct {
	BaseURL  string
	Token    string
	PageSize int
	HTTP     *http.Client
}

// New creates a catalog client. The token is optional; guest access is a
// valid Backstage deployment mode.
func New(baseURL, token string) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("catalog base URL is required")
	}
	return &Client{
		BaseURL:  base,
		Token:    strings.TrimSpace(token),
		PageSize: defaultPageSize,
		HTTP:     &http.Client{Timeout: defaultTimeout},
	}, nil
}

// ListComponentEntities fetches every component-kind entity from the
// catalog, paginating internally.
func (c *Client) ListComponentEntities(ctx context.Context) ([]Entity, error) {
	if c.BaseURL == "" {
		return nil, errors.New("catalog base URL is required")
	}
	if c.HTTP == nil {
		return nil, errors.New("catalog http client is not configured")
	}

	pageSize := c.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	var out []Entity
	for offset := 0; ; offset += pageSize {
		endpoint, err := c.endpoint(offset, pageSize)
		if err != nil {
			return nil, err
		}
		page, err := c.get(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		for _, e := range page {
			if !strings.EqualFold(strings.TrimSpace(e.Kind), "component") {
				continue
			}
			if strings.TrimSpace(e.Metadata.Name) == "" {
				continue
			}
			out = append(out, e)
		}
		if len(page) < pageSize {
			break
		}
	}
	return out, nil
}

func (c *Client) endpoint(offset, limit int) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/catalog/entities"
	q := u.Query()
	q.Set("filter", "kind=component")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()
	u.Fragment = ""
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]Entity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "shieldsync")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog api failed: %s: %s", resp.Status, summarizeBody(body))
	}

	var page []Entity
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, err
	}
	return page, nil
}

func summarizeBody(body []byte) string {
	msg := strings.Join(strings.Fields(string(body)), " ")
	const maxLen = 300
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "…"
	}
	return msg
}

// SourceURL returns the entity's source location annotation with the
// Backstage "url:" prefix stripped, or "".
func (e Entity) SourceURL() string {
	loc := strings.TrimSpace(e.Metadata.Annotations[AnnotationSourceLocation])
	return strings.TrimPrefix(loc, "url:")
}

// RepoURL derives a repository URL from the project-slug annotation, or
// falls back to the source location.
func (e Entity) RepoURL() string {
	if slug := strings.TrimSpace(e.Metadata.Annotations[AnnotationProjectSlug]); slug != "" {
		return "https://github.com/" + slug
	}
	return e.SourceURL()
}
