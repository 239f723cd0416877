// Package ccc talks to the CCC standards and content API and maps its
// records into local content items and questions.
package ccc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public CCC endpoint.
	DefaultBaseURL = "https://commoncrawl.alpha1edtech.com"
	// DefaultTimeout bounds every CCC call.
	DefaultTimeout = 8 * time.Second

	maxErrorBody = 512
)

// ErrStatus is returned when the API answers with a non-200 status.
type ErrStatus struct {
	Code int
	Body string
}

func (e *ErrStatus) Error() string {
	return fmt.Sprintf("ccc api error (status %d): %s", e.Code, e.Body)
}

// StandardRecord is one result of the standards search endpoint.
type StandardRecord struct {
	ID                string          `json:"id"`
	HumanCodingScheme string          `json:"humanCodingScheme"`
	FullStatement     string          `json:"fullStatement"`
	EducationLevel    json.RawMessage `json:"educationLevel,omitempty"`
}

// ContentRecord is one result of the content-by-item endpoint. The id may be
// a JSON string or number; ItemID returns it as a string.
type ContentRecord struct {
	ID       json.RawMessage `json:"id"`
	Type     string          `json:"type"`
	CFItemID string          `json:"CFItemId"`
	Name     string          `json:"name"`
	Content  json.RawMessage `json:"content"`
}

// ItemID returns the record id in string form.
func (r ContentRecord) ItemID() string {
	raw := strings.TrimSpace(string(r.ID))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.ID, &s); err == nil {
		return s
	}
	return raw
}

// Client is a CCC API client. Every call is bounded by the client timeout in
// addition to the caller's context.
type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.client = c
	}
}

// NewClient creates a client for baseURL. A non-positive timeout selects
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchStandards returns the standards matching keyword.
func (c *Client) SearchStandards(ctx context.Context, keyword string) ([]StandardRecord, error) {
	body, err := c.get(ctx, "/standards/items", url.Values{"keyword": {keyword}})
	if err != nil {
		return nil, fmt.Errorf("searching standards: %w", err)
	}
	var records []StandardRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding standards: %w", err)
	}
	return records, nil
}

// ContentByItemID returns the content records attached to a CCC item.
func (c *Client) ContentByItemID(ctx context.Context, itemID string) ([]ContentRecord, error) {
	body, err := c.RawContentByItemID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	var records []ContentRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}
	return records, nil
}

// RawContentByItemID returns the content endpoint's body verbatim. The body is
// checked to be valid JSON.
func (c *Client) RawContentByItemID(ctx context.Context, itemID string) (json.RawMessage, error) {
	body, err := c.get(ctx, "/sources/content", url.Values{"CFItemId": {itemID}})
	if err != nil {
		return nil, fmt.Errorf("fetching content for %s: %w", itemID, err)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("fetching content for %s: malformed json", itemID)
	}
	return json.RawMessage(body), nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &ErrStatus{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
