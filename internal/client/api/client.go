package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/avikom/catersync/internal/models"
	"github.com/avikom/catersync/pkg/api"
)

//go:generate moq -out backend_mock.go . Backend

// Backend is the backend contract the data layer consumes: list,
// create, update and delete per collection, plus a reachability probe.
type Backend interface {
	// List fetches a collection, optionally narrowed by the query.
	List(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error)

	// Create posts a new record and returns the authoritative copy
	// including the assigned server id and version.
	Create(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error)

	// Update rewrites a record. baseVersion is sent as the If-Match
	// precondition; empty means unconditional overwrite. A version
	// mismatch is returned as *ConflictError.
	Update(ctx context.Context, kind models.Kind, serverID int64, payload json.RawMessage, baseVersion string) (*api.Entity, error)

	// Delete removes a record.
	Delete(ctx context.Context, kind models.Kind, serverID int64) error

	// Ping probes backend reachability.
	Ping(ctx context.Context) error
}

// TokenSource supplies the bearer credential attached to collection
// requests. Authentication itself is out of scope for the data layer.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// Client is the HTTP client for the order-management backend.
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	baseURL    string
}

var _ Backend = (*Client)(nil)

// NewClient creates a new API client. tokens may be nil for
// unauthenticated use (login, ping).
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Keep the Authorization header across redirects.
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}
}

// Register creates a new backend account
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login authenticates and returns the issued bearer token
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Ping probes backend reachability via the unauthenticated health endpoint
func (c *Client) Ping(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, nil)
}

// List fetches a collection, optionally narrowed by the query
func (c *Client) List(ctx context.Context, kind models.Kind, query api.ListQuery) ([]api.Entity, error) {
	params := url.Values{}
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.Status != "" {
		params.Set("status", query.Status)
	}
	if !query.From.IsZero() {
		params.Set("from", query.From.UTC().Format(time.RFC3339))
	}
	if !query.To.IsZero() {
		params.Set("to", query.To.UTC().Format(time.RFC3339))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Offset > 0 {
		params.Set("offset", strconv.Itoa(query.Offset))
	}

	path := "/api/v1/" + string(kind)
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp api.ListResponse
	if err := c.doAuthed(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, fmt.Errorf("list %s failed: %w", kind, err)
	}
	return resp.Items, nil
}

// Create posts a new record
func (c *Client) Create(ctx context.Context, kind models.Kind, payload json.RawMessage) (*api.Entity, error) {
	var resp api.Entity
	path := "/api/v1/" + string(kind)
	if err := c.doAuthed(ctx, http.MethodPost, path, "", payload, &resp); err != nil {
		return nil, fmt.Errorf("create %s failed: %w", kind, err)
	}
	return &resp, nil
}

// Update rewrites a record, guarded by the If-Match precondition
func (c *Client) Update(ctx context.Context, kind models.Kind, serverID int64, payload json.RawMessage, baseVersion string) (*api.Entity, error) {
	var resp api.Entity
	path := fmt.Sprintf("/api/v1/%s/%d", kind, serverID)
	if err := c.doAuthed(ctx, http.MethodPut, path, baseVersion, payload, &resp); err != nil {
		return nil, fmt.Errorf("update %s/%d failed: %w", kind, serverID, err)
	}
	return &resp, nil
}

// Delete removes a record
func (c *Client) Delete(ctx context.Context, kind models.Kind, serverID int64) error {
	path := fmt.Sprintf("/api/v1/%s/%d", kind, serverID)
	if err := c.doAuthed(ctx, http.MethodDelete, path, "", nil, nil); err != nil {
		return fmt.Errorf("delete %s/%d failed: %w", kind, serverID, err)
	}
	return nil
}

// doAuthed resolves the bearer token and performs the request
func (c *Client) doAuthed(ctx context.Context, method, path, ifMatch string, body, result any) error {
	token := ""
	if c.tokens != nil {
		var err error
		token, err = c.tokens.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to resolve token: %w", err)
		}
	}
	return c.do(ctx, method, path, token, ifMatch, body, result)
}

// doRequest performs an unauthenticated request
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	return c.do(ctx, method, path, "", "", body, result)
}

// do performs one HTTP request and classifies failures: transport
// errors become *UnavailableError, 412 becomes *ConflictError, every
// other non-2xx becomes *StatusError.
func (c *Client) do(ctx context.Context, method, path, token, ifMatch string, body, result any) error {
	reqURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if ifMatch != "" {
		req.Header.Set("If-Match", ifMatch)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UnavailableError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil {
			errResp = api.ErrorResponse{Message: string(respBody)}
		}
		if resp.StatusCode == http.StatusPreconditionFailed {
			return &ConflictError{Current: errResp.Current}
		}
		return &StatusError{
			StatusCode: resp.StatusCode,
			Code:       errResp.Code,
			Message:    errResp.Message,
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
