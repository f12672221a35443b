// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package apiclient is an HTTP client for the taxonomy REST API. It
// implements taxonomy.ChildrenSource, taxonomy.ParentSource and
// taxonomy.Creator so the flattening traversal and the add-form editor can
// run against a remote server.
package apiclient

import (
	"bytes"
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

	"github.com/google/uuid"

	"github.com/cohesion-education/api/internal/model"
	"github.com/cohesion-education/api/internal/taxonomy"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// Client talks to a cohesion server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// APIError represents a non-2xx HTTP response.
type APIError struct {
	StatusCode       int
	Message          string
	ValidationErrors []model.ValidationError
}

func (e *APIError) Error() string {
	if len(e.ValidationErrors) > 0 {
		parts := make([]string, 0, len(e.ValidationErrors))
		for _, v := range e.ValidationErrors {
			if v.Field != "" {
				parts = append(parts, v.Field+": "+v.Err)
			} else {
				parts = append(parts, v.Err)
			}
		}
		return fmt.Sprintf("HTTP %d: %s (%s)", e.StatusCode, e.Message, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Option configures Client behavior.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a Client for baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Roots implements taxonomy.ChildrenSource.
func (c *Client) Roots(ctx context.Context) ([]model.Taxonomy, error) {
	var roots []model.Taxonomy
	if err := c.do(ctx, http.MethodGet, "/api/taxonomy", nil, nil, &roots); err != nil {
		return nil, fmt.Errorf("listing roots: %w", err)
	}
	return roots, nil
}

// Children implements taxonomy.ChildrenSource.
func (c *Client) Children(ctx context.Context, id int64) ([]model.Taxonomy, error) {
	var resp model.ChildrenResponse
	path := "/api/taxonomy/" + strconv.FormatInt(id, 10) + "/children"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("listing children of %d: %w", id, err)
	}
	return resp.Children, nil
}

// Get implements taxonomy.ParentSource.
func (c *Client) Get(ctx context.Context, id int64) (model.Taxonomy, error) {
	var t model.Taxonomy
	if err := c.do(ctx, http.MethodGet, "/api/taxonomy/"+strconv.FormatInt(id, 10), nil, nil, &t); err != nil {
		if IsNotFound(err) {
			return t, fmt.Errorf("getting %d: %w", id, taxonomy.ErrNotFound)
		}
		return t, fmt.Errorf("getting %d: %w", id, err)
	}
	return t, nil
}

// Create implements taxonomy.Creator. The server may answer with a bare JSON
// number or with {"id": N}.
func (c *Client) Create(ctx context.Context, req model.CreateTaxonomyRequest) (int64, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/taxonomy", nil, req, &raw); err != nil {
		return 0, err
	}
	id, err := decodeID(raw)
	if err != nil {
		return 0, fmt.Errorf("decoding created id: %w", err)
	}
	return id, nil
}

// FlattenResponse is the body of GET /api/taxonomy/flatten.
type FlattenResponse struct {
	Options  []taxonomy.Option `json:"options"`
	Failures []FailureInfo     `json:"failures,omitempty"`
}

// FailureInfo is a failed subtree as reported by the server.
type FailureInfo struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Error string `json:"error"`
}

// Flatten asks the server to flatten the whole taxonomy.
func (c *Client) Flatten(ctx context.Context, selectedID int64) (FlattenResponse, error) {
	var resp FlattenResponse
	q := url.Values{}
	if selectedID != 0 {
		q.Set("selected", strconv.FormatInt(selectedID, 10))
	}
	if err := c.do(ctx, http.MethodGet, "/api/taxonomy/flatten", q, nil, &resp); err != nil {
		return resp, fmt.Errorf("flattening: %w", err)
	}
	return resp, nil
}

// Tree fetches the nested taxonomy.
func (c *Client) Tree(ctx context.Context) ([]*taxonomy.TreeNode, error) {
	var tree []*taxonomy.TreeNode
	if err := c.do(ctx, http.MethodGet, "/api/taxonomy/tree", nil, nil, &tree); err != nil {
		return nil, fmt.Errorf("fetching tree: %w", err)
	}
	return tree, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp.StatusCode, data)
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError builds an APIError from either the form envelope
// {"error": "...", "validation_errors": [...]} or the API envelope
// {"error": {"code": "...", "message": "..."}}. Bodies that are not JSON
// fall back to the status text.
func decodeError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var envelope struct {
		Error            json.RawMessage         `json:"error"`
		ValidationErrors []model.ValidationError `json:"validation_errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		if s := strings.TrimSpace(string(body)); s != "" {
			if len(s) > maxErrorBody {
				s = s[:maxErrorBody]
			}
			apiErr.Message = s
		}
		return apiErr
	}

	apiErr.ValidationErrors = envelope.ValidationErrors

	var msg string
	if err := json.Unmarshal(envelope.Error, &msg); err == nil && msg != "" {
		apiErr.Message = msg
		return apiErr
	}

	var detail struct {
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	}
	if err := json.Unmarshal(envelope.Error, &detail); err == nil && detail.Message != "" {
		apiErr.Message = detail.Message
		for field, m := range detail.Details {
			apiErr.ValidationErrors = append(apiErr.ValidationErrors, model.ValidationError{Field: field, Err: m})
		}
	}
	return apiErr
}

func decodeID(raw json.RawMessage) (int64, error) {
	var id int64
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, nil
	}

	var obj struct {
		ID   *int64 `json:"id"`
		Data *struct {
			ID int64 `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, err
	}
	switch {
	case obj.ID != nil:
		return *obj.ID, nil
	case obj.Data != nil:
		return obj.Data.ID, nil
	}
	return 0, errors.New("response has no id")
}
