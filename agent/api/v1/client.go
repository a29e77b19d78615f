package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client talks to a remote agent, for tooling that runs on another host than
// the exports table.
type Client struct {
	url   string
	token string
	http  *http.Client
}

func NewClient(url, token string) *Client {
	return &Client{
		url:   url,
		token: token,
		http: &http.Client{
			// mutations may wait for the exports lock
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) EnableShare(ctx context.Context, req ShareRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/shares", req, nil)
}

func (c *Client) DisableShare(ctx context.Context, req ShareRequest) error {
	return c.do(ctx, http.MethodDelete, "/v1/shares", req, nil)
}

func (c *Client) ShareStatus(ctx context.Context, mountpoint, protocol string) (*ShareStatusResponse, error) {
	q := url.Values{"mountpoint": {mountpoint}}
	if protocol != "" {
		q.Set("protocol", protocol)
	}
	var resp ShareStatusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/shares/status?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ValidateOptions(ctx context.Context, req ValidateRequest) error {
	return c.do(ctx, http.MethodPost, "/v1/validate", req, nil)
}

func (c *Client) Commit(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/v1/commit", nil, nil)
}

func (c *Client) ListExports(ctx context.Context) (*ExportListResponse, error) {
	var resp ExportListResponse
	if err := c.do(ctx, http.MethodGet, "/v1/exports", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Healthz(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &AgentError{StatusCode: resp.StatusCode, Code: errResp.Code, Message: errResp.Error}
		}
		return &AgentError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

type AgentError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsSyntax reports whether the agent rejected the share options.
func IsSyntax(err error) bool {
	var ae *AgentError
	return errors.As(err, &ae) && ae.Code == "SYNTAX"
}

func IsNotFound(err error) bool {
	var ae *AgentError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}
