// Package httpclient performs the HTTP requests behind
// request-backed cases.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ClientOption configures a Client via functional options.
type ClientOption func(*Client)

// Client wraps net/http.Client with an optional bearer token.
// NewClient() with zero options is ready to use.
type Client struct {
	token      string
	header     http.Header
	httpClient *http.Client
}

// NewClient creates a client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		header: make(http.Header),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithTimeout overrides the default HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithToken sends "Authorization: Bearer <token>" on every
// request.
func WithToken(token string) ClientOption {
	return func(c *Client) { c.token = token }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.header.Add(key, value) }
}

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// Request describes one call. A blank Method means GET.
type Request struct {
	Method string
	URL    string
	Body   string
	Header map[string]string
}

// Response is a fully read reply.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Value returns the body decoded as JSON, or the trimmed text
// when it is not JSON.
func (r Response) Value() any {
	var v any
	if err := json.Unmarshal(r.Body, &v); err == nil {
		return v
	}
	return strings.TrimSpace(string(r.Body))
}

// Do sends req and reads the whole body.
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if req.Body != "" {
		body = strings.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), req.URL, body)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	for k, v := range req.Header {
		hreq.Header.Set(k, v)
	}
	if req.Body != "" && hreq.Header.Get("Content-Type") == "" {
		hreq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		hreq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(hreq)
	if err != nil {
		return Response{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return Response{Status: resp.StatusCode}, fmt.Errorf("read response: %w", err)
	}
	return Response{Status: resp.StatusCode, Body: buf.Bytes()}, nil
}

// Fetch sends req and returns the decoded body. Non-2xx replies
// are errors that carry the status and body text.
func (c *Client) Fetch(ctx context.Context, req Request) (any, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf(
			"%s returned HTTP %d: %s",
			req.URL, resp.Status, strings.TrimSpace(string(resp.Body)),
		)
	}
	return resp.Value(), nil
}
