// Package apitest provides typed test helpers for the contract layer.
package apitest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brev/contract"
)

// Client wraps an httptest.Server for convenient contract testing.
type Client struct {
	Server *httptest.Server
}

// NewClient creates a test client from a router.
func NewClient(t testing.TB, r *contract.Router) *Client {
	t.Helper()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &Client{Server: srv}
}

// Response holds a decoded JSON response.
type Response struct {
	Status  int
	Headers http.Header
	Body    map[string]any
}

// Get sends a GET request and decodes the JSON response.
func (c *Client) Get(t testing.TB, path string, headers map[string]string) *Response {
	t.Helper()
	return c.Do(t, http.MethodGet, path, nil, headers)
}

// Post sends a POST request with a JSON body and decodes the JSON response.
func (c *Client) Post(t testing.TB, path string, body any, headers map[string]string) *Response {
	t.Helper()
	return c.Do(t, http.MethodPost, path, body, headers)
}

// Do sends a request with an optional JSON body and decodes the response.
func (c *Client) Do(t testing.TB, method, path string, body any, headers map[string]string) *Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.Server.URL+path, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck // test helper

	out := &Response{
		Status:  resp.StatusCode,
		Headers: resp.Header,
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &out.Body); err != nil {
			t.Fatalf("decode response body %q: %v", data, err)
		}
	}

	return out
}
