package iq

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// HTTPClient is the interface for the HTTP transport to the IQ service.
type HTTPClient interface {
	// Get sends a GET request to the IQ server.
	Get(context.Context, *url.URL) (*http.Response, error)
	// Post sends a POST request with a JSON body to the IQ server.
	Post(context.Context, *url.URL, []byte) (*http.Response, error)
	// Put sends a PUT request to the IQ server.
	Put(context.Context, *url.URL) (*http.Response, error)
	// Delete sends a DELETE request to the IQ server.
	Delete(context.Context, *url.URL) (*http.Response, error)
	// Head sends a HEAD request to the IQ server.
	Head(context.Context, *url.URL) (*http.Response, error)
}

type httpClient struct {
	client *http.Client
}

// NewHTTPClient creates a new internal HTTP client.
func NewHTTPClient() HTTPClient {
	return &httpClient{
		client: http.DefaultClient,
	}
}

// Ensure httpClient implements HTTPClient.
var _ HTTPClient = (*httpClient)(nil)

func (c *httpClient) do(ctx context.Context, method string, u *url.URL, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.client.Do(req)
}

func (c *httpClient) Get(ctx context.Context, u *url.URL) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, u, nil)
}

func (c *httpClient) Post(ctx context.Context, u *url.URL, body []byte) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, u, bytes.NewReader(body))
}

func (c *httpClient) Put(ctx context.Context, u *url.URL) (*http.Response, error) {
	return c.do(ctx, http.MethodPut, u, nil)
}

func (c *httpClient) Delete(ctx context.Context, u *url.URL) (*http.Response, error) {
	return c.do(ctx, http.MethodDelete, u, nil)
}

func (c *httpClient) Head(ctx context.Context, u *url.URL) (*http.Response, error) {
	return c.do(ctx, http.MethodHead, u, nil)
}
