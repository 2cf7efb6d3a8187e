package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single request of the default transport
const DefaultTimeout = 30 * time.Second

// Request is a single HTTP exchange handed to a Requester
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// Requester issues one HTTP request and returns the raw response text.
// Transport failures and HTTP error statuses are returned as errors
// matching ErrNetwork.
type Requester interface {
	Do(ctx context.Context, req Request) (string, error)
}

// RequesterFunc adapts a function to Requester
type RequesterFunc func(ctx context.Context, req Request) (string, error)

// Do calls f
func (f RequesterFunc) Do(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// HTTPRequester is the net/http backed Requester
type HTTPRequester struct {
	httpClient *http.Client
}

// NewHTTPRequester creates a Requester with the given timeout
func NewHTTPRequester(timeout time.Duration) *HTTPRequester {
	return &HTTPRequester{httpClient: &http.Client{Timeout: timeout}}
}

// Do performs the request
func (r *HTTPRequester) Do(ctx context.Context, req Request) (string, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %v", ErrConfiguration, err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: cannot connect to %s", ErrNetwork, hostOf(req.URL))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrNetwork, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	return string(data), nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
