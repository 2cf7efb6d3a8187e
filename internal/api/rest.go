package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// DefaultUserAgent is sent on every REST request unless a context header overrides it
const DefaultUserAgent = "wpctl"

// restTransport joins paths onto the site base and speaks JSON over a Requester
type restTransport struct {
	baseURL   string
	requester Requester
	boundary  BoundaryFunc
	logger    zerolog.Logger
}

func newRestTransport(baseURL string, requester Requester, boundary BoundaryFunc, logger zerolog.Logger) *restTransport {
	return &restTransport{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		requester: requester,
		boundary:  boundary,
		logger:    logger,
	}
}

func (t *restTransport) url(path string) string {
	return t.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// get performs a GET and returns the JSON document of the response
func (t *restTransport) get(ctx context.Context, path string, headers map[string]string) (json.RawMessage, error) {
	return t.doRequest(ctx, http.MethodGet, path, nil, headers)
}

// post sends body as JSON, as multipart/form-data for *FormItems, or
// verbatim for []byte.
func (t *restTransport) post(ctx context.Context, path string, body any, headers map[string]string, mapper FormItemNameMapper) (json.RawMessage, error) {
	predefined := make(map[string]string)
	var payload []byte

	switch b := body.(type) {
	case *FormItems:
		boundary := t.boundary()
		encoded, err := b.Encode(boundary, mapper)
		if err != nil {
			return nil, err
		}
		payload = encoded
		predefined["Content-Type"] = "multipart/form-data; boundary=" + boundary
	case []byte:
		payload = b
	default:
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = encoded
		predefined["Content-Type"] = "application/json"
	}

	return t.doRequest(ctx, http.MethodPost, path, payload, mergeHeaders(predefined, headers))
}

func (t *restTransport) doRequest(ctx context.Context, method, path string, body []byte, headers map[string]string) (json.RawMessage, error) {
	req := Request{
		URL:     t.url(path),
		Method:  method,
		Headers: mergeHeaders(map[string]string{"User-Agent": DefaultUserAgent}, headers),
		Body:    body,
	}
	t.logger.Debug().Str("method", method).Str("url", req.URL).Int("bytes", len(body)).Msg("rest request")

	resp, err := t.requester.Do(ctx, req)
	if err != nil {
		t.logger.Debug().Err(err).Str("url", req.URL).Msg("rest request failed")
		return nil, err
	}
	t.logger.Debug().Str("url", req.URL).Str("response", resp).Msg("rest response")

	raw := json.RawMessage(resp)
	if !json.Valid(raw) {
		return raw, fmt.Errorf("%w: response of %s is not JSON", ErrMalformedResponse, path)
	}
	return raw, nil
}

// mergeHeaders copies base and overrides it with the entries of over.
// Header names compare case-insensitively.
func mergeHeaders(base, over map[string]string) map[string]string {
	merged := make(map[string]string, len(base)+len(over))
	for k, v := range base {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	for k, v := range over {
		merged[http.CanonicalHeaderKey(k)] = v
	}
	return merged
}
