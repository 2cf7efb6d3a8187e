package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/kolo/xmlrpc"
	"github.com/rs/zerolog"

	"github.com/bugparty/wpctl/internal/models"
)

// Caller performs one XML-RPC method call. Remote faults are returned as
// *Fault errors.
type Caller interface {
	Call(ctx context.Context, method string, args ...any) (any, error)
}

// XMLRPCCaller encodes calls with kolo/xmlrpc and posts them through a Requester
type XMLRPCCaller struct {
	url       string
	requester Requester
	logger    zerolog.Logger
}

// NewXMLRPCCaller creates a caller posting to url
func NewXMLRPCCaller(url string, requester Requester, logger zerolog.Logger) *XMLRPCCaller {
	return &XMLRPCCaller{url: url, requester: requester, logger: logger}
}

// Call encodes the method call, posts it and decodes the response value.
// Structs decode to map[string]any, arrays to []any.
func (c *XMLRPCCaller) Call(ctx context.Context, method string, args ...any) (any, error) {
	body, err := xmlrpc.EncodeMethodCall(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", method, err)
	}

	c.logger.Debug().Str("method", method).Str("url", c.url).Msg("xml-rpc call")
	resp, err := c.requester.Do(ctx, Request{
		URL:    c.url,
		Method: http.MethodPost,
		Headers: map[string]string{
			"Content-Type": "text/xml",
			"User-Agent":   DefaultUserAgent,
		},
		Body: body,
	})
	if err != nil {
		return nil, err
	}

	response := xmlrpc.Response(resp)
	if err := response.Err(); err != nil {
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			c.logger.Debug().Str("method", method).Int("faultCode", fault.Code).Msg("xml-rpc fault")
			return nil, &Fault{Code: strconv.Itoa(fault.Code), String: fault.String}
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, method, err)
	}

	var result any
	if err := response.Unmarshal(&result); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedResponse, method, err)
	}
	return result, nil
}

// xmlrpcURL joins the profile endpoint and its XML-RPC path
func xmlrpcURL(endpoint, path string) string {
	if path == "" {
		path = models.DefaultXMLRPCPath
	}
	return strings.TrimSuffix(endpoint, "/") + "/" + strings.TrimPrefix(path, "/")
}
