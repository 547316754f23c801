package scoop

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/imroc/req/v3"
)

// Invoker calls a named backend operation. args is encoded as the request and
// the response is decoded into result; a nil result discards the response.
type Invoker interface {
	Invoke(ctx context.Context, op Operation, args any, result any) error
}

// Ensure HTTPInvoker implements Invoker at compile time.
var _ Invoker = (*HTTPInvoker)(nil)

const (
	defaultBackendURL = "http://127.0.0.1:7488"
	defaultUserAgent  = "scoopsync/0.1"
	defaultTimeout    = 30 * time.Second
	invokePathPrefix  = "/api/invoke/"

	HeaderRequestID = "X-Request-Id"
)

// HTTPInvoker reaches the engine's command bridge over HTTP.
type HTTPInvoker struct {
	client  *req.Client
	baseURL *url.URL
}

// NewHTTPInvoker builds an invoker for backendURL. A zero timeout uses the default.
func NewHTTPInvoker(backendURL string, timeout time.Duration) (*HTTPInvoker, error) {
	base, err := parseBaseURL(backendURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := req.C().
		SetBaseURL(base.String()).
		SetTimeout(timeout).
		SetUserAgent(defaultUserAgent).
		SetCommonHeader("Accept", "application/json").
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	return &HTTPInvoker{client: client, baseURL: base}, nil
}

// BaseURL returns the normalized backend address.
func (h *HTTPInvoker) BaseURL() string {
	return h.baseURL.String()
}

// Invoke posts args to /api/invoke/<op>.
func (h *HTTPInvoker) Invoke(ctx context.Context, op Operation, args any, result any) error {
	if h == nil {
		return ErrNilInvoker
	}
	if args == nil {
		args = struct{}{}
	}

	r := h.client.R().
		SetContext(ctx).
		SetHeader(HeaderRequestID, uuid.NewString()).
		SetBody(args).
		SetErrorResult(&BackendError{})
	if result != nil {
		r.SetSuccessResult(result)
	}

	resp, err := r.Post(invokePathPrefix + string(op))
	return handleInvokeError(resp, err, op)
}

func parseBaseURL(backendURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(backendURL)
	if trimmed == "" {
		trimmed = defaultBackendURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse backend url %q: %w", backendURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse backend url %q: %w", backendURL, ErrNoBackend)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
