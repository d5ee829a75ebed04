package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/joestump/devhub/internal/build"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

// TokenSource yields the current bearer token, or "" when signed out.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// HTTPTransport sends requests to the Data API relative to a base URL.
type HTTPTransport struct {
	base   *url.URL
	client *http.Client

	mu     sync.RWMutex
	tokens TokenSource
}

// NewHTTPTransport returns a transport for baseURL. A zero timeout means no
// client-side timeout.
func NewHTTPTransport(baseURL string, timeout time.Duration) (*HTTPTransport, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	return &HTTPTransport{
		base:   base,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// SetTokenSource installs the source of the Authorization header.
func (t *HTTPTransport) SetTokenSource(ts TokenSource) {
	t.mu.Lock()
	t.tokens = ts
	t.mu.Unlock()
}

func (t *HTTPTransport) token() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.tokens == nil {
		return ""
	}
	return t.tokens.Token()
}

// Do sends req. It returns *NotFoundError on 404 and *TransportError on any
// other non-2xx status or network failure.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	fail := func(status int, err error) error {
		return &TransportError{Method: method, Path: req.Path, Status: status, Err: err}
	}

	u := t.base.JoinPath(strings.TrimPrefix(req.Path, "/"))
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", build.UserAgent())
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if tok := t.token(); tok != "" {
		httpReq.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fail(0, fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Method: method, Path: req.Path}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fail(resp.StatusCode, apiError(respBody))
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: respBody}, nil
}

// apiError extracts the server's {"error": "..."} message when present.
func apiError(body []byte) error {
	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Error != "" {
		return errors.New(env.Error)
	}
	return nil
}
