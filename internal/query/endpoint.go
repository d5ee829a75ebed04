package query

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Kind separates cacheable reads from writes.
type Kind int

const (
	KindQuery Kind = iota
	KindMutation
)

func (k Kind) String() string {
	if k == KindMutation {
		return "mutation"
	}
	return "query"
}

// Request is a transport-neutral HTTP request. Body, when non-nil, is sent
// as JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a successful transport response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Transport executes requests. Implementations return *NotFoundError for a
// 404 and *TransportError for every other failure.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Endpoint is a named, statically declared request template.
type Endpoint struct {
	Name string
	Kind Kind

	// Request builds the request from args. It must not depend on anything
	// but args.
	Request func(args any) (Request, error)

	// Transform turns the response into the result value. Without one the
	// result is the raw body as json.RawMessage.
	Transform func(resp *Response, args any) (any, error)

	// Resolve replaces Request and Transform for results assembled from
	// several requests.
	Resolve func(ctx context.Context, t Transport, args any) (any, error)

	// Provides lists the tags a query result is cached under.
	Provides func(result, args any) []Tag

	// Invalidates lists the tags a successful mutation drops.
	Invalidates func(result, args any) []Tag
}

func (ep *Endpoint) fetch(ctx context.Context, t Transport, args any) (any, error) {
	if ep.Resolve != nil {
		return ep.Resolve(ctx, t, args)
	}
	req, err := ep.Request(args)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", ep.Name, err)
	}
	resp, err := t.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if ep.Transform == nil {
		return json.RawMessage(resp.Body), nil
	}
	return ep.Transform(resp, args)
}

// Registry is the static endpoint table.
type Registry struct {
	endpoints map[string]*Endpoint
}

// NewRegistry validates and indexes endpoints by name.
func NewRegistry(endpoints ...Endpoint) (*Registry, error) {
	r := &Registry{endpoints: make(map[string]*Endpoint, len(endpoints))}
	for i := range endpoints {
		ep := &endpoints[i]
		if ep.Name == "" {
			return nil, fmt.Errorf("endpoint %d: name is required", i)
		}
		if _, dup := r.endpoints[ep.Name]; dup {
			return nil, fmt.Errorf("endpoint %q registered twice", ep.Name)
		}
		if ep.Request == nil && ep.Resolve == nil {
			return nil, fmt.Errorf("endpoint %q: Request or Resolve is required", ep.Name)
		}
		if ep.Kind == KindMutation && ep.Provides != nil {
			return nil, fmt.Errorf("endpoint %q: mutations cannot provide tags", ep.Name)
		}
		if ep.Kind == KindQuery && ep.Invalidates != nil {
			return nil, fmt.Errorf("endpoint %q: queries cannot invalidate tags", ep.Name)
		}
		r.endpoints[ep.Name] = ep
	}
	return r, nil
}

// MustRegistry is NewRegistry for package-level tables; it panics on error.
func MustRegistry(endpoints ...Endpoint) *Registry {
	r, err := NewRegistry(endpoints...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the endpoint registered under name.
func (r *Registry) Lookup(name string) (*Endpoint, bool) {
	ep, ok := r.endpoints[name]
	return ep, ok
}

// DecodeJSON is a Transform helper that unmarshals the body into T.
func DecodeJSON[T any](resp *Response) (T, error) {
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return v, fmt.Errorf("decode response: %w", err)
	}
	return v, nil
}
