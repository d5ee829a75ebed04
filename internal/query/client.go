// Package query is the client-side data layer: a static endpoint registry,
// a tag-indexed response cache and in-flight de-duplication of identical
// queries.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/joestump/devhub/internal/metrics"
)

type entry struct {
	value any
	tags  []Tag
}

// invalidation is one Invalidate or Reset call observed by a flight.
type invalidation struct {
	tags []Tag
	all  bool
}

func (inv invalidation) hits(provided []Tag) bool {
	return inv.all || matchesAny(inv.tags, provided)
}

// flight is a fetch in progress for one cache key. Callers join it until it
// resolves, whatever is invalidated meanwhile.
type flight struct {
	id          uint64
	invalidated []invalidation
}

// landing is what a flight hands its callers. A caller that joined after
// more than fresh invalidations had been recorded must not use value.
type landing struct {
	value any
	fresh int
}

// Stats is a snapshot of cache activity since the client was created.
type Stats struct {
	Hits    int
	Misses  int
	Fetches int
	Entries int
}

// Client executes registry endpoints against a transport and caches query
// results. It is safe for concurrent use.
type Client struct {
	registry  *Registry
	transport Transport
	group     singleflight.Group

	mu         sync.Mutex
	entries    map[string]*entry
	flights    map[string]*flight
	lastFlight uint64
	stats      Stats
}

// New returns a client with an empty cache.
func New(registry *Registry, transport Transport) *Client {
	return &Client{
		registry:  registry,
		transport: transport,
		entries:   make(map[string]*entry),
		flights:   make(map[string]*flight),
	}
}

// cacheKey is the endpoint name plus the canonical JSON of args. Struct
// fields marshal in declaration order and map keys sorted, so equal args
// always produce the same key.
func cacheKey(name string, args any) (string, error) {
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("%s: encode args: %w", name, err)
	}
	return name + "\x00" + string(b), nil
}

func (c *Client) endpoint(name string, kind Kind) (*Endpoint, error) {
	ep, ok := c.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown endpoint %q", name)
	}
	if ep.Kind != kind {
		return nil, fmt.Errorf("endpoint %q is a %s, not a %s", name, ep.Kind, kind)
	}
	return ep, nil
}

// Query returns the cached result for (name, args) or fetches it.
// Concurrent identical queries share one transport call. Failures are
// returned and never cached.
//
// A caller that joins a flight after an invalidation matching the flight's
// result waits for it and then fetches again, so it never sees data older
// than a mutation that completed before it asked.
//
// If ctx ends first Query returns ctx.Err(), but the fetch runs to
// completion and still fills the cache.
func (c *Client) Query(ctx context.Context, name string, args any) (any, error) {
	ep, err := c.endpoint(name, KindQuery)
	if err != nil {
		return nil, err
	}
	key, err := cacheKey(name, args)
	if err != nil {
		return nil, err
	}

	fetchCtx := context.WithoutCancel(ctx)
	for {
		v, hit, ch, seen := c.join(fetchCtx, ep, key, args)
		if hit {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			l := res.Val.(*landing)
			if seen <= l.fresh {
				return l.value, nil
			}
		}
	}
}

// join returns the cached value, or the flight that will produce it and
// how many invalidations that flight had recorded when joined.
func (c *Client) join(ctx context.Context, ep *Endpoint, key string, args any) (any, bool, <-chan singleflight.Result, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.stats.Hits++
		metrics.CacheHitsTotal.WithLabelValues(ep.Name).Inc()
		return e.value, true, nil, 0
	}
	c.stats.Misses++
	metrics.CacheMissesTotal.WithLabelValues(ep.Name).Inc()

	f, ok := c.flights[key]
	if !ok {
		c.lastFlight++
		f = &flight{id: c.lastFlight}
		c.flights[key] = f
	}
	// A flight retires under c.mu before its group call returns, so
	// joining under c.mu never attaches to a call whose flight is gone.
	groupKey := strconv.FormatUint(f.id, 10) + "\x00" + key
	ch := c.group.DoChan(groupKey, func() (any, error) {
		return c.land(ctx, ep, key, args, f)
	})
	return nil, false, ch, len(f.invalidated)
}

// land runs the fetch for f, retires f and stores the result unless an
// invalidation recorded during the flight matches its tags.
func (c *Client) land(ctx context.Context, ep *Endpoint, key string, args any, f *flight) (any, error) {
	v, err := c.run(ctx, ep, args)
	var tags []Tag
	if err == nil && ep.Provides != nil {
		err = guard(ep, func() error {
			tags = ep.Provides(v, args)
			return nil
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.flights, key)
	if err != nil {
		return nil, err
	}

	l := &landing{value: v, fresh: len(f.invalidated)}
	for i, inv := range f.invalidated {
		if inv.hits(tags) {
			l.fresh = i
			break
		}
	}
	if l.fresh == len(f.invalidated) {
		c.entries[key] = &entry{value: v, tags: tags}
	}
	return l, nil
}

// Mutate issues the mutation and, on success, drops every cached entry
// carrying a tag it invalidates. On failure the cache is untouched.
//
// Like Query, an abandoned mutation still completes and still invalidates.
func (c *Client) Mutate(ctx context.Context, name string, args any) (any, error) {
	ep, err := c.endpoint(name, KindMutation)
	if err != nil {
		return nil, err
	}

	type result struct {
		val any
		err error
	}
	done := make(chan result, 1)
	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		v, err := c.run(fetchCtx, ep, args)
		if err == nil && ep.Invalidates != nil {
			var tags []Tag
			err = guard(ep, func() error {
				tags = ep.Invalidates(v, args)
				return nil
			})
			if err != nil {
				// The write landed but its tags are unknown.
				c.Reset()
			} else {
				c.Invalidate(tags...)
			}
		}
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.val, r.err
	}
}

func (c *Client) run(ctx context.Context, ep *Endpoint, args any) (any, error) {
	c.mu.Lock()
	c.stats.Fetches++
	c.mu.Unlock()

	var v any
	err := guard(ep, func() error {
		var err error
		v, err = ep.fetch(ctx, c.transport, args)
		return err
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.FetchesTotal.WithLabelValues(ep.Name, outcome).Inc()
	return v, err
}

// guard turns a panic in endpoint code into an error for the caller.
func guard(ep *Endpoint, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: %v", ep.Name, r)
		}
	}()
	return fn()
}

// Invalidate drops every entry carrying a tag matched by tags and returns
// how many were dropped. Flights in progress record the tags and will not
// store a result they match.
func (c *Client) Invalidate(tags ...Tag) int {
	if len(tags) == 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.flights {
		f.invalidated = append(f.invalidated, invalidation{tags: tags})
	}

	dropped := 0
	for key, e := range c.entries {
		if matchesAny(tags, e.tags) {
			delete(c.entries, key)
			dropped++
		}
	}
	metrics.InvalidatedTotal.Add(float64(dropped))
	return dropped
}

func matchesAny(invalidated, provided []Tag) bool {
	for _, inv := range invalidated {
		for _, p := range provided {
			if inv.Invalidates(p) {
				return true
			}
		}
	}
	return false
}

// Reset empties the cache. Flights in progress will not store their results.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.flights {
		f.invalidated = append(f.invalidated, invalidation{all: true})
	}
	metrics.InvalidatedTotal.Add(float64(len(c.entries)))
	c.entries = make(map[string]*entry)
}

// Stats returns a snapshot of cache counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// Get runs Query and asserts the result type.
func Get[T any](ctx context.Context, c *Client, name string, args any) (T, error) {
	var zero T
	v, err := c.Query(ctx, name, args)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: result is %T, not %T", name, v, zero)
	}
	return typed, nil
}

// Do runs Mutate and asserts the result type.
func Do[T any](ctx context.Context, c *Client, name string, args any) (T, error) {
	var zero T
	v, err := c.Mutate(ctx, name, args)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: result is %T, not %T", name, v, zero)
	}
	return typed, nil
}
