package speccache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"golang.org/x/sync/singleflight"
)

// VersionSource reports the current shape of the described API surface.
// Tokens are compared by equality only and must be read fresh on every call.
type VersionSource[V comparable] interface {
	CurrentVersion() V
}

// Generator produces the document registered under name. It may be slow and
// may fail.
type Generator interface {
	Generate(ctx context.Context, name string) (*openapi3.T, error)
}

// Renderer serialises a document.
type Renderer interface {
	Render(doc *openapi3.T) ([]byte, error)
}

// PostProcessFunc decorates a freshly generated document before rendering.
type PostProcessFunc func(doc *openapi3.T)

// snapshot is the immutable cache state of one document name. Exactly one of
// text or err is set.
type snapshot[V comparable] struct {
	text     []byte
	version  V
	err      error
	failedAt time.Time
}

func (s *snapshot[V]) failed() bool {
	return s.err != nil
}

// Status describes the cache state of one document name.
type Status[V comparable] struct {
	Generated bool
	Version   V
	Failed    bool
	FailedAt  time.Time
	Err       error
}

// Cache serves rendered documents, regenerating them only when the version
// source changes or a cached failure expires. It is safe for concurrent use.
type Cache[V comparable] struct {
	source    VersionSource[V]
	generator Generator
	renderer  Renderer
	opts      *options

	slots   sync.Map // document name -> *atomic.Pointer[snapshot[V]]
	flights singleflight.Group
}

// New wires a Cache to its collaborators. Every collaborator is required.
func New[V comparable](source VersionSource[V], generator Generator, renderer Renderer, opts ...Option) (*Cache[V], error) {
	switch {
	case source == nil:
		return nil, fmt.Errorf("%w: version source is required", ErrMisconfigured)
	case generator == nil:
		return nil, fmt.Errorf("%w: generator is required", ErrMisconfigured)
	case renderer == nil:
		return nil, fmt.Errorf("%w: renderer is required", ErrMisconfigured)
	}

	settings := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(settings)
		}
	}

	return &Cache[V]{
		source:    source,
		generator: generator,
		renderer:  renderer,
		opts:      settings,
	}, nil
}

// RenderedDocument returns the rendered text of the named document. A captured
// failure younger than the exception TTL is returned without generating. Text
// rendered against the current version is returned as is. Anything else
// triggers a generation whose outcome replaces the cached state; postProcess
// only runs on that path.
//
// The returned slice is shared between callers and must not be modified.
// Generation is detached from ctx cancellation: a caller whose ctx ends while
// waiting on a shared generation gets ctx.Err(), and the generation still
// populates the cache.
func (c *Cache[V]) RenderedDocument(ctx context.Context, name string, postProcess PostProcessFunc) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	current := c.slot(name).Load()
	if current != nil && current.failed() && c.opts.now().Before(current.failedAt.Add(c.opts.exceptionTTL)) {
		c.opts.metrics.lookup(name, outcomeFailureReplay)
		return nil, current.err
	}

	version := c.source.CurrentVersion()
	if current != nil && !current.failed() && current.version == version {
		c.opts.metrics.lookup(name, outcomeHit)
		return current.text, nil
	}

	c.opts.metrics.lookup(name, outcomeMiss)
	return c.regenerate(ctx, name, version, postProcess)
}

// Status reports the cached state of name without triggering generation.
func (c *Cache[V]) Status(name string) Status[V] {
	current := c.load(name)
	if current == nil {
		return Status[V]{}
	}
	if current.failed() {
		return Status[V]{Failed: true, FailedAt: current.failedAt, Err: current.err}
	}
	return Status[V]{Generated: true, Version: current.version}
}

// LastFailure returns the captured failure for name, or nil when the last
// generation succeeded or none ran yet.
func (c *Cache[V]) LastFailure(name string) error {
	if current := c.load(name); current != nil && current.failed() {
		return current.err
	}
	return nil
}

// Invalidate drops the cached state of name so the next lookup regenerates.
func (c *Cache[V]) Invalidate(name string) {
	if slot, ok := c.slots.Load(name); ok {
		slot.(*atomic.Pointer[snapshot[V]]).Store(nil)
	}
}

func (c *Cache[V]) regenerate(ctx context.Context, name string, version V, postProcess PostProcessFunc) ([]byte, error) {
	genCtx := context.WithoutCancel(ctx)
	if !c.opts.singleFlight {
		return c.generate(genCtx, name, version, postProcess)
	}

	// Flights are keyed by version so a caller that observed a newer token
	// never joins a generation started for an older one.
	key := fmt.Sprintf("%s\x00%v", name, version)
	results := c.flights.DoChan(key, func() (any, error) {
		return c.generate(genCtx, name, version, postProcess)
	})

	select {
	case res := <-results:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache[V]) generate(ctx context.Context, name string, version V, postProcess PostProcessFunc) (text []byte, err error) {
	start := c.opts.now()
	defer func() {
		if r := recover(); r != nil {
			text, err = nil, c.fail(name, version, fmt.Errorf("panic: %v", r), start)
		}
	}()

	doc, err := c.generator.Generate(ctx, name)
	if err != nil {
		return nil, c.fail(name, version, err, start)
	}
	if doc == nil {
		return nil, c.fail(name, version, ErrNilDocument, start)
	}

	if postProcess != nil {
		postProcess(doc)
	}

	text, err = c.renderer.Render(doc)
	if err != nil {
		return nil, c.fail(name, version, fmt.Errorf("render: %w", err), start)
	}

	c.slot(name).Store(&snapshot[V]{text: text, version: version})

	elapsed := c.opts.now().Sub(start)
	c.opts.metrics.generation(name, resultSuccess, elapsed)
	c.opts.logger.Debug("spec document generated",
		"document", name,
		"version", version,
		"bytes", len(text),
		"duration", elapsed,
	)
	return text, nil
}

func (c *Cache[V]) fail(name string, version V, cause error, start time.Time) error {
	genErr := &GenerationError{Document: name, Err: cause}
	now := c.opts.now()
	c.slot(name).Store(&snapshot[V]{err: genErr, failedAt: now})

	elapsed := now.Sub(start)
	c.opts.metrics.generation(name, resultFailure, elapsed)
	c.opts.logger.Error("spec document generation failed",
		"document", name,
		"version", version,
		"error", cause,
		"retryAfter", c.opts.exceptionTTL,
		"duration", elapsed,
	)
	return genErr
}

func (c *Cache[V]) slot(name string) *atomic.Pointer[snapshot[V]] {
	if slot, ok := c.slots.Load(name); ok {
		return slot.(*atomic.Pointer[snapshot[V]])
	}
	slot, _ := c.slots.LoadOrStore(name, new(atomic.Pointer[snapshot[V]]))
	return slot.(*atomic.Pointer[snapshot[V]])
}

func (c *Cache[V]) load(name string) *snapshot[V] {
	slot, ok := c.slots.Load(name)
	if !ok {
		return nil
	}
	return slot.(*atomic.Pointer[snapshot[V]]).Load()
}
