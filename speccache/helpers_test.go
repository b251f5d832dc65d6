package speccache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/require"

	"github.com/drblury/specweaver/jsonutil"
	"github.com/drblury/specweaver/render"
	"github.com/drblury/specweaver/version"
)

var errBrokenSurface = errors.New("duplicate operation id listPets")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// scriptedGenerator titles each document "gen-<n>" after the call number and
// fails while failing is set.
type scriptedGenerator struct {
	calls   atomic.Int32
	failing atomic.Bool
	delay   time.Duration
	release chan struct{}
}

func (g *scriptedGenerator) Generate(ctx context.Context, name string) (*openapi3.T, error) {
	n := g.calls.Add(1)
	if g.release != nil {
		<-g.release
	}
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.failing.Load() {
		return nil, errBrokenSurface
	}
	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: fmt.Sprintf("gen-%d", n), Version: name},
		Paths:   openapi3.NewPaths(),
	}, nil
}

func newTestCache(t *testing.T, gen Generator, opts ...Option) (*Cache[uint64], *version.Counter) {
	t.Helper()

	counter := &version.Counter{}
	cache, err := New[uint64](counter, gen, render.JSON(), opts...)
	require.NoError(t, err)
	return cache, counter
}

type renderedDoc struct {
	Info struct {
		Title   string `json:"title"`
		Version string `json:"version"`
	} `json:"info"`
	Servers []struct {
		URL string `json:"url"`
	} `json:"servers"`
}

func decodeDoc(t *testing.T, text []byte) renderedDoc {
	t.Helper()

	var doc renderedDoc
	require.NoError(t, jsonutil.Unmarshal(text, &doc), "body: %s", string(text))
	return doc
}
