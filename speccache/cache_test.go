package speccache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/specweaver/generator"
	"github.com/drblury/specweaver/render"
	"github.com/drblury/specweaver/version"
)

func TestNewRejectsMissingCollaborators(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	counter := &version.Counter{}

	_, err := New[uint64](nil, gen, render.JSON())
	assert.ErrorIs(t, err, ErrMisconfigured)

	_, err = New[uint64](counter, nil, render.JSON())
	assert.ErrorIs(t, err, ErrMisconfigured)

	_, err = New[uint64](counter, gen, nil)
	assert.ErrorIs(t, err, ErrMisconfigured)
}

func TestCacheHitOnStableVersion(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	cache, _ := newTestCache(t, gen)

	first, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)
	second, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, "gen-1", decodeDoc(t, second).Info.Title)
}

func TestCacheInvalidatesOnVersionChange(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	cache, counter := newTestCache(t, gen)

	_, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)

	counter.Bump()
	text, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), gen.calls.Load())
	assert.Equal(t, "gen-2", decodeDoc(t, text).Info.Title)
	assert.Equal(t, uint64(1), cache.Status("v1").Version)
}

func TestCacheKeepsDocumentsApart(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	cache, _ := newTestCache(t, gen)

	v1, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)
	v2, err := cache.RenderedDocument(context.Background(), "v2", nil)
	require.NoError(t, err)

	assert.Equal(t, "v1", decodeDoc(t, v1).Info.Version)
	assert.Equal(t, "v2", decodeDoc(t, v2).Info.Version)
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestCacheThrottlesFailures(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	gen := &scriptedGenerator{}
	gen.failing.Store(true)
	cache, counter := newTestCache(t, gen, WithClock(clock.Now), WithExceptionTTL(5*time.Second))

	_, first := cache.RenderedDocument(context.Background(), "v1", nil)
	require.Error(t, first)
	assert.ErrorIs(t, first, ErrGenerationFailed)
	assert.ErrorIs(t, first, errBrokenSurface)

	var genErr *GenerationError
	require.True(t, errors.As(first, &genErr))
	assert.Equal(t, "v1", genErr.Document)

	clock.Advance(4 * time.Second)
	counter.Bump()
	_, replayed := cache.RenderedDocument(context.Background(), "v1", nil)
	assert.True(t, first == replayed, "expected the captured error to be replayed verbatim")
	assert.Equal(t, int32(1), gen.calls.Load(), "version changes do not bypass the failure window")

	clock.Advance(time.Second + time.Millisecond)
	_, retried := cache.RenderedDocument(context.Background(), "v1", nil)
	require.Error(t, retried)
	assert.False(t, first == retried)
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestCacheFailureToSuccessTransition(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	gen := &scriptedGenerator{}
	gen.failing.Store(true)
	cache, _ := newTestCache(t, gen, WithClock(clock.Now), WithExceptionTTL(10*time.Second))

	_, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.Error(t, err)
	assert.Error(t, cache.LastFailure("v1"))

	gen.failing.Store(false)
	clock.Advance(10*time.Second + time.Millisecond)
	text, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)
	assert.Equal(t, "gen-2", decodeDoc(t, text).Info.Title)
	assert.NoError(t, cache.LastFailure("v1"))

	// Still inside the window the old failure would have covered.
	clock.Advance(time.Second)
	again, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)
	assert.Equal(t, string(text), string(again))
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestCacheSuccessToFailureDiscardsText(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	cache, counter := newTestCache(t, gen)

	_, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)
	assert.True(t, cache.Status("v1").Generated)

	gen.failing.Store(true)
	counter.Bump()
	_, err = cache.RenderedDocument(context.Background(), "v1", nil)
	require.Error(t, err)

	status := cache.Status("v1")
	assert.False(t, status.Generated)
	assert.True(t, status.Failed)
	assert.ErrorIs(t, status.Err, errBrokenSurface)
}

func TestCacheZeroTTLDisablesFailureCaching(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	gen.failing.Store(true)
	cache, _ := newTestCache(t, gen, WithExceptionTTL(0))

	for range 3 {
		_, err := cache.RenderedDocument(context.Background(), "v1", nil)
		require.Error(t, err)
	}
	assert.Equal(t, int32(3), gen.calls.Load())
}

func TestCachePostProcessRunsOnlyOnGeneration(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	cache, _ := newTestCache(t, gen)

	decorate := func(host string) PostProcessFunc {
		return func(doc *openapi3.T) {
			doc.Servers = openapi3.Servers{{URL: "https://" + host}}
		}
	}

	first, err := cache.RenderedDocument(context.Background(), "v1", decorate("api.example.com"))
	require.NoError(t, err)
	second, err := cache.RenderedDocument(context.Background(), "v1", decorate("other.example.com"))
	require.NoError(t, err)

	doc := decodeDoc(t, second)
	require.Len(t, doc.Servers, 1)
	assert.Equal(t, "https://api.example.com", doc.Servers[0].URL)
	assert.Equal(t, string(first), string(second))
}

func TestCacheRecoversFromPanics(t *testing.T) {
	t.Parallel()

	t.Run("generator", func(t *testing.T) {
		gen := generator.Func(func(context.Context, string) (*openapi3.T, error) {
			panic("route table corrupted")
		})
		cache, err := New[uint64](&version.Counter{}, gen, render.JSON())
		require.NoError(t, err)

		_, err = cache.RenderedDocument(context.Background(), "v1", nil)
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.Contains(t, err.Error(), "route table corrupted")
	})

	t.Run("post process", func(t *testing.T) {
		cache, _ := newTestCache(t, &scriptedGenerator{})

		_, err := cache.RenderedDocument(context.Background(), "v1", func(*openapi3.T) {
			panic("bad hook")
		})
		assert.ErrorIs(t, err, ErrGenerationFailed)
		assert.True(t, cache.Status("v1").Failed)
	})
}

func TestCacheCapturesNilDocumentAndRenderErrors(t *testing.T) {
	t.Parallel()

	nilGen := generator.Func(func(context.Context, string) (*openapi3.T, error) {
		return nil, nil
	})
	cache, err := New[uint64](&version.Counter{}, nilGen, render.JSON())
	require.NoError(t, err)
	_, err = cache.RenderedDocument(context.Background(), "v1", nil)
	assert.ErrorIs(t, err, ErrNilDocument)

	renderErr := errors.New("encoder closed")
	failingRender := render.Func(func(*openapi3.T) ([]byte, error) {
		return nil, renderErr
	})
	cache, err = New[uint64](&version.Counter{}, &scriptedGenerator{}, failingRender)
	require.NoError(t, err)
	_, err = cache.RenderedDocument(context.Background(), "v1", nil)
	assert.ErrorIs(t, err, renderErr)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestCacheSingleFlightCollapsesConcurrentMisses(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{release: make(chan struct{})}
	cache, _ := newTestCache(t, gen)

	const callers = 16
	results := make([][]byte, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = cache.RenderedDocument(context.Background(), "v1", nil)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(gen.release)
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, "gen-1", decodeDoc(t, results[i]).Info.Title)
	}
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestCacheSingleFlightDoesNotJoinAcrossVersions(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{release: make(chan struct{})}
	cache, counter := newTestCache(t, gen)

	first := make(chan error, 1)
	go func() {
		_, err := cache.RenderedDocument(context.Background(), "v1", nil)
		first <- err
	}()
	require.Eventually(t, func() bool { return gen.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	counter.Bump()

	type result struct {
		text []byte
		err  error
	}
	second := make(chan result, 1)
	go func() {
		text, err := cache.RenderedDocument(context.Background(), "v1", nil)
		second <- result{text: text, err: err}
	}()
	require.Eventually(t, func() bool { return gen.calls.Load() == 2 }, time.Second, 5*time.Millisecond,
		"a caller on a newer version must start its own generation")

	close(gen.release)
	require.NoError(t, <-first)

	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, "gen-2", decodeDoc(t, res.text).Info.Title)
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestCacheConcurrentMissesWithoutSingleFlight(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{delay: 10 * time.Millisecond}
	cache, _ := newTestCache(t, gen, WithoutSingleFlight())

	const callers = 8
	titles := make(chan string, callers)

	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := cache.RenderedDocument(context.Background(), "v1", nil)
			if assert.NoError(t, err) {
				titles <- decodeDoc(t, text).Info.Title
			}
		}()
	}
	wg.Wait()
	close(titles)

	produced := make(map[string]bool)
	for title := range titles {
		assert.Regexp(t, `^gen-\d+$`, title)
		produced[title] = true
	}

	calls := gen.calls.Load()
	assert.GreaterOrEqual(t, calls, int32(1))
	assert.LessOrEqual(t, calls, int32(callers))

	// The stored snapshot is one complete generation and is now served as a hit.
	stored, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)
	assert.True(t, produced[decodeDoc(t, stored).Info.Title])
	assert.Equal(t, calls, gen.calls.Load())
}

func TestCacheGenerationOutlivesCancelledCaller(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{release: make(chan struct{})}
	cache, _ := newTestCache(t, gen)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cache.RenderedDocument(ctx, "v1", nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return gen.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(gen.release)
	require.Eventually(t, func() bool { return cache.Status("v1").Generated }, time.Second, 5*time.Millisecond)

	text, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)
	assert.Equal(t, "gen-1", decodeDoc(t, text).Info.Title)
	assert.Equal(t, int32(1), gen.calls.Load())
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	cache, _ := newTestCache(t, gen)

	cache.Invalidate("missing")
	assert.Equal(t, Status[uint64]{}, cache.Status("missing"))

	_, err := cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)

	cache.Invalidate("v1")
	assert.False(t, cache.Status("v1").Generated)

	_, err = cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestCacheWithOpaqueStringTokens(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{}
	source := &version.Static[string]{Token: "build-b"}
	cache, err := New[string](source, gen, render.JSON())
	require.NoError(t, err)

	_, err = cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)

	// "build-a" sorts before "build-b"; any difference must still invalidate.
	source.Token = "build-a"
	_, err = cache.RenderedDocument(context.Background(), "v1", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), gen.calls.Load())
	assert.Equal(t, "build-a", cache.Status("v1").Version)
}
