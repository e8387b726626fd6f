package books

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const duneBody = `{"totalItems":1,"items":[{"volumeInfo":{"title":"Dune","authors":["Frank Herbert"],"imageLinks":{"thumbnail":"https://books.example/dune.jpg"}}}]}`

// fakeBooks is an httptest server standing in for the volumes API.
type fakeBooks struct {
	*httptest.Server
	hits    int32
	handler func(w http.ResponseWriter, r *http.Request, hit int32)
}

func newFakeBooks(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, hit int32)) *fakeBooks {
	t.Helper()
	f := &fakeBooks{handler: handler}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit := atomic.AddInt32(&f.hits, 1)
		f.handler(w, r, hit)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeBooks) Hits() int32 {
	return atomic.LoadInt32(&f.hits)
}

func respond(body string) func(http.ResponseWriter, *http.Request, int32) {
	return func(w http.ResponseWriter, _ *http.Request, _ int32) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		Spacing:       0,
		MaxConcurrent: 2,
		MaxAttempts:   3,
		Timeout:       time.Second,
		BackoffBase:   5 * time.Millisecond,
		RateLimitBase: 5 * time.Millisecond,
		PreloadChunk:  5,
		PreloadDelay:  10 * time.Millisecond,
	}
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c := New(cfg, nil)
	t.Cleanup(c.Close)
	return c
}

func TestFetchFound(t *testing.T) {
	srv := newFakeBooks(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		assert.Equal(t, "/volumes", r.URL.Path)
		assert.Equal(t, "Dune inauthor:Frank Herbert", r.URL.Query().Get("q"))
		assert.Equal(t, "1", r.URL.Query().Get("maxResults"))
		respond(duneBody)(w, r, 0)
	})
	c := newTestClient(t, testConfig(srv.URL))

	res := c.Fetch(context.Background(), "Dune", "Frank Herbert", 0)
	assert.Equal(t, "https://books.example/dune.jpg", res.CoverImage)
	assert.False(t, res.UseFallback)
	require.NotNil(t, res.Metadata)
	assert.Equal(t, "Frank Herbert", res.Metadata.Authors)

	// Case-insensitive cache hit, no second request
	again := c.Fetch(context.Background(), "DUNE", "frank herbert", 0)
	assert.Equal(t, res, again)
	assert.Equal(t, int32(1), srv.Hits())
}

func TestFetchCoalescesConcurrentCalls(t *testing.T) {
	srv := newFakeBooks(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		time.Sleep(100 * time.Millisecond)
		respond(duneBody)(w, r, 0)
	})
	c := newTestClient(t, testConfig(srv.URL))

	var wg sync.WaitGroup
	results := make([]Result, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Fetch(context.Background(), "Dune", "Frank Herbert", 0)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), srv.Hits())
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, "https://books.example/dune.jpg", results[0].CoverImage)
}

func TestFetchRateLimitedExhaustsAttempts(t *testing.T) {
	srv := newFakeBooks(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c := newTestClient(t, testConfig(srv.URL))

	res := c.Fetch(context.Background(), "Dune", "Frank Herbert", 0)
	assert.True(t, res.UseFallback)
	assert.Equal(t, ReasonFailed, res.Reason)
	assert.Equal(t, int32(3), srv.Hits())

	// The negative result is cached
	again := c.Fetch(context.Background(), "Dune", "Frank Herbert", 0)
	assert.Equal(t, res, again)
	assert.Equal(t, int32(3), srv.Hits())
}

func TestFetchRetriesTimeout(t *testing.T) {
	srv := newFakeBooks(t, func(w http.ResponseWriter, r *http.Request, hit int32) {
		if hit == 1 {
			select {
			case <-time.After(300 * time.Millisecond):
			case <-r.Context().Done():
			}
			return
		}
		respond(duneBody)(w, r, hit)
	})
	c := newTestClient(t, testConfig(srv.URL))

	res := c.Fetch(context.Background(), "Dune", "Frank Herbert", 30*time.Millisecond)
	assert.False(t, res.UseFallback)
	assert.Equal(t, int32(2), srv.Hits())
}

func TestFetchServerErrorIsNotRetried(t *testing.T) {
	srv := newFakeBooks(t, func(w http.ResponseWriter, _ *http.Request, _ int32) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, testConfig(srv.URL))

	res := c.Fetch(context.Background(), "Dune", "Frank Herbert", 0)
	assert.True(t, res.UseFallback)
	assert.Equal(t, ReasonFailed, res.Reason)
	assert.Equal(t, int32(1), srv.Hits())

	_, cached := c.Cached("Dune", "Frank Herbert")
	assert.True(t, cached)
}

func TestFetchNotFoundIsCached(t *testing.T) {
	srv := newFakeBooks(t, respond(`{"totalItems":0}`))
	c := newTestClient(t, testConfig(srv.URL))

	res := c.Fetch(context.Background(), "Unwritten", "Nobody", 0)
	assert.Equal(t, ReasonNotFound, res.Reason)

	c.Fetch(context.Background(), "Unwritten", "Nobody", 0)
	assert.Equal(t, int32(1), srv.Hits())
}

func TestFetchBlankTitle(t *testing.T) {
	srv := newFakeBooks(t, respond(duneBody))
	c := newTestClient(t, testConfig(srv.URL))

	res := c.Fetch(context.Background(), "  ", "Frank Herbert", 0)
	assert.Equal(t, ReasonNoTitle, res.Reason)
	assert.Equal(t, int32(0), srv.Hits())
}

func TestFetchCallerCancelDoesNotAbortLookup(t *testing.T) {
	srv := newFakeBooks(t, func(w http.ResponseWriter, r *http.Request, hit int32) {
		time.Sleep(80 * time.Millisecond)
		respond(duneBody)(w, r, hit)
	})
	c := newTestClient(t, testConfig(srv.URL))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	res := c.Fetch(ctx, "Dune", "Frank Herbert", 0)
	assert.Equal(t, ReasonCancelled, res.Reason)

	require.Eventually(t, func() bool {
		cached, ok := c.Cached("Dune", "Frank Herbert")
		return ok && cached.Found()
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), srv.Hits())
}

func TestDirectLookupsGoAheadOfPreloads(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeBooks(t, func(w http.ResponseWriter, r *http.Request, hit int32) {
		if hit == 1 {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}
		respond(duneBody)(w, r, hit)
	})

	var (
		mu    sync.Mutex
		order []string
	)
	cfg := testConfig(srv.URL)
	cfg.MaxConcurrent = 1
	cfg.dispatchHook = func(key string, _ time.Time) {
		mu.Lock()
		order = append(order, key)
		mu.Unlock()
	}
	c := newTestClient(t, cfg)

	c.Preload([]Candidate{
		{Title: "Emma", Author: "Jane Austen"},
		{Title: "Persuasion", Author: "Jane Austen"},
		{Title: "Sanditon", Author: "Jane Austen"},
	})
	// One preload in flight, two waiting
	require.Eventually(t, func() bool {
		return srv.Hits() == 1 && c.Stats().Queued == 2
	}, 2*time.Second, 5*time.Millisecond)

	done := make(chan Result, 1)
	go func() { done <- c.Fetch(context.Background(), "Dune", "Frank Herbert", 0) }()
	require.Eventually(t, func() bool { return c.Stats().Queued == 3 }, 2*time.Second, 5*time.Millisecond)

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("direct lookup never completed")
	}

	require.Eventually(t, func() bool { return c.Stats().Cached == 4 }, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 4)
	assert.Equal(t, "dune-frank herbert", order[1])
}

func TestDirectLookupPromotesQueuedPreload(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeBooks(t, func(w http.ResponseWriter, r *http.Request, hit int32) {
		if hit == 1 {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}
		respond(duneBody)(w, r, hit)
	})

	var (
		mu    sync.Mutex
		order []string
	)
	cfg := testConfig(srv.URL)
	cfg.MaxConcurrent = 1
	cfg.dispatchHook = func(key string, _ time.Time) {
		mu.Lock()
		order = append(order, key)
		mu.Unlock()
	}
	c := newTestClient(t, cfg)

	c.Preload([]Candidate{
		{Title: "Emma", Author: "Jane Austen"},
		{Title: "Persuasion", Author: "Jane Austen"},
		{Title: "Sanditon", Author: "Jane Austen"},
	})
	require.Eventually(t, func() bool {
		return srv.Hits() == 1 && c.Stats().Queued == 2
	}, 2*time.Second, 5*time.Millisecond)

	// Ask directly for the preload at the back of the queue
	c.mu.Lock()
	last := c.queues[priorityPreload][len(c.queues[priorityPreload])-1]
	title, author := last.title, last.author
	c.mu.Unlock()

	done := make(chan Result, 1)
	go func() { done <- c.Fetch(context.Background(), title, author, 0) }()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.queues[priorityDirect]) == 1
	}, 2*time.Second, 5*time.Millisecond)

	close(release)
	<-done

	require.Eventually(t, func() bool { return c.Stats().Cached == 3 }, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 3)
	assert.Equal(t, CacheKey(title, author), order[1])
	assert.Equal(t, int32(3), srv.Hits())
}

func TestDirectLookupPromotesPreloadDuringBackoff(t *testing.T) {
	release := make(chan struct{})
	srv := newFakeBooks(t, func(w http.ResponseWriter, r *http.Request, hit int32) {
		switch hit {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
			return
		case 2:
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}
		respond(duneBody)(w, r, hit)
	})

	var (
		mu    sync.Mutex
		order []string
	)
	cfg := testConfig(srv.URL)
	cfg.MaxConcurrent = 1
	cfg.RateLimitBase = 200 * time.Millisecond
	cfg.dispatchHook = func(key string, _ time.Time) {
		mu.Lock()
		order = append(order, key)
		mu.Unlock()
	}
	c := newTestClient(t, cfg)

	candidates := []Candidate{
		{Title: "Emma", Author: "Jane Austen"},
		{Title: "Persuasion", Author: "Jane Austen"},
		{Title: "Sanditon", Author: "Jane Austen"},
		{Title: "Lady Susan", Author: "Jane Austen"},
		{Title: "Northanger Abbey", Author: "Jane Austen"},
	}
	c.Preload(candidates)
	emma := CacheKey("Emma", "Jane Austen")

	// Emma is backing off after its 429 while Persuasion holds the only slot
	require.Eventually(t, func() bool { return srv.Hits() == 2 }, 2*time.Second, 5*time.Millisecond)

	done := make(chan Result, 1)
	go func() { done <- c.Fetch(context.Background(), "Emma", "Jane Austen", 0) }()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.queues[priorityDirect]) == 1 && c.queues[priorityDirect][0].key == emma
	}, 2*time.Second, 5*time.Millisecond)

	close(release)
	select {
	case res := <-done:
		assert.False(t, res.UseFallback)
	case <-time.After(2 * time.Second):
		t.Fatal("direct lookup never completed")
	}

	require.Eventually(t, func() bool { return c.Stats().Cached == 5 }, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, order, 6)
	assert.Equal(t, []string{emma, CacheKey("Persuasion", "Jane Austen"), emma}, order[:3])
}

func TestPreloadDispatchesInListOrder(t *testing.T) {
	srv := newFakeBooks(t, respond(duneBody))

	var (
		mu    sync.Mutex
		order []string
	)
	cfg := testConfig(srv.URL)
	cfg.MaxConcurrent = 1
	cfg.dispatchHook = func(key string, _ time.Time) {
		mu.Lock()
		order = append(order, key)
		mu.Unlock()
	}
	c := newTestClient(t, cfg)

	var (
		candidates []Candidate
		want       []string
	)
	for i := 0; i < 7; i++ {
		cand := Candidate{Title: fmt.Sprintf("Volume %d", i+1), Author: "Anonymous"}
		candidates = append(candidates, cand)
		want = append(want, CacheKey(cand.Title, cand.Author))
	}
	c.Preload(candidates)

	require.Eventually(t, func() bool { return c.Stats().Cached == 7 }, 2*time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, want, order)
}

func TestPreloadChunksAndSpacing(t *testing.T) {
	srv := newFakeBooks(t, respond(duneBody))

	var (
		mu         sync.Mutex
		enqueued   []time.Time
		dispatched []time.Time
	)
	cfg := testConfig(srv.URL)
	cfg.Spacing = 15 * time.Millisecond
	cfg.PreloadDelay = 150 * time.Millisecond
	cfg.enqueueHook = func(_ string, p priority) {
		if p != priorityPreload {
			return
		}
		mu.Lock()
		enqueued = append(enqueued, time.Now())
		mu.Unlock()
	}
	cfg.dispatchHook = func(_ string, at time.Time) {
		mu.Lock()
		dispatched = append(dispatched, at)
		mu.Unlock()
	}
	c := newTestClient(t, cfg)

	candidates := make([]Candidate, 12)
	for i := range candidates {
		candidates[i] = Candidate{Title: fmt.Sprintf("Volume %d", i+1), Author: "Anonymous"}
	}
	c.Preload(candidates)

	// A direct lookup during the preload shares the same spacing
	c.Fetch(context.Background(), "Dune", "Frank Herbert", 0)

	require.Eventually(t, func() bool { return c.Stats().Cached == 13 }, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	// Enqueue bursts separated by the chunk delay
	var chunks []int
	for i, at := range enqueued {
		if i == 0 || at.Sub(enqueued[i-1]) > cfg.PreloadDelay/2 {
			chunks = append(chunks, 0)
		}
		chunks[len(chunks)-1]++
	}
	assert.Equal(t, []int{5, 5, 2}, chunks)

	require.Len(t, dispatched, 13)
	for i := 1; i < len(dispatched); i++ {
		gap := dispatched[i].Sub(dispatched[i-1])
		assert.GreaterOrEqual(t, gap, cfg.Spacing, "dispatch %d came %v after the previous one", i, gap)
	}
}

func TestPreloadSkipsCachedAndBlank(t *testing.T) {
	srv := newFakeBooks(t, respond(duneBody))
	c := newTestClient(t, testConfig(srv.URL))

	c.Fetch(context.Background(), "Dune", "Frank Herbert", 0)
	c.Preload([]Candidate{
		{Title: "Dune", Author: "Frank Herbert"},
		{Title: "", Author: "Nobody"},
	})

	// Nothing new to fetch
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), srv.Hits())
}

func TestCloseReleasesWaiters(t *testing.T) {
	srv := newFakeBooks(t, func(w http.ResponseWriter, r *http.Request, _ int32) {
		<-r.Context().Done()
	})
	c := New(testConfig(srv.URL), nil)

	done := make(chan Result, 1)
	go func() { done <- c.Fetch(context.Background(), "Dune", "Frank Herbert", 0) }()
	require.Eventually(t, func() bool { return srv.Hits() == 1 }, 2*time.Second, 5*time.Millisecond)

	c.Close()
	select {
	case res := <-done:
		assert.True(t, res.UseFallback)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not released on close")
	}
}
