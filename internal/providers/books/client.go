package books

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/monitoring"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/http/client"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// Client is the throttled lookup client. Construct one per process with New
// and stop it with Close.
type Client struct {
	cfg     Config
	http    *client.Client
	log     *zap.Logger
	metrics *monitoring.Metrics

	cache  sync.Map // key -> Result
	flight singleflight.Group
	slots  *semaphore.Weighted

	mu     sync.Mutex
	queues [2][]*job       // indexed by priority; protected by mu
	jobs   map[string]*job // registered lookups, queued or not; protected by mu
	wake   chan struct{}

	// Only the dispatcher goroutine touches lastDispatch.
	lastDispatch time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Stats is a point-in-time view of the client.
type Stats struct {
	Queued int `json:"queued"`
	Cached int `json:"cached"`
}

// New starts a client and its dispatcher.
func New(cfg Config, log *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg: cfg,
		http: client.New(client.Options{
			Name:    "google-books",
			BaseURL: cfg.BaseURL,
			Logger:  log,
		}),
		log:    log,
		slots:  semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		jobs:   make(map[string]*job),
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}

	c.wg.Add(1)
	go c.dispatch()
	return c
}

// WithMetrics adds metrics tracking to the client
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.metrics = metrics
	return c
}

// Close stops the dispatcher and releases every waiter with a fallback.
func (c *Client) Close() {
	c.cancel()
	c.wg.Wait()
}

// Fetch returns the cover and metadata for a book. timeout bounds each
// upstream attempt; zero uses the configured default. Cancelling ctx stops
// the wait but not the upstream call, whose result is still cached.
func (c *Client) Fetch(ctx context.Context, title, author string, timeout time.Duration) Result {
	if strings.TrimSpace(title) == "" {
		return fallback(ReasonNoTitle)
	}

	key := CacheKey(title, author)
	if res, ok := c.cached(key); ok {
		c.metrics.RecordLookupOutcome("cache_hit")
		return res
	}
	if timeout <= 0 {
		timeout = c.cfg.Timeout
	}

	ch := c.flight.DoChan(key, func() (interface{}, error) {
		return c.submit(key, title, author, timeout, priorityDirect), nil
	})

	select {
	case r := <-ch:
		return r.Val.(Result)
	case <-ctx.Done():
		c.log.Debug("Book lookup abandoned by caller", zap.String("key", key), zap.Error(ctx.Err()))
		return fallback(ReasonCancelled)
	}
}

// Preload warms the cache for candidates in chunks, below the priority of
// Fetch. It returns immediately.
func (c *Client) Preload(candidates []Candidate) {
	var todo []Candidate
	for _, cand := range candidates {
		if strings.TrimSpace(cand.Title) == "" {
			continue
		}
		if _, ok := c.cached(CacheKey(cand.Title, cand.Author)); ok {
			continue
		}
		todo = append(todo, cand)
	}
	if len(todo) == 0 {
		return
	}

	select {
	case <-c.ctx.Done():
		return
	default:
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		if c.cfg.PreloadJitter > 0 && !c.sleep(rand.N(c.cfg.PreloadJitter)) {
			return
		}

		for start := 0; start < len(todo); start += c.cfg.PreloadChunk {
			if start > 0 && !c.sleep(c.cfg.PreloadDelay) {
				return
			}
			end := min(start+c.cfg.PreloadChunk, len(todo))
			for _, cand := range todo[start:end] {
				c.enqueue(CacheKey(cand.Title, cand.Author), cand.Title, cand.Author, c.cfg.Timeout, priorityPreload)
			}
			c.log.Debug("Preload chunk queued", zap.Int("from", start), zap.Int("to", end), zap.Int("total", len(todo)))
		}
	}()
}

// Cached returns the cached result for a book, if any.
func (c *Client) Cached(title, author string) (Result, bool) {
	return c.cached(CacheKey(title, author))
}

// Stats reports queue depth and cache size.
func (c *Client) Stats() Stats {
	queued := c.depth()

	cached := 0
	c.cache.Range(func(_, _ any) bool {
		cached++
		return true
	})
	return Stats{Queued: queued, Cached: cached}
}

func (c *Client) cached(key string) (Result, bool) {
	v, ok := c.cache.Load(key)
	if !ok {
		return Result{}, false
	}
	return v.(Result), true
}

// sleep waits for d or until the client closes. It reports whether d elapsed.
func (c *Client) sleep(d time.Duration) bool {
	if d <= 0 {
		return c.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}
