package books

import (
	"context"
	"errors"
	"time"

	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/http/client"
	"go.uber.org/zap"
)

type priority int

const (
	priorityDirect priority = iota
	priorityPreload
)

func (p priority) String() string {
	if p == priorityPreload {
		return "preload"
	}
	return "direct"
}

// job is one lookup, registered from enqueue until finish. attempt counts the
// attempts already made and travels with the job through retries. prio is
// protected by Client.mu.
type job struct {
	key     string
	title   string
	author  string
	timeout time.Duration
	prio    priority
	attempt int
	res     Result
	done    chan struct{}
}

// submit queues a lookup, or joins the registered one, and waits for the
// final result.
func (c *Client) submit(key, title, author string, timeout time.Duration, prio priority) Result {
	j := c.enqueue(key, title, author, timeout, prio)
	if j == nil {
		res, _ := c.cached(key)
		return res
	}

	select {
	case <-j.done:
		return j.res
	case <-c.ctx.Done():
		return fallback(ReasonClosed)
	}
}

// enqueue registers a lookup for key. A lookup already registered for key is
// returned instead; a direct lookup
// joining a preload raises it to direct priority, including while it waits
// out a retry backoff. It returns nil when key is already cached.
func (c *Client) enqueue(key, title, author string, timeout time.Duration, prio priority) *job {
	c.mu.Lock()
	if j, ok := c.jobs[key]; ok {
		if prio == priorityDirect && j.prio == priorityPreload {
			c.promoteLocked(j)
		}
		c.mu.Unlock()
		return j
	}
	// finish caches before it unregisters
	if _, ok := c.cached(key); ok {
		c.mu.Unlock()
		return nil
	}
	j := &job{
		key:     key,
		title:   title,
		author:  author,
		timeout: timeout,
		prio:    prio,
		done:    make(chan struct{}),
	}
	c.jobs[key] = j
	c.queues[prio] = append(c.queues[prio], j)
	c.mu.Unlock()

	c.signal()
	if c.cfg.enqueueHook != nil {
		c.cfg.enqueueHook(key, prio)
	}
	return j
}

// push requeues a registered job after a retry backoff, at its current
// priority.
func (c *Client) push(j *job) {
	c.mu.Lock()
	c.queues[j.prio] = append(c.queues[j.prio], j)
	c.mu.Unlock()
	c.signal()
}

func (c *Client) signal() {
	c.metrics.SetLookupQueued(c.depth())
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// promoteLocked gives j direct priority. A job waiting in the preload queue
// moves to the back of the direct queue; one in flight or backing off is
// requeued as direct by push. c.mu must be held.
func (c *Client) promoteLocked(j *job) {
	j.prio = priorityDirect
	q := c.queues[priorityPreload]
	for i, other := range q {
		if other == j {
			c.queues[priorityPreload] = append(q[:i:i], q[i+1:]...)
			c.queues[priorityDirect] = append(c.queues[priorityDirect], j)
			return
		}
	}
}

// pop removes the next job, direct lookups first.
func (c *Client) pop() *job {
	c.mu.Lock()
	defer c.mu.Unlock()

	for p := range c.queues {
		if q := c.queues[p]; len(q) > 0 {
			j := q[0]
			q[0] = nil
			c.queues[p] = q[1:]
			return j
		}
	}
	return nil
}

func (c *Client) depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queues[priorityDirect]) + len(c.queues[priorityPreload])
}

func (c *Client) pending() bool {
	return c.depth() > 0
}

// dispatch is the single dispatcher loop. A job is chosen only once a slot
// is free and the spacing has elapsed, so a direct lookup queued during the
// wait still goes ahead of earlier preloads.
func (c *Client) dispatch() {
	defer c.wg.Done()

	for {
		for !c.pending() {
			select {
			case <-c.wake:
			case <-c.ctx.Done():
				return
			}
		}

		if err := c.slots.Acquire(c.ctx, 1); err != nil {
			return
		}
		if !c.sleep(c.cfg.Spacing - time.Since(c.lastDispatch)) {
			c.slots.Release(1)
			return
		}

		j := c.pop()
		if j == nil {
			c.slots.Release(1)
			continue
		}

		c.lastDispatch = time.Now()
		if c.cfg.dispatchHook != nil {
			c.cfg.dispatchHook(j.key, c.lastDispatch)
		}
		c.metrics.RecordLookupOutcome("dispatched")
		c.metrics.SetLookupQueued(c.depth())

		c.wg.Add(1)
		go c.attempt(j)
	}
}

// attempt runs one upstream call for j, then finishes or reschedules it.
func (c *Client) attempt(j *job) {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(c.ctx, j.timeout)
	start := time.Now()
	res, err := c.lookup(ctx, j.title, j.author)
	cancel()
	c.slots.Release(1)
	j.attempt++

	if err == nil {
		c.metrics.RecordLookupAttempt("ok", time.Since(start))
		outcome := "found"
		if !res.Found() {
			outcome = "not_found"
		}
		c.finish(j, res, outcome)
		return
	}

	kind := classify(err)
	c.metrics.RecordLookupAttempt(kind.String(), time.Since(start))

	if c.ctx.Err() != nil {
		c.finish(j, fallback(ReasonClosed), "fallback")
		return
	}

	if kind.retryable() && j.attempt < c.cfg.MaxAttempts {
		delay := c.backoff(kind, j.attempt-1)
		c.log.Info("Book lookup failed, retrying",
			zap.String("key", j.key),
			zap.String("reason", kind.String()),
			zap.Int("attempt", j.attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		c.metrics.RecordLookupOutcome("retried")
		time.AfterFunc(delay, func() {
			if c.ctx.Err() == nil {
				c.push(j)
			}
		})
		return
	}

	c.log.Warn("Book lookup failed",
		zap.String("key", j.key),
		zap.String("reason", kind.String()),
		zap.Int("attempts", j.attempt),
		zap.Error(err))
	c.finish(j, fallback(ReasonFailed), "fallback")
}

// finish caches res, positive or negative, unregisters j and releases its
// waiters.
func (c *Client) finish(j *job, res Result, outcome string) {
	if res.Reason != ReasonClosed {
		c.cache.Store(j.key, res)
	}
	c.mu.Lock()
	delete(c.jobs, j.key)
	j.res = res
	c.mu.Unlock()

	c.metrics.RecordLookupOutcome(outcome)
	close(j.done)
}

// backoff is base * 2^retry, with the larger base after a 429.
func (c *Client) backoff(kind failure, retry int) time.Duration {
	base := c.cfg.BackoffBase
	if kind == failRateLimited {
		base = c.cfg.RateLimitBase
	}
	return base << retry
}

type failure int

const (
	failPermanent failure = iota
	failTimeout
	failRateLimited
	failNetwork
)

func (f failure) String() string {
	switch f {
	case failTimeout:
		return "timeout"
	case failRateLimited:
		return "rate_limited"
	case failNetwork:
		return "network"
	default:
		return "permanent"
	}
}

func (f failure) retryable() bool {
	return f != failPermanent
}

// classify sorts an attempt error. Only 429 is retried among HTTP statuses.
func classify(err error) failure {
	var se *client.StatusError
	switch {
	case errors.As(err, &se):
		if se.Code == 429 {
			return failRateLimited
		}
		return failPermanent
	case errors.Is(err, context.DeadlineExceeded):
		return failTimeout
	case errors.Is(err, context.Canceled):
		return failPermanent
	default:
		return failNetwork
	}
}
