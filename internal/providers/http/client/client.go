package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/resilience"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/tracing"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultUserAgent = "VeryGoodReads/1.0"

// Options configures a Client. Zero values disable the optional parts.
type Options struct {
	Name      string
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// TransportRetries retries connection errors, 429 and 5xx inside the
	// transport. Zero leaves retrying to the caller.
	TransportRetries int
	RetryWaitMin     time.Duration
	RetryWaitMax     time.Duration

	// RateLimit caps requests per second; zero is unlimited.
	RateLimit float64

	// Breaker enables a circuit breaker around Do.
	Breaker *resilience.Settings

	Logger *zap.Logger
}

// Client wraps resty with rate limiting, circuit breaker and retrying transport
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	name    string
}

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d", e.Code)
}

// Temporary reports whether retrying later may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// New creates a client from opts.
func New(opts Options) *Client {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	var restyClient *resty.Client
	if opts.TransportRetries > 0 {
		retryClient := retryablehttp.NewClient()
		retryClient.RetryMax = opts.TransportRetries
		retryClient.RetryWaitMin = orDefault(opts.RetryWaitMin, 500*time.Millisecond)
		retryClient.RetryWaitMax = orDefault(opts.RetryWaitMax, 10*time.Second)
		retryClient.Logger = leveledLogger{log.Named("retry").Sugar()}
		// Hand the final response back instead of a "giving up" error
		retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
		restyClient = resty.NewWithClient(retryClient.StandardClient())
	} else {
		restyClient = resty.New()
	}

	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	restyClient.
		SetTimeout(orDefault(opts.Timeout, 30*time.Second)).
		SetRetryCount(0).
		SetHeader("User-Agent", ua)
	if opts.BaseURL != "" {
		restyClient.SetBaseURL(opts.BaseURL)
	}
	restyClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		tracing.Inject(r.Context(), r.Header)
		return nil
	})

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	c := &Client{
		Resty:   restyClient,
		Limiter: limiter,
		name:    opts.Name,
	}

	if opts.Breaker != nil {
		settings := *opts.Breaker
		if settings.IsSuccessful == nil {
			settings.IsSuccessful = upstreamHealthy
		}
		if settings.OnStateChange == nil {
			settings.OnStateChange = func(name string, from, to resilience.State) {
				log.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			}
		}
		c.Breaker = resilience.New(opts.Name, settings)
	}

	return c
}

// Name returns the client's name.
func (c *Client) Name() string {
	return c.name
}

// Request creates a new request after waiting for the rate limiter.
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	return c.Resty.R().SetContext(ctx), nil
}

// Do sends one request built by fn. The response is returned only for 2xx
// statuses; anything else becomes a *StatusError.
func (c *Client) Do(ctx context.Context, fn func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	send := func() (*resty.Response, error) {
		req, err := c.Request(ctx)
		if err != nil {
			return nil, err
		}
		resp, err := fn(req)
		if err != nil {
			return nil, err
		}
		if err := CheckStatus(resp); err != nil {
			return resp, err
		}
		return resp, nil
	}

	if c.Breaker == nil {
		return send()
	}

	resp, err := resilience.Call(c.Breaker, send)
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s unavailable: %w", c.name, err)
	}
	return resp, err
}

// BreakerState returns the breaker state, or closed when there is none.
func (c *Client) BreakerState() resilience.State {
	if c.Breaker == nil {
		return resilience.StateClosed
	}
	return c.Breaker.State()
}

// CheckStatus converts a non-2xx response to *StatusError.
func CheckStatus(resp *resty.Response) error {
	if resp == nil {
		return errors.New("no response")
	}
	if resp.IsSuccess() {
		return nil
	}
	body := resp.String()
	if len(body) > 512 {
		body = body[:512]
	}
	return &StatusError{Code: resp.StatusCode(), Body: body}
}

// upstreamHealthy treats client-side statuses as healthy for the breaker.
func upstreamHealthy(err error) bool {
	if err == nil {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code < 500
	}
	// Caller cancelled; says nothing about the upstream
	return errors.Is(err, context.Canceled)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// leveledLogger adapts zap to retryablehttp.LeveledLogger.
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
