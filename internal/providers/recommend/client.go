package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/monitoring"
	"github.com/jo-oikawa/very-good-reads/backend/internal/infrastructure/resilience"
	"github.com/jo-oikawa/very-good-reads/backend/internal/providers/http/client"
	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Config describes the Azure OpenAI deployment.
type Config struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64

	// TransportRetries retries 429, 5xx and connection errors.
	TransportRetries int
	RetryWaitMin     time.Duration
	RetryWaitMax     time.Duration
}

// DefaultConfig returns the request parameters used by the desktop.
func DefaultConfig() Config {
	return Config{
		APIVersion:       "2023-05-15",
		Timeout:          30 * time.Second,
		MaxTokens:        800,
		Temperature:      0.7,
		TransportRetries: 2,
		RetryWaitMin:     500 * time.Millisecond,
		RetryWaitMax:     5 * time.Second,
	}
}

// Enabled reports whether the deployment is configured.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.APIKey != "" && c.Deployment != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var errEmptyReply = errors.New("empty response from chat completion")

// Client requests recommendations. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *client.Client
	log     *zap.Logger
	metrics *monitoring.Metrics

	cache  sync.Map // request hash -> []Recommendation
	flight singleflight.Group
}

// New creates a client. Zero fields in cfg take DefaultConfig values.
func New(cfg Config, log *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.APIVersion == "" {
		cfg.APIVersion = def.APIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = def.Temperature
	}
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := client.New(client.Options{
		Name:             "azure-openai",
		BaseURL:          strings.TrimRight(cfg.Endpoint, "/"),
		Timeout:          cfg.Timeout,
		TransportRetries: cfg.TransportRetries,
		RetryWaitMin:     cfg.RetryWaitMin,
		RetryWaitMax:     cfg.RetryWaitMax,
		Breaker: &resilience.Settings{
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		},
		Logger: log,
	})
	httpClient.Resty.
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	return &Client{
		cfg:  cfg,
		http: httpClient,
		log:  log,
	}
}

// WithMetrics adds metrics tracking to the client
func (c *Client) WithMetrics(metrics *monitoring.Metrics) *Client {
	c.metrics = metrics
	return c
}

// Enabled reports whether requests reach the model.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled()
}

// BreakerState reports the circuit breaker state of the model endpoint.
func (c *Client) BreakerState() resilience.State {
	return c.http.BreakerState()
}

// Get answers req. The error is non-nil only when req is invalid; model
// failures yield the fallback list for the request kind.
func (c *Client) Get(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	req = req.normalized()

	key, err := utils.HashJSON(req)
	if err != nil {
		return Result{}, fmt.Errorf("hash request: %w", err)
	}
	if cached, ok := c.cache.Load(key); ok {
		c.metrics.RecordRecommendation(string(req.Kind), "cache")
		return Result{Recommendations: copyRecs(cached.([]Recommendation)), Source: SourceLLM, Cached: true}, nil
	}

	if !c.Enabled() {
		c.log.Debug("Recommendation model not configured, using fallback", zap.String("kind", string(req.Kind)))
		return c.fallback(req.Kind), nil
	}

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		recs, err := c.ask(ctx, req)
		if err != nil {
			return nil, err
		}
		c.cache.Store(key, recs)
		return recs, nil
	})
	if err != nil {
		c.log.Warn("Recommendation request failed, using fallback",
			zap.String("kind", string(req.Kind)),
			zap.Error(err))
		return c.fallback(req.Kind), nil
	}

	c.metrics.RecordRecommendation(string(req.Kind), SourceLLM)
	return Result{Recommendations: copyRecs(v.([]Recommendation)), Source: SourceLLM}, nil
}

// ask sends one chat completion and parses the reply.
func (c *Client) ask(ctx context.Context, req Request) ([]Recommendation, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	body := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	}

	start := time.Now()
	resp, err := c.http.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.
			SetHeader("api-key", c.cfg.APIKey).
			SetQueryParam("api-version", c.cfg.APIVersion).
			SetBody(body).
			Post("/openai/deployments/" + c.cfg.Deployment + "/chat/completions")
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	var reply chatResponse
	if err := sonic.Unmarshal(resp.Body(), &reply); err != nil {
		return nil, fmt.Errorf("decode chat completion: %w", err)
	}
	if len(reply.Choices) == 0 || strings.TrimSpace(reply.Choices[0].Message.Content) == "" {
		return nil, errEmptyReply
	}

	recs, ok := parseReply(reply.Choices[0].Message.Content)
	if !ok {
		return nil, fmt.Errorf("no recommendations in reply of %d bytes", len(reply.Choices[0].Message.Content))
	}

	c.log.Info("Recommendations received",
		zap.String("kind", string(req.Kind)),
		zap.Int("count", len(recs)),
		zap.Duration("duration", time.Since(start)))
	return recs, nil
}

func (c *Client) fallback(kind Kind) Result {
	c.metrics.RecordRecommendation(string(kind), SourceFallback)
	return Result{Recommendations: Fallback(kind), Source: SourceFallback}
}

func copyRecs(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	copy(out, recs)
	return out
}
