package books

import "time"

// Config tunes a Client.
type Config struct {
	BaseURL string

	// Spacing is the minimum time between two dispatches of any key.
	Spacing time.Duration

	// MaxAttempts bounds the attempts per lookup, the first one included.
	MaxAttempts int

	MaxConcurrent int
	Timeout       time.Duration
	BackoffBase   time.Duration
	RateLimitBase time.Duration
	PreloadChunk  int
	PreloadDelay  time.Duration
	PreloadJitter time.Duration

	dispatchHook func(key string, at time.Time)
	enqueueHook  func(key string, p priority)
}

// DefaultConfig returns the production pacing for the public Google Books API.
func DefaultConfig() Config {
	return Config{
		BaseURL:       "https://www.googleapis.com/books/v1",
		Spacing:       1500 * time.Millisecond,
		MaxConcurrent: 2,
		MaxAttempts:   3,
		Timeout:       6 * time.Second,
		BackoffBase:   time.Second,
		RateLimitBase: 3 * time.Second,
		PreloadChunk:  5,
		PreloadDelay:  4500 * time.Millisecond,
		PreloadJitter: time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.MaxConcurrent < 1 {
		c.MaxConcurrent = def.MaxConcurrent
	}
	if c.MaxAttempts < 1 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.PreloadChunk < 1 {
		c.PreloadChunk = def.PreloadChunk
	}
	if c.Spacing < 0 {
		c.Spacing = 0
	}
	return c
}
