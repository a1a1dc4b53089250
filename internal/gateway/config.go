package gateway

import "time"

// Config controls the HTTP gateway.
type Config struct {
	// Addr is the listen address. Default ":8080".
	Addr string

	// RPS and Burst size the per-client token bucket. RPS <= 0 disables
	// rate limiting.
	RPS   float64
	Burst int

	// IdleTTL is how long an idle client's bucket is kept.
	IdleTTL time.Duration

	// MaxBodyBytes caps an invoke request body.
	MaxBodyBytes int64
}

// DefaultConfig returns the default gateway settings.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8080",
		RPS:          30,
		Burst:        60,
		IdleTTL:      10 * time.Minute,
		MaxBodyBytes: 1 << 20,
	}
}

func (c *Config) validate() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.Burst <= 0 {
		c.Burst = 60
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = 10 * time.Minute
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
}
