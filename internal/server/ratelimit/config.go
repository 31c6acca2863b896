// Request classification into rate limit tiers.

package ratelimit

import (
	"net/http"
	"time"
)

// Tier is a named limiter.
type Tier struct {
	Name    string
	Limiter *Limiter
}

// Config holds the write and read tiers. A nil tier is unlimited.
type Config struct {
	Write *Tier
	Read  *Tier
}

// NewConfig builds tiers from per-minute budgets. Zero disables a tier.
//
// Burst is a sixth of the per-minute budget, at least 1.
func NewConfig(writePerMin, readPerMin int) *Config {
	return &Config{
		Write: newTier("write", writePerMin),
		Read:  newTier("read", readPerMin),
	}
}

func newTier(name string, perMin int) *Tier {
	if perMin <= 0 {
		return nil
	}
	return &Tier{Name: name, Limiter: NewLimiter(perMin, time.Minute, max(perMin/6, 1))}
}

// Match returns the tier for a request or nil when it is not limited.
func (c *Config) Match(method, path string) *Tier {
	if path == "/api/health" {
		return nil
	}
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return c.Write
	case http.MethodGet, http.MethodHead:
		return c.Read
	default:
		return nil
	}
}

// Close stops every limiter.
func (c *Config) Close() {
	for _, t := range []*Tier{c.Write, c.Read} {
		if t != nil {
			t.Limiter.Close()
		}
	}
}
