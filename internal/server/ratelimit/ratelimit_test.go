package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testConfig(configs []EndpointConfig) *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    100,
		DefaultWindow:   time.Minute,
		Whitelist:       make(map[string]bool),
		Blacklist:       make(map[string]bool),
		EndpointConfigs: configs,
	}
}

func TestLimiter_AllowsWithinBurst(t *testing.T) {
	limiter := NewLimiter(testConfig([]EndpointConfig{
		{Path: "/verify", Method: "POST", Limit: 10, Window: time.Hour, Burst: 3},
	}))
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("1.2.3.4", "/verify", "POST")
		assert.True(t, allowed, "request %d within burst should be allowed", i+1)
		assert.Equal(t, 10, info.Limit)
	}

	allowed, info := limiter.Allow("1.2.3.4", "/verify", "POST")
	assert.False(t, allowed, "request beyond burst should be rejected")
	assert.Greater(t, info.RetryAfter, time.Duration(0))
}

func TestLimiter_ClientsAreIndependent(t *testing.T) {
	limiter := NewLimiter(testConfig([]EndpointConfig{
		{Path: "/verify", Method: "POST", Limit: 10, Window: time.Hour, Burst: 1},
	}))
	defer limiter.Stop()

	allowed, _ := limiter.Allow("1.1.1.1", "/verify", "POST")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow("1.1.1.1", "/verify", "POST")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow("2.2.2.2", "/verify", "POST")
	assert.True(t, allowed, "a different client has its own bucket")
}

func TestLimiter_Whitelist(t *testing.T) {
	cfg := testConfig([]EndpointConfig{
		{Path: "/verify", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
	})
	cfg.Whitelist["10.0.0.1"] = true
	limiter := NewLimiter(cfg)
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		allowed, _ := limiter.Allow("10.0.0.1", "/verify", "POST")
		assert.True(t, allowed, "whitelisted clients are never limited")
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	cfg := testConfig(nil)
	cfg.Blacklist["6.6.6.6"] = true
	limiter := NewLimiter(cfg)
	defer limiter.Stop()

	allowed, _ := limiter.Allow("6.6.6.6", "/verify", "POST")
	assert.False(t, allowed)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := limiter.Allow("1.2.3.4", "/verify", "POST")
		assert.True(t, allowed)
	}
}

func TestMatchEndpoint_ExactAndPrefix(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/verify", Method: "POST", Limit: 10},
		{Path: "/webhooks/", Method: "POST", Limit: 300},
	}

	match := MatchEndpoint("/verify", "POST", configs)
	assert.NotNil(t, match)
	assert.Equal(t, 10, match.Limit)

	match = MatchEndpoint("/webhooks/email-reply", "POST", configs)
	assert.NotNil(t, match)
	assert.Equal(t, 300, match.Limit)

	assert.Nil(t, MatchEndpoint("/candidates/abc", "GET", configs))
}

func TestMatchEndpoint_HealthAndMetricsUnlimited(t *testing.T) {
	match := MatchEndpoint("/health", "GET", nil)
	assert.NotNil(t, match)
	assert.Equal(t, 0, match.Limit)

	match = MatchEndpoint("/metrics", "GET", nil)
	assert.NotNil(t, match)
	assert.Equal(t, 0, match.Limit)
}

func TestTokenBucket_Refills(t *testing.T) {
	bucket := newTokenBucket(1, 1000) // 1000 tokens/sec for a fast test

	assert.True(t, bucket.allow())
	time.Sleep(5 * time.Millisecond)
	assert.True(t, bucket.allow(), "bucket should refill over time")
}
