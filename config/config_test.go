package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wikidot-gateway/middleware/ratelimit/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 10, cfg.Rate.Limit)
	assert.Equal(t, 60*time.Second, cfg.Rate.Interval)
	assert.False(t, cfg.Rate.AllowAnonymous)
	assert.Equal(t, 100, cfg.Concurrency.Max)
	assert.Equal(t, "https://deep-forest-club.wikidot.com", cfg.Wiki.BaseURL)
	assert.Equal(t, 24*time.Hour, cfg.Rate.Stats.TTL)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, domain.OverflowCancel, p)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SECRET_TOKEN", "  s3cret ")
	t.Setenv("RATE_LIMIT", "3")
	t.Setenv("RATE_INTERVAL", "1500")
	t.Setenv("RATE_OVERFLOW_POLICY", "REARM")
	t.Setenv("RATE_ALLOW_ANONYMOUS", "true")
	t.Setenv("CONCURRENCY_TIMEOUT", "250ms")
	t.Setenv("WIKI_RPS", "0.5")
	t.Setenv("RATE_STATS_ENABLED", "true")
	t.Setenv("RATE_STATS_REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_STATS_TRACK_KEYS", "1")

	cfg, err := Load(NewViper())
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.SecretToken)
	assert.Equal(t, 3, cfg.Rate.Limit)
	assert.Equal(t, 1500*time.Millisecond, cfg.Rate.Interval)
	assert.True(t, cfg.Rate.AllowAnonymous)
	assert.Equal(t, 250*time.Millisecond, cfg.Concurrency.Timeout)
	assert.InDelta(t, 0.5, cfg.Wiki.RPS, 1e-9)
	assert.True(t, cfg.Rate.Stats.Enabled)
	assert.Equal(t, "localhost:6379", cfg.Rate.Stats.RedisAddr)
	assert.True(t, cfg.Rate.Stats.TrackKeys)

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, domain.OverflowRearm, p)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"zero limit":        {"RATE_LIMIT": "0"},
		"negative interval": {"RATE_INTERVAL": "-5"},
		"bad interval":      {"RATE_INTERVAL": "soon"},
		"bad policy":        {"RATE_OVERFLOW_POLICY": "sliding"},
		"relative wiki url": {"WIKI_BASE_URL": "/wiki"},
		"stats w/o redis":   {"RATE_STATS_ENABLED": "true"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(NewViper())
			assert.Error(t, err)
		})
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("60000")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	d, err = ParseDuration(" 2m ")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d)

	d, err = ParseDuration("")
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = ParseDuration("2 minutes")
	assert.Error(t, err)
}

func TestViper_FlagOverride(t *testing.T) {
	v := NewViper()
	v.Set("listen_addr", ":9999")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
}
