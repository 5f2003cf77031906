// Package config centraliza o carregamento de configurações do gateway.
//
// Ordem: .env (godotenv) → variáveis de ambiente → flags da CLI ligadas ao
// mesmo viper. Durações aceitam sintaxe Go ("90s") ou inteiros em milissegundos.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"wikidot-gateway/middleware/ratelimit/domain"
)

type Config struct {
	ListenAddr  string            `mapstructure:"listen_addr"`
	LogLevel    string            `mapstructure:"log_level"`
	SecretToken string            `mapstructure:"secret_token"`
	Rate        RateConfig        `mapstructure:"rate"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
	Wiki        WikiConfig        `mapstructure:"wiki"`
}

type RateConfig struct {
	Limit          int           `mapstructure:"limit"`
	Interval       time.Duration `mapstructure:"interval"`
	OverflowPolicy string        `mapstructure:"overflow_policy"`
	AllowAnonymous bool          `mapstructure:"allow_anonymous"`
	Stats          StatsConfig   `mapstructure:"stats"`
}

// StatsConfig liga o RedisStatsStore. Desligado, os contadores ficam em memória.
type StatsConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	Prefix        string        `mapstructure:"prefix"`
	TTL           time.Duration `mapstructure:"ttl"`
	Bucket        string        `mapstructure:"bucket"`
	TrackKeys     bool          `mapstructure:"track_keys"`
}

type ConcurrencyConfig struct {
	Max     int           `mapstructure:"max"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WikiConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	RPS     float64       `mapstructure:"rps"`
	Burst   int           `mapstructure:"burst"`
	Timeout time.Duration `mapstructure:"timeout"`
}

var defaults = map[string]any{
	"listen_addr":  ":8080",
	"log_level":    "info",
	"secret_token": "",

	"rate.limit":           10,
	"rate.interval":        60 * time.Second,
	"rate.overflow_policy": domain.OverflowCancel.String(),
	"rate.allow_anonymous": false,

	"rate.stats.enabled":        false,
	"rate.stats.redis_addr":     "",
	"rate.stats.redis_password": "",
	"rate.stats.redis_db":       0,
	"rate.stats.prefix":         "admission:stats",
	"rate.stats.ttl":            24 * time.Hour,
	"rate.stats.bucket":         "minute",
	"rate.stats.track_keys":     false,

	"concurrency.max":     100,
	"concurrency.timeout": time.Duration(0),

	"wiki.base_url": "https://deep-forest-club.wikidot.com",
	"wiki.rps":      5.0,
	"wiki.burst":    5,
	"wiki.timeout":  15 * time.Second,
}

// NewViper carrega o .env (se existir) e devolve um viper com os padrões e
// leitura automática do ambiente: "rate.stats.redis_addr" ↔ RATE_STATS_REDIS_ADDR.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load lê e valida a configuração a partir de v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		millisOrDurationHook(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	cfg.SecretToken = strings.TrimSpace(cfg.SecretToken)
	cfg.Rate.OverflowPolicy = strings.ToLower(strings.TrimSpace(cfg.Rate.OverflowPolicy))

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Rate.Limit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT must be > 0"))
	}
	if c.Rate.Interval <= 0 {
		errs = append(errs, errors.New("RATE_INTERVAL must be > 0"))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency.Max < 0 {
		errs = append(errs, errors.New("CONCURRENCY_MAX must be >= 0"))
	}
	if c.Concurrency.Timeout < 0 {
		errs = append(errs, errors.New("CONCURRENCY_TIMEOUT must be >= 0"))
	}
	if u, err := url.Parse(c.Wiki.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("WIKI_BASE_URL must be an absolute URL, got %q", c.Wiki.BaseURL))
	}
	if c.Wiki.Burst <= 0 {
		errs = append(errs, errors.New("WIKI_BURST must be > 0"))
	}
	if c.Rate.Stats.Enabled && strings.TrimSpace(c.Rate.Stats.RedisAddr) == "" {
		errs = append(errs, errors.New("RATE_STATS_REDIS_ADDR is required when RATE_STATS_ENABLED=true"))
	}
	return errors.Join(errs...)
}

// Policy converte RATE_OVERFLOW_POLICY; vazio vale "cancel".
func (c Config) Policy() (domain.OverflowPolicy, error) {
	switch c.Rate.OverflowPolicy {
	case "", domain.OverflowCancel.String():
		return domain.OverflowCancel, nil
	case domain.OverflowRearm.String():
		return domain.OverflowRearm, nil
	default:
		return domain.OverflowCancel, fmt.Errorf("RATE_OVERFLOW_POLICY must be %q or %q, got %q",
			domain.OverflowCancel, domain.OverflowRearm, c.Rate.OverflowPolicy)
	}
}

var durationType = reflect.TypeOf(time.Duration(0))

// millisOrDurationHook aceita "1500" (ms) além de "1.5s".
func millisOrDurationHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != durationType {
			return data, nil
		}
		switch v := data.(type) {
		case time.Duration:
			return v, nil
		case int:
			return time.Duration(v) * time.Millisecond, nil
		case int64:
			return time.Duration(v) * time.Millisecond, nil
		case string:
			return ParseDuration(v)
		}
		return data, nil
	}
}

// ParseDuration interpreta inteiros como milissegundos e o resto como time.ParseDuration.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}
