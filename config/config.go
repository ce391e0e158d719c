// Package config defines service configuration and loading.
package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"sectrain/internal/model"
)

// AIConfig holds model settings for the free-text grader and the content
// generator. When APIKey is empty a deterministic local fallback is used.
type AIConfig struct {
	APIKey       string `koanf:"api_key"`
	BaseURL      string `koanf:"base_url"`
	GraderModel  string `koanf:"grader_model"`
	ContentModel string `koanf:"content_model"`
	TimeoutMS    int    `koanf:"timeout_ms"`
}

// IsEnabled reports whether the AI API is configured.
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != ""
}

// ModelEndpoint returns the generateContent endpoint for a model.
func (c *AIConfig) ModelEndpoint(name string) string {
	return c.BaseURL + "/" + name + ":generateContent"
}

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogMode selects the log encoder: "dev" or "prod".
	LogMode string `koanf:"log_mode"`

	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`
	RedisAddr     string `koanf:"redis_addr"`

	// PolicyCacheTTLSeconds bounds staleness of cached tenant policies.
	PolicyCacheTTLSeconds int `koanf:"policy_cache_ttl_seconds"`

	// PurgeBatchSize caps modules scrubbed per purge pass per tenant.
	PurgeBatchSize int `koanf:"purge_batch_size"`

	AI AIConfig `koanf:"ai"`

	// Tenants maps tenant ids to their training policy. In deployments with
	// a dedicated config service this block is empty and policies come from
	// that collaborator instead.
	Tenants map[string]model.TenantPolicy `koanf:"tenants"`

	// DefaultPolicy applies to tenants without an explicit entry.
	DefaultPolicy model.TenantPolicy `koanf:"default_policy"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:                  ":8080",
		LogMode:               "dev",
		MongoURI:              "mongodb://localhost:27017",
		MongoDatabase:         "sectrain",
		RedisAddr:             "localhost:6379",
		PolicyCacheTTLSeconds: 300,
		PurgeBatchSize:        500,
		AI: AIConfig{
			APIKey:       os.Getenv("GEMINI_API_KEY"),
			BaseURL:      "https://generativelanguage.googleapis.com/v1beta/models",
			GraderModel:  "gemini-2.0-flash",
			ContentModel: "gemini-2.0-flash",
			TimeoutMS:    15000,
		},
		DefaultPolicy: model.TenantPolicy{
			PassThreshold: 0.7,
			MaxAttempts:   3,
			RetentionDays: 0,
		},
	}
}

// Load builds a Config by layering defaults, an optional YAML file, and env
// vars. Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if SECTRAIN_CONFIG is set
//  3. env (prefix SECTRAIN_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SECTRAIN_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// SECTRAIN_MONGO_URI -> mongo_uri, SECTRAIN_AI__TIMEOUT_MS -> ai.timeout_ms
	envProvider := env.Provider("SECTRAIN_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "sectrain_")
		return strings.ReplaceAll(s, "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		return nil, errors.New("addr must not be empty")
	}
	if cfg.DefaultPolicy.PassThreshold < 0 || cfg.DefaultPolicy.PassThreshold > 1 {
		return nil, errors.New("default_policy.pass_threshold must be in [0,1]")
	}
	return &cfg, nil
}

// PolicyFor resolves the policy snapshot for a tenant.
func (c *Config) PolicyFor(tenantID string) model.TenantPolicy {
	if p, ok := c.Tenants[tenantID]; ok {
		return p
	}
	return c.DefaultPolicy
}
