package config

import (
	"fmt"
	"time"

	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/caarlos0/env/v10"
	"go.uber.org/multierr"
)

// Config holds all configuration for the render worker
type Config struct {
	// Worker configuration
	WorkerID string `env:"WORKER_ID" envDefault:"render-1"`

	// Redis configuration
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASS" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Stream configuration
	StreamKey     string        `env:"STREAM_KEY" envDefault:"render.work"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"render-workers"`
	ResultStream  string        `env:"RESULT_STREAM" envDefault:"render.completed"`
	BlockTime     time.Duration `env:"BLOCK_TIME" envDefault:"1s"`
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"3"`

	// Template engine configuration
	EscapeHTML      bool   `env:"TEMPLATE_ESCAPE_HTML" envDefault:"true"`
	Strict          bool   `env:"TEMPLATE_STRICT" envDefault:"false"`
	StrictVariables bool   `env:"TEMPLATE_STRICT_VARIABLES" envDefault:"false"`
	CacheTemplates  bool   `env:"TEMPLATE_CACHE" envDefault:"true"`
	CacheSize       int    `env:"TEMPLATE_CACHE_SIZE" envDefault:"200"`
	PartialsKey     string `env:"PARTIALS_KEY" envDefault:"render:partials"`

	// PartialsRefresh reloads shared partials periodically, 0 disables
	PartialsRefresh time.Duration `env:"PARTIALS_REFRESH" envDefault:"0s"`

	// LLM configuration
	LLMProvider  string        `env:"LLM_PROVIDER" envDefault:"anthropic"`
	LLMAPIKey    string        `env:"LLM_API_KEY"`
	LLMModel     string        `env:"LLM_MODEL" envDefault:"claude-sonnet-4-20250514"`
	LLMMaxTokens int           `env:"LLM_MAX_TOKENS" envDefault:"1024"`
	LLMTimeout   time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// Health check configuration
	HealthPort int `env:"HEALTH_PORT" envDefault:"8082"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration and reports every problem found
func (c *Config) Validate() error {
	var err error

	required := []struct {
		name  string
		value string
	}{
		{"WORKER_ID", c.WorkerID},
		{"REDIS_ADDR", c.RedisAddr},
		{"STREAM_KEY", c.StreamKey},
		{"CONSUMER_GROUP", c.ConsumerGroup},
		{"RESULT_STREAM", c.ResultStream},
		{"LLM_PROVIDER", c.LLMProvider},
		{"LLM_MODEL", c.LLMModel},
	}
	for _, r := range required {
		if r.value == "" {
			err = multierr.Append(err, fmt.Errorf("%s is required", r.name))
		}
	}

	// LLM_API_KEY is optional - only required when using prompt mode
	// It will be validated at runtime if a prompt render is attempted

	if c.LLMTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("LLM_TIMEOUT must be positive"))
	}

	if c.LLMMaxTokens <= 0 {
		err = multierr.Append(err, fmt.Errorf("LLM_MAX_TOKENS must be positive"))
	}

	if c.BlockTime <= 0 {
		err = multierr.Append(err, fmt.Errorf("BLOCK_TIME must be positive"))
	}

	if c.MaxRetries < 0 {
		err = multierr.Append(err, fmt.Errorf("MAX_RETRIES must be non-negative"))
	}

	if c.PartialsRefresh < 0 {
		err = multierr.Append(err, fmt.Errorf("PARTIALS_REFRESH must be non-negative"))
	}

	if c.CacheSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("TEMPLATE_CACHE_SIZE must be positive"))
	}

	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		err = multierr.Append(err, fmt.Errorf("HEALTH_PORT must be between 1 and 65535"))
	}

	if !isValidLogLevel(c.LogLevel) {
		err = multierr.Append(err, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error"))
	}

	return err
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	return validLevels[level]
}

// TemplateOptions returns the base engine options
func (c *Config) TemplateOptions() []template.Option {
	opts := []template.Option{
		template.WithEscapeHTML(c.EscapeHTML),
		template.WithStrict(c.Strict),
		template.WithStrictVariables(c.StrictVariables),
	}
	if c.CacheTemplates {
		opts = append(opts, template.WithCache(c.CacheSize))
	} else {
		opts = append(opts, template.WithoutCache())
	}
	return opts
}

// String returns a string representation of the config (without sensitive data)
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{WorkerID=%s, RedisAddr=%s, RedisDB=%d, StreamKey=%s, ConsumerGroup=%s, "+
			"ResultStream=%s, EscapeHTML=%v, Strict=%v, StrictVariables=%v, CacheTemplates=%v, "+
			"CacheSize=%d, PartialsKey=%s, LLMProvider=%s, LLMModel=%s, HealthPort=%d, LogLevel=%s}",
		c.WorkerID,
		c.RedisAddr,
		c.RedisDB,
		c.StreamKey,
		c.ConsumerGroup,
		c.ResultStream,
		c.EscapeHTML,
		c.Strict,
		c.StrictVariables,
		c.CacheTemplates,
		c.CacheSize,
		c.PartialsKey,
		c.LLMProvider,
		c.LLMModel,
		c.HealthPort,
		c.LogLevel,
	)
}
