package template

import (
	"github.com/aymerick/raymond"
	"go.uber.org/zap"
)

// DefaultCacheSize is the compile cache capacity used when none is given
const DefaultCacheSize = 200

// Options configures an Engine
type Options struct {
	// EscapeHTML escapes {{ }} interpolations with EscapeFunc
	EscapeHTML bool

	// EscapeFunc escapes interpolated text. Defaults to an HTML entity
	// escaper for & < > " '.
	EscapeFunc func(string) string

	// Strict turns unknown helpers and partials into errors
	Strict bool

	// StrictVariables turns missing {{ }} values into errors
	StrictVariables bool

	// CacheTemplates makes Compile reuse templates for identical text
	CacheTemplates bool

	// CacheSize bounds the compile cache
	CacheSize int
}

// DefaultOptions returns the engine defaults
func DefaultOptions() Options {
	return Options{
		EscapeHTML: true,
		EscapeFunc: raymond.Escape,
		CacheSize:  DefaultCacheSize,
	}
}

// Option mutates engine configuration
type Option func(*engineConfig)

type engineConfig struct {
	Options
	logger *zap.Logger
}

// WithEscapeHTML toggles escaping of {{ }} interpolations
func WithEscapeHTML(enabled bool) Option {
	return func(c *engineConfig) { c.EscapeHTML = enabled }
}

// WithEscapeFunc sets the escape function. A nil fn restores the default.
func WithEscapeFunc(fn func(string) string) Option {
	return func(c *engineConfig) {
		if fn == nil {
			fn = raymond.Escape
		}
		c.EscapeFunc = fn
	}
}

// WithStrict toggles errors for unknown helpers and partials
func WithStrict(enabled bool) Option {
	return func(c *engineConfig) { c.Strict = enabled }
}

// WithStrictVariables toggles errors for missing interpolated values
func WithStrictVariables(enabled bool) Option {
	return func(c *engineConfig) { c.StrictVariables = enabled }
}

// WithCache enables the compile cache with the given capacity.
// A non-positive size keeps the current capacity.
func WithCache(size int) Option {
	return func(c *engineConfig) {
		c.CacheTemplates = true
		if size > 0 {
			c.CacheSize = size
		}
	}
}

// WithoutCache disables and drops the compile cache
func WithoutCache() Option {
	return func(c *engineConfig) { c.CacheTemplates = false }
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *zap.Logger) Option {
	return func(c *engineConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}
