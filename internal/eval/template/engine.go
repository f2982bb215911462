package template

import (
	"fmt"
	"io"
	"sync"

	"github.com/aymerick/raymond"
	"go.uber.org/zap"
)

// Engine renders templates. Helpers, partials and the compile cache are
// owned by the engine instance.
type Engine struct {
	config   engineConfig
	helpers  *HelperRegistry
	partials *PartialRegistry
	cache    *Cache
	mu       sync.RWMutex
}

// NewEngine creates a new template engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		config: engineConfig{
			Options: DefaultOptions(),
			logger:  zap.NewNop(),
		},
		helpers:  NewHelperRegistry(),
		partials: NewPartialRegistry(),
	}
	e.SetOptions(opts...)
	return e
}

// SetOptions merges opts into the current configuration. Enabling the
// cache creates it, disabling it drops every cached template.
func (e *Engine) SetOptions(opts ...Option) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, opt := range opts {
		opt(&e.config)
	}
	if e.config.EscapeFunc == nil {
		e.config.EscapeFunc = raymond.Escape
	}
	if e.config.CacheSize <= 0 {
		e.config.CacheSize = DefaultCacheSize
	}

	switch {
	case !e.config.CacheTemplates:
		e.cache = nil
	case e.cache == nil:
		e.cache = NewCache(e.config.CacheSize)
	default:
		for _, text := range e.cache.Resize(e.config.CacheSize) {
			e.config.logger.Debug("evicted compiled template", zap.Int("length", len(text)))
		}
	}
}

// Options returns the current configuration
func (e *Engine) Options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.config.Options
}

// RegisterHelper adds or replaces a helper
func (e *Engine) RegisterHelper(name string, fn HelperFunc) {
	e.helpers.Register(name, fn)
}

// RegisterPartial adds or replaces a partial
func (e *Engine) RegisterPartial(name, text string) {
	e.partials.Register(name, text)
}

// Helpers exposes the helper registry
func (e *Engine) Helpers() *HelperRegistry { return e.helpers }

// Partials exposes the partial registry
func (e *Engine) Partials() *PartialRegistry { return e.partials }

// CacheLen returns the number of cached templates, 0 when caching is off
func (e *Engine) CacheLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}

// Clone returns an independent engine with copies of the configuration and
// registries. The clone starts with an empty cache.
func (e *Engine) Clone() *Engine {
	e.mu.RLock()
	config := e.config
	e.mu.RUnlock()

	c := &Engine{
		config:   config,
		helpers:  e.helpers.clone(),
		partials: e.partials.clone(),
	}
	if config.CacheTemplates {
		c.cache = NewCache(config.CacheSize)
	}
	return c
}

// Render renders text against data. It does not consult the compile cache.
func (e *Engine) Render(text string, data any) (string, error) {
	return e.newRenderer().render(text, NewContext(data))
}

// Compile returns a reusable template for text. With caching enabled,
// identical text yields the same *Template.
func (e *Engine) Compile(text string) *Template {
	e.mu.RLock()
	cache := e.cache
	logger := e.config.logger
	e.mu.RUnlock()

	build := func() *Template { return &Template{text: text, engine: e} }
	if cache == nil {
		return build()
	}
	t, evicted := cache.GetOrAdd(text, build)
	for _, old := range evicted {
		logger.Debug("evicted compiled template", zap.Int("length", len(old)))
	}
	return t
}

func (e *Engine) newRenderer() *renderer {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &renderer{
		engine: e,
		opts:   e.config.Options,
		logger: e.config.logger,
	}
}

// Template is a compiled template bound to the engine that compiled it
type Template struct {
	text   string
	engine *Engine
}

// Text returns the template source
func (t *Template) Text() string { return t.text }

// Render renders the template against data
func (t *Template) Render(data any) (string, error) {
	return t.engine.newRenderer().render(t.text, NewContext(data))
}

// Execute renders the template and writes the result to w
func (t *Template) Execute(w io.Writer, data any) error {
	out, err := t.Render(data)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
