package config

import (
	"testing"
	"time"

	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "render-1", cfg.WorkerID)
	assert.Equal(t, "render.work", cfg.StreamKey)
	assert.Equal(t, "render-workers", cfg.ConsumerGroup)
	assert.Equal(t, "render.completed", cfg.ResultStream)
	assert.Equal(t, time.Second, cfg.BlockTime)
	assert.Equal(t, "render:partials", cfg.PartialsKey)
	assert.True(t, cfg.EscapeHTML)
	assert.False(t, cfg.Strict)
	assert.True(t, cfg.CacheTemplates)
	assert.Equal(t, template.DefaultCacheSize, cfg.CacheSize)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WORKER_ID", "render-7")
	t.Setenv("TEMPLATE_ESCAPE_HTML", "false")
	t.Setenv("TEMPLATE_STRICT", "true")
	t.Setenv("TEMPLATE_CACHE_SIZE", "5")
	t.Setenv("PARTIALS_KEY", "tenant:partials")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "render-7", cfg.WorkerID)
	assert.False(t, cfg.EscapeHTML)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 5, cfg.CacheSize)
	assert.Equal(t, "tenant:partials", cfg.PartialsKey)
	assert.Contains(t, cfg.String(), "PartialsKey=tenant:partials")
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("HEALTH_PORT", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.WorkerID = ""
	cfg.CacheSize = 0
	cfg.LogLevel = "trace"

	err = cfg.Validate()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 3)
	assert.Contains(t, err.Error(), "WORKER_ID is required")
	assert.Contains(t, err.Error(), "TEMPLATE_CACHE_SIZE must be positive")
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestTemplateOptions(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	cfg.Strict = true
	cfg.CacheSize = 3

	opts := template.NewEngine(cfg.TemplateOptions()...).Options()
	assert.True(t, opts.EscapeHTML)
	assert.True(t, opts.Strict)
	assert.False(t, opts.StrictVariables)
	assert.True(t, opts.CacheTemplates)
	assert.Equal(t, 3, opts.CacheSize)

	cfg.CacheTemplates = false
	assert.False(t, template.NewEngine(cfg.TemplateOptions()...).Options().CacheTemplates)
}
