// Package config provides configuration management for the render worker.
//
// Configuration is loaded from environment variables and validated on startup.
// All configuration options have sensible defaults for development.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	engine := template.NewEngine(cfg.TemplateOptions()...)
//
// Template engine variables:
//   - TEMPLATE_ESCAPE_HTML: escape {{ }} output (default true)
//   - TEMPLATE_STRICT: fail on unknown helpers and partials (default false)
//   - TEMPLATE_STRICT_VARIABLES: fail on missing {{ }} values (default false)
//   - TEMPLATE_CACHE, TEMPLATE_CACHE_SIZE: compile cache (default on, 200)
//   - PARTIALS_KEY: Redis hash holding shared partials (default render:partials)
package config
