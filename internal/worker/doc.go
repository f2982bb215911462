// Package worker implements the render worker lifecycle and Redis Streams integration.
//
// The worker subscribes to Redis Streams for render work, renders node templates
// against the stored graph state, and publishes the output back to the orchestrator.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{...})
//	engine := template.NewEngine(cfg.TemplateOptions()...)
//	service := render.NewService(engine, llmClient, logger)
//	partials := worker.NewPartialStore(redisClient, cfg.PartialsKey, engine, logger)
//
//	worker := worker.NewWorker(cfg, redisClient, service, partials, stateStore, logger)
//	if err := worker.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer worker.Stop()
//
// The worker handles:
//   - Redis Streams subscription and consumer group management
//   - Shared partials loaded from a Redis hash
//   - Render result publishing
//   - Error handling and reporting
//   - Graceful shutdown
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, partials, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
