package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/domain/state"
	"github.com/aescanero/dago-node-render/internal/config"
	"github.com/aescanero/dago-node-render/internal/render"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StateLoader loads graph state by execution ID
type StateLoader interface {
	Load(ctx context.Context, executionID string) (state.State, error)
}

// Worker represents the render worker
type Worker struct {
	id            string
	config        *config.Config
	redisClient   *redis.Client
	service       *render.Service
	partials      *PartialStore
	stateStore    StateLoader
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	streamKey     string
	consumerGroup string
	resultStream  string
}

// NewWorker creates a new worker. partials may be nil when no shared
// partials are configured.
func NewWorker(
	cfg *config.Config,
	redisClient *redis.Client,
	service *render.Service,
	partials *PartialStore,
	stateStore StateLoader,
	logger *zap.Logger,
) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	return &Worker{
		id:            cfg.WorkerID,
		config:        cfg,
		redisClient:   redisClient,
		service:       service,
		partials:      partials,
		stateStore:    stateStore,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
		streamKey:     cfg.StreamKey,
		consumerGroup: cfg.ConsumerGroup,
		resultStream:  cfg.ResultStream,
	}
}

// Start starts the worker
func (w *Worker) Start() error {
	w.logger.Info("starting render worker",
		zap.String("worker_id", w.id),
		zap.String("stream_key", w.streamKey),
		zap.String("consumer_group", w.consumerGroup),
	)

	if err := w.ensureConsumerGroup(); err != nil {
		return fmt.Errorf("failed to ensure consumer group: %w", err)
	}

	if w.partials != nil {
		count, err := w.partials.Refresh(w.ctx)
		if err != nil {
			return fmt.Errorf("failed to load shared partials: %w", err)
		}
		w.logger.Info("shared partials loaded", zap.Int("count", count))

		if w.config.PartialsRefresh > 0 {
			w.wg.Add(1)
			go w.refreshPartials(w.config.PartialsRefresh)
		}
	}

	w.wg.Add(1)
	go w.processWork()

	w.logger.Info("render worker started", zap.String("worker_id", w.id))
	return nil
}

// Stop stops the worker gracefully, waiting for in-flight work
func (w *Worker) Stop() error {
	w.logger.Info("stopping render worker", zap.String("worker_id", w.id))

	w.cancel()
	w.wg.Wait()

	w.logger.Info("render worker stopped", zap.String("worker_id", w.id))
	return nil
}

// ensureConsumerGroup creates the consumer group if it doesn't exist
func (w *Worker) ensureConsumerGroup() error {
	err := w.redisClient.XGroupCreateMkStream(w.ctx, w.streamKey, w.consumerGroup, "0").Err()
	if err != nil {
		// BUSYGROUP means the group already exists
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			w.logger.Debug("consumer group already exists",
				zap.String("group", w.consumerGroup),
			)
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.logger.Info("created consumer group",
		zap.String("group", w.consumerGroup),
		zap.String("stream", w.streamKey),
	)
	return nil
}

// refreshPartials reloads shared partials until the worker stops
func (w *Worker) refreshPartials(interval time.Duration) {
	defer w.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.partials.Refresh(w.ctx); err != nil {
				w.logger.Warn("failed to refresh shared partials", zap.Error(err))
			}
		}
	}
}

// processWork processes work from the Redis stream
func (w *Worker) processWork() {
	defer w.wg.Done()
	w.logger.Info("starting work processing loop")

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Info("work processing loop stopped")
			return
		default:
			streams, err := w.redisClient.XReadGroup(w.ctx, &redis.XReadGroupArgs{
				Group:    w.consumerGroup,
				Consumer: w.id,
				Streams:  []string{w.streamKey, ">"},
				Count:    1,
				Block:    w.config.BlockTime,
			}).Result()

			if err != nil {
				if err == redis.Nil || w.ctx.Err() != nil {
					continue
				}
				w.logger.Error("failed to read from stream",
					zap.Error(err),
				)
				time.Sleep(time.Second)
				continue
			}

			for _, stream := range streams {
				for _, message := range stream.Messages {
					w.handleMessage(message)
				}
			}
		}
	}
}

// handleMessage handles a single render request message
func (w *Worker) handleMessage(message redis.XMessage) {
	messageID := message.ID
	w.logger.Info("processing render request",
		zap.String("message_id", messageID),
	)

	workRequest, err := parseWorkRequest(message.Values)
	if err != nil {
		w.logger.Error("failed to parse work request",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		w.acknowledgeMessage(messageID)
		return
	}

	result, err := w.processRenderRequest(w.ctx, workRequest)
	if err == nil {
		err = w.publishResult(workRequest, result)
	}
	if err != nil {
		w.logger.Error("failed to process render request",
			zap.String("message_id", messageID),
			zap.String("execution_id", workRequest.ExecutionID),
			zap.Error(err),
		)
		w.publishError(workRequest, err)
	}

	w.acknowledgeMessage(messageID)
}

// WorkRequest represents a render work request
type WorkRequest struct {
	ExecutionID string          `json:"execution_id"`
	NodeID      string          `json:"node_id"`
	Config      json.RawMessage `json:"config"`
}

// parseWorkRequest parses a work request from a Redis message
func parseWorkRequest(values map[string]interface{}) (*WorkRequest, error) {
	dataStr, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var request WorkRequest
	if err := json.Unmarshal([]byte(dataStr), &request); err != nil {
		return nil, fmt.Errorf("failed to unmarshal work request: %w", err)
	}

	if request.ExecutionID == "" {
		return nil, fmt.Errorf("execution_id is required")
	}

	return &request, nil
}

// processRenderRequest loads the graph state and renders the node
func (w *Worker) processRenderRequest(ctx context.Context, request *WorkRequest) (*render.Result, error) {
	stateData, err := w.stateStore.Load(ctx, request.ExecutionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	graphState, err := convertToGraphState(request.ExecutionID, stateData)
	if err != nil {
		return nil, fmt.Errorf("failed to convert state: %w", err)
	}

	nodeConfig, err := parseNodeConfig(request.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse node config: %w", err)
	}

	result, err := w.service.Render(ctx, graphState, nodeConfig)
	if err != nil {
		return nil, fmt.Errorf("render failed: %w", err)
	}

	return result, nil
}

// parseNodeConfig parses the node configuration into render.NodeConfig.
// The raw bytes are decoded directly so the data object keeps its key order.
func parseNodeConfig(config json.RawMessage) (*render.NodeConfig, error) {
	if len(config) == 0 {
		return nil, fmt.Errorf("config is required")
	}

	var nodeConfig render.NodeConfig
	if err := json.Unmarshal(config, &nodeConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &nodeConfig, nil
}

// resultEvent builds the payload published for a completed render
func resultEvent(request *WorkRequest, result *render.Result, renderID string, now time.Time) map[string]interface{} {
	event := map[string]interface{}{
		"render_id":    renderID,
		"execution_id": request.ExecutionID,
		"node_id":      request.NodeID,
		"output":       result.Output,
		"mode":         result.Mode,
		"template":     result.Template,
		"timestamp":    now.UTC(),
	}
	if result.Completion != "" {
		event["completion"] = result.Completion
	}
	return event
}

// publishResult publishes the render result
func (w *Worker) publishResult(request *WorkRequest, result *render.Result) error {
	renderID := uuid.NewString()

	if err := w.publish(w.resultStream, resultEvent(request, result, renderID, time.Now())); err != nil {
		return err
	}

	w.logger.Info("published render result",
		zap.String("render_id", renderID),
		zap.String("execution_id", request.ExecutionID),
		zap.String("node_id", request.NodeID),
		zap.String("template", result.Template),
	)

	return nil
}

// publishError publishes an error event
func (w *Worker) publishError(request *WorkRequest, err error) {
	errorEvent := map[string]interface{}{
		"execution_id": request.ExecutionID,
		"node_id":      request.NodeID,
		"error":        err.Error(),
		"timestamp":    time.Now().UTC(),
	}

	// Errors go to a separate stream
	if publishErr := w.publish(w.resultStream+".errors", errorEvent); publishErr != nil {
		w.logger.Error("failed to publish error event", zap.Error(publishErr))
	}
}

// publish adds an event to a stream, retrying up to MaxRetries times
func (w *Worker) publish(stream string, event map[string]interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err = w.redisClient.XAdd(w.ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{
				"data": string(data),
			},
		}).Err()
		if err == nil || attempt >= w.config.MaxRetries || w.ctx.Err() != nil {
			break
		}
		w.logger.Warn("publish failed, retrying",
			zap.String("stream", stream),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
	if err != nil {
		return fmt.Errorf("failed to publish to stream: %w", err)
	}
	return nil
}

// acknowledgeMessage acknowledges a message from the stream
func (w *Worker) acknowledgeMessage(messageID string) {
	err := w.redisClient.XAck(w.ctx, w.streamKey, w.consumerGroup, messageID).Err()
	if err != nil {
		w.logger.Error("failed to acknowledge message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
}

// convertToGraphState converts state.State to domain.GraphState
func convertToGraphState(graphID string, stateData map[string]interface{}) (*domain.GraphState, error) {
	data, err := json.Marshal(stateData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state: %w", err)
	}

	var graphState domain.GraphState
	if err := json.Unmarshal(data, &graphState); err != nil {
		return nil, fmt.Errorf("failed to unmarshal to GraphState: %w", err)
	}

	// Ensure GraphID is set
	if graphState.GraphID == "" {
		graphState.GraphID = graphID
	}

	return &graphState, nil
}
