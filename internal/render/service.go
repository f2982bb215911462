package render

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-libs/pkg/ports"
	"github.com/aescanero/dago-node-render/internal/eval/cel"
	"github.com/aescanero/dago-node-render/internal/eval/template"
	"go.uber.org/zap"
)

// Mode represents how a node produces its output
type Mode string

const (
	// ModeTemplate renders a single template
	ModeTemplate Mode = "template"

	// ModeConditional picks the template of the first variant whose CEL
	// condition holds
	ModeConditional Mode = "conditional"

	// ModePrompt renders a template and sends it to the LLM
	ModePrompt Mode = "prompt"
)

const (
	// DefaultModel is used for prompt mode when no model is configured
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxTokens bounds prompt completions when no limit is configured
	DefaultMaxTokens = 1024
)

// NodeConfig represents the render configuration for a node
type NodeConfig struct {
	Mode      Mode              `json:"mode"`
	Template  string            `json:"template,omitempty"`
	Variants  []Variant         `json:"variants,omitempty"`
	Fallback  string            `json:"fallback,omitempty"`
	Partials  map[string]string `json:"partials,omitempty"`
	Data      json.RawMessage   `json:"data,omitempty"`
	Options   *Options          `json:"options,omitempty"`
	LLMConfig *LLMConfig        `json:"llm_config,omitempty"`
}

// Variant is a template guarded by a CEL condition
type Variant struct {
	Condition string `json:"condition"`
	Template  string `json:"template"`
}

// Options overrides engine options for a single render. Unset fields keep
// the worker defaults.
type Options struct {
	Strict          *bool `json:"strict,omitempty"`
	StrictVariables *bool `json:"strict_variables,omitempty"`
	EscapeHTML      *bool `json:"escape_html,omitempty"`
}

// LLMConfig tunes the completion request in prompt mode
type LLMConfig struct {
	Model     string `json:"model,omitempty"`
	System    string `json:"system,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// Result represents the outcome of a render
type Result struct {
	Output     string `json:"output"`
	Completion string `json:"completion,omitempty"`
	Mode       string `json:"mode"`
	Template   string `json:"template"` // "template", "variant:<n>", "fallback"
}

// Service renders node templates against graph state
type Service struct {
	engine       *template.Engine
	celEvaluator *cel.Evaluator
	llmClient    ports.LLMClient
	complete     func(ctx context.Context, req *domain.LLMRequest) (string, error)
	model        string
	maxTokens    int
	logger       *zap.Logger
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithModel sets the default LLM model for prompt mode
func WithModel(model string) ServiceOption {
	return func(s *Service) {
		if model != "" {
			s.model = model
		}
	}
}

// WithMaxTokens sets the default completion limit for prompt mode
func WithMaxTokens(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewService creates a render service on top of a base engine. The cel
// helper is registered on the engine. llmClient may be nil, in which case
// prompt mode is unavailable.
func NewService(engine *template.Engine, llmClient ports.LLMClient, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		engine:       engine,
		celEvaluator: cel.NewEvaluator(),
		llmClient:    llmClient,
		model:        DefaultModel,
		maxTokens:    DefaultMaxTokens,
		logger:       logger,
	}
	if llmClient != nil {
		s.complete = s.callLLM
	}
	for _, opt := range opts {
		opt(s)
	}

	engine.RegisterHelper("cel", s.celEvaluator.Helper())
	return s
}

// Engine returns the base engine
func (s *Service) Engine() *template.Engine { return s.engine }

// Render renders a node according to its configuration
func (s *Service) Render(ctx context.Context, state *domain.GraphState, config *NodeConfig) (*Result, error) {
	if state == nil {
		return nil, fmt.Errorf("state is nil")
	}
	if config == nil {
		return nil, fmt.Errorf("invalid config: config is nil")
	}

	// Detect mode if not specified
	if config.Mode == "" {
		config.Mode = s.detectMode(config)
	}

	s.logger.Info("render request",
		zap.String("graph_id", state.GraphID),
		zap.String("mode", string(config.Mode)),
	)

	if err := s.validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	data, err := buildData(state, config.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}

	engine := s.engineFor(config)

	var result *Result
	switch config.Mode {
	case ModeTemplate:
		result, err = s.renderTemplate(engine, config, data)
	case ModeConditional:
		result, err = s.renderConditional(ctx, engine, state, config, data)
	case ModePrompt:
		result, err = s.renderPrompt(ctx, engine, config, data)
	}

	if err != nil {
		s.logger.Error("render failed",
			zap.String("graph_id", state.GraphID),
			zap.String("mode", string(config.Mode)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("render completed",
		zap.String("graph_id", state.GraphID),
		zap.String("mode", result.Mode),
		zap.String("template", result.Template),
		zap.Int("output_length", len(result.Output)),
	)

	return result, nil
}

// renderTemplate renders the single configured template
func (s *Service) renderTemplate(engine *template.Engine, config *NodeConfig, data *template.Map) (*Result, error) {
	out, err := engine.Compile(config.Template).Render(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render template: %w", err)
	}
	return &Result{
		Output:   out,
		Mode:     string(ModeTemplate),
		Template: "template",
	}, nil
}

// engineFor returns the engine a node renders with. Nodes carrying their
// own partials or options get a clone so the base engine stays untouched.
func (s *Service) engineFor(config *NodeConfig) *template.Engine {
	if len(config.Partials) == 0 && config.Options == nil {
		return s.engine
	}

	engine := s.engine.Clone()
	engine.SetOptions(template.WithoutCache())
	for name, text := range config.Partials {
		engine.RegisterPartial(name, text)
	}
	if o := config.Options; o != nil {
		if o.Strict != nil {
			engine.SetOptions(template.WithStrict(*o.Strict))
		}
		if o.StrictVariables != nil {
			engine.SetOptions(template.WithStrictVariables(*o.StrictVariables))
		}
		if o.EscapeHTML != nil {
			engine.SetOptions(template.WithEscapeHTML(*o.EscapeHTML))
		}
	}
	return engine
}

// detectMode detects the render mode from configuration
func (s *Service) detectMode(config *NodeConfig) Mode {
	// Conditional mode: has variants
	if len(config.Variants) > 0 {
		return ModeConditional
	}

	// Prompt mode: has llm_config
	if config.LLMConfig != nil {
		return ModePrompt
	}

	return ModeTemplate
}

// validateConfig validates the render configuration
func (s *Service) validateConfig(config *NodeConfig) error {
	switch config.Mode {
	case ModeTemplate:
		if config.Template == "" {
			return fmt.Errorf("template mode requires template")
		}

	case ModeConditional:
		if len(config.Variants) == 0 {
			return fmt.Errorf("conditional mode requires variants")
		}
		for i, variant := range config.Variants {
			if variant.Condition == "" {
				return fmt.Errorf("variant %d: condition is required", i)
			}
		}

	case ModePrompt:
		if config.Template == "" {
			return fmt.Errorf("prompt mode requires template")
		}

	default:
		return fmt.Errorf("unknown render mode: %s", config.Mode)
	}

	for name := range config.Partials {
		if name == "" {
			return fmt.Errorf("partial name is required")
		}
	}

	return nil
}
