package render

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-node-render/internal/eval/template"
	"go.uber.org/zap"
)

// renderPrompt renders the template and sends it to the LLM
func (s *Service) renderPrompt(ctx context.Context, engine *template.Engine, config *NodeConfig, data *template.Map) (*Result, error) {
	if s.complete == nil {
		return nil, fmt.Errorf("llm client not configured")
	}

	prompt, err := engine.Compile(config.Template).Render(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %w", err)
	}

	req := s.buildRequest(prompt, config.LLMConfig)

	s.logger.Debug("calling llm",
		zap.String("model", req.Model),
		zap.Int("prompt_length", len(prompt)),
	)

	completion, err := s.complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("llm call failed: %w", err)
	}

	s.logger.Debug("llm response received",
		zap.Int("completion_length", len(completion)),
	)

	return &Result{
		Output:     prompt,
		Completion: completion,
		Mode:       string(ModePrompt),
		Template:   "template",
	}, nil
}

// buildRequest builds the completion request, filling unset fields from
// the service defaults
func (s *Service) buildRequest(prompt string, llm *LLMConfig) *domain.LLMRequest {
	req := &domain.LLMRequest{
		Model:     s.model,
		MaxTokens: s.maxTokens,
	}
	if llm != nil {
		if llm.Model != "" {
			req.Model = llm.Model
		}
		if llm.MaxTokens > 0 {
			req.MaxTokens = llm.MaxTokens
		}
		if llm.System != "" {
			req.Messages = append(req.Messages, domain.Message{
				Role:    "system",
				Content: llm.System,
			})
		}
	}
	req.Messages = append(req.Messages, domain.Message{
		Role:    "user",
		Content: prompt,
	})
	return req
}

// callLLM sends the request through the configured LLM client
func (s *Service) callLLM(ctx context.Context, req *domain.LLMRequest) (string, error) {
	respInterface, err := s.llmClient.GenerateCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm completion failed: %w", err)
	}

	resp, ok := respInterface.(*domain.LLMResponse)
	if !ok {
		return "", fmt.Errorf("unexpected response type from LLM")
	}

	return resp.Content, nil
}
