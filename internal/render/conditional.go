package render

import (
	"context"
	"fmt"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-node-render/internal/eval/template"
	"go.uber.org/zap"
)

// renderConditional renders the first variant whose condition holds, or
// the fallback template when none does
func (s *Service) renderConditional(ctx context.Context, engine *template.Engine, state *domain.GraphState, config *NodeConfig, data *template.Map) (*Result, error) {
	celState := prepareStateForCEL(state)

	for i, variant := range config.Variants {
		s.logger.Debug("evaluating variant",
			zap.Int("variant_index", i),
			zap.String("condition", variant.Condition),
		)

		matched, err := s.celEvaluator.EvaluateBool(ctx, variant.Condition, celState)
		if err != nil {
			s.logger.Warn("variant evaluation error",
				zap.Int("variant_index", i),
				zap.String("condition", variant.Condition),
				zap.Error(err),
			)
			// Continue to next variant on error
			continue
		}

		if matched {
			s.logger.Debug("variant matched",
				zap.Int("variant_index", i),
				zap.String("condition", variant.Condition),
			)

			out, err := engine.Compile(variant.Template).Render(data)
			if err != nil {
				return nil, fmt.Errorf("failed to render variant %d: %w", i, err)
			}
			return &Result{
				Output:   out,
				Mode:     string(ModeConditional),
				Template: fmt.Sprintf("variant:%d", i),
			}, nil
		}
	}

	s.logger.Debug("no variant matched, using fallback")

	out, err := engine.Compile(config.Fallback).Render(data)
	if err != nil {
		return nil, fmt.Errorf("failed to render fallback: %w", err)
	}
	return &Result{
		Output:   out,
		Mode:     string(ModeConditional),
		Template: "fallback",
	}, nil
}

// prepareStateForCEL exposes the graph state to conditions as `state`
func prepareStateForCEL(state *domain.GraphState) map[string]interface{} {
	return map[string]interface{}{
		"state": stateFields(state),
	}
}
