package cel

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"github.com/google/cel-go/common/types"
)

// Evaluator evaluates CEL expressions
type Evaluator struct {
	env   *cel.Env
	cache map[string]cel.Program
	mu    sync.RWMutex
}

// NewEvaluator creates a new CEL evaluator
func NewEvaluator() *Evaluator {
	// state carries graph data for variant selection, value is the piped
	// template value when used as a filter
	env, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("state", decls.NewMapType(decls.String, decls.Dyn)),
			decls.NewVar("value", decls.Dyn),
		),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to create CEL environment: %v", err))
	}

	return &Evaluator{
		env:   env,
		cache: make(map[string]cel.Program),
	}
}

// Evaluate evaluates a CEL expression with the given variables
func (e *Evaluator) Evaluate(ctx context.Context, expression string, vars map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}

	out, _, err := program.ContextEval(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}
	if types.IsError(out) {
		return nil, fmt.Errorf("evaluation failed: %v", out)
	}

	return out.Value(), nil
}

// EvaluateBool evaluates an expression that must produce a boolean
func (e *Evaluator) EvaluateBool(ctx context.Context, expression string, vars map[string]interface{}) (bool, error) {
	result, err := e.Evaluate(ctx, expression, vars)
	if err != nil {
		return false, err
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return boolean: %T", result)
	}
	return matched, nil
}

// Helper returns a template filter evaluating its first argument against
// the piped value, bound as `value`:
//
//	{{score | cel:'value > 0.8'}}
//
// A true result renders as "true" and a false one as "", so the filter also
// works inside {{#if}}. Errors yield an undefined value.
func (e *Evaluator) Helper() template.HelperFunc {
	return func(v template.Value, args ...template.Value) template.Value {
		if len(args) == 0 {
			return template.Undefined
		}
		result, err := e.Evaluate(context.Background(), args[0].String(), map[string]interface{}{
			"value": v.Interface(),
		})
		if err != nil {
			return template.Undefined
		}
		switch r := result.(type) {
		case bool:
			if r {
				return template.String("true")
			}
			return template.String("")
		case int64:
			return template.Number(float64(r))
		case uint64:
			return template.Number(float64(r))
		case float64:
			return template.Number(r)
		case string:
			return template.String(r)
		}
		return template.ValueOf(result)
	}
}

// getProgram gets a compiled program from cache or compiles it
func (e *Evaluator) getProgram(expression string) (cel.Program, error) {
	e.mu.RLock()
	if program, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if program, ok := e.cache[expression]; ok {
		return program, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	e.cache[expression] = program

	return program, nil
}

// ValidateExpression validates a CEL expression without evaluating it
func (e *Evaluator) ValidateExpression(expression string) error {
	_, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return issues.Err()
	}
	return nil
}

// CacheLen returns the number of compiled programs
func (e *Evaluator) CacheLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// ClearCache clears the compiled program cache
func (e *Evaluator) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]cel.Program)
}
