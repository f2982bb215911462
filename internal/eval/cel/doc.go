// Package cel provides a CEL (Common Expression Language) evaluator for
// template selection and value tests inside templates.
//
// CEL is a non-Turing complete expression language that provides fast, safe evaluation
// of conditions. Two variables are declared: `state` holds the graph state for
// conditional rendering and `value` holds the piped value when the evaluator
// is registered as a template filter.
//
// Example usage:
//
//	evaluator := cel.NewEvaluator()
//
//	vars := map[string]interface{}{
//	    "state": map[string]interface{}{
//	        "inputs": map[string]interface{}{"priority": "high"},
//	    },
//	}
//
//	matched, err := evaluator.EvaluateBool(ctx, "state.inputs.priority == 'high'", vars)
//
//	engine.RegisterHelper("cel", evaluator.Helper())
//	out, _ := engine.Render("{{#if score | cel:'value > 0.8'}}top{{/if}}", data)
//
// Supported operations:
//   - Comparisons: ==, !=, <, <=, >, >=
//   - Boolean logic: &&, ||, !
//   - String operations: contains, startsWith, endsWith, matches
//   - Arithmetic: +, -, *, /, %
//   - List operations: in, size
//   - Map access: state.field, state["field"], has(state.field)
package cel
