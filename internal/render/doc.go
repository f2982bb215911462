// Package render produces node output by rendering templates against graph state.
//
// The service supports three modes:
//   - Template: Renders a single template
//   - Conditional: Picks the first variant whose CEL condition holds, else the fallback
//   - Prompt: Renders a template and sends the result to an LLM
//
// Templates see the graph state under `state` (graph_id, status, inputs, nodes),
// the inputs flattened to the top level, and the node's `data` object on top.
//
// Example template rendering:
//
//	config := &NodeConfig{
//	    Template: "Hello {{name}}, you have {{items | length}} items",
//	}
//	result, err := service.Render(ctx, state, config)
//
// Example conditional rendering:
//
//	config := &NodeConfig{
//	    Mode: ModeConditional,
//	    Variants: []Variant{
//	        {Condition: "state.inputs.priority == 'high'", Template: "URGENT: {{subject}}"},
//	        {Condition: "state.inputs.score > 0.8", Template: "{{subject}} (premium)"},
//	    },
//	    Fallback: "{{subject}}",
//	}
//	result, err := service.Render(ctx, state, config)
//
// Example prompt rendering:
//
//	config := &NodeConfig{
//	    Mode:     ModePrompt,
//	    Template: "Summarize:\n{{#each messages}}- {{this}}\n{{/each}}",
//	    Partials: map[string]string{"footer": "Answer in one line."},
//	    LLMConfig: &LLMConfig{MaxTokens: 256},
//	}
//	result, err := service.Render(ctx, state, config)
//
// Nodes carrying partials or options render on a clone of the base engine.
package render
