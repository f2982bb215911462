package render

import (
	"encoding/json"
	"fmt"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-node-render/internal/eval/template"
)

// buildData assembles the render context: the graph state under "state",
// the inputs flattened to the top level and the node's own data on top
func buildData(state *domain.GraphState, overlay json.RawMessage) (*template.Map, error) {
	data := template.NewMap()
	data.Set("state", template.ValueOf(stateFields(state)))

	// Flatten inputs for easier access
	if inputs, ok := template.ValueOf(state.Inputs).Map(); ok {
		inputs.Range(func(key string, v template.Value) bool {
			data.Set(key, v)
			return true
		})
	}

	if len(overlay) == 0 || string(overlay) == "null" {
		return data, nil
	}

	v := template.FromJSON(overlay)
	extra, ok := v.Map()
	if !ok {
		return nil, fmt.Errorf("data must be a JSON object")
	}
	return data.Overlay(extra), nil
}

// stateFields converts GraphState to the map shared by templates and CEL
func stateFields(state *domain.GraphState) map[string]interface{} {
	return map[string]interface{}{
		"graph_id": state.GraphID,
		"status":   string(state.Status),
		"inputs":   state.Inputs,
		"nodes":    convertNodeStates(state.NodeStates),
	}
}

// convertNodeStates converts node states to a plain map
func convertNodeStates(nodeStates map[string]*domain.NodeState) map[string]interface{} {
	result := make(map[string]interface{}, len(nodeStates))
	for nodeID, nodeState := range nodeStates {
		if nodeState == nil {
			continue
		}
		result[nodeID] = map[string]interface{}{
			"status":       string(nodeState.Status),
			"output":       nodeState.Output,
			"error":        nodeState.Error,
			"started_at":   nodeState.StartedAt,
			"completed_at": nodeState.CompletedAt,
		}
	}
	return result
}
