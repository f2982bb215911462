package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aescanero/dago-libs/pkg/domain/state"
	"github.com/aescanero/dago-node-render/internal/config"
	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/aescanero/dago-node-render/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStateStore struct {
	states map[string]state.State
}

func (f *fakeStateStore) Load(_ context.Context, executionID string) (state.State, error) {
	st, ok := f.states[executionID]
	if !ok {
		return nil, errors.New("state not found")
	}
	return st, nil
}

func newTestWorker(t *testing.T, store StateLoader) *Worker {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)

	service := render.NewService(template.NewEngine(), nil, zap.NewNop())
	w := NewWorker(cfg, nil, service, nil, store, zap.NewNop())
	t.Cleanup(w.cancel)
	return w
}

func TestParseWorkRequest(t *testing.T) {
	req, err := parseWorkRequest(map[string]interface{}{
		"data": `{"execution_id": "exec-1", "node_id": "greet", "config": {"template": "hi"}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, "exec-1", req.ExecutionID)
	assert.Equal(t, "greet", req.NodeID)
	assert.JSONEq(t, `{"template": "hi"}`, string(req.Config))

	for name, values := range map[string]map[string]interface{}{
		"missing data":         {},
		"data not a string":    {"data": 42},
		"invalid json":         {"data": "{"},
		"missing execution id": {"data": `{"node_id": "x"}`},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseWorkRequest(values)
			assert.Error(t, err)
		})
	}
}

func TestParseNodeConfig(t *testing.T) {
	cfg, err := parseNodeConfig(json.RawMessage(`{
		"mode": "conditional",
		"variants": [{"condition": "true", "template": "yes"}],
		"fallback": "no",
		"partials": {"sig": "--"},
		"data": {"greeting": "hi"},
		"options": {"strict": true}
	}`))
	require.NoError(t, err)

	assert.Equal(t, render.ModeConditional, cfg.Mode)
	require.Len(t, cfg.Variants, 1)
	assert.Equal(t, "yes", cfg.Variants[0].Template)
	assert.Equal(t, "--", cfg.Partials["sig"])
	assert.JSONEq(t, `{"greeting": "hi"}`, string(cfg.Data))
	require.NotNil(t, cfg.Options)
	require.NotNil(t, cfg.Options.Strict)
	assert.True(t, *cfg.Options.Strict)
	assert.Nil(t, cfg.Options.EscapeHTML)

	_, err = parseNodeConfig(json.RawMessage(`{"variants": "nope"}`))
	assert.Error(t, err)

	_, err = parseNodeConfig(nil)
	assert.Error(t, err)
}

func TestParseNodeConfigKeepsDataOrder(t *testing.T) {
	req, err := parseWorkRequest(map[string]interface{}{
		"data": `{"execution_id": "exec-1", "config": {"template": "{{obj | json}} {{{obj}}}", "data": {"obj": {"zeta": 1, "alpha": 2}}}}`,
	})
	require.NoError(t, err)

	cfg, err := parseNodeConfig(req.Config)
	require.NoError(t, err)

	obj, ok := template.FromJSON(cfg.Data).Map()
	require.True(t, ok)
	inner, _ := obj.Get("obj")
	m, ok := inner.Map()
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha"}, m.Keys())

	store := &fakeStateStore{states: map[string]state.State{"exec-1": {}}}
	result, err := newTestWorker(t, store).processRenderRequest(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":2} {"zeta":1,"alpha":2}`, result.Output)
}

func TestProcessRenderRequest(t *testing.T) {
	store := &fakeStateStore{states: map[string]state.State{"exec-1": {}}}
	w := newTestWorker(t, store)

	result, err := w.processRenderRequest(context.Background(), &WorkRequest{
		ExecutionID: "exec-1",
		NodeID:      "greet",
		Config:      json.RawMessage(`{"template": "{{state.graph_id}}:{{greeting | upper}}", "data": {"greeting": "hi"}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "exec-1:HI", result.Output)

	_, err = w.processRenderRequest(context.Background(), &WorkRequest{ExecutionID: "missing"})
	assert.ErrorContains(t, err, "failed to load state")

	_, err = w.processRenderRequest(context.Background(), &WorkRequest{
		ExecutionID: "exec-1",
		Config:      json.RawMessage(`{"mode": "template"}`),
	})
	assert.ErrorContains(t, err, "render failed")
}

func TestResultEvent(t *testing.T) {
	now := time.Date(2024, 1, 5, 13, 45, 9, 0, time.FixedZone("CET", 3600))
	req := &WorkRequest{ExecutionID: "exec-1", NodeID: "greet"}

	event := resultEvent(req, &render.Result{
		Output:   "Hello",
		Mode:     "template",
		Template: "template",
	}, "r-1", now)

	assert.Equal(t, "r-1", event["render_id"])
	assert.Equal(t, "exec-1", event["execution_id"])
	assert.Equal(t, "greet", event["node_id"])
	assert.Equal(t, "Hello", event["output"])
	assert.Equal(t, now.UTC(), event["timestamp"])
	assert.NotContains(t, event, "completion")

	event = resultEvent(req, &render.Result{Output: "p", Completion: "c", Mode: "prompt"}, "r-2", now)
	assert.Equal(t, "c", event["completion"])
}

func TestConvertToGraphStateDefaultsID(t *testing.T) {
	gs, err := convertToGraphState("exec-1", map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "exec-1", gs.GraphID)
}
