package render

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aescanero/dago-libs/pkg/domain"
	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *domain.GraphState {
	return &domain.GraphState{
		GraphID: "g-1",
		Status:  "running",
		Inputs: map[string]interface{}{
			"name":     "Ada",
			"priority": "high",
			"score":    0.92,
			"items":    []interface{}{"a", "b"},
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func TestRenderTemplate(t *testing.T) {
	s := NewService(template.NewEngine(), nil, nil)

	res, err := s.Render(context.Background(), newTestState(), &NodeConfig{
		Template: "{{state.graph_id}}: Hello {{name}} ({{state.inputs.priority | upper}}){{#each items}} {{.}}{{/each}}",
	})
	require.NoError(t, err)
	assert.Equal(t, "g-1: Hello Ada (HIGH) a b", res.Output)
	assert.Equal(t, string(ModeTemplate), res.Mode)
	assert.Equal(t, "template", res.Template)
}

func TestRenderDataOverlay(t *testing.T) {
	s := NewService(template.NewEngine(), nil, nil)
	state := newTestState()

	res, err := s.Render(context.Background(), state, &NodeConfig{
		Template: "{{name}} {{extra.note}}",
		Data:     json.RawMessage(`{"name": "Grace", "extra": {"note": "<b>"}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Grace &lt;b&gt;", res.Output)

	_, err = s.Render(context.Background(), state, &NodeConfig{
		Template: "x",
		Data:     json.RawMessage(`[1, 2]`),
	})
	assert.Error(t, err)

	res, err = s.Render(context.Background(), state, &NodeConfig{
		Template: "{{name}}",
		Data:     json.RawMessage(`null`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.Output)
}

func TestRenderConditional(t *testing.T) {
	s := NewService(template.NewEngine(), nil, nil)

	tests := []struct {
		name     string
		variants []Variant
		want     string
		template string
	}{
		{
			name: "first match wins",
			variants: []Variant{
				{Condition: "state.inputs.priority == 'low'", Template: "low"},
				{Condition: "state.inputs.score > 0.9", Template: "top {{name}}"},
				{Condition: "true", Template: "always"},
			},
			want:     "top Ada",
			template: "variant:1",
		},
		{
			name: "errors and non boolean results are skipped",
			variants: []Variant{
				{Condition: "state.inputs.missing == 'x'", Template: "error"},
				{Condition: "state.inputs.name", Template: "string"},
				{Condition: "state.status == 'running'", Template: "running"},
			},
			want:     "running",
			template: "variant:2",
		},
		{
			name: "fallback",
			variants: []Variant{
				{Condition: "state.inputs.score < 0.5", Template: "low"},
			},
			want:     "fallback for Ada",
			template: "fallback",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.Render(context.Background(), newTestState(), &NodeConfig{
				Variants: tt.variants,
				Fallback: "fallback for {{name}}",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Output)
			assert.Equal(t, tt.template, res.Template)
			assert.Equal(t, string(ModeConditional), res.Mode)
		})
	}
}

func TestRenderPrompt(t *testing.T) {
	s := NewService(template.NewEngine(), nil, nil, WithModel("test-model"))

	_, err := s.Render(context.Background(), newTestState(), &NodeConfig{
		Mode:     ModePrompt,
		Template: "Summarize {{name}}",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm client not configured")

	var got *domain.LLMRequest
	s.complete = func(_ context.Context, req *domain.LLMRequest) (string, error) {
		got = req
		return "Ada is a mathematician.", nil
	}

	res, err := s.Render(context.Background(), newTestState(), &NodeConfig{
		Template:  "Summarize {{name}}",
		LLMConfig: &LLMConfig{System: "Be brief.", MaxTokens: 64},
	})
	require.NoError(t, err)
	assert.Equal(t, string(ModePrompt), res.Mode)
	assert.Equal(t, "Summarize Ada", res.Output)
	assert.Equal(t, "Ada is a mathematician.", res.Completion)

	require.NotNil(t, got)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "Summarize Ada", got.Messages[1].Content)

	s.complete = func(context.Context, *domain.LLMRequest) (string, error) {
		return "", errors.New("rate limited")
	}
	_, err = s.Render(context.Background(), newTestState(), &NodeConfig{
		Mode:     ModePrompt,
		Template: "x",
	})
	assert.ErrorContains(t, err, "rate limited")
}

func TestRenderPerNodePartialsAndOptions(t *testing.T) {
	base := template.NewEngine(template.WithCache(10))
	base.RegisterPartial("sig", "-- base")
	s := NewService(base, nil, nil)

	res, err := s.Render(context.Background(), newTestState(), &NodeConfig{
		Template: "{{> greet}} {{> sig}}",
		Partials: map[string]string{"greet": "Hi {{name}}", "sig": "-- node"},
		Options:  &Options{EscapeHTML: boolPtr(false)},
		Data:     json.RawMessage(`{"name": "<Ada>"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi <Ada> -- node", res.Output)

	_, ok := base.Partials().Lookup("greet")
	assert.False(t, ok, "node partials must not leak into the base engine")
	sig, _ := base.Partials().Lookup("sig")
	assert.Equal(t, "-- base", sig)
	assert.True(t, base.Options().EscapeHTML)

	_, err = s.Render(context.Background(), newTestState(), &NodeConfig{
		Template: "{{name | shout}}",
		Options:  &Options{Strict: boolPtr(true)},
	})
	assert.True(t, errors.Is(err, template.ErrUnknownHelper))

	_, err = s.Render(context.Background(), newTestState(), &NodeConfig{
		Template: "{{nope}}",
		Options:  &Options{StrictVariables: boolPtr(true)},
	})
	assert.True(t, errors.Is(err, template.ErrUnknownVariable))
}

func TestRenderUsesBaseCache(t *testing.T) {
	base := template.NewEngine(template.WithCache(10))
	s := NewService(base, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := s.Render(context.Background(), newTestState(), &NodeConfig{Template: "{{name}}"})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, base.CacheLen())
}

func TestCELHelperRegistered(t *testing.T) {
	s := NewService(template.NewEngine(), nil, nil)

	res, err := s.Render(context.Background(), newTestState(), &NodeConfig{
		Template: "{{#if score | cel:'value > 0.9'}}vip{{else}}regular{{/if}}",
	})
	require.NoError(t, err)
	assert.Equal(t, "vip", res.Output)
}

func TestDetectMode(t *testing.T) {
	s := NewService(template.NewEngine(), nil, nil)

	assert.Equal(t, ModeConditional, s.detectMode(&NodeConfig{Variants: []Variant{{Condition: "true"}}}))
	assert.Equal(t, ModePrompt, s.detectMode(&NodeConfig{Template: "x", LLMConfig: &LLMConfig{}}))
	assert.Equal(t, ModeTemplate, s.detectMode(&NodeConfig{Template: "x"}))
}

func TestValidateConfig(t *testing.T) {
	s := NewService(template.NewEngine(), nil, nil)
	state := newTestState()

	for name, config := range map[string]*NodeConfig{
		"nil config":             nil,
		"template without text":  {Mode: ModeTemplate},
		"prompt without text":    {Mode: ModePrompt},
		"conditional no variant": {Mode: ModeConditional},
		"variant no condition":   {Variants: []Variant{{Template: "x"}}},
		"unknown mode":           {Mode: "stream", Template: "x"},
		"empty partial name":     {Template: "x", Partials: map[string]string{"": "y"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Render(context.Background(), state, config)
			assert.ErrorContains(t, err, "invalid config")
		})
	}

	_, err := s.Render(context.Background(), nil, &NodeConfig{Template: "x"})
	assert.Error(t, err)
}
