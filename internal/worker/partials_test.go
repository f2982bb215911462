package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeHashStore struct {
	hashes map[string]map[string]string
	err    error
}

func (f *fakeHashStore) HGetAll(_ context.Context, key string) *redis.MapStringStringCmd {
	if f.err != nil {
		return redis.NewMapStringStringResult(nil, f.err)
	}
	return redis.NewMapStringStringResult(f.hashes[key], nil)
}

func (f *fakeHashStore) HSet(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	for i := 0; i+1 < len(values); i += 2 {
		f.hashes[key][values[i].(string)] = values[i+1].(string)
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func TestPartialStoreRefresh(t *testing.T) {
	store := &fakeHashStore{hashes: map[string]map[string]string{
		"render:partials": {"header": "== {{title}} ==", "footer": "bye"},
	}}
	engine := template.NewEngine()
	ps := NewPartialStore(store, "render:partials", engine, zap.NewNop())

	n, err := ps.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, ps.Count())

	out, err := engine.Render("{{> header}} {{> footer}}", map[string]interface{}{"title": "Report"})
	require.NoError(t, err)
	assert.Equal(t, "== Report == bye", out)
}

func TestPartialStorePut(t *testing.T) {
	store := &fakeHashStore{hashes: map[string]map[string]string{}}
	engine := template.NewEngine()
	ps := NewPartialStore(store, "p", engine, zap.NewNop())

	require.NoError(t, ps.Put(context.Background(), "sig", "-- {{name}}"))
	assert.Equal(t, "-- {{name}}", store.hashes["p"]["sig"])

	text, ok := engine.Partials().Lookup("sig")
	require.True(t, ok)
	assert.Equal(t, "-- {{name}}", text)

	assert.Error(t, ps.Put(context.Background(), "", "x"))
}

func TestPartialStoreErrors(t *testing.T) {
	store := &fakeHashStore{err: errors.New("connection refused")}
	ps := NewPartialStore(store, "p", template.NewEngine(), zap.NewNop())

	_, err := ps.Refresh(context.Background())
	assert.ErrorContains(t, err, "connection refused")
	assert.ErrorContains(t, ps.Put(context.Background(), "a", "b"), "connection refused")
	assert.Equal(t, 0, ps.Count())
}
