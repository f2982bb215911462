package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aescanero/dago-node-render/internal/eval/template"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) *redis.StatusCmd {
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	return redis.NewStatusResult("PONG", nil)
}

func getHealth(t *testing.T, hs *HealthServer, path string) (int, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	hs.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return rec.Code, resp
}

func TestHealthy(t *testing.T) {
	engine := template.NewEngine()
	engine.RegisterPartial("a", "x")
	partials := NewPartialStore(&fakeHashStore{}, "p", engine, zap.NewNop())
	hs := NewHealthServer(0, fakePinger{}, partials, zap.NewNop())

	code, resp := getHealth(t, hs, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["redis"])
	assert.Equal(t, "1", resp.Checks["partials"])

	code, resp = getHealth(t, hs, "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", resp.Status)
}

func TestUnhealthy(t *testing.T) {
	hs := NewHealthServer(0, fakePinger{err: errors.New("down")}, nil, zap.NewNop())

	code, resp := getHealth(t, hs, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Contains(t, resp.Checks["redis"], "down")

	code, resp = getHealth(t, hs, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", resp.Status)
}

func TestStopWithoutStart(t *testing.T) {
	hs := NewHealthServer(0, fakePinger{}, nil, zap.NewNop())
	assert.NoError(t, hs.Stop())
}
