package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateKey(t *testing.T) {
	assert.Equal(t, "graph:state:exec-1", stateKey("exec-1"))
}

func TestInitLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		logger, err := initLogger(level)
		assert.NoError(t, err, level)
		assert.NotNil(t, logger, level)
	}
}
