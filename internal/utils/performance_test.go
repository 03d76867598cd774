package utils

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestTimer_LogsOperation(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	d := NewTimer("features", log).Stop()

	assert.GreaterOrEqual(t, int64(d), int64(0))
	assert.Contains(t, buf.String(), `"operation":"features"`)
}

func TestOperationTimer(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	func() {
		defer OperationTimer("train", log)()
	}()

	assert.Contains(t, buf.String(), `"operation":"train"`)
}
