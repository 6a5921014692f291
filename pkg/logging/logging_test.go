package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	dev, err := New(false, "")
	require.NoError(t, err)
	assert.True(t, dev.Desugar().Core().Enabled(zapcore.DebugLevel))

	prod, err := New(true, "")
	require.NoError(t, err)
	assert.False(t, prod.Desugar().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Desugar().Core().Enabled(zapcore.InfoLevel))

	warn, err := New(false, "warn")
	require.NoError(t, err)
	assert.False(t, warn.Desugar().Core().Enabled(zapcore.InfoLevel))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(false, "loud")
	assert.Error(t, err)
}
