package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_LevelFallback(t *testing.T) {
	l, err := New(Config{Level: "nonsense", OutputPath: filepath.Join(t.TempDir(), "out.log")})
	require.NoError(t, err)

	assert.True(t, l.Core().Enabled(zap.InfoLevel))
	assert.False(t, l.Core().Enabled(zap.DebugLevel))
}

func TestNew_DebugConsole(t *testing.T) {
	l, err := New(Config{Level: "DEBUG", Encoding: "console", Development: true, OutputPath: filepath.Join(t.TempDir(), "out.log")})
	require.NoError(t, err)

	assert.True(t, l.Core().Enabled(zap.DebugLevel))
}
