package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("bogus"))
}

func TestToZapFields(t *testing.T) {
	assert.Nil(t, toZapFields(nil))

	fields := toZapFields(map[string]interface{}{
		"jobId": int64(7),
		"error": errors.New("boom"),
	})
	assert.Len(t, fields, 2)
}

func TestNewStructured_WritesToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")

	log := NewStructured("info", "json", out)
	log.WithFields(map[string]interface{}{"component": "test"}).Info("hello", map[string]interface{}{"n": 1})
	_ = log.Sync()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"component":"test"`)
}

func TestNoOpAndTestLoggers(t *testing.T) {
	NewNoOpLogger().WithError(errors.New("ignored")).Error("nothing", nil)
	NewTestLogger(t).Debug("visible in -v output", map[string]interface{}{"k": "v"})
}
