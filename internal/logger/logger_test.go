package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, toZapLevel(DebugLevel))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel(InfoLevel))
	assert.Equal(t, zapcore.WarnLevel, toZapLevel(WarnLevel))
	assert.Equal(t, zapcore.ErrorLevel, toZapLevel(ErrorLevel))
	assert.Equal(t, zapcore.InfoLevel, toZapLevel("verbose"))
}

func TestValidLevel(t *testing.T) {
	assert.True(t, ValidLevel("warn"))
	assert.False(t, ValidLevel("trace"))
}

func TestNewAndNamed(t *testing.T) {
	l := New(WarnLevel).Named("test")
	assert.NotNil(t, l.SugaredLogger)
	assert.True(t, l.Desugar().Core().Enabled(zapcore.WarnLevel))
	assert.False(t, l.Desugar().Core().Enabled(zapcore.InfoLevel))

	Nop().Infow("discarded", "k", 1)
}

func TestConsoleCoreLineEnding(t *testing.T) {
	var buf bytes.Buffer
	core := newConsoleCore(zapcore.InfoLevel, zapcore.AddSync(&buf), "\r\n")
	l := zap.New(core).Sugar()

	l.Infow("heater on", "target_c", 65)
	l.Debug("hidden")

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\r\n"), "got %q", out)
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, `{"target_c": 65}`)
	assert.NotContains(t, out, "hidden")
}
