package internal

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{"Warning", LogLevelWarn},
		{" debug ", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"", LogLevelInfo},
		{"TRACE", LogLevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLogLevel(tt.in), tt.in)
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogLevelWarn, &buf)

	logger.Debug("[Calibrator] sample %d", 1)
	logger.Info("[Calibrator] run %s", "r1")
	logger.Warn("[Calibrator] %s has %d defined values", "m7_pollinator_support", 3)
	logger.Error("[CLI] %v", "boom")

	out := buf.String()
	assert.NotContains(t, out, "sample 1")
	assert.NotContains(t, out, "run r1")
	assert.Contains(t, out, "[WARN] [Calibrator] m7_pollinator_support has 3 defined values")
	assert.Contains(t, out, "[ERROR] [CLI] boom")
}
