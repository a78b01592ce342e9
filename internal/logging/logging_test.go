package logging_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jizhang-jingling/jizhang/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), "level %q", in)
	}
}

func TestNew_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := logging.New(&buf, "warn", false)
	logger.Info("hidden")
	logger.Warn("shown", "amount", "35")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"amount":"35"`)
}

func TestNew_TextInDevelopment(t *testing.T) {
	var buf bytes.Buffer

	logging.New(&buf, "debug", true).Debug("recorded", "category", "餐饮美食")

	assert.Contains(t, buf.String(), "msg=recorded")
	assert.Contains(t, buf.String(), "category=餐饮美食")
}
