package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return logger from context when present", func(t *testing.T) {
		expectedLogger := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), expectedLogger)

		actualLogger := FromContext(ctx)

		require.NotNil(t, actualLogger)
		assert.Equal(t, expectedLogger, actualLogger)
	})

	t.Run("Should return default logger when no logger in context", func(t *testing.T) {
		logger := FromContext(t.Context())

		require.NotNil(t, logger)
		assert.Equal(t, GetDefault(), logger)
	})

	t.Run("Should return default logger when wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(t.Context(), LoggerCtxKey, "not a logger")

		logger := FromContext(ctx)

		require.NotNil(t, logger)
		assert.Equal(t, GetDefault(), logger)
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	t.Run("Should convert all log levels to charm log levels correctly", func(t *testing.T) {
		testCases := []struct {
			level    LogLevel
			expected int
		}{
			{DebugLevel, -4},
			{InfoLevel, 0},
			{WarnLevel, 4},
			{ErrorLevel, 8},
			{DisabledLevel, 1000},
			{LogLevel("unknown"), 0},
		}

		for _, tc := range testCases {
			assert.Equal(t, tc.expected, int(tc.level.ToCharmlogLevel()), "level %s", tc.level)
		}
	})
}

func TestParseLevel(t *testing.T) {
	t.Run("Should accept known levels in any case", func(t *testing.T) {
		l, err := ParseLevel(" DEBUG ")
		require.NoError(t, err)
		assert.Equal(t, DebugLevel, l)
	})

	t.Run("Should reject an unknown level naming it", func(t *testing.T) {
		_, err := ParseLevel("chatty")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"chatty"`)
	})
}

func TestNewLogger(t *testing.T) {
	t.Run("Should write JSON records with key/value pairs", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: InfoLevel, Output: &buf, JSON: true})

		l.With("file", "a.csv").Info("done", "changed", 3)

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "done", rec["msg"])
		assert.Equal(t, "a.csv", rec["file"])
		assert.EqualValues(t, 3, rec["changed"])
	})

	t.Run("Should drop messages below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&Config{Level: WarnLevel, Output: &buf})

		l.Info("hidden")
		l.Warn("shown")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.True(t, strings.Contains(out, "shown"))
	})
}

func TestSetupLogger(t *testing.T) {
	prev := GetDefault()
	t.Cleanup(func() { defaultLogger = prev })

	t.Run("Should install the configured default logger", func(t *testing.T) {
		var buf bytes.Buffer
		l, err := SetupLogger("warn", false, &buf)
		require.NoError(t, err)
		assert.Same(t, l, GetDefault())

		FromContext(t.Context()).Info("hidden")
		FromContext(t.Context()).Error("shown")
		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("Should reject an unknown level", func(t *testing.T) {
		_, err := SetupLogger("loud", false, nil)
		require.Error(t, err)
	})
}
