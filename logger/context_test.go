package logger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xy-planning-network/querykit/logger"
)

func TestLogContextMarshalText(t *testing.T) {
	for _, tc := range []struct {
		name     string
		input    logger.LogContext
		expected string
	}{
		{"Zero", logger.LogContext{}, `{}`},
		{"Caller-Hidden", logger.LogContext{Caller: "kit/kit.go:1"}, `{}`},
		{"Data", logger.LogContext{Data: map[string]any{"test": "data"}}, `{"data":{"test":"data"}}`},
		{"Error", logger.LogContext{Error: errors.New("test")}, `{"error":"test"}`},
		{"Table", logger.LogContext{Table: "products"}, `{"table":"products"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			b, err := tc.input.MarshalText()

			// Assert
			require.Nil(t, err)
			require.Equal(t, tc.expected, string(b))
			require.Equal(t, tc.expected, tc.input.String())
		})
	}
}

func TestLogContextUnmarshalable(t *testing.T) {
	// Arrange
	lc := logger.LogContext{Data: map[string]any{"fn": func() {}}}

	// Act
	_, err := lc.MarshalText()

	// Assert
	require.Error(t, err)
	require.Contains(t, lc.String(), "error")
}

func TestCurrentCaller(t *testing.T) {
	var caller string
	func() { caller = logger.CurrentCaller() }()

	require.Regexp(t, `context_test\.go:\d+$`, caller)
}
