package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWrap_KeepsInnerCode(t *testing.T) {
	inner := NewAppError(ErrNotFound, "integration not found", nil)
	wrapped := Wrap(fmt.Errorf("disconnect: %w", inner), "failed to disconnect")

	assert.Equal(t, ErrNotFound, CodeOf(wrapped))
	assert.ErrorIs(t, wrapped, inner)
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Equal(t, ErrInternal, CodeOf(Wrap(New("boom"), "failed")))
}

func TestToHTTPError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NewAppError(ErrInvalidArgument, "bad", nil), http.StatusBadRequest},
		{NewAppError(ErrNotFound, "missing", nil), http.StatusNotFound},
		{NewAppError(ErrFailedPrecondition, "not connected", nil), http.StatusPreconditionFailed},
		{echo.NewHTTPError(http.StatusTeapot, "teapot"), http.StatusTeapot},
		{New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, ToHTTPError(tt.err).Code, tt.err.Error())
	}

	httpErr := ToHTTPError(NewAppError(ErrInvalidArgument, "api key is required", New("empty")))
	assert.Equal(t, "api key is required", httpErr.Message)
}

func TestFromHTTPError(t *testing.T) {
	err := FromHTTPError(echo.NewHTTPError(http.StatusPreconditionFailed, "not connected"))
	assert.Equal(t, ErrFailedPrecondition, CodeOf(err))
	assert.Equal(t, ErrInternal, CodeOf(FromHTTPError(New("boom"))))
}

func TestLogError_LevelByCode(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	LogError(logger, NewAppError(ErrInvalidArgument, "bad key", nil), "connect failed")
	LogError(logger, New("database down"), "connect failed", zap.String("provider", "stripe"))
	LogError(logger, nil, "never logged")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, ErrInvalidArgument, entries[0].ContextMap()["error_code"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, ErrInternal, entries[1].ContextMap()["error_code"])
	assert.Equal(t, "stripe", entries[1].ContextMap()["provider"])
}
