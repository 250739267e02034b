package errors

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// clientCodes are caused by the caller and logged at warn level.
var clientCodes = map[string]bool{
	ErrNotFound:           true,
	ErrInvalidArgument:    true,
	ErrUnauthenticated:    true,
	ErrUnauthorized:       true,
	ErrConflict:           true,
	ErrFailedPrecondition: true,
}

// LevelOf returns the log level for err: warn for caller mistakes, error otherwise.
func LevelOf(err error) zapcore.Level {
	if clientCodes[CodeOf(err)] {
		return zapcore.WarnLevel
	}
	return zapcore.ErrorLevel
}

// LogError logs err with its error_code at the level LevelOf picks.
func LogError(logger *zap.Logger, err error, msg string, fields ...zap.Field) {
	if err == nil {
		return
	}

	logger.Log(LevelOf(err), msg, append([]zap.Field{
		zap.Error(err),
		zap.String("error_code", CodeOf(err)),
	}, fields...)...)
}
