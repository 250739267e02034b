package errors

import "net/http"

var httpStatusByCode = map[string]int{
	ErrInternal:           http.StatusInternalServerError,
	ErrNotFound:           http.StatusNotFound,
	ErrInvalidArgument:    http.StatusBadRequest,
	ErrUnauthenticated:    http.StatusUnauthorized,
	ErrUnauthorized:       http.StatusForbidden,
	ErrConflict:           http.StatusConflict,
	ErrTimeout:            http.StatusGatewayTimeout,
	ErrNotImplemented:     http.StatusNotImplemented,
	ErrFailedPrecondition: http.StatusPreconditionFailed,
}

// ToHTTPStatus maps an error code to an HTTP status, defaulting to 500.
func ToHTTPStatus(code string) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
