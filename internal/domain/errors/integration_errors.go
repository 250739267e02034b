package errors

import "errors"

var (
	// ErrNotConnected indicates that the owner has no usable credential for the provider
	ErrNotConnected = errors.New("integration not connected")

	// ErrIntegrationNotFound indicates that no integration row exists for the owner and provider
	ErrIntegrationNotFound = errors.New("integration not found")

	// ErrUnsupportedProvider indicates an unknown provider name
	ErrUnsupportedProvider = errors.New("unsupported provider")

	// ErrInvalidCredential indicates that the provider rejected the supplied API key
	ErrInvalidCredential = errors.New("invalid provider credential")

	// ErrInvalidPeriodType indicates an unknown aggregation period
	ErrInvalidPeriodType = errors.New("invalid period type")
)
