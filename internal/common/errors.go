// Package common defines shared constants and sentinel errors used across
// client and server layers of the control panel. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Settings store errors.
	ErrInvalidCategory = errors.New("invalid settings category")
	ErrCorruptRecord   = errors.New("corrupt settings record")

	// Provisioning gateway errors.
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrPartialProvisioning = errors.New("account created remotely but local mapping write failed")

	// Upstream payments API errors.
	ErrUpstreamAuth    = errors.New("upstream authentication failed")
	ErrUpstreamRequest = errors.New("upstream rejected the request")

	// Generic service-level errors.
	ErrorInternal   = errors.New("internal error")
	ErrorValidation = errors.New("validation error")
)
