package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrConfiguration indicates a process-level configuration problem:
	// unknown service name, duplicate token type registration, or missing
	// required environment settings. Fail-fast, never recovered silently.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation indicates the caller supplied invalid input, such as an
	// unknown field name on upsert or an empty credential value. The stored
	// record (if any) is left untouched.
	ErrValidation = errors.New("validation error")

	// ErrDecryption indicates stored ciphertext could not be read under the
	// current key. Surfaced as a configuration regression: the toolkit
	// reports not-configured and the user is prompted to re-enter credentials.
	ErrDecryption = errors.New("decryption failed")

	// ErrNotConfigured indicates Toolkit() was called for a user without a
	// prior successful IsConfigured check. This is a programming-contract
	// violation inside the core, not a user-facing condition.
	ErrNotConfigured = errors.New("toolkit not configured")

	// ErrAuthorization indicates an OAuth code exchange was rejected or
	// timed out. The user is told to retry the authorization flow.
	ErrAuthorization = errors.New("authorization failed")

	// ErrUnknownAgent indicates the agent name is not registered
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrTokenExpired indicates the API auth token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid indicates the API auth token is malformed or invalid
	ErrTokenInvalid = errors.New("token invalid")
)
