// Error taxonomy of the serving layer.
//
// Every error produced by tabserve packages wraps (with `%w`) exactly one of the
// sentinels below, so callers can classify it by `errors.Is`.
//
// Fatal errors (pool or router construction):
//
//   - ErrConfiguration
//   - ErrArtifactLoad (and ErrUnsupportedModelType, which is a kind of it)
//
// Per-request errors (the client sent something wrong):
//
//   - ErrMissingTaskID
//   - ErrUnknownTask
//   - ErrMalformedPayload
//   - ErrSchemaMismatch
//   - ErrUnsupportedInput
package errors

import (
	"errors"
	"fmt"
)

var (
	// routing configuration is missing or invalid.
	ErrConfiguration = errors.New("configuration error")

	// no routing configuration is found for the task id.
	ErrUnknownTask = fmt.Errorf("%w: unknown task", ErrConfiguration)

	// model artifact cannot be loaded.
	ErrArtifactLoad = errors.New("artifact load error")

	// model artifact is neither a classifier nor a clusterer (or not the one required).
	ErrUnsupportedModelType = fmt.Errorf("%w: unsupported model type", ErrArtifactLoad)

	// request does not specify task id.
	ErrMissingTaskID = errors.New("missing query parameter taskid")

	// request body is not a well-formed tabular payload.
	ErrMalformedPayload = errors.New("malformed payload")

	// request columns cannot be mapped onto the training schema.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// more inputs than supported are given.
	ErrUnsupportedInput = errors.New("unsupported input")
)

// IsClientError tells whether err is caused by the request rather than by the server.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	for _, e := range []error{
		ErrMissingTaskID, ErrUnknownTask, ErrMalformedPayload,
		ErrSchemaMismatch, ErrUnsupportedInput,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// Wrap err with sentinel and a message, as "<sentinel>: <message>: <err>".
//
// When err is nil, it returns "<sentinel>: <message>".
func Wrap(sentinel error, message string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", sentinel, message)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, message, err)
}

// Wrapf is Wrap with a formatted message and no cause.
func Wrapf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
