// internal/forecast/errors.go
package forecast

import "errors"

var (
	// ErrModelUnavailable means no usable artifact is loaded and none
	// could be loaded from the store.
	ErrModelUnavailable = errors.New("model unavailable: train a model first")

	// ErrModelNotFound means the store has no bundle for the model name.
	ErrModelNotFound = errors.New("model bundle not found")

	// ErrCorruptModel means a bundle exists but is partially written or
	// was produced by an incompatible schema version.
	ErrCorruptModel = errors.New("model bundle corrupt or incompatible")

	// ErrFeatureMismatch means the stored feature list disagrees with
	// what the feature builder produces. The artifact is stale.
	ErrFeatureMismatch = errors.New("stored feature list does not match feature builder output")

	// ErrInsufficientData means the training set is too small and the
	// synthetic fallback is disabled.
	ErrInsufficientData = errors.New("not enough samples to train")

	// ErrInvalidObservation means a required numeric field cannot be
	// defaulted (e.g. negative stock).
	ErrInvalidObservation = errors.New("invalid observation")
)
