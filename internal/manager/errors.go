package manager

import "errors"

// Normalized manager errors, mapped to API codes by the HTTP layer.
var (
	// ErrNotFound indicates the named controller is not loaded.
	ErrNotFound = errors.New("NOT_FOUND")

	// ErrAlreadyLoaded indicates a controller with the same name exists.
	ErrAlreadyLoaded = errors.New("ALREADY_LOADED")

	// ErrInvalidTransition indicates the controller is not in a state
	// from which the requested transition is allowed.
	ErrInvalidTransition = errors.New("INVALID_TRANSITION")

	// ErrCallbackFailed indicates a controller lifecycle callback did not
	// return success.
	ErrCallbackFailed = errors.New("CALLBACK_FAILED")
)
