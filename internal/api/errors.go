package api

import (
	"errors"
	"net/http"

	"github.com/arm-control/acc/internal/bus"
	"github.com/arm-control/acc/internal/manager"
)

// WriteManagerError maps a manager or bus error to its HTTP status and
// envelope code and writes the response.
func WriteManagerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manager.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "Controller not found", nil)
	case errors.Is(err, manager.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, "INVALID_TRANSITION", err.Error(), nil)
	case errors.Is(err, manager.ErrAlreadyLoaded):
		WriteError(w, http.StatusConflict, "ALREADY_LOADED", err.Error(), nil)
	case errors.Is(err, manager.ErrCallbackFailed):
		WriteError(w, http.StatusInternalServerError, "CALLBACK_FAILED", err.Error(), nil)
	case errors.Is(err, bus.ErrNoSubscriber):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "No controller listening on topic", nil)
	default:
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error",
			map[string]interface{}{"original": err.Error()})
	}
}
