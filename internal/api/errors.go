package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-av/internal/routing/connections"
	"github.com/nerrad567/gray-logic-av/internal/routing/controls"
	"github.com/nerrad567/gray-logic-av/internal/routing/graph"
	"github.com/nerrad567/gray-logic-av/internal/routing/pathfinding"
	"github.com/nerrad567/gray-logic-av/internal/routing/switcher"
)

// Error is the body of every error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeNoPath     = "no_path"
	ErrCodeInternal   = "internal_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps routing errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, graph.ErrNoPath):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeNoPath, err.Error())
	case errors.Is(err, connections.ErrConnectionNotFound),
		errors.Is(err, controls.ErrControlNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, connections.ErrConnectionExists),
		errors.Is(err, connections.ErrPortInUse),
		errors.Is(err, controls.ErrNotSwitcher):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, connections.ErrInvalidArgument),
		errors.Is(err, connections.ErrInvalidConnectionType),
		errors.Is(err, controls.ErrInvalidArgument),
		errors.Is(err, controls.ErrUnknownPort),
		errors.Is(err, pathfinding.ErrInvalidArgument),
		errors.Is(err, switcher.ErrInvalidArgument):
		writeBadRequest(w, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
