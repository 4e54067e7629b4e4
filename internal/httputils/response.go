// Package httputils holds small helpers for writing JSON over HTTP.
// file: internal/httputils/response.go
package httputils

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/mcp/mcperrors"
)

// WriteJSON encodes v with the given status and a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, mcperrors.InternalErrorMessage, http.StatusInternalServerError)
		return errors.Wrapf(err, "failed to encode %T response", v)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		return errors.Wrap(err, "failed to write response body")
	}
	return nil
}

// StatusForCode maps a JSON-RPC error raised by the transport itself to an
// HTTP status. Errors produced by dispatch travel with 200.
func StatusForCode(code int) int {
	switch mcperrors.ErrorCode(code) {
	case mcperrors.ErrParseError, mcperrors.ErrInvalidRequest:
		return http.StatusBadRequest
	case mcperrors.ErrInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}
