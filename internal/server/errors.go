package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/minibucket/minibucket/internal/files"
)

// Machine-readable error codes used in HTTP responses.
const (
	codeValidationError = "VALIDATION_ERROR"
	codeInvalidInput    = "INVALID_INPUT"
	codeNotFound        = "NOT_FOUND"
	codeTooLarge        = "FILE_TOO_LARGE"
	codeInternalError   = "INTERNAL_ERROR"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes an error response as {"error": {"code", "message"}}.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// respondError maps a domain error to its HTTP response. Everything that is
// not part of the domain taxonomy surfaces as a 500.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, files.ErrNoFile):
		writeError(w, http.StatusUnprocessableEntity, codeValidationError, err.Error())
	case errors.Is(err, files.ErrInvalidTTL):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidInput, err.Error())
	case errors.Is(err, files.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
