package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrIdentityNotFound  = errors.New("identity not found")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
)

// validationError carries a message that is safe to show the client.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func invalidf(format string, args ...any) error {
	return &validationError{msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError converts a failure into its status code. Anything unknown is a
// storage failure: the cause is logged, the client gets a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *validationError
	switch {
	case errors.As(err, &vErr):
		writeErrorMessage(w, http.StatusBadRequest, vErr.msg)
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrInvalidCredential),
		errors.Is(err, ErrIdentityNotFound):
		writeErrorMessage(w, http.StatusUnauthorized, "Unauthorized: Please log in.")
	case errors.Is(err, ErrForbidden):
		writeErrorMessage(w, http.StatusForbidden, "Forbidden: application belongs to another user.")
	case errors.Is(err, ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "Application not found.")
	case errors.Is(err, ErrConflict):
		writeErrorMessage(w, http.StatusConflict, "Email already registered.")
	default:
		log.Printf("[%s %s] internal error: %v", r.Method, r.URL.Path, err)
		writeErrorMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
