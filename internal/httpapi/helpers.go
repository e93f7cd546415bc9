package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"studydesk/internal/storage"
	"studydesk/internal/task"
)

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON: multiple JSON values")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

var validationErrors = []error{
	task.ErrEmptyTitle,
	task.ErrInvalidPriority,
	task.ErrInvalidRecurrence,
	task.ErrInvalidEstimate,
	task.ErrInvalidDate,
	task.ErrNoFieldsToPatch,
}

// statusFor maps a repository error to its HTTP status and client message.
func statusFor(err error) (int, string) {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound, "task not found"
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusBadRequest, err.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}
