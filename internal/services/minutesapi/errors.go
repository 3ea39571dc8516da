package minutesapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"minutes/internal/api"
	"minutes/internal/services"
)

const maxErrorBody = 64 * 1024

// StatusError is a non-success HTTP response from the backend.
type StatusError struct {
	Operation  string
	StatusCode int
	// Message is the backend's error field, or a generic fallback.
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Operation, e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return services.ErrNotFound
	case e.StatusCode >= http.StatusInternalServerError:
		return services.ErrServer
	default:
		return services.ErrValidation
	}
}

func newStatusError(operation string, resp *http.Response) *StatusError {
	message := ""
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		var payload api.ErrorResponse
		if json.Unmarshal(data, &payload) == nil {
			message = strings.TrimSpace(payload.Error)
		}
	}
	if message == "" {
		message = fallbackMessage(operation, resp.StatusCode)
	}
	return &StatusError{Operation: operation, StatusCode: resp.StatusCode, Message: message}
}

func fallbackMessage(operation string, status int) string {
	switch operation {
	case "upload":
		return "Upload failed"
	case "process":
		return "Processing failed"
	case "confirm":
		return "Confirmation failed"
	default:
		return fmt.Sprintf("%s request returned status %d", operation, status)
	}
}
