package platform

import (
	"encoding/json"
	"fmt"
	"net/http"

	"catalog-content-sync/internal/domain"
)

// APIError is returned for every response with a status of 300 or above.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is lets callers test for domain.ErrNotFound and domain.ErrConflict.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status, Body: string(body)}
	var payload struct {
		Message         string `json:"message"`
		ErrorCode       string `json:"errorCode"`
		ApplicationName string `json:"applicationName"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
		if payload.ErrorCode != "" && apiErr.Message != "" {
			apiErr.Message = payload.ErrorCode + ": " + apiErr.Message
		}
	}
	return apiErr
}
