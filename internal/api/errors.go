package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/saeid-a/tradechat/internal/validator"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("edit conflict")
	ErrValidation   = errors.New("validation failed")
)

// Error is a request the server rejected. Fields is set when the server
// returned field-level validation errors.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("status %d: %s", e.Status, formatFields(e.Fields))
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrValidation:
		return e.Status == http.StatusUnprocessableEntity
	}
	return false
}

// ValidationError is raised before a request is sent.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + formatFields(e.Fields)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldErrors extracts field-level messages from either a client-side or a
// server-side validation failure.
func FieldErrors(err error) map[string]string {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}

// Validate converts a failed validator into a *ValidationError and returns
// nil when every check passed.
func Validate(v *validator.Validator) error {
	if v.Valid() {
		return nil
	}
	return &ValidationError{Fields: v.Errors}
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &Error{Status: resp.StatusCode}

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var message string
		if err := json.Unmarshal(envelope.Error, &message); err == nil {
			apiErr.Message = message
			return apiErr
		}
		var fields map[string]string
		if err := json.Unmarshal(envelope.Error, &fields); err == nil {
			apiErr.Message = "validation failed"
			apiErr.Fields = fields
			return apiErr
		}
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}
