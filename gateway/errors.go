package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	errs "github.com/jrsteele09/go-hr-console/internal/errors"
)

// Fallback messages shown when the backend did not supply one
const (
	MessageGeneric      = "Something went wrong. Please try again."
	MessageUnreachable  = "The server could not be reached. Please try again."
	MessageExpired      = "Your session has expired. Please sign in again."
	MessageForbidden    = "You are not allowed to perform this action."
	MessageNotFound     = "The requested record could not be found."
	MessageInvalidInput = "Some of the submitted values are invalid."
)

// Error is a non-2xx backend response
type Error struct {
	Status  int                 // HTTP status code
	Message string              // Human readable, safe to display
	Fields  map[string][]string // Field-keyed validation messages (422)
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// Unwrap maps the status onto the console's error taxonomy
func (e *Error) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return errs.ErrUnauthenticated
	case http.StatusForbidden:
		return errs.ErrForbidden
	case http.StatusNotFound:
		return errs.ErrNotFound
	case http.StatusUnprocessableEntity:
		return errs.ErrValidation
	default:
		return errs.ErrServer
	}
}

// FieldNames returns the fields carrying validation messages, sorted
func (e *Error) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// errorBody is the JSON shape the backend uses for failures
type errorBody struct {
	Message string                     `json:"message"`
	Error   string                     `json:"error"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func newError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var payload errorBody
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		e.Message = payload.Message
		if e.Message == "" {
			e.Message = payload.Error
		}
		if len(payload.Errors) > 0 {
			e.Fields = make(map[string][]string, len(payload.Errors))
			for field, raw := range payload.Errors {
				e.Fields[field] = decodeFieldMessages(raw)
			}
		}
	}

	if e.Message == "" {
		e.Message = defaultMessage(status)
	}
	return e
}

// decodeFieldMessages accepts either ["a", "b"] or "a"
func decodeFieldMessages(raw json.RawMessage) []string {
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}
	}
	return nil
}

func defaultMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return MessageExpired
	case http.StatusForbidden:
		return MessageForbidden
	case http.StatusNotFound:
		return MessageNotFound
	case http.StatusUnprocessableEntity:
		return MessageInvalidInput
	default:
		return MessageGeneric
	}
}

// UserMessage returns a message suitable for showing next to a form or table
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errs.As(err, &apiErr) {
		return apiErr.Message
	}
	if errs.Is(err, errs.ErrTransport) {
		return MessageUnreachable
	}
	return MessageGeneric
}

// FieldErrors returns the validation messages carried by err, if any
func FieldErrors(err error) map[string][]string {
	var apiErr *Error
	if errs.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}
