package utils

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Domain-level errors used by the service layer to provide
// fine-grained failure reasons.
var (
	ErrValidation         = errors.New("validation_error")
	ErrPreconditionFailed = errors.New("precondition_failed")

	ErrWrongStep            = errors.New("wrong_step")
	ErrTerminalStep         = errors.New("terminal_step")
	ErrNoPreviousStep       = errors.New("no_previous_step")
	ErrAddonsLocked         = errors.New("addons_locked")
	ErrAddonFormClosed      = errors.New("addon_form_closed")
	ErrEmailAlreadyVerified = errors.New("email_already_verified")
	ErrOTPNotRequested      = errors.New("otp_not_requested")

	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidPhone = errors.New("invalid_phone")

	ErrSessionNotFound = errors.New("session_not_found")
	ErrInvalidSession  = errors.New("invalid_session")
	ErrTokenExpired    = errors.New("token_expired")

	// For concurrency conflicts
	ErrRowVersionConflict = errors.New("row_version_conflict")

	// For external service failures (e.g., Twilio, SendGrid)
	ErrExternalServiceFailure = errors.New("external_service_failure")
)

// FieldError names one rejected input. Index is set for repeated groups
// (add-on entries) and points at the failing entry.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Index   *int   `json:"index,omitempty"`
}

// ValidationError is returned when user input for a step is rejected.
// The session stays on Step.
type ValidationError struct {
	Step   string       `json:"step"`
	Fields []FieldError `json:"fields"`
}

func NewValidationError(step string, fields ...FieldError) *ValidationError {
	return &ValidationError{Step: step, Fields: fields}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed at %s: %s", e.Step, joinFields(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PreconditionError is returned when a step cannot be left because its
// gate does not hold against the stored record.
type PreconditionError struct {
	Step   string       `json:"step"`
	Fields []FieldError `json:"fields"`
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition not met for %s: %s", e.Step, joinFields(e.Fields))
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionFailed }

func joinFields(fields []FieldError) string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Index != nil {
			names = append(names, fmt.Sprintf("%s[%d]", f.Field, *f.Index))
			continue
		}
		names = append(names, f.Field)
	}
	return strings.Join(names, ",")
}

// AppError for structured error handling from services to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		// Fallback for unexpected error types
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
