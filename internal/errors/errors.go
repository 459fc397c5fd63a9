package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all fatal failure modes
type ErrorCode string

const (
	// InvalidDescriptor indicates a type or member descriptor with an unexpected shape
	InvalidDescriptor ErrorCode = "INVALID_DESCRIPTOR"
	// GenericBindingMissing indicates a generic parameter reference with no binding in scope
	GenericBindingMissing ErrorCode = "GENERIC_BINDING_MISSING"
	// UnknownOperator indicates an operator descriptor with no recognizable identity
	UnknownOperator ErrorCode = "UNKNOWN_OPERATOR"
	// DuplicateID indicates two descriptors produced the same canonical ID
	DuplicateID ErrorCode = "DUPLICATE_ID"
	// ConfigInvalid indicates an invalid configuration value
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// StorageError indicates a failure reading or writing the registry database
	StorageError ErrorCode = "STORAGE_ERROR"
	// ExportError indicates a failure serializing the registry
	ExportError ErrorCode = "EXPORT_ERROR"
	// SymbolNotFound indicates a queried type or member that is not in the model
	SymbolNotFound ErrorCode = "SYMBOL_NOT_FOUND"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Description string `json:"description"`
	Command     string `json:"command,omitempty"`
}

// APIDocError represents an error with code, message, and suggestions.
// These are contract violations by the metadata provider or the caller and
// are never retried.
type APIDocError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Subject        string      `json:"subject,omitempty"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new APIDocError with the default fixes for its code
func New(code ErrorCode, message string, cause error) *APIDocError {
	return &APIDocError{
		Code:           code,
		Message:        message,
		SuggestedFixes: GetSuggestedFixes(code),
		cause:          cause,
	}
}

// Newf creates a new APIDocError with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *APIDocError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *APIDocError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Subject != "" {
		msg += " (" + e.Subject + ")"
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error
func (e *APIDocError) Unwrap() error {
	return e.cause
}

// WithSubject names the descriptor or symbol the error is about
func (e *APIDocError) WithSubject(subject string) *APIDocError {
	e.Subject = subject
	return e
}

// WithDetails adds details to the error
func (e *APIDocError) WithDetails(details interface{}) *APIDocError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	GenericBindingMissing: {
		{Description: "Declare the generic parameter on the type or method that uses it"},
	},
	UnknownOperator: {
		{Description: "Set the operator field to a symbol such as '+' or a reserved name such as 'op_Addition'"},
	},
	DuplicateID: {
		{Description: "Check the descriptor files for a type loaded twice", Command: "apidoc build --exclude-assembly <name>"},
	},
	ConfigInvalid: {
		{Description: "Inspect the effective configuration", Command: "apidoc config"},
	},
	SymbolNotFound: {
		{Description: "Check the ID against the stored model", Command: "apidoc export --format=text"},
		{Description: "Rebuild if the descriptors changed", Command: "apidoc build"},
	},
	StorageError: {
		{Description: "Build and store a fresh run", Command: "apidoc build"},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}

// HasCode reports whether err or any error it wraps is an APIDocError with the given code
func HasCode(err error, code ErrorCode) bool {
	var apiErr *APIDocError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// CodeOf returns the code of the first APIDocError in err's chain, or InternalError
func CodeOf(err error) ErrorCode {
	var apiErr *APIDocError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return InternalError
}
