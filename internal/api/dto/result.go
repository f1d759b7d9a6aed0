package dto

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
)

// CodeSuccess marks a successful envelope.
const CodeSuccess = "SUCCESS"

// Result is the envelope every endpoint responds with.
type Result struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// Success wraps data in a successful envelope.
func Success(message string, data any) Result {
	return Result{Code: CodeSuccess, Message: message, Data: data}
}

// Failure builds an error envelope. details may be nil.
func Failure(code, message string, details map[string]any) Result {
	r := Result{Code: code, Message: message}
	if len(details) > 0 {
		r.Data = details
	}
	return r
}

// ValidationDetails flattens ozzo field errors into a field -> message map.
// It returns nil for errors that are not field errors.
func ValidationDetails(err error) map[string]any {
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make(map[string]any, len(fieldErrs))
	for field, fieldErr := range fieldErrs {
		details[field] = fieldErr.Error()
	}
	return details
}
