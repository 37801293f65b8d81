package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Machine-readable failure codes carried in the error envelope.
const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeTokenInvalid     = "TOKEN_INVALID"
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeCSRFMissing      = "CSRF_MISSING"
	CodeCSRFInvalid      = "CSRF_INVALID"
	CodeValidationFailed = "VALIDATION_FAILED"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

func OK() Response {
	return Response{Success: true}
}

func Error(msg string) Response {
	return Response{
		Success: false,
		Message: msg,
	}
}

// ErrorCode builds a failure envelope with a machine-readable code in
// addition to the human-readable message.
func ErrorCode(msg, code string) Response {
	return Response{
		Success: false,
		Message: msg,
		Code:    code,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not a valid email", err.Field()))
		case "min":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		case "max":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Success: false,
		Message: strings.Join(errMsgs, ", "),
		Code:    CodeValidationFailed,
	}
}
