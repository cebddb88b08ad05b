package response

import (
	"errors"

	"invoicing/pkg/apperr"
)

// Response represents a standard API response format
type Response struct {
	Status     string            `json:"status"`      // "success" or "error"
	StatusCode int               `json:"status_code"` // HTTP status code
	Data       interface{}       `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Details    map[string]string `json:"details,omitempty"` // field -> message for validation failures
}

// Success returns a standard success response wrapping the data
func Success(statusCode int, data interface{}) Response {
	return Response{
		Status:     "success",
		StatusCode: statusCode,
		Data:       data,
	}
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, err string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Error:      err,
	}
}

// FromError maps a service error to a response, attaching per-field details
// when the error is a validation failure.
func FromError(err error) (int, Response) {
	status := apperr.HTTPStatus(err)
	resp := Error(status, err.Error())

	var validation *apperr.ValidationError
	if errors.As(err, &validation) {
		resp.Details = validation.Details()
	}
	return status, resp
}
