package errors

import (
	"fmt"
	"reflect"
)

// ParameterErrorData contains structured data for parameter-related errors
type ParameterErrorData struct {
	Parameter string      `json:"parameter"`
	Value     interface{} `json:"value,omitempty"`
	Type      string      `json:"type,omitempty"`
	Required  bool        `json:"required,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}

// ValidationError creates a generic validation error
func ValidationError(message string) MCPError {
	return NewError(CodeValidationError, message, CategoryValidation, SeverityError)
}

// MissingParameter creates an error for missing required parameters
func MissingParameter(param string) MCPError {
	return NewError(
		CodeMissingParameter,
		fmt.Sprintf("Missing required parameter: %s", param),
		CategoryValidation,
		SeverityError,
	).WithData(&ParameterErrorData{
		Parameter: param,
		Required:  true,
	})
}

// InvalidParameter creates an error for invalid parameter values
func InvalidParameter(param string, value interface{}, expected string) MCPError {
	got := "nil"
	if value != nil {
		got = reflect.TypeOf(value).String()
		if str, ok := value.(string); ok && len(str) < 100 {
			got = fmt.Sprintf("%s(%q)", got, str)
		}
	}

	return NewError(
		CodeInvalidParameter,
		fmt.Sprintf("Invalid parameter '%s': expected %s, got %s", param, expected, got),
		CategoryValidation,
		SeverityError,
	).WithData(&ParameterErrorData{
		Parameter: param,
		Value:     value,
		Type:      got,
		Reason:    fmt.Sprintf("expected %s", expected),
	})
}

// InvalidFormat creates an error for parameters with an unparseable shape
func InvalidFormat(param string, value string, format string) MCPError {
	return NewError(
		CodeInvalidFormat,
		fmt.Sprintf("Invalid format for parameter '%s': expected %s", param, format),
		CategoryValidation,
		SeverityError,
	).WithData(&ParameterErrorData{
		Parameter: param,
		Value:     value,
		Reason:    fmt.Sprintf("expected %s", format),
	})
}
