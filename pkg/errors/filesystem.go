package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
)

// FileErrorData contains structured data for file system failures
type FileErrorData struct {
	Path      string `json:"path"`
	Operation string `json:"operation,omitempty"`
	Cause     string `json:"cause,omitempty"`
}

// FileError classifies a file system failure: a missing path becomes
// CodeFileNotFound, anything else CodeFileAccess.
func FileError(operation, path string, cause error) MCPError {
	data := &FileErrorData{Path: path, Operation: operation}
	if cause != nil {
		data.Cause = cause.Error()
	}

	code, category, severity := CodeFileAccess, CategoryInternal, SeverityError
	message := fmt.Sprintf("Failed to %s '%s'", operation, path)
	if stderrors.Is(cause, fs.ErrNotExist) {
		code, category, severity = CodeFileNotFound, CategoryNotFound, SeverityWarning
		message = fmt.Sprintf("'%s' not found", path)
	}

	err := WrapError(cause, code, message, category, severity).
		WithData(data).
		WithContext(&Context{Operation: operation, Component: "tools"})
	if cause != nil {
		err = err.WithDetail(cause.Error())
	}
	return err
}
