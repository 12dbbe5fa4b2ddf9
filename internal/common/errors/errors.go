// Package errors provides the structured, user-facing error taxonomy shared by
// the job store, the profile model and the command line front end.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode identifies a class of failure.
type ErrorCode string

const (
	ErrCodeConfigurationFormatInvalid ErrorCode = "CONFIGURATION_FORMAT_INVALID"
	ErrCodeConfigurationIOFailed      ErrorCode = "CONFIGURATION_IO_FAILED"
	ErrCodeSchemaLoadFailed           ErrorCode = "SCHEMA_LOAD_FAILED"

	ErrCodeStorageOpenFailed      ErrorCode = "STORAGE_OPEN_FAILED"
	ErrCodeStorageOperationFailed ErrorCode = "STORAGE_OPERATION_FAILED"
	ErrCodeJobNotFound            ErrorCode = "JOB_NOT_FOUND"
	ErrCodeJobValidationFailed    ErrorCode = "JOB_VALIDATION_FAILED"

	ErrCodeAttachmentUnsupported ErrorCode = "ATTACHMENT_UNSUPPORTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is an application error carrying a human readable message and
// an ordered list of troubleshooting steps meant to be shown verbatim.
type StandardError struct {
	Code                 ErrorCode              `json:"code"`
	Message              string                 `json:"message"`
	Details              string                 `json:"details,omitempty"`
	TroubleshootingSteps []string               `json:"troubleshootingSteps,omitempty"`
	Metadata             map[string]interface{} `json:"metadata,omitempty"`
	Timestamp            time.Time              `json:"timestamp"`
	Cause                error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches on code so that errors.Is(err, &StandardError{Code: X}) works.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Troubleshooting catalogue
// ==========================

var configurationFormatSteps = []string{
	"Check if your configuration file is valid JSON format",
	"Try deleting the configuration file to reset to defaults",
	"Restore a backup of your configuration file if available",
	"Check the documentation for the correct configuration format",
}

var settingsFormatSteps = []string{
	"Check that the settings file is valid YAML",
	"Compare the setting named in the details with configs/config.yaml",
	"Unset JOBVAULT_* environment variables that may override the file",
}

var configurationIOSteps = []string{
	"Check that the profile directory exists and is writable",
	"Make sure no other program is holding the configuration file open",
	"Check that the disk is not full",
}

var storageSteps = []string{
	"Close any other copy of the application that may be using the database",
	"Check that the profile directory is writable and the disk is not full",
	"Restore a backup of database.sqlite if the file is damaged",
}

// ==========================
// 3. Error Constructors
// ==========================

// NewConfigurationFormatError reports a profile document that is not valid
// JSON or does not have the expected top-level shape.
func NewConfigurationFormatError(path, details string, cause error) *StandardError {
	return &StandardError{
		Code:                 ErrCodeConfigurationFormatInvalid,
		Message:              fmt.Sprintf("The configuration file %s has an invalid format", path),
		Details:              details,
		TroubleshootingSteps: append([]string(nil), configurationFormatSteps...),
		Timestamp:            time.Now().UTC(),
		Cause:                cause,
	}
}

// NewSettingsFormatError reports application settings that could not be
// parsed or hold an invalid value. path is the settings file in use, if any.
func NewSettingsFormatError(path, details string, cause error) *StandardError {
	source := path
	if source == "" {
		source = "the environment"
	}
	return &StandardError{
		Code:                 ErrCodeConfigurationFormatInvalid,
		Message:              fmt.Sprintf("The application settings in %s are invalid", source),
		Details:              details,
		TroubleshootingSteps: append([]string(nil), settingsFormatSteps...),
		Timestamp:            time.Now().UTC(),
		Cause:                cause,
		Metadata:             map[string]interface{}{"path": path},
	}
}

// NewConfigurationIOError reports an unexpected read/write failure on the
// profile document. A missing file on first run is not an error.
func NewConfigurationIOError(path string, cause error) *StandardError {
	return &StandardError{
		Code:                 ErrCodeConfigurationIOFailed,
		Message:              fmt.Sprintf("The configuration file %s could not be accessed", path),
		Details:              errString(cause),
		TroubleshootingSteps: append([]string(nil), configurationIOSteps...),
		Timestamp:            time.Now().UTC(),
		Cause:                cause,
	}
}

// NewSchemaLoadError reports an unreadable section schema resource.
func NewSchemaLoadError(source string, cause error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSchemaLoadFailed,
		Message:   "Section definitions could not be loaded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, errString(cause)),
		Timestamp: time.Now().UTC(),
		Cause:     cause,
	}
}

// NewStorageOpenError reports a database file that could not be opened or migrated.
func NewStorageOpenError(path string, cause error) *StandardError {
	return &StandardError{
		Code:                 ErrCodeStorageOpenFailed,
		Message:              fmt.Sprintf("The job database %s could not be opened", path),
		Details:              errString(cause),
		TroubleshootingSteps: append([]string(nil), storageSteps...),
		Timestamp:            time.Now().UTC(),
		Cause:                cause,
	}
}

// NewStorageOperationError reports a failed statement.
func NewStorageOperationError(operation string, cause error) *StandardError {
	return &StandardError{
		Code:                 ErrCodeStorageOperationFailed,
		Message:              "Database operation failed",
		Details:              fmt.Sprintf("operation: %s, error: %s", operation, errString(cause)),
		TroubleshootingSteps: append([]string(nil), storageSteps...),
		Timestamp:            time.Now().UTC(),
		Cause:                cause,
	}
}

// NewJobNotFoundError reports an id with no row behind it.
func NewJobNotFoundError(id int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobNotFound,
		Message:   "Job application not found",
		Details:   fmt.Sprintf("id: %d", id),
		Timestamp: time.Now().UTC(),
	}
}

// NewJobValidationError reports missing or malformed form input.
func NewJobValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobValidationFailed,
		Message:   "Job application data is invalid",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// NewAttachmentUnsupportedError reports a file type we cannot extract text from.
func NewAttachmentUnsupportedError(mime string) *StandardError {
	return &StandardError{
		Code:    ErrCodeAttachmentUnsupported,
		Message: "Unsupported attachment type",
		Details: fmt.Sprintf("type: %s", mime),
		TroubleshootingSteps: []string{
			"Attach the document as PDF, DOCX or plain text",
		},
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// AsStandard returns the first *StandardError in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	se, ok := AsStandard(err)
	return ok && se.Code == code
}

// GetErrorCategory groups codes for log fields.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "CONFIGURATION") || strings.HasPrefix(codeStr, "SCHEMA"):
		return "CONFIGURATION"
	case strings.HasPrefix(codeStr, "STORAGE") || strings.HasPrefix(codeStr, "JOB_NOT_FOUND"):
		return "STORAGE"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "ATTACHMENT"):
		return "ATTACHMENT"
	default:
		return "OTHER"
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
