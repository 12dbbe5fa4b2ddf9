package errors

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler is the last stop for errors that reach the top of the
// application: it logs them and renders the blocking report shown to the user.
type ErrorHandler struct {
	logger Logger
	out    io.Writer
}

func NewErrorHandler(logger Logger, out io.Writer) *ErrorHandler {
	return &ErrorHandler{logger: logger, out: out}
}

// Handle logs err, writes its report and returns the process exit code.
func (h *ErrorHandler) Handle(err error) int {
	if err == nil {
		return 0
	}
	stdErr := normalizeError(err)

	h.logger.Error("unhandled error", map[string]interface{}{
		"code":     string(stdErr.Code),
		"category": GetErrorCategory(stdErr.Code),
		"message":  stdErr.Message,
		"details":  stdErr.Details,
		"metadata": stdErr.Metadata,
	})

	_, _ = io.WriteString(h.out, Report(stdErr))
	return 1
}

// normalizeError ensures we always have a StandardError.
func normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// Report renders err as the plain-text block used by the error dialog and its
// "copy details" action: message, details, then numbered troubleshooting steps.
func Report(err error) string {
	stdErr := normalizeError(err)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", stdErr.Message)
	if stdErr.Details != "" {
		fmt.Fprintf(&sb, "Details: %s\n", stdErr.Details)
	}
	fmt.Fprintf(&sb, "Code: %s\n", stdErr.Code)
	if len(stdErr.TroubleshootingSteps) > 0 {
		sb.WriteString("\nTroubleshooting steps:\n")
		for i, step := range stdErr.TroubleshootingSteps {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, step)
		}
	}
	return sb.String()
}
