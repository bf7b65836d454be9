package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/deploymenttheory/go-officecrypto/pkg/officecrypto"
	"github.com/deploymenttheory/go-officecrypto/pkg/services"
	"gopkg.in/yaml.v3"
)

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput    = "INVALID_INPUT"
	ErrCodeInvalidPassword = "INVALID_PASSWORD"
	ErrCodeIntegrity       = "INTEGRITY"
	ErrCodeUnsupported     = "UNSUPPORTED"
	ErrCodeMalformed       = "MALFORMED"
	ErrCodeIO              = "IO"
	ErrCodeTimeout         = "TIMEOUT"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError classifies err by its cause and wraps it in a CommonError.
// Errors that already are CommonErrors are returned unchanged.
func WrapError(message string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CommonError
	if errors.As(err, &ce) {
		return err
	}
	return NewError(ErrorCode(err), message, err)
}

// ErrorCode maps an error to its CommonError code
func ErrorCode(err error) string {
	var ce *CommonError
	switch {
	case errors.As(err, &ce):
		return ce.Code
	case errors.Is(err, officecrypto.ErrInvalidPassword):
		return ErrCodeInvalidPassword
	case errors.Is(err, officecrypto.ErrIntegrityCheckFailed):
		return ErrCodeIntegrity
	case errors.Is(err, officecrypto.ErrUnsupportedEncryptionFormat),
		errors.Is(err, officecrypto.ErrUnsupportedAlgorithm):
		return ErrCodeUnsupported
	case errors.Is(err, officecrypto.ErrMalformedContainer):
		return ErrCodeMalformed
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrCodeTimeout
	case errors.Is(err, services.ErrOutputExists):
		return ErrCodeInvalidInput
	default:
		return ErrCodeIO
	}
}

// Output formats understood by every command
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ValidateOutputFormat checks that format is table, json or yaml
func ValidateOutputFormat(format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
		return nil
	default:
		return NewError(ErrCodeInvalidInput, fmt.Sprintf("unsupported output format: %s", format), nil)
	}
}

// WriteStructured writes v as JSON or YAML. It reports false for the table
// format so the caller can render its own table.
func WriteStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return true, encoder.Encode(v)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		encoder.SetIndent(2)
		return true, encoder.Encode(v)
	case FormatTable:
		return false, nil
	default:
		return true, fmt.Errorf("unsupported output format: %s", format)
	}
}

// FormatBytes formats byte count as human readable
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
