package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategoryValidation    ErrorCategory = "validation"
	CategorySecurity      ErrorCategory = "security"
	CategoryStatement     ErrorCategory = "statement"
	CategoryOutput        ErrorCategory = "output"
	CategoryAudit         ErrorCategory = "audit"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound      ErrorCode = "file_not_found"
	CodeFilePermission    ErrorCode = "file_permission"
	CodeFileTooLarge      ErrorCode = "file_too_large"
	CodeFileEmpty         ErrorCode = "file_empty"
	CodeUnsupportedFormat ErrorCode = "unsupported_format"

	// Parse errors
	CodeInvalidFormat ErrorCode = "invalid_format"
	CodeNoTabularData ErrorCode = "no_tabular_data"
	CodeEncodingError ErrorCode = "encoding_error"
	CodeEmptyDataset  ErrorCode = "empty_dataset"

	// Validation errors
	CodeNotBalanced   ErrorCode = "not_balanced"
	CodeNoRecords     ErrorCode = "no_records"
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingField  ErrorCode = "missing_field"

	// Security errors
	CodeScanFailed    ErrorCode = "scan_failed"
	CodeUnsafeContent ErrorCode = "unsafe_content"

	// Statement errors
	CodeUnknownTemplate ErrorCode = "unknown_template"
	CodeRenderFailed    ErrorCode = "render_failed"

	// Output errors
	CodeWriteFailed       ErrorCode = "write_failed"
	CodeUnsupportedOutput ErrorCode = "unsupported_output"

	// Audit errors
	CodeSessionNotFound ErrorCode = "session_not_found"
	CodePersistFailed   ErrorCode = "persist_failed"

	// Pipeline errors
	CodeStageUnavailable ErrorCode = "stage_unavailable"
	CodeStageFailed      ErrorCode = "stage_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// PipelineError is the base error type for all application errors
type PipelineError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *PipelineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile, CategorySecurity:
		return 2
	case CategoryParse, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryStatement, CategoryOutput, CategoryAudit, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *PipelineError) WithContext(key string, value interface{}) *PipelineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *PipelineError) WithSuggestion(suggestion string) *PipelineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PipelineError
func New(category ErrorCategory, code ErrorCode, message string) *PipelineError {
	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with PipelineError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err == nil {
		return nil
	}

	return &PipelineError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileTooLarge:
		message = fmt.Sprintf("file exceeds the maximum allowed size: %s", path)
		suggestion = "split the file or raise the max file size setting"
	case CodeFileEmpty:
		message = fmt.Sprintf("file is empty: %s", path)
		suggestion = "provide a file containing at least one data row"
	case CodeUnsupportedFormat:
		message = fmt.Sprintf("unsupported file format: %s", path)
		suggestion = "provide one of the supported input formats"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// ParseError creates an extraction-related error
func ParseError(code ErrorCode, file string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeNoTabularData:
		message = fmt.Sprintf("no tabular data found in %s", file)
		suggestion = "check that the file contains rows of account and amount data"
	case CodeEncodingError:
		message = fmt.Sprintf("encoding error reading %s", file)
		suggestion = "ensure the file is saved in UTF-8 encoding"
	case CodeEmptyDataset:
		message = fmt.Sprintf("extracted dataset from %s is empty", file)
		suggestion = "ensure the file contains at least one data row"
	default:
		message = fmt.Sprintf("extraction error in %s", file)
		suggestion = "check the file format and data integrity"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryParse, code, message)
	} else {
		result = New(CategoryParse, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file", file)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeNotBalanced:
		message = fmt.Sprintf("trial balance does not balance: %v", value)
		suggestion = "review the debit and credit amounts in the source file"
	case CodeNoRecords:
		message = "no records could be normalized from the dataset"
		suggestion = "check that the file contains recognizable account columns"
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", field, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryValidation, code, message)
	} else {
		result = New(CategoryValidation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field).
		WithContext("value", value)
}

// SecurityError creates a security-scan-related error
func SecurityError(code ErrorCode, path string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeUnsafeContent:
		message = fmt.Sprintf("file failed the security scan: %s", path)
		suggestion = "inspect the file for embedded scripts or executable content"
	case CodeScanFailed:
		message = fmt.Sprintf("security scan could not complete for %s", path)
		suggestion = "check that the file is readable and try again"
	default:
		message = fmt.Sprintf("security error for %s", path)
		suggestion = "review the file before processing it"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategorySecurity, code, message)
	} else {
		result = New(CategorySecurity, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// StatementError creates a statement-generation-related error
func StatementError(code ErrorCode, template string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeUnknownTemplate:
		message = fmt.Sprintf("unknown statement template: %s", template)
		suggestion = "use one of: balance_sheet, profit_loss, trial_balance, cash_flow"
	case CodeRenderFailed:
		message = fmt.Sprintf("failed to render statement template %s", template)
		suggestion = "check the statement data for the template"
	default:
		message = fmt.Sprintf("statement error for template %s", template)
		suggestion = "review the statement data and template"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryStatement, code, message)
	} else {
		result = New(CategoryStatement, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("template", template)
}

// OutputError creates an output-emission-related error
func OutputError(code ErrorCode, target string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeWriteFailed:
		message = fmt.Sprintf("failed to write output: %s", target)
		suggestion = "check that the output directory exists and is writable"
	case CodeUnsupportedOutput:
		message = fmt.Sprintf("unsupported output format: %s", target)
		suggestion = "use one of: md, html, json"
	default:
		message = fmt.Sprintf("output error: %s", target)
		suggestion = "check the output configuration"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryOutput, code, message)
	} else {
		result = New(CategoryOutput, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("target", target)
}

// AuditError creates an audit-trail-related error
func AuditError(code ErrorCode, sessionID string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeSessionNotFound:
		message = fmt.Sprintf("audit session not found: %s", sessionID)
		suggestion = "start a session before recording steps against it"
	case CodePersistFailed:
		message = fmt.Sprintf("failed to persist audit record for session %s", sessionID)
		suggestion = "check that the audit directory exists and is writable"
	default:
		message = fmt.Sprintf("audit error for session %s", sessionID)
		suggestion = "check the audit trail configuration"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryAudit, code, message)
	} else {
		result = New(CategoryAudit, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("session_id", sessionID)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingField:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// StageError creates a pipeline-stage error
func StageError(code ErrorCode, stage string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeStageUnavailable:
		message = fmt.Sprintf("pipeline stage unavailable: %s", stage)
		suggestion = "wire a collaborator for this stage before running the pipeline"
	case CodeStageFailed:
		message = fmt.Sprintf("pipeline stage failed: %s", stage)
		suggestion = "inspect the stage errors in the run result"
	default:
		message = fmt.Sprintf("pipeline error during %s", stage)
		suggestion = "review the run result and audit trail"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("stage", stage)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *PipelineError {
	var message string
	var suggestion string

	switch code {
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	var result *PipelineError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*PipelineError      `json:"errors"`
	SampleErrors []*PipelineError      `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errors []*PipelineError) *ErrorSummary {
	if len(errors) == 0 {
		return &ErrorSummary{
			Total:      0,
			ByCategory: make(map[ErrorCategory]int),
			ByCode:     make(map[ErrorCode]int),
			Errors:     []*PipelineError{},
		}
	}

	summary := &ErrorSummary{
		Total:      len(errors),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errors,
	}

	// Count by category and code
	for _, err := range errors {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	// Include sample errors (max 5)
	maxSamples := 5
	if len(errors) > maxSamples {
		summary.SampleErrors = errors[:maxSamples]
	} else {
		summary.SampleErrors = errors
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	count, exists := es.ByCategory[category]
	return exists && count > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	count, exists := es.ByCode[code]
	return exists && count > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// Utility functions

// IsPipelineError checks if an error is a PipelineError
func IsPipelineError(err error) bool {
	_, ok := err.(*PipelineError)
	return ok
}

// AsPipelineError extracts a PipelineError from an error chain
func AsPipelineError(err error) (*PipelineError, bool) {
	var pipelineErr *PipelineError
	if errors.As(err, &pipelineErr) {
		return pipelineErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a PipelineError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *PipelineError {
	if err == nil {
		return nil
	}

	if pipelineErr, ok := AsPipelineError(err); ok {
		return pipelineErr
	}

	return Wrap(err, category, code, message)
}
