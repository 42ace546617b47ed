package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryMapping       ErrorCategory = "mapping"
	CategoryPeriod        ErrorCategory = "period"
	CategoryAggregation   ErrorCategory = "aggregation"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound  ErrorCode = "file_not_found"
	CodeFileCorrupted ErrorCode = "file_corrupted"
	CodeInvalidFormat ErrorCode = "invalid_format"

	// Mapping errors
	CodeMappingIncomplete ErrorCode = "mapping_incomplete"
	CodeUnknownField      ErrorCode = "unknown_field"
	CodeDuplicateTarget   ErrorCode = "duplicate_target"

	// Period resolution errors
	CodeUnparseablePeriod ErrorCode = "unparseable_period"
	CodeAmbiguousPeriod   ErrorCode = "ambiguous_period"
	CodeOutOfRange        ErrorCode = "out_of_range"

	// Aggregation errors
	CodeRangeInvalid    ErrorCode = "range_invalid"
	CodeNoMeasures      ErrorCode = "no_measures"
	CodeCoercionFailure ErrorCode = "coercion_failure"

	// Validation errors
	CodeMissingField ErrorCode = "missing_field"
	CodeInvalidData  ErrorCode = "invalid_data"
	CodeUnknownFix   ErrorCode = "unknown_fix"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// EngineError is the base error type for all application errors
type EngineError struct {
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
func (e *EngineError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *EngineError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryMapping, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryPeriod, CategoryAggregation, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value interface{}) *EngineError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *EngineError) WithSuggestion(suggestion string) *EngineError {
	e.Suggestion = suggestion
	return e
}

// New creates a new EngineError
func New(category ErrorCategory, code ErrorCode, message string) *EngineError {
	return &EngineError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with EngineError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *EngineError {
	if err == nil {
		return nil
	}

	return &EngineError{
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

// AsEngineError extracts an EngineError from err's chain
func AsEngineError(err error) (*EngineError, bool) {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr, true
	}
	return nil, false
}

// IsCode reports whether err is an EngineError carrying the given code
func IsCode(err error, code ErrorCode) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Code == code
	}
	return false
}

// IsCategory reports whether err is an EngineError in the given category
func IsCategory(err error, category ErrorCategory) bool {
	var engineErr *EngineError
	if errors.As(err, &engineErr) {
		return engineErr.Category == category
	}
	return false
}

// Specific error constructors

// MappingError creates a mapping-related error
func MappingError(code ErrorCode, field string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeMappingIncomplete:
		message = fmt.Sprintf("required target field '%s' has no mapped source column", field)
		suggestion = "map a source column to this field or supply a manual mapping"
	case CodeUnknownField:
		message = fmt.Sprintf("unknown target field id: %s", field)
		suggestion = "use a field id defined in the target schema registry"
	case CodeDuplicateTarget:
		message = fmt.Sprintf("target field '%s' is assigned to more than one source column", field)
		suggestion = "remove the duplicate assignment from the supplied mapping"
	default:
		message = fmt.Sprintf("mapping error for field '%s'", field)
		suggestion = "check the column mapping and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryMapping, code, message)
	} else {
		result = New(CategoryMapping, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("field", field)
}

// PeriodError creates a period-resolution error
func PeriodError(code ErrorCode, value string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeUnparseablePeriod:
		message = fmt.Sprintf("cannot parse period value: '%s'", value)
		suggestion = "use FY<yy>-Q<n>, YYYY-MM-DD, or a month-year like 'Aug 2025'"
	case CodeAmbiguousPeriod:
		message = fmt.Sprintf("ambiguous period value: '%s'", value)
		suggestion = "use an explicit fiscal period (FY<yy>-Q<n>) to avoid calendar/fiscal ambiguity"
	case CodeOutOfRange:
		message = fmt.Sprintf("period value outside acceptable range: '%s'", value)
		suggestion = "widen the requested period range or correct the record"
	default:
		message = fmt.Sprintf("period error for value '%s'", value)
		suggestion = "check the period value format"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryPeriod, code, message)
	} else {
		result = New(CategoryPeriod, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("value", value)
}

// AggregationError creates an aggregation-related error
func AggregationError(code ErrorCode, detail string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeRangeInvalid:
		message = fmt.Sprintf("invalid period range: %s", detail)
		suggestion = "supply a from-period that is not after the to-period"
	case CodeNoMeasures:
		message = "no measure fields requested"
		suggestion = "request at least one measure field for aggregation"
	case CodeCoercionFailure:
		message = fmt.Sprintf("measure coercion failure: %s", detail)
		suggestion = "check that measure columns contain numeric values"
	default:
		message = fmt.Sprintf("aggregation error: %s", detail)
		suggestion = "review the aggregation request"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryAggregation, code, message)
	} else {
		result = New(CategoryAggregation, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("detail", detail)
}

// ValidationError creates a validation-related error
func ValidationError(code ErrorCode, field string, value interface{}, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidData:
		message = fmt.Sprintf("invalid data in field '%s': %v", field, value)
		suggestion = "correct the data format or remove the invalid entry"
	case CodeUnknownFix:
		message = fmt.Sprintf("unknown fix id: %v", value)
		suggestion = "use one of the named fixes: numeric_coercion, clip_outliers, fill_missing, percent_to_decimal"
	default:
		message = fmt.Sprintf("validation error in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	var result *EngineError
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

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *EngineError
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

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *EngineError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file appears to be corrupted: %s", path)
		suggestion = "verify the file integrity and try using a backup copy"
	case CodeInvalidFormat:
		message = fmt.Sprintf("invalid file format: %s", path)
		suggestion = "check the data format and ensure it matches the expected structure"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *EngineError {
	message := fmt.Sprintf("unexpected error during %s", operation)
	suggestion := "this is likely a bug - please report it with the error details"

	var result *EngineError
	if err != nil {
		result = Wrap(err, CategoryInternal, code, message)
	} else {
		result = New(CategoryInternal, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("operation", operation)
}
