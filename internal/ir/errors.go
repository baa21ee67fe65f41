package ir

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorCode categorizes setup errors raised while building search tables.
type ErrorCode string

const (
	// ErrCodeConfig indicates an invalid field or field combination.
	ErrCodeConfig ErrorCode = "E001"

	// ErrCodeInvalidPlaceNotation indicates place notation that cannot be expanded.
	ErrCodeInvalidPlaceNotation ErrorCode = "E002"

	// ErrCodeInvalidPartHead indicates a part head that is not a valid row.
	ErrCodeInvalidPartHead ErrorCode = "E003"

	// ErrCodeIncompatiblePartHead indicates a part head that conflicts with
	// the requested course-head tracking.
	ErrCodeIncompatiblePartHead ErrorCode = "E004"

	// ErrCodeDuplicateCallSymbol indicates two calls sharing a symbol at one
	// lead location.
	ErrCodeDuplicateCallSymbol ErrorCode = "E005"

	// ErrCodeGraphSizeLimit indicates the chunk graph outgrew its limit.
	ErrCodeGraphSizeLimit ErrorCode = "E006"
)

// SetupError is a fatal error raised before the search starts. Every setup
// error names the offending field and value so the configuration can be
// corrected.
type SetupError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Field is the configuration field at fault, e.g. "methods[1].place_notation".
	Field string

	// Value is the offending value as written.
	Value string

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] ", e.Code)
	if e.Field != "" {
		sb.WriteString(e.Field)
		if e.Value != "" {
			fmt.Fprintf(&sb, " = %q", e.Value)
		}
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + e.Details[k]
		}
		fmt.Fprintf(&sb, " (%s)", strings.Join(parts, ", "))
	}
	return sb.String()
}

func hasCode(err error, code ErrorCode) bool {
	var se *SetupError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsSetupError reports whether err is any setup error.
func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// IsConfigError reports whether err is a configuration error.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool { return hasCode(err, ErrCodeConfig) }

// IsInvalidPlaceNotation reports whether err is a place notation error.
func IsInvalidPlaceNotation(err error) bool { return hasCode(err, ErrCodeInvalidPlaceNotation) }

// IsInvalidPartHead reports whether err is an invalid part head error.
func IsInvalidPartHead(err error) bool { return hasCode(err, ErrCodeInvalidPartHead) }

// IsIncompatiblePartHead reports whether err is an incompatible part head error.
func IsIncompatiblePartHead(err error) bool { return hasCode(err, ErrCodeIncompatiblePartHead) }

// IsDuplicateCallSymbol reports whether err is a duplicate call symbol error.
func IsDuplicateCallSymbol(err error) bool { return hasCode(err, ErrCodeDuplicateCallSymbol) }

// IsGraphSizeLimit reports whether err is a graph size limit error.
func IsGraphSizeLimit(err error) bool { return hasCode(err, ErrCodeGraphSizeLimit) }

// NewConfigError creates a SetupError for an invalid field.
func NewConfigError(field, value, message string) *SetupError {
	return &SetupError{Code: ErrCodeConfig, Field: field, Value: value, Message: message}
}

// NewInvalidPlaceNotation creates a SetupError for unusable place notation.
func NewInvalidPlaceNotation(field, notation, message string) *SetupError {
	return &SetupError{Code: ErrCodeInvalidPlaceNotation, Field: field, Value: notation, Message: message}
}

// NewInvalidPartHead creates a SetupError for an invalid part head.
func NewInvalidPartHead(value, message string) *SetupError {
	return &SetupError{Code: ErrCodeInvalidPartHead, Field: "part_head", Value: value, Message: message}
}

// NewIncompatiblePartHead creates a SetupError for a part head that conflicts
// with the requested tracking mode or course heads.
func NewIncompatiblePartHead(field, value, message string) *SetupError {
	return &SetupError{Code: ErrCodeIncompatiblePartHead, Field: field, Value: value, Message: message}
}

// NewDuplicateCallSymbol creates a SetupError for two calls sharing a symbol
// at one lead location.
func NewDuplicateCallSymbol(label, symbol string) *SetupError {
	return &SetupError{
		Code:    ErrCodeDuplicateCallSymbol,
		Field:   "calls",
		Value:   symbol,
		Message: fmt.Sprintf("two calls at lead location %q share symbol %q", label, symbol),
		Details: map[string]string{"lead_location": label},
	}
}

// NewGraphSizeLimit creates a SetupError for a chunk graph that grew past
// its limit.
func NewGraphSizeLimit(limit int) *SetupError {
	return &SetupError{
		Code:    ErrCodeGraphSizeLimit,
		Field:   "graph_size_limit",
		Value:   fmt.Sprintf("%d", limit),
		Message: "chunk graph exceeded the size limit; restrict course heads or raise the limit",
	}
}
