package scoring

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports malformed or missing input the caller can correct.
// Fields maps field names to per-field messages when known.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(names, ", "))
}

// newFieldError builds a single-field validation error.
func newFieldError(field, message string) *ValidationError {
	return &ValidationError{
		Message: "invalid input",
		Fields:  map[string]string{field: message},
	}
}
