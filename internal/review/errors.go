package review

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks caller mistakes: bad input, limit violations,
	// references to entities outside the caller's scope.
	ErrValidation = errors.New("validation error")
	// ErrApplication marks operations the engine refuses on state grounds,
	// such as deleting the last workflow or emptying a stage list.
	ErrApplication = errors.New("application error")
	// ErrNotFound marks lookups for entities that do not exist.
	ErrNotFound = errors.New("not found")
)

// Wrap builds an error message that includes operation context while tagging
// it with the provided marker for later status classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrApplication
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind names the sentinel class of an error for logging and HTTP mapping.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrApplication):
		return "application"
	default:
		return "internal"
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "engine failure"
	}
	return strings.Join(parts, ": ")
}
