package recurrence

import (
	"errors"
	"fmt"
)

var (
	errMissing  = errors.New("required field missing")
	errMismatch = errors.New("anchor date does not match rule")
	errInvalid  = errors.New("invalid value")
	errConflict = errors.New("conflicting fields")
)

// RuleError reports a malformed recurrence rule. The run that owns the
// rule should not be compiled.
type RuleError struct {
	Field string
	Err   error
}

func (e *RuleError) Error() string { return fmt.Sprintf("recurrence %s: %v", e.Field, e.Err) }
func (e *RuleError) Unwrap() error { return e.Err }

// IsRuleError reports whether err (or any error in its chain) is a RuleError.
func IsRuleError(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

func missing(field string) error {
	return &RuleError{Field: field, Err: errMissing}
}

func mismatch(field, format string, a ...any) error {
	return &RuleError{Field: field, Err: fmt.Errorf("%w: %s", errMismatch, fmt.Sprintf(format, a...))}
}

func invalid(field, format string, a ...any) error {
	return &RuleError{Field: field, Err: fmt.Errorf("%w: %s", errInvalid, fmt.Sprintf(format, a...))}
}

func conflict(field, format string, a ...any) error {
	return &RuleError{Field: field, Err: fmt.Errorf("%w: %s", errConflict, fmt.Sprintf(format, a...))}
}
