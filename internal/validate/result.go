package validate

import (
	"errors"
	"fmt"
)

// Code identifies the rule a validation error comes from.
type Code string

const (
	CodeDuplicateDefinitionID   Code = "duplicate_definition_id"
	CodeDuplicateVariableName   Code = "duplicate_variable_name"
	CodeDuplicateLevelName      Code = "duplicate_level_name"
	CodeDefinitionWithoutLevels Code = "definition_without_levels"
	CodeInvalidOdinVariableName Code = "invalid_odin_variable_name"

	CodeDuplicateFrameID         Code = "duplicate_frame_id"
	CodeUnknownVariableDef       Code = "unknown_variable_definition"
	CodeUnknownLevelDef          Code = "unknown_level_definition"
	CodeLevelSetMismatch         Code = "level_set_mismatch"
	CodeNegativeFrameTarget      Code = "negative_frame_target"
	CodeNegativeTarget           Code = "negative_target"
	CodeNegativeMaxTarget        Code = "negative_max_target"
	CodeNegativeMaxOvershoot     Code = "negative_max_overshoot"
	CodeMaxOvershootOnNonLeaf    Code = "max_overshoot_on_non_leaf"
	CodeNoVisibleLevel           Code = "no_visible_level"
	CodeMultiLevelHasVariables   Code = "multi_level_has_variables"
	CodeTargetAboveMaxTarget     Code = "target_above_max_target"
	CodeNestedTargetsAboveMax    Code = "nested_targets_above_max_target"
	CodeTargetAboveNestedMaximum Code = "target_above_nested_maximum"
)

// Error is one rule violation. Args carries the offending identifiers and
// the numbers behind the message, keyed by name.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Args    map[string]any `json:"args,omitempty"`
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result is the outcome of validating one frame.
type Result struct {
	IsValid bool    `json:"isValid"`
	Errors  []Error `json:"errors"`
}

// Has reports whether the result contains an error with the given code.
func (r Result) Has(code Code) bool {
	return r.Find(code) != nil
}

// Find returns the first error with the given code, or nil.
func (r Result) Find(code Code) *Error {
	for i := range r.Errors {
		if r.Errors[i].Code == code {
			return &r.Errors[i]
		}
	}
	return nil
}

// Err returns nil for a valid result and otherwise all errors joined.
func (r Result) Err() error {
	if r.IsValid {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

func newError(code Code, args map[string]any, format string, a ...any) Error {
	return Error{Code: code, Message: fmt.Sprintf(format, a...), Args: args}
}
