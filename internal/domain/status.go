package domain

import (
	"errors"
	"fmt"
)

// TeaResolution states how (or whether) a line's tea base was determined.
type TeaResolution string

const (
	// ResolutionBlendDefault means the item's configured default blend applies.
	ResolutionBlendDefault TeaResolution = "blend_default"
	// ResolutionOverride means exactly one explicit tea choice was made.
	ResolutionOverride TeaResolution = "override"
	// ResolutionMissingChoice means the item needs a tea choice and none was made.
	ResolutionMissingChoice TeaResolution = "missing_choice"
	// ResolutionConflict means more than one distinct tea choice was made.
	ResolutionConflict TeaResolution = "conflict"
	// ResolutionUnknown means the item maps to no known menu entry.
	ResolutionUnknown TeaResolution = "unknown"
)

// AllResolutions lists every status in a stable reporting order.
var AllResolutions = []TeaResolution{
	ResolutionBlendDefault,
	ResolutionOverride,
	ResolutionMissingChoice,
	ResolutionConflict,
	ResolutionUnknown,
}

// ErrUnresolvable marks lines whose resolution status excludes them from
// volume math. Callers match it with errors.Is.
var ErrUnresolvable = errors.New("line unresolvable for volume estimation")

// UnresolvableError carries the offending status alongside ErrUnresolvable.
type UnresolvableError struct {
	Item       string
	Resolution TeaResolution
}

func (e *UnresolvableError) Error() string {
	return fmt.Sprintf("item %q unresolvable: tea_resolution=%s", e.Item, e.Resolution)
}

func (e *UnresolvableError) Unwrap() error { return ErrUnresolvable }

// ConfigurationError is fatal: a required planning constant is missing,
// zero, or negative. A run must stop before writing any output.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s %s", e.Field, e.Reason)
}

// IsConfigurationError reports whether err is (or wraps) a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}
