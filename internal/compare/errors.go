package compare

import (
	"errors"
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrNoColumns is returned when alignment and exclusions leave nothing to
// compare.
var ErrNoColumns = eris.New("compare: no columns left to compare")

// ErrSuperseded is returned by Service.Compare when a newer comparison
// replaced the run before it finished.
var ErrSuperseded = eris.New("compare: superseded by a newer comparison")

// ConfigError wraps a problem with the comparison settings rather than
// with the input data.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfig reports whether err (or any error in its chain) is a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// Dimensions checked by the capacity limits.
const (
	DimensionRows    = "rows"
	DimensionColumns = "columns"
)

// CapacityError reports an input that exceeds a configured limit.
type CapacityError struct {
	Side      string
	Dimension string
	Count     int
	Limit     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("compare: file %s has %d %s, %d over the limit of %d",
		e.Side, e.Count, e.Dimension, e.Excess(), e.Limit)
}

// Excess is how far the input is over the limit.
func (e *CapacityError) Excess() int {
	return e.Count - e.Limit
}

// AsCapacity returns the CapacityError in err's chain, if any.
func AsCapacity(err error) (*CapacityError, bool) {
	var ce *CapacityError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
