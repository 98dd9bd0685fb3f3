package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrFieldNotFound   = fmt.Errorf("%w: field", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// Input errors
	ErrEmptyInput       = errors.New("empty input")
	ErrNonNumeric       = errors.New("value is not numeric")
	ErrInvalidPredicate = errors.New("invalid predicate")
	ErrUnknownOp        = errors.New("unknown aggregation operator")

	// Engine errors
	ErrEngineFault      = errors.New("analytics engine fault")
	ErrGraphUnavailable = fmt.Errorf("%w: correlation graph not built", ErrEngineFault)
	ErrCubeUnavailable  = fmt.Errorf("%w: cube not built", ErrEngineFault)
	ErrNoCuboidData     = fmt.Errorf("%w: no cuboid could be retrieved", ErrEngineFault)

	// Scheduling errors
	ErrSuperseded = errors.New("explain request superseded by a newer request")
)

// Error constructors with context
func NewFieldNotFoundError(key string) error {
	return fmt.Errorf("%w: %s", ErrFieldNotFound, key)
}

func NewNonNumericError(key string) error {
	return fmt.Errorf("%w: %s", ErrNonNumeric, key)
}

func NewEngineFaultError(stage string, err error) error {
	return fmt.Errorf("%w during %s: %v", ErrEngineFault, stage, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsEngineFault(err error) bool {
	return errors.Is(err, ErrEngineFault)
}

func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}
