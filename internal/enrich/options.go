package enrich

import (
	"errors"
	"fmt"
)

// Errors returned by the enrichment engine.
var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrMissingRoot     = errors.New("missing namespace root")
	ErrUnknownMethod   = errors.New("unknown multiple testing correction method")
	ErrInvalidOptions  = errors.New("invalid options")
	ErrInvalidQuery    = errors.New("invalid query")
)

// Method is a multiple testing correction method.
type Method string

// Supported correction methods.
const (
	Bonferroni        Method = "bonferroni"
	BenjaminiHochberg Method = "benjamini-hochberg"
)

// ParseMethod converts a method name into a Method.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case Bonferroni, BenjaminiHochberg:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Options controls which terms are tested and how p-values are corrected.
// The zero value is not valid; start from DefaultOptions.
type Options struct {
	// MinHitSize is the smallest query/category overlap that is tested.
	MinHitSize int
	// MinCategorySize and MaxCategorySize bound the propagated category
	// size n, inclusive on both ends.
	MinCategorySize int
	MaxCategorySize int
	// Alpha is the significance level used by the correction.
	Alpha  float64
	Method Method
}

// DefaultOptions returns the default analysis options.
func DefaultOptions() Options {
	return Options{
		MinHitSize:      2,
		MinCategorySize: 3,
		MaxCategorySize: 500,
		Alpha:           0.05,
		Method:          BenjaminiHochberg,
	}
}

// Validate checks the options for consistency.
func (o Options) Validate() error {
	if o.MinHitSize < 0 {
		return fmt.Errorf("%w: min hit size %d is negative", ErrInvalidOptions, o.MinHitSize)
	}
	if o.MinCategorySize < 0 {
		return fmt.Errorf("%w: min category size %d is negative", ErrInvalidOptions, o.MinCategorySize)
	}
	if o.MaxCategorySize < o.MinCategorySize {
		return fmt.Errorf("%w: max category size %d is below min category size %d",
			ErrInvalidOptions, o.MaxCategorySize, o.MinCategorySize)
	}
	if err := validateAlpha(o.Alpha); err != nil {
		return err
	}
	if _, err := ParseMethod(string(o.Method)); err != nil {
		return err
	}
	return nil
}

func validateAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return fmt.Errorf("%w: alpha %v must be in (0, 1)", ErrInvalidOptions, alpha)
	}
	return nil
}
