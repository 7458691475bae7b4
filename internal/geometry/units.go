package geometry

import (
	"fmt"
	"strconv"
	"strings"
)

// MetersPerNauticalMile keeps the legacy rounding used by existing NOTAM maps
// so radii stay comparable with them.
const MetersPerNauticalMile = 1852.001

// ToMeters converts a radius in the given unit (M, NM or KM) to meters.
func ToMeters(value float64, unit string) (float64, error) {
	switch strings.ToUpper(strings.TrimSpace(unit)) {
	case "NM":
		return value * MetersPerNauticalMile, nil
	case "KM":
		return value * 1000, nil
	case "M":
		return value, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedUnit, unit)
	}
}

// ParseRadius parses a radius token and unit and returns meters.
// The radius must be a positive number.
func ParseRadius(value, unit string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidRadius, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%w: %q must be positive", ErrInvalidRadius, value)
	}
	return ToMeters(v, unit)
}
