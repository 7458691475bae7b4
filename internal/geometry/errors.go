package geometry

import "errors"

// Error classes shared by the decoder, the parsers and the shells.
var (
	// ErrNoShapesFound signals that a text contained neither circle nor polygon geometry.
	ErrNoShapesFound = errors.New("no shapes found")

	// ErrMalformedCoordinate marks a coordinate token that could not be decoded.
	ErrMalformedCoordinate = errors.New("malformed coordinate")

	// ErrUnsupportedUnit marks a radius unit outside M, NM and KM.
	ErrUnsupportedUnit = errors.New("unsupported unit")

	// ErrInvalidRadius marks a radius that is not a positive number.
	ErrInvalidRadius = errors.New("invalid radius")

	// ErrAmbiguousMapCenter is returned when there is nothing to center a map on.
	ErrAmbiguousMapCenter = errors.New("ambiguous map center")
)

// Class returns a short label for the error class of err, for metrics and logs.
func Class(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrMalformedCoordinate):
		return "malformed_coordinate"
	case errors.Is(err, ErrUnsupportedUnit):
		return "unsupported_unit"
	case errors.Is(err, ErrInvalidRadius):
		return "invalid_radius"
	case errors.Is(err, ErrAmbiguousMapCenter):
		return "ambiguous_map_center"
	case errors.Is(err, ErrNoShapesFound):
		return "no_shapes_found"
	default:
		return "other"
	}
}
