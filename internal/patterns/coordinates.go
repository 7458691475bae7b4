// Package patterns provides shared regex patterns and helper functions for NOTAM parsing.
// This file contains coordinate conversion utilities.

package patterns

import (
	"fmt"
	"strconv"
	"strings"

	"notam_mapper/internal/geometry"
)

// Degree field widths of the fixed-width NOTAM coordinate tokens.
const (
	LatitudeDegreeDigits  = 2
	LongitudeDegreeDigits = 3
)

// CoordinateError describes a token the decoder refused. It unwraps to
// geometry.ErrMalformedCoordinate.
type CoordinateError struct {
	Token  string
	Reason string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("malformed coordinate %q: %s", e.Token, e.Reason)
}

func (e *CoordinateError) Unwrap() error {
	return geometry.ErrMalformedCoordinate
}

// ParseDMSToken decodes a fixed-width degrees/minutes/seconds token into
// decimal degrees. The first degDigits characters are degrees, the next two
// are minutes and whatever remains is seconds (possibly fractional, possibly
// absent). S and W hemispheres give negative values.
//
// Supported shapes:
//   - DDMM / DDDMM (e.g., 4012 = 40°12')
//   - DDMMSS / DDDMMSS (e.g., 0734500 = 073°45'00")
//   - DDMMSS.s / DDDMMSS.s (e.g., 401230.5 = 40°12'30.5")
//
// hemisphere may be empty when the letter is still attached to the token.
func ParseDMSToken(token string, degDigits int, hemisphere string) (float64, error) {
	original := token
	token = strings.TrimSpace(token)
	if hemisphere == "" {
		token, hemisphere = SplitHemisphere(token)
	}
	hemisphere = strings.ToUpper(strings.TrimSpace(hemisphere))

	allowed, limit := "NS", 90.0
	if degDigits == LongitudeDegreeDigits {
		allowed, limit = "EW", 180.0
	}
	if len(hemisphere) != 1 || !strings.Contains(allowed, hemisphere) {
		return 0, &CoordinateError{Token: original, Reason: fmt.Sprintf("hemisphere %q not one of %s", hemisphere, allowed)}
	}

	if len(token) < degDigits+2 {
		return 0, &CoordinateError{Token: original, Reason: fmt.Sprintf("shorter than %d digits", degDigits+2)}
	}
	if !isDigits(token[:degDigits+2]) {
		return 0, &CoordinateError{Token: original, Reason: "degrees and minutes must be digits"}
	}

	deg, _ := strconv.Atoi(token[:degDigits])
	min, _ := strconv.Atoi(token[degDigits : degDigits+2])
	if min >= 60 {
		return 0, &CoordinateError{Token: original, Reason: fmt.Sprintf("minutes %d out of range", min)}
	}

	var sec float64
	if rest := token[degDigits+2:]; rest != "" {
		if !isDecimal(rest) {
			return 0, &CoordinateError{Token: original, Reason: fmt.Sprintf("seconds %q not numeric", rest)}
		}
		sec, _ = strconv.ParseFloat(rest, 64)
		if sec >= 60 {
			return 0, &CoordinateError{Token: original, Reason: fmt.Sprintf("seconds %g out of range", sec)}
		}
	}

	result := float64(deg) + float64(min)/60.0 + sec/3600.0
	if result > limit {
		return 0, &CoordinateError{Token: original, Reason: fmt.Sprintf("%g exceeds %g degrees", result, limit)}
	}

	if hemisphere == "S" || hemisphere == "W" {
		result = -result
	}

	return result, nil
}

// ParseLatitudeToken parses a DDMM[SS[.s]] latitude with an N/S hemisphere.
func ParseLatitudeToken(value, dir string) (float64, error) {
	return ParseDMSToken(value, LatitudeDegreeDigits, dir)
}

// ParseLongitudeToken parses a DDDMM[SS[.s]] longitude with an E/W hemisphere.
func ParseLongitudeToken(value, dir string) (float64, error) {
	return ParseDMSToken(value, LongitudeDegreeDigits, dir)
}

// ParseCoordinate decodes a latitude/longitude token pair into a Coordinate.
func ParseCoordinate(lat, latDir, lon, lonDir string) (geometry.Coordinate, error) {
	la, err := ParseLatitudeToken(lat, latDir)
	if err != nil {
		return geometry.Coordinate{}, err
	}
	lo, err := ParseLongitudeToken(lon, lonDir)
	if err != nil {
		return geometry.Coordinate{}, err
	}
	c := geometry.Coordinate{Lat: la, Lon: lo}
	return c, c.Validate()
}

// SplitHemisphere separates a trailing hemisphere letter from a token,
// e.g. "401200N" -> ("401200", "N"). Tokens without one are returned unchanged.
func SplitHemisphere(token string) (digits, hemisphere string) {
	if token == "" {
		return "", ""
	}
	last := strings.ToUpper(token[len(token)-1:])
	if strings.Contains("NSEW", last) {
		return token[:len(token)-1], last
	}
	return token, ""
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// isDecimal accepts digits with at most one decimal point.
func isDecimal(s string) bool {
	whole, frac, found := strings.Cut(s, ".")
	if !found {
		return isDigits(whole)
	}
	return (whole == "" || isDigits(whole)) && isDigits(frac)
}
