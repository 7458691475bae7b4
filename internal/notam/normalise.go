package notam

import "strings"

// Normalise collapses a raw NOTAM block into one line: line breaks, tabs and
// the non-breaking spaces left by AIS web pages become single spaces, and
// runs of spaces are reduced to one.
func Normalise(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
