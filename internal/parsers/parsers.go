// Package parsers imports all parser packages to trigger their init() registration.
// Import this package for side effects only.
package parsers

import (
	// Import all parser packages to register them with the registry.
	_ "notam_mapper/internal/parsers/circle"
	_ "notam_mapper/internal/parsers/polygon"
)
