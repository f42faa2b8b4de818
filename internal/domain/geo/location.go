// Package geo contains the pincode-to-ward geography model. A ward is the
// local administrative subdivision a pincode belongs to; scoring rows carry
// the resolved ward, city, and state so the report cards are human-readable.
package geo

import (
	"errors"
	"fmt"

	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// WARD LOCATION
// ══════════════════════════════════════════════════════════════════════════════

// WardLocation is the resolved human-readable geography for one pincode.
type WardLocation struct {
	// Pincode - the postal code this location describes.
	Pincode shared.Pincode

	// Ward - ward or constituency name.
	Ward string

	// City - city or district.
	City string

	// State - Indian state or union territory.
	State string
}

// Placeholder builds the degraded location used when no directory can resolve
// a pincode: the run continues with a synthesized ward name rather than
// failing.
func Placeholder(pincode shared.Pincode) WardLocation {
	return WardLocation{
		Pincode: pincode,
		Ward:    "Ward " + pincode.String(),
		City:    "Unknown",
		State:   "Unknown",
	}
}

// IsPlaceholder reports whether this location was synthesized rather than
// resolved from a directory.
func (l WardLocation) IsPlaceholder() bool {
	return l.City == "Unknown" && l.State == "Unknown"
}

// String returns a short representation for logging.
func (l WardLocation) String() string {
	return fmt.Sprintf("%s (%s, %s, %s)", l.Pincode, l.Ward, l.City, l.State)
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrPincodeNotFound - no directory entry for the pincode.
	ErrPincodeNotFound = errors.New("pincode not found in directory")

	// ErrDirectoryUnavailable - the directory backend could not be reached.
	ErrDirectoryUnavailable = errors.New("pincode directory unavailable")
)
