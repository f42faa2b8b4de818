package geo

import (
	"context"

	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// Directory resolves pincodes to ward locations.
//
// Two implementations exist: the pincode_constituency table (primary) and the
// external postal API client (fallback). The scoring run treats every lookup
// failure as non-fatal and degrades to Placeholder, so implementations should
// return ErrPincodeNotFound or ErrDirectoryUnavailable rather than inventing
// data.
type Directory interface {
	// Lookup resolves one pincode.
	Lookup(ctx context.Context, pincode shared.Pincode) (WardLocation, error)
}

// DirectoryFunc adapts a function to the Directory interface.
type DirectoryFunc func(ctx context.Context, pincode shared.Pincode) (WardLocation, error)

// Lookup calls the wrapped function.
func (f DirectoryFunc) Lookup(ctx context.Context, pincode shared.Pincode) (WardLocation, error) {
	return f(ctx, pincode)
}
