package postgres

import (
	"context"
	"fmt"

	"github.com/neta-watch/ward-pulse/internal/domain/geo"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
)

// PincodeRepo implements geo.Directory on the local pincode_constituency
// table. It is the primary ward lookup; the postal API client is the fallback
// for pincodes this table has never seen.
type PincodeRepo struct {
	conn *Connection
}

// NewPincodeRepo creates a new pincode directory repository.
func NewPincodeRepo(conn *Connection) *PincodeRepo {
	return &PincodeRepo{conn: conn}
}

// Lookup resolves a pincode to its ward, or geo.ErrPincodeNotFound.
func (r *PincodeRepo) Lookup(ctx context.Context, pincode shared.Pincode) (geo.WardLocation, error) {
	var loc geo.WardLocation
	err := r.conn.QueryRow(ctx, `
		SELECT pincode, ward_name, city, state
		FROM pincode_constituency
		WHERE pincode = $1
	`, string(pincode)).Scan(&loc.Pincode, &loc.Ward, &loc.City, &loc.State)
	if err != nil {
		if IsNoRows(err) {
			return geo.WardLocation{}, geo.ErrPincodeNotFound
		}
		return geo.WardLocation{}, fmt.Errorf("pincode directory: lookup %s: %w", pincode, err)
	}
	return loc, nil
}

// Save stores a resolved location so future lookups stay local. Used to
// persist successful postal API fallback results.
func (r *PincodeRepo) Save(ctx context.Context, loc geo.WardLocation) error {
	_, err := r.conn.Exec(ctx, `
		INSERT INTO pincode_constituency (pincode, ward_name, city, state, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (pincode) DO UPDATE SET
			ward_name = EXCLUDED.ward_name,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			updated_at = NOW()
	`, string(loc.Pincode), loc.Ward, loc.City, loc.State)
	if err != nil {
		return fmt.Errorf("pincode directory: save %s: %w", loc.Pincode, err)
	}
	return nil
}
