// Package service contains infrastructure adapters that compose lower-level
// components into the interfaces the domain expects.
package service

import (
	"context"
	"errors"

	"github.com/neta-watch/ward-pulse/internal/domain/geo"
	"github.com/neta-watch/ward-pulse/internal/domain/shared"
	rediscache "github.com/neta-watch/ward-pulse/internal/infrastructure/persistence/redis"
	"github.com/neta-watch/ward-pulse/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHAINED PINCODE DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

// LocalDirectory is a directory that can also store resolved locations.
// The PostgreSQL pincode repository implements it.
type LocalDirectory interface {
	geo.Directory
	Save(ctx context.Context, loc geo.WardLocation) error
}

// PincodeDirectory resolves pincodes through a chain: the local constituency
// table first, then a Redis lookaside, then the postal API. Successful
// fallback lookups are written back to the local table so the chain
// self-heals. Implements geo.Directory.
type PincodeDirectory struct {
	local    LocalDirectory
	fallback geo.Directory
	cache    *rediscache.Cache
	log      *logger.Logger
}

// NewPincodeDirectory creates the chain. cache and fallback may be nil;
// a nil fallback limits resolution to the local table.
func NewPincodeDirectory(local LocalDirectory, fallback geo.Directory, cache *rediscache.Cache, log *logger.Logger) *PincodeDirectory {
	return &PincodeDirectory{
		local:    local,
		fallback: fallback,
		cache:    cache,
		log:      log.With(logger.Component("pincode_directory")),
	}
}

// Lookup resolves a pincode to its ward.
func (d *PincodeDirectory) Lookup(ctx context.Context, pincode shared.Pincode) (geo.WardLocation, error) {
	loc, err := d.local.Lookup(ctx, pincode)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, geo.ErrPincodeNotFound) {
		return geo.WardLocation{}, err
	}

	if d.cache != nil {
		var cached geo.WardLocation
		if cacheErr := d.cache.Get(ctx, rediscache.PincodeKey(string(pincode)), &cached); cacheErr == nil {
			return cached, nil
		}
	}

	if d.fallback == nil {
		return geo.WardLocation{}, geo.ErrPincodeNotFound
	}

	loc, err = d.fallback.Lookup(ctx, pincode)
	if err != nil {
		return geo.WardLocation{}, err
	}

	if d.cache != nil {
		if cacheErr := d.cache.Set(ctx, rediscache.PincodeKey(string(pincode)), loc, rediscache.TTLPincodeLookup); cacheErr != nil {
			d.log.Warn("failed to cache pincode lookup", logger.Pincode(string(pincode)), logger.Err(cacheErr))
		}
	}
	if saveErr := d.local.Save(ctx, loc); saveErr != nil {
		d.log.Warn("failed to persist pincode lookup", logger.Pincode(string(pincode)), logger.Err(saveErr))
	}

	return loc, nil
}
