package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openvalet/garage/internal/model"
)

// SectorOccupancy is one row of the per-sector occupancy snapshot used by
// admission control and by the pricing read at parking time.
type SectorOccupancy struct {
	Code     string // sector code
	Occupied int    // spots currently marked occupied
	Capacity int    // sector max capacity
}

// VehicleRepository provides access to the vehicles table.
type VehicleRepository interface {
	// UpsertByPlate returns the vehicle for the plate, creating it when it
	// does not exist yet.  The create is a single atomic statement so two
	// concurrent first ENTRY events for the same plate cannot produce
	// duplicate rows.
	UpsertByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
	// ByPlate returns the vehicle for the plate or ErrVehicleNotFound.
	ByPlate(ctx context.Context, plate string) (*model.Vehicle, error)
}

// SectorRepository provides access to the sectors table.
type SectorRepository interface {
	// ByCode returns the sector or ErrSectorNotFound.
	ByCode(ctx context.Context, code string) (*model.Sector, error)
	// OccupancyCounts returns one entry per configured sector with its
	// current occupied-spot count and capacity.
	OccupancyCounts(ctx context.Context) ([]SectorOccupancy, error)
	// Upsert creates or refreshes a sector; used by the topology sync.
	Upsert(ctx context.Context, sector *model.Sector) error
}

// SpotRepository provides access to the spots table.
type SpotRepository interface {
	// ByLocation returns the spot at (lat, lng) or ErrSpotNotFound.
	ByLocation(ctx context.Context, lat, lng float64) (*model.Spot, error)
	// ByID returns the spot or ErrSpotNotFound.
	ByID(ctx context.Context, spotID uint64) (*model.Spot, error)
	// SetOccupied flips the occupied flag of one spot.
	SetOccupied(ctx context.Context, spotID uint64, occupied bool) error
	// Upsert creates or refreshes a spot; used by the topology sync.
	Upsert(ctx context.Context, spot *model.Spot) error
}

// SessionRepository provides access to the parking_sessions table.
type SessionRepository interface {
	Create(ctx context.Context, session *model.ParkingSession) error
	// ActiveByVehicle returns the vehicle's open session or
	// ErrNoActiveSession.
	ActiveByVehicle(ctx context.Context, vehicleID uint64) (*model.ParkingSession, error)
	// ActiveBySpot returns the open session parked at the spot or
	// ErrNoActiveSession.
	ActiveBySpot(ctx context.Context, spotID uint64) (*model.ParkingSession, error)
	// SetParked assigns the spot, parked time and locked-in price factor.
	SetParked(ctx context.Context, id uuid.UUID, spotID uint64, parkedTime time.Time, factorPercent int) error
	// Close sets the exit time and final price and clears the active flag.
	Close(ctx context.Context, id uuid.UUID, exitTime time.Time, priceCents int64) error
}

// EventRepository appends to the parking_events audit log.
type EventRepository interface {
	Append(ctx context.Context, event *model.ParkingEvent) error
}

// RevenueRepository provides access to the revenues ledger.
type RevenueRepository interface {
	// Add accumulates amountCents into the (sector, date) row, creating it
	// at zero first when absent, and returns the updated total.  Safe
	// under concurrent settlements for the same key.
	Add(ctx context.Context, sectorCode string, date time.Time, amountCents int64) (int64, error)
	// BySectorAndDate returns the ledger row for the key, or a zero-amount
	// row when no settlement has been recorded yet.
	BySectorAndDate(ctx context.Context, sectorCode string, date time.Time) (*model.Revenue, error)
}
