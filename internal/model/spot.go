package model

import "time"

// Spot is an individual geolocated parking space.  A spot belongs to
// exactly one sector for its lifetime and its (lat, lng) pair is unique
// within the garage.  The occupied flag is true iff some active session
// has this spot as its parked spot.
type Spot struct {
	ID         uint64    // spots.id
	SectorCode string    // spots.sector_code
	Lat        float64   // spots.lat
	Lng        float64   // spots.lng
	Occupied   bool      // spots.occupied
	CreatedAt  time.Time // spots.created_at
	UpdatedAt  time.Time // spots.updated_at
}
