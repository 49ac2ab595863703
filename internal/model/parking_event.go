package model

import "time"

// Event types recorded in the parking_events audit log.
const (
	EventEntry  = "ENTRY"
	EventParked = "PARKED"
	EventExit   = "EXIT"
)

// ParkingEvent is an immutable audit record of one raw webhook event.
// Rows are append-only and never updated.
type ParkingEvent struct {
	ID        uint64    // parking_events.id
	EventType string    // parking_events.event_type (ENTRY, PARKED, EXIT)
	EventTime time.Time // parking_events.event_time
	VehicleID uint64    // parking_events.vehicle_id
	SpotID    *uint64   // parking_events.spot_id (nullable, PARKED only)
	CreatedAt time.Time // parking_events.created_at
}
