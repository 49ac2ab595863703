package model

import (
	"time"

	"github.com/google/uuid"
)

// ParkingSession records one vehicle's stay from entry to exit.  A vehicle
// has at most one active session at any instant.  The session is created
// on ENTRY, gains a spot and a locked-in price factor on PARKED, and is
// closed with a final price on EXIT.  Sessions are never deleted; closed
// sessions form the historical record.
//
// Fields:
//  ID                   – primary key (UUID).
//  VehicleID            – vehicle this session belongs to.
//  SpotID               – spot assigned on PARKED (nil until then).
//  EntryTime            – when the vehicle entered the garage.
//  ParkedTime           – when the vehicle parked; defaults to EntryTime
//                         until a PARKED event arrives.
//  ExitTime             – when the vehicle exited (nil while active).
//  AppliedFactorPercent – price multiplier in percent (90/100/110/125),
//                         fixed at the moment of parking and never
//                         recomputed (nil until PARKED).
//  PriceCents           – final price in cents (nil until closed).
//  Active               – false once the session is closed.
type ParkingSession struct {
	ID                   uuid.UUID  // parking_sessions.id
	VehicleID            uint64     // parking_sessions.vehicle_id
	SpotID               *uint64    // parking_sessions.spot_id (nullable)
	EntryTime            time.Time  // parking_sessions.entry_time
	ParkedTime           time.Time  // parking_sessions.parked_time
	ExitTime             *time.Time // parking_sessions.exit_time (nullable)
	AppliedFactorPercent *int       // parking_sessions.applied_factor_percent (nullable)
	PriceCents           *int64     // parking_sessions.price_cents (nullable)
	Active               bool       // parking_sessions.active
	CreatedAt            time.Time  // parking_sessions.created_at
}

// Parked reports whether the session has been assigned a spot.
func (s *ParkingSession) Parked() bool { return s.SpotID != nil }
