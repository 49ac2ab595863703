package model

import "time"

// Vehicle identifies a car by its license plate.  Vehicles are created
// implicitly the first time an ENTRY event references an unknown plate and
// are never deleted afterwards; they accumulate parking sessions and
// events over time.
//
// Fields:
//  ID           – primary key identifier.
//  LicensePlate – unique, case-sensitive plate string.
//  CreatedAt    – when the vehicle was first seen.
type Vehicle struct {
	ID           uint64    // vehicles.id
	LicensePlate string    // vehicles.license_plate
	CreatedAt    time.Time // vehicles.created_at
}
