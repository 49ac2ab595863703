package model

import "time"

// Sector is a zone of the garage with its own pricing and capacity rules.
// Sectors are provisioned externally (via the garage topology sync) and are
// read-mostly at runtime; the occupancy-derived price factor is computed on
// demand, never stored here.
//
// Fields:
//  Code                 – short unique code, primary key (e.g. "A").
//  BasePriceCents       – hourly base price in cents.
//  MaxCapacity          – number of spots the sector can hold.
//  OpenHour             – opening time of day, "HH:MM".
//  CloseHour            – closing time of day, "HH:MM".
//  DurationLimitMinutes – maximum allowed stay.
type Sector struct {
	Code                 string    // sectors.code
	BasePriceCents       int64     // sectors.base_price_cents
	MaxCapacity          int       // sectors.max_capacity
	OpenHour             string    // sectors.open_hour
	CloseHour            string    // sectors.close_hour
	DurationLimitMinutes int       // sectors.duration_limit_minutes
	CreatedAt            time.Time // sectors.created_at
	UpdatedAt            time.Time // sectors.updated_at
}
