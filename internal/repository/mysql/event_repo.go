package mysql

import (
	"context"
	"database/sql"

	"github.com/openvalet/garage/internal/model"
)

// EventRepo appends to the parking_events audit log.  The table is
// insert-only; there are no update or delete paths.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the provided database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// Append inserts one audit record.
func (r *EventRepo) Append(ctx context.Context, e *model.ParkingEvent) error {
	const q = `INSERT INTO parking_events (event_type, event_time, vehicle_id, spot_id)
	           VALUES (?, ?, ?, ?)`
	var spotID any
	if e.SpotID != nil {
		spotID = *e.SpotID
	}
	_, err := r.db.ExecContext(ctx, q, e.EventType, e.EventTime, e.VehicleID, spotID)
	return err
}
