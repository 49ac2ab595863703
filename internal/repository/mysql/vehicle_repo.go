// Package mysql implements the repository interfaces on top of MySQL.
// Queries use explicit column lists and all timestamps are read and
// written in UTC (the connection DSN sets parseTime=true&loc=UTC).
package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openvalet/garage/internal/model"
	"github.com/openvalet/garage/internal/repository"
)

// VehicleRepo provides data access to the vehicles table.
type VehicleRepo struct {
	db *sql.DB
}

// NewVehicleRepo returns a VehicleRepo bound to the provided database.
func NewVehicleRepo(db *sql.DB) *VehicleRepo { return &VehicleRepo{db: db} }

// UpsertByPlate returns the vehicle for the plate, inserting it first when
// absent.  The insert relies on the unique index on license_plate so that
// two concurrent first ENTRY events cannot create duplicate rows; the
// losing insert is a no-op and both callers read the same row back.
func (r *VehicleRepo) UpsertByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	const ins = `INSERT INTO vehicles (license_plate)
	             VALUES (?)
	             ON DUPLICATE KEY UPDATE license_plate = license_plate`
	if _, err := r.db.ExecContext(ctx, ins, plate); err != nil {
		return nil, err
	}
	return r.ByPlate(ctx, plate)
}

// ByPlate returns the vehicle for the plate or repository.ErrVehicleNotFound.
func (r *VehicleRepo) ByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	const q = `SELECT id, license_plate, created_at FROM vehicles WHERE license_plate = ?`
	v := &model.Vehicle{}
	err := r.db.QueryRowContext(ctx, q, plate).Scan(&v.ID, &v.LicensePlate, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrVehicleNotFound
		}
		return nil, err
	}
	return v, nil
}
