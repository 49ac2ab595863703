package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openvalet/garage/internal/model"
	"github.com/openvalet/garage/internal/repository"
)

// SpotRepo provides data access to the spots table.
type SpotRepo struct {
	db *sql.DB
}

// NewSpotRepo returns a SpotRepo bound to the provided database.
func NewSpotRepo(db *sql.DB) *SpotRepo { return &SpotRepo{db: db} }

// ByLocation returns the spot at the exact (lat, lng) pair or
// repository.ErrSpotNotFound.  Coordinates are stored as fixed-precision
// decimals so equality comparison against the webhook values is exact.
func (r *SpotRepo) ByLocation(ctx context.Context, lat, lng float64) (*model.Spot, error) {
	const q = `SELECT id, sector_code, lat, lng, occupied, created_at, updated_at
	           FROM spots WHERE lat = ? AND lng = ?`
	s := &model.Spot{}
	err := r.db.QueryRowContext(ctx, q, lat, lng).Scan(
		&s.ID, &s.SectorCode, &s.Lat, &s.Lng, &s.Occupied, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSpotNotFound
		}
		return nil, err
	}
	return s, nil
}

// ByID returns the spot or repository.ErrSpotNotFound.
func (r *SpotRepo) ByID(ctx context.Context, spotID uint64) (*model.Spot, error) {
	const q = `SELECT id, sector_code, lat, lng, occupied, created_at, updated_at
	           FROM spots WHERE id = ?`
	s := &model.Spot{}
	err := r.db.QueryRowContext(ctx, q, spotID).Scan(
		&s.ID, &s.SectorCode, &s.Lat, &s.Lng, &s.Occupied, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSpotNotFound
		}
		return nil, err
	}
	return s, nil
}

// SetOccupied flips the occupied flag of one spot.
func (r *SpotRepo) SetOccupied(ctx context.Context, spotID uint64, occupied bool) error {
	const q = `UPDATE spots SET occupied = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, occupied, spotID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// RowsAffected is also 0 when the flag already holds the value,
		// so verify the row exists before reporting not found.
		var id uint64
		if scanErr := r.db.QueryRowContext(ctx, `SELECT id FROM spots WHERE id = ?`, spotID).Scan(&id); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return repository.ErrSpotNotFound
			}
			return scanErr
		}
	}
	return nil
}

// Upsert creates the spot or refreshes its sector and coordinates.  Used
// by the garage topology sync at startup; the occupied flag is preserved
// on update so a re-sync never releases a spot under an active session.
func (r *SpotRepo) Upsert(ctx context.Context, spot *model.Spot) error {
	const q = `INSERT INTO spots (id, sector_code, lat, lng, occupied)
	           VALUES (?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             sector_code = VALUES(sector_code),
	             lat = VALUES(lat),
	             lng = VALUES(lng)`
	_, err := r.db.ExecContext(ctx, q, spot.ID, spot.SectorCode, spot.Lat, spot.Lng, spot.Occupied)
	return err
}
