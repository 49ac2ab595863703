package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/openvalet/garage/internal/model"
	"github.com/openvalet/garage/internal/repository"
)

// SessionRepo provides data access to the parking_sessions table.  The
// service layer serializes writes per vehicle, so each method here is a
// single statement; the partial-index-style guard on the queries (active =
// TRUE) keeps lookups on the hot path cheap.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a SessionRepo bound to the provided database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `id, vehicle_id, spot_id, entry_time, parked_time, exit_time,
	applied_factor_percent, price_cents, active, created_at`

// Create inserts a new session row.  The caller supplies the UUID.
func (r *SessionRepo) Create(ctx context.Context, s *model.ParkingSession) error {
	const q = `INSERT INTO parking_sessions
	             (id, vehicle_id, spot_id, entry_time, parked_time, active)
	           VALUES (?, ?, ?, ?, ?, ?)`
	var spotID any
	if s.SpotID != nil {
		spotID = *s.SpotID
	}
	_, err := r.db.ExecContext(ctx, q,
		s.ID.String(), s.VehicleID, spotID, s.EntryTime, s.ParkedTime, s.Active,
	)
	return err
}

// ActiveByVehicle returns the vehicle's open session or
// repository.ErrNoActiveSession.
func (r *SessionRepo) ActiveByVehicle(ctx context.Context, vehicleID uint64) (*model.ParkingSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM parking_sessions
	      WHERE vehicle_id = ? AND active = TRUE`
	return r.scanOne(r.db.QueryRowContext(ctx, q, vehicleID))
}

// ActiveBySpot returns the open session parked at the spot or
// repository.ErrNoActiveSession.
func (r *SessionRepo) ActiveBySpot(ctx context.Context, spotID uint64) (*model.ParkingSession, error) {
	q := `SELECT ` + sessionColumns + ` FROM parking_sessions
	      WHERE spot_id = ? AND active = TRUE`
	return r.scanOne(r.db.QueryRowContext(ctx, q, spotID))
}

// SetParked assigns the spot, parked time and locked-in price factor to an
// open session.  The factor is never touched again after this write.
func (r *SessionRepo) SetParked(ctx context.Context, id uuid.UUID, spotID uint64, parkedTime time.Time, factorPercent int) error {
	const q = `UPDATE parking_sessions
	           SET spot_id = ?, parked_time = ?, applied_factor_percent = ?
	           WHERE id = ? AND active = TRUE`
	res, err := r.db.ExecContext(ctx, q, spotID, parkedTime, factorPercent, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNoActiveSession
	}
	return nil
}

// Close finalizes a session: exit time and price are written and the
// active flag cleared, all in one statement so a session cannot be closed
// twice.
func (r *SessionRepo) Close(ctx context.Context, id uuid.UUID, exitTime time.Time, priceCents int64) error {
	const q = `UPDATE parking_sessions
	           SET exit_time = ?, price_cents = ?, active = FALSE
	           WHERE id = ? AND active = TRUE`
	res, err := r.db.ExecContext(ctx, q, exitTime, priceCents, id.String())
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNoActiveSession
	}
	return nil
}

func (r *SessionRepo) scanOne(row *sql.Row) (*model.ParkingSession, error) {
	s := &model.ParkingSession{}
	var (
		id       string
		spotID   sql.NullInt64
		exitTime sql.NullTime
		factor   sql.NullInt64
		price    sql.NullInt64
	)
	err := row.Scan(&id, &s.VehicleID, &spotID, &s.EntryTime, &s.ParkedTime,
		&exitTime, &factor, &price, &s.Active, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	s.ID = parsed
	if spotID.Valid {
		v := uint64(spotID.Int64)
		s.SpotID = &v
	}
	if exitTime.Valid {
		t := exitTime.Time
		s.ExitTime = &t
	}
	if factor.Valid {
		f := int(factor.Int64)
		s.AppliedFactorPercent = &f
	}
	if price.Valid {
		p := price.Int64
		s.PriceCents = &p
	}
	return s, nil
}
