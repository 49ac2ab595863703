package mysql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/openvalet/garage/internal/model"
	"github.com/openvalet/garage/internal/repository"
)

// SectorRepo provides data access to the sectors table.
type SectorRepo struct {
	db *sql.DB
}

// NewSectorRepo returns a SectorRepo bound to the provided database.
func NewSectorRepo(db *sql.DB) *SectorRepo { return &SectorRepo{db: db} }

// ByCode returns the sector for the code or repository.ErrSectorNotFound.
func (r *SectorRepo) ByCode(ctx context.Context, code string) (*model.Sector, error) {
	const q = `SELECT code, base_price_cents, max_capacity, open_hour, close_hour,
	                  duration_limit_minutes, created_at, updated_at
	           FROM sectors WHERE code = ?`
	s := &model.Sector{}
	err := r.db.QueryRowContext(ctx, q, code).Scan(
		&s.Code, &s.BasePriceCents, &s.MaxCapacity, &s.OpenHour, &s.CloseHour,
		&s.DurationLimitMinutes, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSectorNotFound
		}
		return nil, err
	}
	return s, nil
}

// OccupancyCounts returns one row per sector with the count of spots
// currently marked occupied and the configured capacity.  Sectors without
// any spots yet report zero occupied.
func (r *SectorRepo) OccupancyCounts(ctx context.Context) ([]repository.SectorOccupancy, error) {
	const q = `SELECT s.code,
	                  COALESCE(SUM(CASE WHEN p.occupied THEN 1 ELSE 0 END), 0),
	                  s.max_capacity
	           FROM sectors s
	           LEFT JOIN spots p ON p.sector_code = s.code
	           GROUP BY s.code, s.max_capacity`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []repository.SectorOccupancy
	for rows.Next() {
		var o repository.SectorOccupancy
		if err := rows.Scan(&o.Code, &o.Occupied, &o.Capacity); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Upsert creates the sector or refreshes its configuration.  Used by the
// garage topology sync at startup.
func (r *SectorRepo) Upsert(ctx context.Context, sector *model.Sector) error {
	const q = `INSERT INTO sectors
	             (code, base_price_cents, max_capacity, open_hour, close_hour, duration_limit_minutes)
	           VALUES (?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	             base_price_cents = VALUES(base_price_cents),
	             max_capacity = VALUES(max_capacity),
	             open_hour = VALUES(open_hour),
	             close_hour = VALUES(close_hour),
	             duration_limit_minutes = VALUES(duration_limit_minutes)`
	_, err := r.db.ExecContext(ctx, q,
		sector.Code, sector.BasePriceCents, sector.MaxCapacity,
		sector.OpenHour, sector.CloseHour, sector.DurationLimitMinutes,
	)
	return err
}
