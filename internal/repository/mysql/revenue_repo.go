package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/openvalet/garage/internal/model"
)

// RevenueRepo provides data access to the revenues ledger.  Accumulation
// runs inside a transaction with a row lock so concurrent settlements for
// the same (sector, date) key serialize at the database.
type RevenueRepo struct {
	db *sql.DB
}

// NewRevenueRepo returns a RevenueRepo bound to the provided database.
func NewRevenueRepo(db *sql.DB) *RevenueRepo { return &RevenueRepo{db: db} }

// Add accumulates amountCents into the (sector, date) row and returns the
// updated total.  The row is created at zero on first settlement.  The
// insert tolerates a concurrent creator via the unique (sector_code,
// revenue_date) index; the subsequent SELECT ... FOR UPDATE serializes the
// read-add-write against other settlements on the same key.
func (r *RevenueRepo) Add(ctx context.Context, sectorCode string, date time.Time, amountCents int64) (int64, error) {
	day := date.UTC().Format("2006-01-02")

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const ins = `INSERT INTO revenues (id, sector_code, revenue_date, amount_cents, currency)
	             VALUES (?, ?, ?, 0, ?)
	             ON DUPLICATE KEY UPDATE sector_code = sector_code`
	if _, err := tx.ExecContext(ctx, ins, uuid.NewString(), sectorCode, day, model.DefaultCurrency); err != nil {
		return 0, err
	}

	var total int64
	const sel = `SELECT amount_cents FROM revenues
	             WHERE sector_code = ? AND revenue_date = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, sel, sectorCode, day).Scan(&total); err != nil {
		return 0, err
	}

	total += amountCents
	const upd = `UPDATE revenues SET amount_cents = ?
	             WHERE sector_code = ? AND revenue_date = ?`
	if _, err := tx.ExecContext(ctx, upd, total, sectorCode, day); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return total, nil
}

// BySectorAndDate returns the ledger row for the key, or a zero-amount row
// when no settlement has been recorded for that sector and date yet.
func (r *RevenueRepo) BySectorAndDate(ctx context.Context, sectorCode string, date time.Time) (*model.Revenue, error) {
	day := date.UTC()
	const q = `SELECT id, sector_code, revenue_date, amount_cents, currency, created_at, updated_at
	           FROM revenues WHERE sector_code = ? AND revenue_date = ?`
	rev := &model.Revenue{}
	var id string
	err := r.db.QueryRowContext(ctx, q, sectorCode, day.Format("2006-01-02")).Scan(
		&id, &rev.SectorCode, &rev.RevenueDate, &rev.AmountCents, &rev.Currency,
		&rev.CreatedAt, &rev.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.Revenue{
				SectorCode:  sectorCode,
				RevenueDate: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
				AmountCents: 0,
				Currency:    model.DefaultCurrency,
			}, nil
		}
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, err
	}
	rev.ID = parsed
	return rev, nil
}
