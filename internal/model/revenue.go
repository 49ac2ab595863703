package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCurrency is the currency all revenue is settled in.
const DefaultCurrency = "BRL"

// Revenue accumulates settled session prices per sector per calendar day.
// A row is created lazily on the first settlement for its (sector, date)
// key and is only ever increased afterwards.
type Revenue struct {
	ID          uuid.UUID // revenues.id
	SectorCode  string    // revenues.sector_code
	RevenueDate time.Time // revenues.revenue_date (date only, midnight UTC)
	AmountCents int64     // revenues.amount_cents
	Currency    string    // revenues.currency
	CreatedAt   time.Time // revenues.created_at
	UpdatedAt   time.Time // revenues.updated_at
}
