// Package queue defines the settlement messages exchanged over the
// message broker, their publisher and the background consumer.
package queue

// SessionClosedEvent is published after an EXIT event settles a parking
// session.  It carries enough information for downstream consumers to
// log, reconcile or notify without querying the primary database.
type SessionClosedEvent struct {
	SessionID    string  `json:"session_id"`
	LicensePlate string  `json:"license_plate"`
	Sector       string  `json:"sector,omitempty"`
	Lat          float64 `json:"lat,omitempty"`
	Lng          float64 `json:"lng,omitempty"`
	EntryTime    string  `json:"entry_time"`
	ExitTime     string  `json:"exit_time"`
	FactorPct    int     `json:"factor_percent"`
	AmountCents  int64   `json:"amount_cents"`
	Currency     string  `json:"currency"`
	ClosedAt     string  `json:"closed_at"`
}
