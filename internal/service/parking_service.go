// Package service implements the parking-session state machine: admission
// control on entry, price-factor lock-in on parking, settlement and
// revenue accumulation on exit, plus the status queries the read endpoints
// expose.  All mutations of a vehicle's session are serialized per plate
// and all occupied-flag changes per spot, so overlapping webhook
// deliveries cannot corrupt the one-active-session invariant.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/openvalet/garage/internal/model"
	"github.com/openvalet/garage/internal/pricing"
	"github.com/openvalet/garage/internal/repository"
)

// ErrValidation marks malformed input: bad timestamps, missing fields,
// unknown event types.  Rejected before any state mutation.
var ErrValidation = errors.New("validation failed")

// ErrCapacityExhausted is returned for an ENTRY event while every sector
// is at full occupancy.  Distinct from a generic conflict so the boundary
// can tell the caller to try again later.
var ErrCapacityExhausted = errors.New("all sectors are full")

// ParkingService owns the session lifecycle.  One instance is shared by
// all webhook workers; the keyed mutexes inside provide the per-vehicle
// and per-spot serialization the repositories rely on.
type ParkingService struct {
	vehicles repository.VehicleRepository
	sectors  repository.SectorRepository
	spots    repository.SpotRepository
	sessions repository.SessionRepository
	events   repository.EventRepository
	revenues repository.RevenueRepository

	plateLocks *keyedMutex
	spotLocks  *keyedMutex

	now func() time.Time
}

// NewParkingService constructs a ParkingService.  All repositories must be
// non-nil.
func NewParkingService(
	vehicles repository.VehicleRepository,
	sectors repository.SectorRepository,
	spots repository.SpotRepository,
	sessions repository.SessionRepository,
	events repository.EventRepository,
	revenues repository.RevenueRepository,
) *ParkingService {
	if vehicles == nil || sectors == nil || spots == nil || sessions == nil || events == nil || revenues == nil {
		panic("nil repository passed to NewParkingService")
	}
	return &ParkingService{
		vehicles:   vehicles,
		sectors:    sectors,
		spots:      spots,
		sessions:   sessions,
		events:     events,
		revenues:   revenues,
		plateLocks: newKeyedMutex(),
		spotLocks:  newKeyedMutex(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// HandleEntry processes an ENTRY event: admission control, find-or-create
// of the vehicle, audit record, and a new active session.  Returns
// ErrCapacityExhausted when every sector is full and
// repository.ErrActiveSessionExists when the plate already has an open
// session.
func (s *ParkingService) HandleEntry(ctx context.Context, plate, entryTimeRaw string) (*model.ParkingSession, error) {
	entryTime, err := parseEventTime(entryTimeRaw)
	if err != nil {
		return nil, err
	}

	// Admission control reads global occupancy before anything is written.
	// The read is advisory: a racing ENTRY near full capacity may be
	// admitted, which is acceptable as long as spot/session invariants
	// hold (they are enforced at PARKED time).
	counts, err := s.sectors.OccupancyCounts(ctx)
	if err != nil {
		return nil, err
	}
	if allSectorsFull(counts) {
		return nil, fmt.Errorf("%w: vehicle %s rejected at %s", ErrCapacityExhausted, plate, entryTimeRaw)
	}

	unlock := s.plateLocks.Lock(plate)
	defer unlock()

	vehicle, err := s.vehicles.UpsertByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}

	// A vehicle may open a new session only when its previous one is
	// closed.
	if _, err := s.sessions.ActiveByVehicle(ctx, vehicle.ID); err == nil {
		return nil, fmt.Errorf("%w: plate %s", repository.ErrActiveSessionExists, plate)
	} else if !errors.Is(err, repository.ErrNoActiveSession) {
		return nil, err
	}

	if err := s.events.Append(ctx, &model.ParkingEvent{
		EventType: model.EventEntry,
		EventTime: entryTime,
		VehicleID: vehicle.ID,
	}); err != nil {
		return nil, err
	}

	session := &model.ParkingSession{
		ID:        uuid.New(),
		VehicleID: vehicle.ID,
		EntryTime: entryTime,
		// parked time defaults to entry time until a PARKED event arrives
		ParkedTime: entryTime,
		Active:     true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	log.Printf("entry: plate=%s session=%s at %s", plate, session.ID, entryTime.Format(time.RFC3339))
	return session, nil
}

// HandleParked processes a PARKED event: the spot is claimed, the sector's
// occupancy ratio is read at that moment and the resulting price factor is
// locked into the session, never to be recomputed.  The ratio is taken
// before this vehicle's spot flips to occupied, so the arriving car does
// not count toward its own price.
func (s *ParkingService) HandleParked(ctx context.Context, plate string, lat, lng float64) (*model.ParkingSession, error) {
	unlock := s.plateLocks.Lock(plate)
	defer unlock()

	vehicle, err := s.vehicles.ByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	spot, err := s.spots.ByLocation(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.ActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}

	unlockSpot := s.spotLocks.Lock(spotKey(spot.ID))
	defer unlockSpot()

	if spot.Occupied {
		other, err := s.sessions.ActiveBySpot(ctx, spot.ID)
		switch {
		case err == nil && other.ID != session.ID:
			return nil, fmt.Errorf("%w: spot %d held by another session", repository.ErrSpotOccupied, spot.ID)
		case err != nil && !errors.Is(err, repository.ErrNoActiveSession):
			return nil, err
		}
		// occupied by this very session (redelivered PARKED) or a stale
		// flag with no session behind it: proceed
	}

	counts, err := s.sectors.OccupancyCounts(ctx)
	if err != nil {
		return nil, err
	}
	factor := pricing.FactorPercent(occupancyRatio(counts, spot.SectorCode))

	// A re-park onto a different spot releases the previous one.
	if session.Parked() && *session.SpotID != spot.ID {
		if err := s.spots.SetOccupied(ctx, *session.SpotID, false); err != nil {
			return nil, err
		}
	}
	if err := s.spots.SetOccupied(ctx, spot.ID, true); err != nil {
		return nil, err
	}

	parkedTime := s.now()
	if err := s.events.Append(ctx, &model.ParkingEvent{
		EventType: model.EventParked,
		EventTime: parkedTime,
		VehicleID: vehicle.ID,
		SpotID:    &spot.ID,
	}); err != nil {
		return nil, err
	}
	if err := s.sessions.SetParked(ctx, session.ID, spot.ID, parkedTime, factor); err != nil {
		return nil, err
	}

	session.SpotID = &spot.ID
	session.ParkedTime = parkedTime
	session.AppliedFactorPercent = &factor
	log.Printf("parked: plate=%s spot=%d factor=%d%%", plate, spot.ID, factor)
	return session, nil
}

// ExitResult describes a settled session, consumed by the webhook handler
// to acknowledge the event and publish the settlement message.
type ExitResult struct {
	SessionID    uuid.UUID
	LicensePlate string
	SectorCode   string // empty when the session never parked
	Lat, Lng     float64
	EntryTime    time.Time
	ExitTime     time.Time
	FactorPct    int
	PriceCents   int64
	Currency     string
}

// HandleExit processes an EXIT event: the spot (if any) is released, the
// session is closed with its settled price, and the price is accumulated
// into the (sector, exit date) revenue ledger.  Sessions that never
// reached PARKED close at price zero and contribute no revenue.
func (s *ParkingService) HandleExit(ctx context.Context, plate, exitTimeRaw string) (*ExitResult, error) {
	exitTime, err := parseEventTime(exitTimeRaw)
	if err != nil {
		return nil, err
	}

	unlock := s.plateLocks.Lock(plate)
	defer unlock()

	vehicle, err := s.vehicles.ByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.ActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		return nil, err
	}

	result := &ExitResult{
		SessionID:    session.ID,
		LicensePlate: plate,
		EntryTime:    session.EntryTime,
		ExitTime:     exitTime,
		Currency:     model.DefaultCurrency,
	}

	var spot *model.Spot
	if session.Parked() && session.AppliedFactorPercent != nil {
		spot, err = s.spots.ByID(ctx, *session.SpotID)
		if err != nil {
			return nil, err
		}
		sector, err := s.sectors.ByCode(ctx, spot.SectorCode)
		if err != nil {
			return nil, err
		}
		result.SectorCode = sector.Code
		result.Lat, result.Lng = spot.Lat, spot.Lng
		result.FactorPct = *session.AppliedFactorPercent
		result.PriceCents = pricing.SettleCents(sector.BasePriceCents, session.EntryTime, exitTime, result.FactorPct)
	}

	if spot != nil {
		unlockSpot := s.spotLocks.Lock(spotKey(spot.ID))
		err = s.spots.SetOccupied(ctx, spot.ID, false)
		unlockSpot()
		if err != nil {
			return nil, err
		}
	}

	if err := s.sessions.Close(ctx, session.ID, exitTime, result.PriceCents); err != nil {
		return nil, err
	}
	if err := s.events.Append(ctx, &model.ParkingEvent{
		EventType: model.EventExit,
		EventTime: exitTime,
		VehicleID: vehicle.ID,
	}); err != nil {
		return nil, err
	}

	if spot != nil {
		if _, err := s.revenues.Add(ctx, spot.SectorCode, dateOf(exitTime), result.PriceCents); err != nil {
			return nil, err
		}
	}
	log.Printf("exit: plate=%s session=%s price=%d %s", plate, session.ID, result.PriceCents, result.Currency)
	return result, nil
}

// PlateStatus is the active-session view of one vehicle.
type PlateStatus struct {
	LicensePlate       string
	Active             bool
	Parked             bool
	PriceUntilNowCents int64
	EntryTime          time.Time
	ParkedTime         time.Time
	Lat, Lng           float64
}

// GetPlateStatus returns the vehicle's current session state.  The
// price-until-now is the settlement evaluated as if the vehicle exited
// right now, at the locked-in factor when parked, zero otherwise.
func (s *ParkingService) GetPlateStatus(ctx context.Context, plate string) (*PlateStatus, error) {
	vehicle, err := s.vehicles.ByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.ActiveByVehicle(ctx, vehicle.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			return &PlateStatus{LicensePlate: plate}, nil
		}
		return nil, err
	}

	st := &PlateStatus{
		LicensePlate: plate,
		Active:       true,
		EntryTime:    session.EntryTime,
		ParkedTime:   session.ParkedTime,
	}
	if session.Parked() && session.AppliedFactorPercent != nil {
		spot, err := s.spots.ByID(ctx, *session.SpotID)
		if err != nil {
			return nil, err
		}
		sector, err := s.sectors.ByCode(ctx, spot.SectorCode)
		if err != nil {
			return nil, err
		}
		st.Parked = true
		st.Lat, st.Lng = spot.Lat, spot.Lng
		st.PriceUntilNowCents = pricing.SettleCents(sector.BasePriceCents, session.EntryTime, s.now(), *session.AppliedFactorPercent)
	}
	return st, nil
}

// SpotStatus is the current-occupant view of one spot.
type SpotStatus struct {
	Occupied   bool
	EntryTime  *time.Time
	ParkedTime *time.Time
}

// GetSpotStatus returns whether the spot is occupied and, when it is, the
// entry and parked times of the session using it.
func (s *ParkingService) GetSpotStatus(ctx context.Context, lat, lng float64) (*SpotStatus, error) {
	spot, err := s.spots.ByLocation(ctx, lat, lng)
	if err != nil {
		return nil, err
	}
	st := &SpotStatus{Occupied: spot.Occupied}
	if !spot.Occupied {
		return st, nil
	}
	session, err := s.sessions.ActiveBySpot(ctx, spot.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveSession) {
			return st, nil
		}
		return nil, err
	}
	st.EntryTime = &session.EntryTime
	st.ParkedTime = &session.ParkedTime
	return st, nil
}

// GetRevenue returns the revenue accumulated for a sector on a calendar
// date ("2006-01-02").  Unknown sectors are a lookup failure; a date with
// no settlements reports amount zero.
func (s *ParkingService) GetRevenue(ctx context.Context, sectorCode, dateRaw string) (*model.Revenue, error) {
	date, err := time.Parse("2006-01-02", dateRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", ErrValidation, dateRaw)
	}
	if _, err := s.sectors.ByCode(ctx, sectorCode); err != nil {
		return nil, err
	}
	return s.revenues.BySectorAndDate(ctx, sectorCode, date)
}

// allSectorsFull reports whether every configured sector has all its
// capacity occupied.  A garage with no sectors configured yet is
// vacuously full: events arriving before the topology sync are rejected
// rather than admitted into a void.
func allSectorsFull(counts []repository.SectorOccupancy) bool {
	for _, c := range counts {
		if c.Occupied < c.Capacity {
			return false
		}
	}
	return true
}

// occupancyRatio returns occupied/capacity for the sector, 0 when the
// sector is unknown or has no capacity.
func occupancyRatio(counts []repository.SectorOccupancy, code string) float64 {
	for _, c := range counts {
		if c.Code == code {
			if c.Capacity <= 0 {
				return 0
			}
			return float64(c.Occupied) / float64(c.Capacity)
		}
	}
	return 0
}

func spotKey(id uint64) string { return fmt.Sprintf("spot:%d", id) }
