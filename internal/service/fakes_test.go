package service

// In-memory repository implementations used by the service tests.  They
// mirror the semantics of the MySQL repositories, including the sentinel
// errors, and are safe for concurrent use so the concurrency tests can
// exercise the keyed locks for real.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openvalet/garage/internal/model"
	"github.com/openvalet/garage/internal/repository"
)

type fakeVehicleRepo struct {
	mu     sync.Mutex
	nextID uint64
	byID   map[uint64]*model.Vehicle
}

func newFakeVehicleRepo() *fakeVehicleRepo {
	return &fakeVehicleRepo{byID: make(map[uint64]*model.Vehicle)}
}

func (r *fakeVehicleRepo) UpsertByPlate(_ context.Context, plate string) (*model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.byID {
		if v.LicensePlate == plate {
			cp := *v
			return &cp, nil
		}
	}
	r.nextID++
	v := &model.Vehicle{ID: r.nextID, LicensePlate: plate, CreatedAt: time.Now().UTC()}
	r.byID[v.ID] = v
	cp := *v
	return &cp, nil
}

func (r *fakeVehicleRepo) ByPlate(_ context.Context, plate string) (*model.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.byID {
		if v.LicensePlate == plate {
			cp := *v
			return &cp, nil
		}
	}
	return nil, repository.ErrVehicleNotFound
}

type fakeSectorRepo struct {
	mu      sync.Mutex
	sectors map[string]*model.Sector
	spots   *fakeSpotRepo // for occupancy counts
}

func newFakeSectorRepo(spots *fakeSpotRepo) *fakeSectorRepo {
	return &fakeSectorRepo{sectors: make(map[string]*model.Sector), spots: spots}
}

func (r *fakeSectorRepo) add(code string, basePriceCents int64, capacity int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sectors[code] = &model.Sector{Code: code, BasePriceCents: basePriceCents, MaxCapacity: capacity}
}

func (r *fakeSectorRepo) ByCode(_ context.Context, code string) (*model.Sector, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sectors[code]
	if !ok {
		return nil, repository.ErrSectorNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSectorRepo) OccupancyCounts(_ context.Context) ([]repository.SectorOccupancy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.SectorOccupancy
	for code, s := range r.sectors {
		out = append(out, repository.SectorOccupancy{
			Code:     code,
			Occupied: r.spots.occupiedCount(code),
			Capacity: s.MaxCapacity,
		})
	}
	return out, nil
}

func (r *fakeSectorRepo) Upsert(_ context.Context, sector *model.Sector) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sector
	r.sectors[sector.Code] = &cp
	return nil
}

type fakeSpotRepo struct {
	mu   sync.Mutex
	byID map[uint64]*model.Spot
}

func newFakeSpotRepo() *fakeSpotRepo { return &fakeSpotRepo{byID: make(map[uint64]*model.Spot)} }

func (r *fakeSpotRepo) add(id uint64, sector string, lat, lng float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = &model.Spot{ID: id, SectorCode: sector, Lat: lat, Lng: lng}
}

func (r *fakeSpotRepo) occupiedCount(sector string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.byID {
		if s.SectorCode == sector && s.Occupied {
			n++
		}
	}
	return n
}

func (r *fakeSpotRepo) ByLocation(_ context.Context, lat, lng float64) (*model.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.Lat == lat && s.Lng == lng {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrSpotNotFound
}

func (r *fakeSpotRepo) ByID(_ context.Context, id uint64) (*model.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrSpotNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSpotRepo) SetOccupied(_ context.Context, id uint64, occupied bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return repository.ErrSpotNotFound
	}
	s.Occupied = occupied
	return nil
}

func (r *fakeSpotRepo) Upsert(_ context.Context, spot *model.Spot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *spot
	r.byID[spot.ID] = &cp
	return nil
}

type fakeSessionRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*model.ParkingSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byID: make(map[uuid.UUID]*model.ParkingSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.ParkingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.byID[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) ActiveByVehicle(_ context.Context, vehicleID uint64) (*model.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.VehicleID == vehicleID && s.Active {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (r *fakeSessionRepo) ActiveBySpot(_ context.Context, spotID uint64) (*model.ParkingSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.Active && s.SpotID != nil && *s.SpotID == spotID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repository.ErrNoActiveSession
}

func (r *fakeSessionRepo) SetParked(_ context.Context, id uuid.UUID, spotID uint64, parkedTime time.Time, factorPercent int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || !s.Active {
		return repository.ErrNoActiveSession
	}
	s.SpotID = &spotID
	s.ParkedTime = parkedTime
	s.AppliedFactorPercent = &factorPercent
	return nil
}

func (r *fakeSessionRepo) Close(_ context.Context, id uuid.UUID, exitTime time.Time, priceCents int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok || !s.Active {
		return repository.ErrNoActiveSession
	}
	s.ExitTime = &exitTime
	s.PriceCents = &priceCents
	s.Active = false
	return nil
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []model.ParkingEvent
}

func newFakeEventRepo() *fakeEventRepo { return &fakeEventRepo{} }

func (r *fakeEventRepo) Append(_ context.Context, e *model.ParkingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *e)
	return nil
}

func (r *fakeEventRepo) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type fakeRevenueRepo struct {
	mu     sync.Mutex
	totals map[string]int64
}

func newFakeRevenueRepo() *fakeRevenueRepo { return &fakeRevenueRepo{totals: make(map[string]int64)} }

func revKey(sector string, date time.Time) string {
	return fmt.Sprintf("%s|%s", sector, date.UTC().Format("2006-01-02"))
}

func (r *fakeRevenueRepo) Add(_ context.Context, sector string, date time.Time, amountCents int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := revKey(sector, date)
	r.totals[k] += amountCents
	return r.totals[k], nil
}

func (r *fakeRevenueRepo) BySectorAndDate(_ context.Context, sector string, date time.Time) (*model.Revenue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &model.Revenue{
		SectorCode:  sector,
		RevenueDate: date,
		AmountCents: r.totals[revKey(sector, date)],
		Currency:    model.DefaultCurrency,
	}, nil
}

// testEnv bundles a service wired to fakes with direct access to them.
type testEnv struct {
	svc      *ParkingService
	vehicles *fakeVehicleRepo
	sectors  *fakeSectorRepo
	spots    *fakeSpotRepo
	sessions *fakeSessionRepo
	events   *fakeEventRepo
	revenues *fakeRevenueRepo
}

func newTestEnv() *testEnv {
	spots := newFakeSpotRepo()
	env := &testEnv{
		vehicles: newFakeVehicleRepo(),
		sectors:  newFakeSectorRepo(spots),
		spots:    spots,
		sessions: newFakeSessionRepo(),
		events:   newFakeEventRepo(),
		revenues: newFakeRevenueRepo(),
	}
	env.svc = NewParkingService(env.vehicles, env.sectors, env.spots, env.sessions, env.events, env.revenues)
	return env
}
