package garage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvalet/garage/internal/model"
	"github.com/openvalet/garage/internal/repository"
)

type memSectorStore struct {
	mu      sync.Mutex
	sectors map[string]model.Sector
}

func (m *memSectorStore) ByCode(ctx context.Context, code string) (*model.Sector, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sectors[code]
	if !ok {
		return nil, repository.ErrSectorNotFound
	}
	return &s, nil
}

func (m *memSectorStore) OccupancyCounts(ctx context.Context) ([]repository.SectorOccupancy, error) {
	return nil, nil
}

func (m *memSectorStore) Upsert(ctx context.Context, sector *model.Sector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sectors == nil {
		m.sectors = map[string]model.Sector{}
	}
	m.sectors[sector.Code] = *sector
	return nil
}

type memSpotStore struct {
	mu    sync.Mutex
	spots map[uint64]model.Spot
}

func (m *memSpotStore) ByLocation(ctx context.Context, lat, lng float64) (*model.Spot, error) {
	return nil, repository.ErrSpotNotFound
}

func (m *memSpotStore) ByID(ctx context.Context, spotID uint64) (*model.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.spots[spotID]
	if !ok {
		return nil, repository.ErrSpotNotFound
	}
	return &s, nil
}

func (m *memSpotStore) SetOccupied(ctx context.Context, spotID uint64, occupied bool) error {
	return nil
}

func (m *memSpotStore) Upsert(ctx context.Context, spot *model.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.spots == nil {
		m.spots = map[uint64]model.Spot{}
	}
	m.spots[spot.ID] = *spot
	return nil
}

const topologyJSON = `{
  "garage": [
    {"sector": "A", "base_price": 10.0, "max_capacity": 100,
     "open_hour": "08:00", "close_hour": "22:00", "duration_limit_minutes": 240},
    {"sector": "B", "base_price": 4.5, "max_capacity": 72,
     "open_hour": "05:00", "close_hour": "18:00", "duration_limit_minutes": 120}
  ],
  "spots": [
    {"id": 1, "sector": "A", "lat": -23.561684, "lng": -46.655981},
    {"id": 2, "sector": "B", "lat": -23.561674, "lng": -46.655971}
  ]
}`

func TestSyncImportsSectorsAndSpots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/garage", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(topologyJSON))
	}))
	defer srv.Close()

	sectors := &memSectorStore{}
	spots := &memSpotStore{}
	s := NewSyncer(srv.URL, sectors, spots)

	require.NoError(t, s.Run(context.Background()))

	a, err := sectors.ByCode(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), a.BasePriceCents)
	assert.Equal(t, 100, a.MaxCapacity)
	assert.Equal(t, "08:00", a.OpenHour)
	assert.Equal(t, 240, a.DurationLimitMinutes)

	b, err := sectors.ByCode(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, int64(450), b.BasePriceCents)

	sp, err := spots.ByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "B", sp.SectorCode)
	assert.InDelta(t, -46.655971, sp.Lng, 1e-9)
	assert.False(t, sp.Occupied)
}

func TestSyncRetriesUntilSimulatorIsUp(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(topologyJSON))
	}))
	defer srv.Close()

	sectors := &memSectorStore{}
	spots := &memSpotStore{}
	s := NewSyncer(srv.URL, sectors, spots)
	s.RetryDelay = 10 * time.Millisecond

	require.NoError(t, s.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, calls)
	_, err := sectors.ByCode(context.Background(), "A")
	assert.NoError(t, err)
}

func TestSyncGivesUpAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close() // connection refused on every attempt

	s := NewSyncer(srv.URL, &memSectorStore{}, &memSpotStore{})
	s.Client.Timeout = 100 * time.Millisecond
	s.RetryDelay = 10 * time.Millisecond

	err := s.Run(context.Background())
	require.Error(t, err)
}

func TestCentsFromPriceRounds(t *testing.T) {
	assert.Equal(t, int64(1000), centsFromPrice(10.0))
	assert.Equal(t, int64(1099), centsFromPrice(10.99))
	assert.Equal(t, int64(1100), centsFromPrice(10.999999))
	assert.Equal(t, int64(0), centsFromPrice(0))
}
