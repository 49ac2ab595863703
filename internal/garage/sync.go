// Package garage imports the sector and spot topology from the garage
// simulator at startup.
package garage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/openvalet/garage/internal/model"
	"github.com/openvalet/garage/internal/repository"
)

const (
	syncRetries    = 5
	syncRetryDelay = 2 * time.Second
)

// garageConfig is the simulator's GET /garage response.
type garageConfig struct {
	Garage []sectorConfig `json:"garage"`
	Spots  []spotConfig   `json:"spots"`
}

type sectorConfig struct {
	Sector               string  `json:"sector"`
	BasePrice            float64 `json:"base_price"`
	MaxCapacity          int     `json:"max_capacity"`
	OpenHour             string  `json:"open_hour"`
	CloseHour            string  `json:"close_hour"`
	DurationLimitMinutes int     `json:"duration_limit_minutes"`
}

type spotConfig struct {
	ID     uint64  `json:"id"`
	Sector string  `json:"sector"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
}

// Syncer fetches the garage topology and persists it through the sector
// and spot repositories.
type Syncer struct {
	BaseURL    string
	Client     *http.Client
	Sectors    repository.SectorRepository
	Spots      repository.SpotRepository
	RetryDelay time.Duration
}

// NewSyncer constructs a Syncer with a short-timeout HTTP client.
func NewSyncer(baseURL string, sectors repository.SectorRepository, spots repository.SpotRepository) *Syncer {
	return &Syncer{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Client:     &http.Client{Timeout: 10 * time.Second},
		Sectors:    sectors,
		Spots:      spots,
		RetryDelay: syncRetryDelay,
	}
}

// Run fetches the topology with retries and upserts it.  The simulator may
// come up after this service, so transient fetch failures are retried a
// few times; when all attempts fail the error is returned and the caller
// decides whether to continue with whatever topology is already stored.
func (s *Syncer) Run(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= syncRetries; attempt++ {
		cfg, err := s.fetch(ctx)
		if err == nil {
			return s.apply(ctx, cfg)
		}
		lastErr = err
		log.Printf("garage sync: attempt %d/%d failed: %v", attempt, syncRetries, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.RetryDelay):
		}
	}
	return fmt.Errorf("garage sync: giving up after %d attempts: %w", syncRetries, lastErr)
}

func (s *Syncer) fetch(ctx context.Context) (*garageConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/garage", nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from simulator", resp.StatusCode)
	}
	var cfg garageConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode garage config: %w", err)
	}
	return &cfg, nil
}

// apply upserts sectors before spots so spot rows never reference a
// missing sector.
func (s *Syncer) apply(ctx context.Context, cfg *garageConfig) error {
	for _, sec := range cfg.Garage {
		m := &model.Sector{
			Code:                 sec.Sector,
			BasePriceCents:       centsFromPrice(sec.BasePrice),
			MaxCapacity:          sec.MaxCapacity,
			OpenHour:             sec.OpenHour,
			CloseHour:            sec.CloseHour,
			DurationLimitMinutes: sec.DurationLimitMinutes,
		}
		if err := s.Sectors.Upsert(ctx, m); err != nil {
			return fmt.Errorf("upsert sector %s: %w", sec.Sector, err)
		}
	}
	for _, sp := range cfg.Spots {
		m := &model.Spot{
			ID:         sp.ID,
			SectorCode: sp.Sector,
			Lat:        sp.Lat,
			Lng:        sp.Lng,
		}
		if err := s.Spots.Upsert(ctx, m); err != nil {
			return fmt.Errorf("upsert spot %d: %w", sp.ID, err)
		}
	}
	log.Printf("garage sync: imported %d sectors, %d spots", len(cfg.Garage), len(cfg.Spots))
	return nil
}

// centsFromPrice converts a decimal price from the wire into integer
// cents.  Rounding guards against float noise like 10.999999.
func centsFromPrice(p float64) int64 {
	return int64(math.Round(p * 100))
}
