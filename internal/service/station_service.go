// Package service provides the business logic layer for managing station data.
package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tabradio/tabradio/internal/cache"
	"github.com/tabradio/tabradio/internal/station"
)

const refreshTimeout = 30 * time.Second

// Directory is the subset of the API client the service depends on.
type Directory interface {
	GetStations(ctx context.Context) ([]station.Station, error)
	GetCurrentTrack(ctx context.Context, stationID string) (string, error)
}

// StationService manages station data. It always holds at least the
// built-in station table, layered with directory API refreshes and the
// on-disk cache so the player works without network access.
type StationService struct {
	directory     Directory
	stations      []station.Station
	mu            sync.RWMutex
	diskCache     *cache.Cache
	refreshTicker *time.Ticker
	stopRefresh   chan struct{}
	onRefresh     func([]station.Station)
}

// NewStationService creates a StationService seeded with the built-in
// station table.
func NewStationService(directory Directory) *StationService {
	diskCache, err := cache.NewCache()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize station cache, directory will not persist")
	}

	if diskCache != nil {
		go func() {
			if err := diskCache.CleanExpired(); err != nil {
				log.Debug().Err(err).Msg("Failed to clean expired cache")
			}
		}()
	}

	return &StationService{
		directory: directory,
		diskCache: diskCache,
		stations:  station.Builtins(),
	}
}

// Load refreshes the station list. Priority: directory API, then the
// on-disk cache (stale entries included), then the built-in table that
// the service was seeded with.
func (s *StationService) Load(ctx context.Context) []station.Station {
	fetched, err := s.directory.GetStations(ctx)
	if err == nil && len(fetched) > 0 {
		stations := s.mergeWithBuiltins(fetched)
		s.setStations(stations)

		if s.diskCache != nil {
			if err := s.diskCache.SaveStations(fetched); err != nil {
				log.Debug().Err(err).Msg("Failed to cache station directory")
			}
		}
		return stations
	}
	if err != nil {
		log.Warn().Err(err).Msg("Directory refresh failed, falling back to cache")
	}

	if s.diskCache != nil {
		if cached, fresh := s.diskCache.GetStations(); len(cached) > 0 {
			if !fresh {
				log.Debug().Msg("Serving stale station directory from cache")
			}
			stations := s.mergeWithBuiltins(cached)
			s.setStations(stations)
			return stations
		}
	}

	log.Debug().Msg("No directory available, using built-in stations")
	return s.GetCachedStations()
}

// mergeWithBuiltins layers the built-in table over a directory listing:
// matching stations keep their direct stream URL and accent color, and
// built-ins missing from the listing are appended so they never vanish.
func (s *StationService) mergeWithBuiltins(fetched []station.Station) []station.Station {
	builtins := station.Builtins()
	byID := make(map[string]station.Station, len(builtins))
	for _, b := range builtins {
		byID[b.ID] = b
	}

	merged := make([]station.Station, 0, len(fetched))
	seen := make(map[string]bool, len(fetched))
	for _, st := range fetched {
		if b, ok := byID[st.ID]; ok {
			st.StreamURL = b.StreamURL
			st.Color = b.Color
		}
		merged = append(merged, st)
		seen[st.ID] = true
	}

	for _, b := range builtins {
		if !seen[b.ID] {
			merged = append(merged, b)
		}
	}

	s.sortStationsByListeners(merged)
	return merged
}

func (s *StationService) setStations(stations []station.Station) {
	s.mu.Lock()
	s.stations = stations
	s.mu.Unlock()
}

func (s *StationService) GetCachedStations() []station.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]station.Station, len(s.stations))
	copy(result, s.stations)
	return result
}

func (s *StationService) sortStationsByListeners(stations []station.Station) {
	sort.SliceStable(stations, func(i, j int) bool {
		listenersI, errI := strconv.Atoi(stations[i].Listeners)
		listenersJ, errJ := strconv.Atoi(stations[j].Listeners)

		if errI != nil {
			return false
		}
		if errJ != nil {
			return true
		}

		return listenersI > listenersJ
	})
}

func (s *StationService) GetValidStationIDs() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	validIDs := make(map[string]bool)
	for _, st := range s.stations {
		validIDs[st.ID] = true
	}
	return validIDs
}

func (s *StationService) FindIndexByID(stationID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i, st := range s.stations {
		if st.ID == stationID {
			return i
		}
	}
	return -1
}

func (s *StationService) StationCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stations)
}

// GetStation returns a copy of the station at the given index.
// Returns nil if the index is out of bounds.
// The returned station is a copy to prevent invalidation when the internal slice is refreshed.
func (s *StationService) GetStation(index int) *station.Station {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if index < 0 || index >= len(s.stations) {
		return nil
	}
	// Return a copy to prevent pointer invalidation on slice refresh
	st := s.stations[index]
	return &st
}

// GetCurrentTrack asks the directory API for the most recent track on a
// station. Used when the stream itself carries no inline title metadata.
func (s *StationService) GetCurrentTrack(ctx context.Context, stationID string) (string, error) {
	return s.directory.GetCurrentTrack(ctx, stationID)
}

func (s *StationService) StartPeriodicRefresh(interval time.Duration, callback func([]station.Station)) {
	s.StopPeriodicRefresh()

	s.mu.Lock()
	s.onRefresh = callback
	s.stopRefresh = make(chan struct{})
	s.refreshTicker = time.NewTicker(interval)
	ticker := s.refreshTicker
	stopCh := s.stopRefresh
	s.mu.Unlock()

	go func() {
		for {
			select {
			case <-ticker.C:
				s.refreshStationsInBackground()
			case <-stopCh:
				ticker.Stop()
				return
			}
		}
	}()

	log.Debug().Dur("interval", interval).Msg("Started periodic station refresh")
}

func (s *StationService) StopPeriodicRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopRefresh != nil {
		close(s.stopRefresh)
		s.stopRefresh = nil
	}
	log.Debug().Msg("Stopped periodic station refresh")
}

func (s *StationService) refreshStationsInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	fetched, err := s.directory.GetStations(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Background refresh failed, keeping cached data")
		return
	}

	stations := s.mergeWithBuiltins(fetched)

	s.mu.Lock()
	s.stations = stations
	callback := s.onRefresh
	s.mu.Unlock()

	if s.diskCache != nil {
		if err := s.diskCache.SaveStations(fetched); err != nil {
			log.Debug().Err(err).Msg("Failed to cache station directory")
		}
	}

	if callback != nil {
		callback(stations)
	}

	log.Debug().Int("count", len(stations)).Msg("Station data refreshed in background")
}
