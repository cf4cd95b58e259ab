// Package cache provides disk caching of the fetched station directory.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tabradio/tabradio/internal/station"
)

const (
	// DefaultExpiry is how long a cached station directory is considered
	// fresh. Stale entries are still served as a fallback when the
	// directory API cannot be reached.
	DefaultExpiry = 24 * time.Hour
	// StationsFile is the file name of the cached directory listing.
	StationsFile = "stations.json"
	// AppName is used for the cache directory name.
	AppName = "tabradio"
)

// Cache manages the on-disk copy of the station directory.
type Cache struct {
	baseDir string
	expiry  time.Duration
}

// NewCache creates a new Cache instance with the default expiry.
func NewCache() (*Cache, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return nil, err
	}

	return &Cache{
		baseDir: cacheDir,
		expiry:  DefaultExpiry,
	}, nil
}

// GetCacheDir returns the platform-specific cache directory for the application.
func GetCacheDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}

	cacheDir := filepath.Join(userCacheDir, AppName)
	return cacheDir, nil
}

func (c *Cache) stationsPath() string {
	return filepath.Join(c.baseDir, StationsFile)
}

// GetStations returns the cached station directory. fresh reports whether
// the entry is within the expiry window; callers may still use a stale
// listing when the network is down. Returns nil when nothing is cached.
func (c *Cache) GetStations() (stations []station.Station, fresh bool) {
	path := c.stationsPath()

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Str("file", path).Msg("Failed to read cached stations")
		return nil, false
	}

	if err := json.Unmarshal(data, &stations); err != nil {
		log.Debug().Err(err).Str("file", path).Msg("Failed to decode cached stations")
		if err := os.Remove(path); err != nil {
			log.Debug().Err(err).Str("file", path).Msg("Failed to remove corrupt cache file")
		}
		return nil, false
	}

	return stations, time.Since(info.ModTime()) <= c.expiry
}

// SaveStations stores the station directory on disk atomically.
func (c *Cache) SaveStations(stations []station.Station) error {
	if err := os.MkdirAll(c.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(stations)
	if err != nil {
		return fmt.Errorf("failed to encode stations: %w", err)
	}

	tmpFile, err := os.CreateTemp(c.baseDir, ".stations-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close cache file: %w", err)
	}

	if err := os.Rename(tmpPath, c.stationsPath()); err != nil {
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	tmpPath = ""
	return nil
}

// CleanExpired removes cache files older than the expiry duration. Leftover
// temp files from interrupted saves are removed regardless of age.
func (c *Cache) CleanExpired() error {
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read cache directory: %w", err)
	}

	now := time.Now()
	var removed, failed int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// A stale directory listing still serves as the offline fallback.
		if entry.Name() == StationsFile {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("Failed to get file info")
			continue
		}

		stale := now.Sub(info.ModTime()) > c.expiry
		orphanTmp := filepath.Ext(entry.Name()) == ".tmp"
		if !stale && !orphanTmp {
			continue
		}

		filePath := filepath.Join(c.baseDir, entry.Name())
		if err := os.Remove(filePath); err != nil {
			log.Debug().Err(err).Str("file", filePath).Msg("Failed to remove expired cache file")
			failed++
		} else {
			removed++
		}
	}

	if removed > 0 || failed > 0 {
		log.Debug().Int("removed", removed).Int("failed", failed).Msg("Cache cleanup completed")
	}

	return nil
}
