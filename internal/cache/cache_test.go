package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tabradio/tabradio/internal/station"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return &Cache{
		baseDir: t.TempDir(),
		expiry:  DefaultExpiry,
	}
}

func sampleStations() []station.Station {
	return []station.Station{
		{
			ID:          "groovesalad",
			Title:       "Groove Salad",
			Description: "Ambient/Downtempo",
			Listeners:   "1000",
		},
		{
			ID:    "dronezone",
			Title: "Drone Zone",
			Playlists: []station.Playlist{
				{URL: "http://example.com/dz.pls", Format: "mp3", Quality: "highest"},
			},
		},
	}
}

func TestSaveAndGetStations(t *testing.T) {
	c := newTestCache(t)

	if err := c.SaveStations(sampleStations()); err != nil {
		t.Fatalf("SaveStations() error = %v", err)
	}

	stations, fresh := c.GetStations()
	if !fresh {
		t.Error("GetStations() fresh = false, want true for just-saved listing")
	}
	if len(stations) != 2 {
		t.Fatalf("GetStations() returned %d stations, want 2", len(stations))
	}
	if stations[0].ID != "groovesalad" {
		t.Errorf("stations[0].ID = %q, want %q", stations[0].ID, "groovesalad")
	}
	if len(stations[1].Playlists) != 1 {
		t.Errorf("stations[1].Playlists has %d entries, want 1", len(stations[1].Playlists))
	}
}

func TestGetStationsEmpty(t *testing.T) {
	c := newTestCache(t)

	stations, fresh := c.GetStations()
	if stations != nil {
		t.Errorf("GetStations() = %v, want nil for empty cache", stations)
	}
	if fresh {
		t.Error("GetStations() fresh = true, want false for empty cache")
	}
}

func TestGetStationsStale(t *testing.T) {
	c := newTestCache(t)

	if err := c.SaveStations(sampleStations()); err != nil {
		t.Fatalf("SaveStations() error = %v", err)
	}

	old := time.Now().Add(-2 * DefaultExpiry)
	if err := os.Chtimes(c.stationsPath(), old, old); err != nil {
		t.Fatalf("Chtimes() error = %v", err)
	}

	stations, fresh := c.GetStations()
	if fresh {
		t.Error("GetStations() fresh = true, want false for stale listing")
	}
	if len(stations) != 2 {
		t.Errorf("GetStations() returned %d stations, want stale listing to still be served", len(stations))
	}
}

func TestGetStationsCorruptFile(t *testing.T) {
	c := newTestCache(t)

	if err := os.MkdirAll(c.baseDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.stationsPath(), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	stations, fresh := c.GetStations()
	if stations != nil || fresh {
		t.Errorf("GetStations() = (%v, %v), want (nil, false) for corrupt file", stations, fresh)
	}

	if _, err := os.Stat(c.stationsPath()); !os.IsNotExist(err) {
		t.Error("Corrupt cache file should have been removed")
	}
}

func TestSaveStationsOverwrite(t *testing.T) {
	c := newTestCache(t)

	if err := c.SaveStations(sampleStations()); err != nil {
		t.Fatalf("SaveStations() error = %v", err)
	}

	updated := []station.Station{{ID: "lush", Title: "Lush"}}
	if err := c.SaveStations(updated); err != nil {
		t.Fatalf("SaveStations() overwrite error = %v", err)
	}

	stations, _ := c.GetStations()
	if len(stations) != 1 || stations[0].ID != "lush" {
		t.Errorf("GetStations() after overwrite = %v, want just lush", stations)
	}
}

func TestSaveStationsLeavesNoTempFiles(t *testing.T) {
	c := newTestCache(t)

	if err := c.SaveStations(sampleStations()); err != nil {
		t.Fatalf("SaveStations() error = %v", err)
	}

	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("SaveStations() left temp file %q behind", entry.Name())
		}
	}
}

func TestCleanExpired(t *testing.T) {
	c := newTestCache(t)

	if err := os.MkdirAll(c.baseDir, 0755); err != nil {
		t.Fatal(err)
	}

	stalePath := filepath.Join(c.baseDir, "old-artifact.json")
	if err := os.WriteFile(stalePath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-2 * DefaultExpiry)
	if err := os.Chtimes(stalePath, old, old); err != nil {
		t.Fatal(err)
	}

	orphanPath := filepath.Join(c.baseDir, ".stations-123.tmp")
	if err := os.WriteFile(orphanPath, []byte("partial"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := c.SaveStations(sampleStations()); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(c.stationsPath(), old, old); err != nil {
		t.Fatal(err)
	}

	if err := c.CleanExpired(); err != nil {
		t.Fatalf("CleanExpired() error = %v", err)
	}

	if _, err := os.Stat(stalePath); !os.IsNotExist(err) {
		t.Error("CleanExpired() should remove stale files")
	}
	if _, err := os.Stat(orphanPath); !os.IsNotExist(err) {
		t.Error("CleanExpired() should remove orphan temp files")
	}
	if _, err := os.Stat(c.stationsPath()); err != nil {
		t.Error("CleanExpired() should keep the station listing as offline fallback")
	}
}

func TestCleanExpiredMissingDir(t *testing.T) {
	c := &Cache{
		baseDir: filepath.Join(t.TempDir(), "does-not-exist"),
		expiry:  DefaultExpiry,
	}

	if err := c.CleanExpired(); err != nil {
		t.Errorf("CleanExpired() on missing directory error = %v, want nil", err)
	}
}
