package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/tabradio/tabradio/internal/wifi"
	"gopkg.in/yaml.v3"
)

const (
	AppName        = "TabRadio"
	AppTagline     = "Internet radio for the terminal"
	AppDescription = "An internet radio player with a station grid, spectrum visualizer and WiFi setup"
	AppProjectURL  = "https://github.com/tabradio/tabradio"

	ConfigDir      = ".config/tabradio"
	ConfigFileName = "config.yml"
	DefaultVolume  = 70
	MinVolume      = 0
	MaxVolume      = 100
)

// AppVersion can be overridden at build time using ldflags:
// go build -ldflags "-X github.com/tabradio/tabradio/internal/config.AppVersion=1.0.0"
var AppVersion = "dev"

// ClampVolume ensures volume is within the valid range [0, 100].
func ClampVolume(volume int) int {
	if volume < MinVolume {
		return MinVolume
	}
	if volume > MaxVolume {
		return MaxVolume
	}
	return volume
}

type Theme struct {
	Background       string `yaml:"background"`
	Foreground       string `yaml:"foreground"`
	Borders          string `yaml:"borders"`
	Highlight        string `yaml:"highlight"`
	HeaderBackground string `yaml:"header_background"`
	SpectrumBar      string `yaml:"spectrum_bar"`
	ModalBackground  string `yaml:"modal_background"`
}

// Buffering sizes are in KiB so the config file stays readable; zero values
// select the streaming core's defaults.
type Buffering struct {
	CapacityKB  int `yaml:"capacity_kb"`
	PrebufferKB int `yaml:"prebuffer_kb"`
}

type Config struct {
	Volume      int              `yaml:"volume"`
	LastStation string           `yaml:"last_station"`
	Autostart   bool             `yaml:"autostart"`
	Favorites   []string         `yaml:"favorites"`
	Wifi        wifi.Credentials `yaml:"wifi"`
	Buffering   Buffering        `yaml:"buffering"`
	Theme       Theme            `yaml:"theme"`
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(home, ConfigDir, ConfigFileName)
	return configPath, nil
}

func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Volume = ClampVolume(cfg.Volume)

	return cfg, nil
}

// Save writes the configuration to disk atomically using temp file + rename.
func (c *Config) Save() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmpFile, err := os.CreateTemp(configDir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, configPath); err != nil {
		return fmt.Errorf("failed to rename config file: %w", err)
	}

	tmpPath = "" // Prevent defer from removing the final file
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		Volume:      DefaultVolume,
		LastStation: "",
		Autostart:   false,
		Favorites:   []string{},
		Theme: Theme{
			Background:       "#1a1b25",
			Foreground:       "#a3aacb",
			Borders:          "#40445b",
			Highlight:        "#ff9d65",
			HeaderBackground: "#473533",
			SpectrumBar:      "#7b68ee",
			ModalBackground:  "#282a36",
		},
	}
}

// BufferSizes returns the ring capacity and prebuffer threshold in bytes;
// zero means "use the streaming core's default".
func (c *Config) BufferSizes() (capacity, prebuffer int) {
	return c.Buffering.CapacityKB * 1024, c.Buffering.PrebufferKB * 1024
}

func (c *Config) IsFavorite(stationID string) bool {
	for _, id := range c.Favorites {
		if id == stationID {
			return true
		}
	}
	return false
}

func (c *Config) ToggleFavorite(stationID string) {
	for i, id := range c.Favorites {
		if id == stationID {
			c.Favorites = append(c.Favorites[:i], c.Favorites[i+1:]...)
			return
		}
	}
	c.Favorites = append(c.Favorites, stationID)
}

func (c *Config) CleanupFavorites(validStationIDs map[string]bool) {
	cleaned := []string{}
	for _, id := range c.Favorites {
		if validStationIDs[id] {
			cleaned = append(cleaned, id)
		}
	}
	c.Favorites = cleaned
}

func GetColor(colorStr string) tcell.Color {
	if colorStr == "" || colorStr == "default" {
		return tcell.ColorDefault
	}
	return tcell.GetColor(colorStr)
}
