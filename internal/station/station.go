// Package station defines the radio station model and the built-in
// station table used when the directory API is unreachable.
package station

// Playlist represents a streaming endpoint advertised by the directory API.
type Playlist struct {
	URL     string `json:"url"`
	Format  string `json:"format"`  // Audio format (e.g., "mp3", "aac")
	Quality string `json:"quality"` // Quality level (e.g., "highest", "high")
}

// Station represents a radio station. Built-in stations carry a direct
// StreamURL and accent Color; stations refreshed from the directory API
// carry Playlists instead and fall back to playlist selection.
type Station struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DJ          string     `json:"dj"`
	Genre       string     `json:"genre"` // Pipe-separated genre list
	Updated     string     `json:"updated"`
	Playlists   []Playlist `json:"playlists"`
	Listeners   string     `json:"listeners"`
	LastPlaying string     `json:"lastPlaying"`

	// Not part of the directory API payload.
	StreamURL string `json:"-"` // Direct MP3 stream URL for built-ins
	Color     string `json:"-"` // UI accent color (hex)
}

// BestStreamURL returns the preferred stream URL for the station: the
// direct built-in URL when present, otherwise the highest quality MP3
// playlist, otherwise the first available playlist.
func (s *Station) BestStreamURL() string {
	if s.StreamURL != "" {
		return s.StreamURL
	}
	for _, playlist := range s.Playlists {
		if playlist.Format == "mp3" && playlist.Quality == "highest" {
			return playlist.URL
		}
	}
	if len(s.Playlists) > 0 {
		return s.Playlists[0].URL
	}
	return ""
}

// AllStreamURLs returns every known stream URL sorted by preference:
// the direct URL first, then MP3 highest quality, then other MP3, then
// other formats. Used for endpoint failover.
func (s *Station) AllStreamURLs() []string {
	var mp3Highest, mp3Other, other []string

	for _, playlist := range s.Playlists {
		if playlist.Format == "mp3" {
			if playlist.Quality == "highest" {
				mp3Highest = append(mp3Highest, playlist.URL)
			} else {
				mp3Other = append(mp3Other, playlist.URL)
			}
		} else {
			other = append(other, playlist.URL)
		}
	}

	result := make([]string, 0, len(s.Playlists)+1)
	if s.StreamURL != "" {
		result = append(result, s.StreamURL)
	}
	result = append(result, mp3Highest...)
	result = append(result, mp3Other...)
	result = append(result, other...)

	return result
}

// Builtins returns the embedded station table. All streams are 128kbps MP3.
// The app stays usable with this table alone when the network directory
// cannot be reached.
func Builtins() []Station {
	return []Station{
		{
			ID:          "groovesalad",
			Title:       "Groove Salad",
			Description: "Ambient/Downtempo",
			StreamURL:   "https://ice1.somafm.com/groovesalad-128-mp3",
			Color:       "#7b68ee",
		},
		{
			ID:          "dronezone",
			Title:       "Drone Zone",
			Description: "Atmospheric Textures",
			StreamURL:   "https://ice1.somafm.com/dronezone-128-mp3",
			Color:       "#4682b4",
		},
		{
			ID:          "spacestation",
			Title:       "Space Station Soma",
			Description: "Spaced-out Ambient",
			StreamURL:   "https://ice1.somafm.com/spacestation-128-mp3",
			Color:       "#191970",
		},
		{
			ID:          "deepspaceone",
			Title:       "Deep Space One",
			Description: "Deep Ambient",
			StreamURL:   "https://ice1.somafm.com/deepspaceone-128-mp3",
			Color:       "#2f4f4f",
		},
		{
			ID:          "defcon",
			Title:       "DEF CON Radio",
			Description: "Hacker Tunes",
			StreamURL:   "https://ice1.somafm.com/defcon-128-mp3",
			Color:       "#00ff00",
		},
		{
			ID:          "secretagent",
			Title:       "Secret Agent",
			Description: "Lounge/Spy Music",
			StreamURL:   "https://ice1.somafm.com/secretagent-128-mp3",
			Color:       "#dc143c",
		},
		{
			ID:          "lush",
			Title:       "Lush",
			Description: "Sensuous Vocals",
			StreamURL:   "https://ice1.somafm.com/lush-128-mp3",
			Color:       "#ff69b4",
		},
		{
			ID:          "bootliquor",
			Title:       "Boot Liquor",
			Description: "Americana/Roots",
			StreamURL:   "https://ice1.somafm.com/bootliquor-128-mp3",
			Color:       "#8b4513",
		},
		{
			ID:          "thetrip",
			Title:       "The Trip",
			Description: "Progressive House",
			StreamURL:   "https://ice1.somafm.com/thetrip-128-mp3",
			Color:       "#ff4500",
		},
		{
			ID:          "cliqhop",
			Title:       "cliqhop idm",
			Description: "IDM/Glitch",
			StreamURL:   "https://ice1.somafm.com/cliqhop-128-mp3",
			Color:       "#9400d3",
		},
	}
}
