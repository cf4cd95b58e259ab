// Package api provides the HTTP client for the SomaFM directory API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tabradio/tabradio/internal/station"
)

const (
	baseURL        = "https://api.somafm.com"
	requestTimeout = 30 * time.Second
	userAgent      = "TabRadio/1.0"
)

// Client is the HTTP client for the SomaFM directory API. It refreshes
// station metadata; audio itself flows through the streaming core, not
// through this client.
type Client struct {
	client *resty.Client
}

// NewClient creates a directory API client with sensible defaults.
func NewClient() *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(requestTimeout).
			SetHeader("User-Agent", userAgent),
	}
}

// GetStations fetches the list of available radio stations.
func (c *Client) GetStations(ctx context.Context) ([]station.Station, error) {
	resp, err := c.client.R().SetContext(ctx).Get("/channels.json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stations: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("api returned status %d: %s", resp.StatusCode(), resp.Status())
	}

	var response struct {
		Channels []station.Station `json:"channels"`
	}

	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse stations response: %w", err)
	}

	return response.Channels, nil
}

type SongInfo struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Date   string `json:"date"`
}

type SongsResponse struct {
	ID    string     `json:"id"`
	Songs []SongInfo `json:"songs"`
}

// GetRecentSongs fetches the recent song history for a specific station.
func (c *Client) GetRecentSongs(ctx context.Context, stationID string) (*SongsResponse, error) {
	resp, err := c.client.R().SetContext(ctx).Get(fmt.Sprintf("/songs/%s.json", stationID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch songs for station %s: %w", stationID, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("api returned status %d: %s", resp.StatusCode(), resp.Status())
	}

	var response SongsResponse
	if err := json.Unmarshal(resp.Body(), &response); err != nil {
		return nil, fmt.Errorf("failed to parse songs response: %w", err)
	}

	return &response, nil
}

// GetCurrentTrack returns "Artist - Title" for the most recent song on a
// station, or an empty string when nothing usable is known. Used as a
// fallback when the stream carries no inline metadata.
func (c *Client) GetCurrentTrack(ctx context.Context, stationID string) (string, error) {
	songs, err := c.GetRecentSongs(ctx, stationID)
	if err != nil {
		return "", err
	}

	if len(songs.Songs) == 0 {
		return "", nil
	}

	song := songs.Songs[0]
	if song.Artist != "" && song.Title != "" {
		return fmt.Sprintf("%s - %s", song.Artist, song.Title), nil
	}
	if song.Title != "" {
		return song.Title, nil
	}
	return "", nil
}
