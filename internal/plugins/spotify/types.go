package spotify

import "strings"

type externalURLs struct {
	Spotify string `json:"spotify"`
}

type followers struct {
	Total int `json:"total"`
}

type profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Country     string    `json:"country"`
	Product     string    `json:"product"`
	Followers   followers `json:"followers"`
	Images      []struct {
		URL string `json:"url"`
	} `json:"images"`
}

type named struct {
	Name string `json:"name"`
}

type track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Artists      []named      `json:"artists"`
	Album        named        `json:"album"`
	DurationMS   int          `json:"duration_ms"`
	ExternalURLs externalURLs `json:"external_urls"`
}

func (t track) artistNames() string {
	return joinNames(t.Artists)
}

type artist struct {
	Name         string       `json:"name"`
	Followers    followers    `json:"followers"`
	Genres       []string     `json:"genres"`
	ExternalURLs externalURLs `json:"external_urls"`
}

type album struct {
	Name         string       `json:"name"`
	Artists      []named      `json:"artists"`
	ReleaseDate  string       `json:"release_date"`
	ExternalURLs externalURLs `json:"external_urls"`
}

type page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type playlistTrack struct {
	Track    track  `json:"track"`
	PlayedAt string `json:"played_at"`
}

type playlist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Owner        profile             `json:"owner"`
	Tracks       page[playlistTrack] `json:"tracks"`
	ExternalURLs externalURLs        `json:"external_urls"`
}

func joinNames(list []named) string {
	names := make([]string, 0, len(list))
	for _, n := range list {
		names = append(names, n.Name)
	}
	return strings.Join(names, ", ")
}
