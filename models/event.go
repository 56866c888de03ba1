package models

import "fmt"

// NewEpisodeEvent is the canonical episode-added event every provider payload
// normalizes into. It is built fresh per webhook call and never persisted.
type NewEpisodeEvent struct {
	ShowTitle       string `json:"showTitle"`
	ShowPlatformKey string `json:"showPlatformKey,omitempty"` // provider rating key for the show
	ShowGUID        string `json:"showGuid,omitempty"`        // source://id
	SeasonNumber    int    `json:"seasonNumber"`
	EpisodeNumber   int    `json:"episodeNumber"`
	EpisodeTitle    string `json:"episodeTitle"`
	AirDate         string `json:"airDate"` // YYYY-MM-DD
	Summary         string `json:"summary,omitempty"`
	ThumbnailRef    string `json:"thumbnailRef,omitempty"`
}

// EpisodeCode renders the conventional SxxEyy label.
func (e NewEpisodeEvent) EpisodeCode() string {
	return fmt.Sprintf("S%02dE%02d", e.SeasonNumber, e.EpisodeNumber)
}

// EpisodeNotice is the enriched content delivered to each follower. Show
// metadata fields are best-effort and may be empty when enrichment failed.
type EpisodeNotice struct {
	ShowTitle     string `json:"showTitle"`
	SeasonNumber  int    `json:"seasonNumber"`
	EpisodeNumber int    `json:"episodeNumber"`
	EpisodeTitle  string `json:"episodeTitle"`
	AirDate       string `json:"airDate,omitempty"`
	Summary       string `json:"summary,omitempty"`
	ThumbnailRef  string `json:"thumbnailRef,omitempty"`
	Overview      string `json:"overview,omitempty"`
	Status        string `json:"status,omitempty"`
	Network       string `json:"network,omitempty"`
	PosterURL     string `json:"posterUrl,omitempty"`
}

// EpisodeCode renders the conventional SxxEyy label.
func (n EpisodeNotice) EpisodeCode() string {
	return fmt.Sprintf("S%02dE%02d", n.SeasonNumber, n.EpisodeNumber)
}
