package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"followarr/models"
)

// Provider payloads arrive in provider-specific shapes. Each shape knows how
// to classify itself (episode-added vs ignorable) and how to normalize into
// the canonical NewEpisodeEvent, so nothing downstream branches on provider.

// flexInt unmarshals JSON numbers that some providers send as strings
// (Tautulli substitutes "7" for 7).
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return fmt.Errorf("empty number")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*f = flexInt(n)
	return nil
}

// TautulliEpisodeAdded is Tautulli's flat JSON webhook payload. Required
// episode fields are pointers so a missing key is distinguishable from a zero
// value.
type TautulliEpisodeAdded struct {
	Event     string `json:"event"`
	MediaType string `json:"media_type"`

	ShowTitle     *string  `json:"grandparent_title"`
	SeasonNumber  *flexInt `json:"parent_index"`
	EpisodeNumber *flexInt `json:"index"`
	EpisodeTitle  *string  `json:"title"`
	AirDate       *string  `json:"originally_available_at"`

	Summary       string `json:"summary"`
	ShowRatingKey string `json:"grandparent_rating_key"`
	ShowGUID      string `json:"grandparent_guid"`
	ThumbURL      string `json:"thumb"`
	PosterURL     string `json:"poster_url"`
}

// Relevant reports whether this is an episode-added event at all; anything
// else (movies, playback events) is ignored, not rejected.
func (p TautulliEpisodeAdded) Relevant() bool {
	return p.Event == "media.added" && p.MediaType == "episode"
}

// MissingFields lists the required episode fields absent from the payload.
func (p TautulliEpisodeAdded) MissingFields() []string {
	var missing []string
	if p.ShowTitle == nil || strings.TrimSpace(*p.ShowTitle) == "" {
		missing = append(missing, "grandparent_title")
	}
	if p.SeasonNumber == nil {
		missing = append(missing, "parent_index")
	}
	if p.EpisodeNumber == nil {
		missing = append(missing, "index")
	}
	if p.EpisodeTitle == nil {
		missing = append(missing, "title")
	}
	if p.AirDate == nil || strings.TrimSpace(*p.AirDate) == "" {
		missing = append(missing, "originally_available_at")
	}
	return missing
}

// NormalizedEvent maps the payload onto the canonical shape. Callers must
// have checked MissingFields first.
func (p TautulliEpisodeAdded) NormalizedEvent() models.NewEpisodeEvent {
	thumb := p.ThumbURL
	if thumb == "" {
		thumb = p.PosterURL
	}
	return models.NewEpisodeEvent{
		ShowTitle:       strings.TrimSpace(*p.ShowTitle),
		ShowPlatformKey: p.ShowRatingKey,
		ShowGUID:        p.ShowGUID,
		SeasonNumber:    int(*p.SeasonNumber),
		EpisodeNumber:   int(*p.EpisodeNumber),
		EpisodeTitle:    *p.EpisodeTitle,
		AirDate:         *p.AirDate,
		Summary:         p.Summary,
		ThumbnailRef:    thumb,
	}
}

// PlexEpisodeAdded is Plex's library.new webhook payload, delivered as the
// "payload" field of a multipart form.
type PlexEpisodeAdded struct {
	Event    string `json:"event"`
	Metadata struct {
		Type string `json:"type"`

		ShowTitle     *string  `json:"grandparentTitle"`
		SeasonNumber  *flexInt `json:"parentIndex"`
		EpisodeNumber *flexInt `json:"index"`
		EpisodeTitle  *string  `json:"title"`
		AirDate       *string  `json:"originallyAvailableAt"`

		Summary              string `json:"summary"`
		ShowGUID             string `json:"grandparentGuid"`
		ShowRatingKey        string `json:"grandparentRatingKey"`
		ShowThumb            string `json:"grandparentThumb"`
	} `json:"Metadata"`
}

func (p PlexEpisodeAdded) Relevant() bool {
	return p.Event == "library.new" && p.Metadata.Type == "episode"
}

func (p PlexEpisodeAdded) MissingFields() []string {
	m := p.Metadata
	var missing []string
	if m.ShowTitle == nil || strings.TrimSpace(*m.ShowTitle) == "" {
		missing = append(missing, "grandparentTitle")
	}
	if m.SeasonNumber == nil {
		missing = append(missing, "parentIndex")
	}
	if m.EpisodeNumber == nil {
		missing = append(missing, "index")
	}
	if m.EpisodeTitle == nil {
		missing = append(missing, "title")
	}
	if m.AirDate == nil || strings.TrimSpace(*m.AirDate) == "" {
		missing = append(missing, "originallyAvailableAt")
	}
	return missing
}

func (p PlexEpisodeAdded) NormalizedEvent() models.NewEpisodeEvent {
	m := p.Metadata
	return models.NewEpisodeEvent{
		ShowTitle:       strings.TrimSpace(*m.ShowTitle),
		ShowPlatformKey: m.ShowRatingKey,
		ShowGUID:        m.ShowGUID,
		SeasonNumber:    int(*m.SeasonNumber),
		EpisodeNumber:   int(*m.EpisodeNumber),
		EpisodeTitle:    *m.EpisodeTitle,
		AirDate:         *m.AirDate,
		Summary:         m.Summary,
		ThumbnailRef:    m.ShowThumb,
	}
}
