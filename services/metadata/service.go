// Package metadata wraps the TVDB API for show search and detail lookups. The
// notification pipeline consumes it read-only and treats every failure as
// degraded content, never as a reason to skip delivery.
package metadata

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"followarr/guid"
	"followarr/models"
)

// Service exposes show search and detail lookups.
type Service struct {
	client *tvdbClient
}

// Options configures the metadata service. BaseURL and HTTPClient exist for
// tests; zero values hit the real API.
type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewService creates a metadata service backed by TVDB.
func NewService(opts Options) *Service {
	return &Service{client: newTVDBClient(opts.APIKey, opts.BaseURL, opts.HTTPClient)}
}

// SearchShow returns the first series matching the name, or nil when nothing
// matched.
func (s *Service) SearchShow(ctx context.Context, name string) (*models.ShowRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	results, err := s.client.searchSeries(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return searchResultToRecord(results[0]), nil
}

// GetShowDetails returns the full series record for a TVDB id, or nil when the
// series is unknown.
func (s *Service) GetShowDetails(ctx context.Context, id int64) (*models.ShowDetails, error) {
	series, err := s.client.seriesByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if series == nil || series.ID == 0 {
		return nil, nil
	}
	return &models.ShowDetails{
		ID:         series.ID,
		Name:       series.Name,
		Overview:   series.Overview,
		Status:     models.ParseShowStatus(series.Status.Name),
		Network:    series.OriginalNetwork.Name,
		PosterURL:  series.Image,
		FirstAired: series.FirstAired,
	}, nil
}

// Enrich builds the notification content for an event, layering show metadata
// on top of the event's own fields. Lookups are best-effort: on any failure
// the notice is returned with event data only.
func (s *Service) Enrich(ctx context.Context, event models.NewEpisodeEvent) models.EpisodeNotice {
	notice := models.EpisodeNotice{
		ShowTitle:     event.ShowTitle,
		SeasonNumber:  event.SeasonNumber,
		EpisodeNumber: event.EpisodeNumber,
		EpisodeTitle:  event.EpisodeTitle,
		AirDate:       event.AirDate,
		Summary:       event.Summary,
		ThumbnailRef:  event.ThumbnailRef,
	}

	details := s.lookupDetails(ctx, event)
	if details == nil {
		return notice
	}
	if details.Name != "" {
		notice.ShowTitle = details.Name
	}
	notice.Overview = details.Overview
	notice.Status = string(details.Status)
	notice.Network = details.Network
	if notice.ThumbnailRef == "" {
		notice.ThumbnailRef = details.PosterURL
	}
	notice.PosterURL = details.PosterURL
	return notice
}

func (s *Service) lookupDetails(ctx context.Context, event models.NewEpisodeEvent) *models.ShowDetails {
	if id, ok := guid.TVDBID(event.ShowGUID); ok {
		details, err := s.GetShowDetails(ctx, id)
		if err == nil && details != nil {
			return details
		}
		if err != nil {
			log.Printf("[metadata] series lookup for tvdb id %d failed: %v", id, err)
		}
	}
	show, err := s.SearchShow(ctx, event.ShowTitle)
	if err != nil {
		log.Printf("[metadata] search for %q failed: %v", event.ShowTitle, err)
		return nil
	}
	if show == nil {
		return nil
	}
	details, err := s.GetShowDetails(ctx, show.ID)
	if err != nil {
		log.Printf("[metadata] series lookup for %q (%d) failed: %v", show.Name, show.ID, err)
		return nil
	}
	return details
}

func searchResultToRecord(res tvdbSearchResult) *models.ShowRecord {
	rec := &models.ShowRecord{
		Name:      res.Name,
		Overview:  res.Overview,
		PosterURL: res.ImageURL,
	}
	if id, err := strconv.ParseInt(res.TVDBID, 10, 64); err == nil {
		rec.ID = id
	}
	if year, err := strconv.Atoi(res.Year); err == nil {
		rec.Year = year
	}
	for _, remote := range res.RemoteIDs {
		switch remote.SourceName {
		case "IMDB":
			rec.IMDBID = remote.ID
		case "TheMovieDB.com", "TheMovieDB":
			if id, err := strconv.ParseInt(remote.ID, 10, 64); err == nil {
				rec.TMDBID = id
			}
		}
	}
	return rec
}
