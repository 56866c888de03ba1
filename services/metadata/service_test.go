package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"followarr/models"
)

// newTVDBServer serves a canned TVDB v4 API: login, search, series detail.
func newTVDBServer(t *testing.T, loginCount *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if loginCount != nil {
			loginCount.Add(1)
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"token": "test-token"}})
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("query") == "Nothing" {
			json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{{
			"tvdb_id":   "350665",
			"name":      "The Rookie",
			"overview":  "John Nolan joins the LAPD.",
			"year":      "2018",
			"image_url": "https://artworks.thetvdb.com/banners/posters/350665-1.jpg",
			"remote_ids": []map[string]string{
				{"id": "tt7587890", "sourceName": "IMDB"},
				{"id": "79744", "sourceName": "TheMovieDB.com"},
			},
		}}})
	})
	mux.HandleFunc("/series/350665/extended", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"id":         350665,
			"name":       "The Rookie",
			"overview":   "John Nolan joins the LAPD.",
			"image":      "https://artworks.thetvdb.com/banners/posters/350665-1.jpg",
			"firstAired": "2018-10-16",
			"status":     map[string]string{"name": "Continuing"},
			"originalNetwork": map[string]string{"name": "ABC"},
		}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	srv := newTVDBServer(t, nil)
	return NewService(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})
}

func TestSearchShow(t *testing.T) {
	svc := newTestService(t)

	show, err := svc.SearchShow(context.Background(), "The Rookie")
	if err != nil {
		t.Fatalf("SearchShow failed: %v", err)
	}
	if show == nil {
		t.Fatal("expected a show")
	}
	if show.ID != 350665 || show.Name != "The Rookie" || show.Year != 2018 {
		t.Errorf("unexpected show %+v", show)
	}
	if show.IMDBID != "tt7587890" || show.TMDBID != 79744 {
		t.Errorf("remote ids not mapped: %+v", show)
	}
}

func TestSearchShow_NoMatch(t *testing.T) {
	svc := newTestService(t)

	show, err := svc.SearchShow(context.Background(), "Nothing")
	if err != nil {
		t.Fatalf("SearchShow failed: %v", err)
	}
	if show != nil {
		t.Errorf("expected nil for no match, got %+v", show)
	}
}

func TestGetShowDetails(t *testing.T) {
	svc := newTestService(t)

	details, err := svc.GetShowDetails(context.Background(), 350665)
	if err != nil {
		t.Fatalf("GetShowDetails failed: %v", err)
	}
	if details == nil {
		t.Fatal("expected details")
	}
	if details.Status != models.ShowStatusContinuing {
		t.Errorf("expected continuing status, got %q", details.Status)
	}
	if details.Network != "ABC" {
		t.Errorf("expected network ABC, got %q", details.Network)
	}
}

func TestTokenIsReusedAcrossRequests(t *testing.T) {
	var logins atomic.Int32
	srv := newTVDBServer(t, &logins)
	svc := NewService(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})

	for i := 0; i < 3; i++ {
		if _, err := svc.SearchShow(context.Background(), "The Rookie"); err != nil {
			t.Fatalf("SearchShow failed: %v", err)
		}
	}
	if got := logins.Load(); got != 1 {
		t.Errorf("expected a single login for the client instance, got %d", got)
	}
}

func TestEnrich_BestEffortOnFailure(t *testing.T) {
	// Metadata server that always errors.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	svc := NewService(Options{APIKey: "k", BaseURL: srv.URL, HTTPClient: srv.Client()})

	event := models.NewEpisodeEvent{
		ShowTitle:     "The Rookie",
		SeasonNumber:  7,
		EpisodeNumber: 1,
		EpisodeTitle:  "The Shot",
		AirDate:       "2025-01-07",
	}
	notice := svc.Enrich(context.Background(), event)
	if notice.ShowTitle != "The Rookie" || notice.EpisodeCode() != "S07E01" {
		t.Errorf("event fields must survive enrichment failure, got %+v", notice)
	}
	if notice.Overview != "" || notice.Network != "" {
		t.Errorf("expected no metadata fields on failure, got %+v", notice)
	}
}

func TestEnrich_PrefersGUIDLookup(t *testing.T) {
	svc := newTestService(t)

	notice := svc.Enrich(context.Background(), models.NewEpisodeEvent{
		ShowTitle:     "rookie, the",
		ShowGUID:      "tvdb://350665",
		SeasonNumber:  7,
		EpisodeNumber: 1,
	})
	if notice.ShowTitle != "The Rookie" {
		t.Errorf("expected canonical title from metadata, got %q", notice.ShowTitle)
	}
	if notice.Overview == "" || notice.Status != "continuing" {
		t.Errorf("expected enriched fields, got %+v", notice)
	}
}
