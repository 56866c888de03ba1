// Package follows implements the user-facing subscription operations: follow
// a show by name, unfollow by free text, list follows.
package follows

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"followarr/internal/database"
	"followarr/models"
	"followarr/services/metadata"
)

var (
	ErrUserIDRequired = errors.New("user id required")
	ErrQueryRequired  = errors.New("show name required")
	ErrShowNotFound   = errors.New("show not found")
)

// Searcher is the metadata lookup used when creating a follow.
type Searcher interface {
	SearchShow(ctx context.Context, name string) (*models.ShowRecord, error)
}

var _ Searcher = (*metadata.Service)(nil)

// Store is the persistence surface for follow records.
type Store interface {
	AddFollow(rec models.FollowRecord) error
	RemoveFollow(userID, freeText string) (bool, error)
	ListFollows(userID string) ([]models.FollowRecord, error)
}

var _ Store = (*database.FollowRepository)(nil)

// Service manages follow subscriptions.
type Service struct {
	store  Store
	search Searcher
}

// NewService creates a follows service.
func NewService(store Store, search Searcher) *Service {
	return &Service{store: store, search: search}
}

// Follow resolves the query against the metadata provider and records a
// subscription to the first match. Following an already-followed show
// succeeds without duplicating the record.
func (s *Service) Follow(ctx context.Context, userID, query string) (*models.ShowRecord, error) {
	userID = strings.TrimSpace(userID)
	query = strings.TrimSpace(query)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if query == "" {
		return nil, ErrQueryRequired
	}

	show, err := s.search.SearchShow(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search show: %w", err)
	}
	if show == nil {
		return nil, fmt.Errorf("%w: %q", ErrShowNotFound, query)
	}

	rec := models.FollowRecord{
		UserID:    userID,
		ShowID:    show.ID,
		ShowTitle: show.Name,
	}
	tvdbID := show.ID
	rec.TVDBID = &tvdbID
	if show.TMDBID != 0 {
		tmdbID := show.TMDBID
		rec.TMDBID = &tmdbID
	}
	if show.IMDBID != "" {
		imdbID := show.IMDBID
		rec.IMDBID = &imdbID
	}

	if err := s.store.AddFollow(rec); err != nil {
		return nil, fmt.Errorf("add follow: %w", err)
	}
	log.Printf("[follows] user %s follows %q (tvdb %d)", userID, show.Name, show.ID)
	return show, nil
}

// Unfollow removes the user's follow whose stored title matches the free-text
// input under normalization variants. The lookup never round-trips through
// the metadata provider; the stored records themselves are the source of
// truth. Returns false when nothing matched.
func (s *Service) Unfollow(userID, freeText string) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, ErrUserIDRequired
	}
	if strings.TrimSpace(freeText) == "" {
		return false, ErrQueryRequired
	}
	removed, err := s.store.RemoveFollow(userID, freeText)
	if err != nil {
		return false, fmt.Errorf("remove follow: %w", err)
	}
	if removed {
		log.Printf("[follows] user %s unfollowed %q", userID, freeText)
	}
	return removed, nil
}

// List returns the user's follows.
func (s *Service) List(userID string) ([]models.FollowRecord, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	return s.store.ListFollows(userID)
}
