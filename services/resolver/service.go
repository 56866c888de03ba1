// Package resolver maps an incoming episode event onto the set of users
// following its show. Identifiers are tried strictly strongest-first: a GUID
// names exactly one show, a platform rating key is server-unique, while title
// matching can collide across distinct or localized shows, so it runs last
// and only when nothing more specific matched.
package resolver

import (
	"log"

	"followarr/guid"
	"followarr/internal/database"
	"followarr/models"
)

// Store is the subscription lookup surface the resolver needs.
type Store interface {
	FollowersByGUID(g string) ([]string, error)
	FollowersByPlatformKey(key string) ([]string, error)
	MatchesByTitle(title string) ([]models.FollowRecord, error)
	BackfillIdentifiers(showTitle string, patch models.IdentifierPatch) error
}

var _ Store = (*database.FollowRepository)(nil)

// Service resolves events to follower sets.
type Service struct {
	store Store
}

// NewService creates a resolver backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Resolve returns the user ids following the event's show, trying GUID, then
// platform key, then title variants, short-circuiting on the first non-empty
// result. An empty result is normal; an error means a store failure only.
func (s *Service) Resolve(event models.NewEpisodeEvent) ([]string, error) {
	// Strategy 1: GUID exact match. A malformed GUID behaves like no GUID.
	if event.ShowGUID != "" {
		users, err := s.store.FollowersByGUID(event.ShowGUID)
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			return users, nil
		}
	}

	// Strategy 2: platform rating key exact match.
	if event.ShowPlatformKey != "" {
		users, err := s.store.FollowersByPlatformKey(event.ShowPlatformKey)
		if err != nil {
			return nil, err
		}
		if len(users) > 0 {
			return users, nil
		}
	}

	// Strategy 3: title variant fallback.
	matched, err := s.store.MatchesByTitle(event.ShowTitle)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}

	s.backfill(event, matched)
	return userIDs(matched), nil
}

// backfill writes the event's identifiers onto records that were only
// reachable through title matching, so the next event for the same show
// resolves through a strategy 1 or 2 index instead. Best-effort: a failed
// write is logged and never blocks notification delivery.
func (s *Service) backfill(event models.NewEpisodeEvent, matched []models.FollowRecord) {
	patch := patchFromEvent(event)
	if patch.Empty() {
		return
	}
	for _, title := range uniqueTitles(matched) {
		if err := s.store.BackfillIdentifiers(title, patch); err != nil {
			log.Printf("[resolver] failed to backfill identifiers for %q: %v", title, err)
		}
	}
}

func patchFromEvent(event models.NewEpisodeEvent) models.IdentifierPatch {
	var patch models.IdentifierPatch
	if event.ShowGUID != "" {
		g := event.ShowGUID
		patch.RawGUID = &g
		if id, ok := guid.TVDBID(g); ok {
			patch.TVDBID = &id
		}
		if id, ok := guid.TMDBID(g); ok {
			patch.TMDBID = &id
		}
		if id, ok := guid.IMDBID(g); ok {
			patch.IMDBID = &id
		}
	}
	if event.ShowPlatformKey != "" {
		key := event.ShowPlatformKey
		patch.PlatformRatingKey = &key
	}
	return patch
}

func userIDs(records []models.FollowRecord) []string {
	seen := map[string]struct{}{}
	var users []string
	for _, rec := range records {
		if _, dup := seen[rec.UserID]; dup {
			continue
		}
		seen[rec.UserID] = struct{}{}
		users = append(users, rec.UserID)
	}
	return users
}

func uniqueTitles(records []models.FollowRecord) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, rec := range records {
		if _, dup := seen[rec.ShowTitle]; dup {
			continue
		}
		seen[rec.ShowTitle] = struct{}{}
		out = append(out, rec.ShowTitle)
	}
	return out
}
