package models

import "time"

// FollowRecord is one persisted (user, show) subscription. A record is matched
// against incoming episode events by identifier when possible and by title as
// a last resort, so every identifier column beyond show_id is optional and may
// be back-filled after creation.
type FollowRecord struct {
	UserID           string     `json:"userId"`
	ShowTitle        string     `json:"showTitle"`
	ShowID           int64      `json:"showId"` // TVDB series id
	PlatformRatingKey *string   `json:"platformRatingKey,omitempty"`
	TVDBID           *int64     `json:"tvdbId,omitempty"`
	TMDBID           *int64     `json:"tmdbId,omitempty"`
	IMDBID           *string    `json:"imdbId,omitempty"`
	RawGUID          *string    `json:"rawGuid,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

// IdentifierPatch is a partial update of a FollowRecord's identifier columns.
// Nil fields are left untouched.
type IdentifierPatch struct {
	PlatformRatingKey *string
	TVDBID            *int64
	TMDBID            *int64
	IMDBID            *string
	RawGUID           *string
}

// Empty reports whether the patch carries no values at all.
func (p IdentifierPatch) Empty() bool {
	return p.PlatformRatingKey == nil && p.TVDBID == nil && p.TMDBID == nil &&
		p.IMDBID == nil && p.RawGUID == nil
}
