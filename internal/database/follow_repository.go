package database

import (
	"database/sql"
	"errors"
	"fmt"

	"followarr/guid"
	"followarr/models"
	"followarr/titles"
)

// ErrNoIdentifier is returned when a follow carries nothing a future event
// could be matched against. A display title alone is not reliable enough.
var ErrNoIdentifier = errors.New("follow record needs at least one identifier")

// FollowRepository provides access to persisted (user, show) subscriptions.
type FollowRepository struct {
	db *sql.DB
}

// NewFollowRepository creates a new follow repository.
func NewFollowRepository(db *sql.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

const followColumns = `user_id, show_id, show_title, platform_rating_key, tvdb_id, tmdb_id, imdb_id, raw_guid, created_at`

// AddFollow inserts a subscription. Inserting an existing (user_id, show_id)
// pair is a no-op, not an error.
func (r *FollowRepository) AddFollow(rec models.FollowRecord) error {
	if rec.ShowID == 0 && rec.RawGUID == nil && rec.TVDBID == nil && rec.TMDBID == nil && rec.IMDBID == nil {
		return ErrNoIdentifier
	}
	_, err := r.db.Exec(`
		INSERT INTO follows (user_id, show_id, show_title, platform_rating_key, tvdb_id, tmdb_id, imdb_id, raw_guid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, show_id) DO NOTHING`,
		rec.UserID, rec.ShowID, rec.ShowTitle,
		rec.PlatformRatingKey, rec.TVDBID, rec.TMDBID, rec.IMDBID, rec.RawGUID)
	if err != nil {
		return fmt.Errorf("failed to add follow: %w", err)
	}
	return nil
}

// RemoveFollow deletes the first of the user's follows whose stored title
// matches the free-text input under title normalization. Returns false when
// nothing matched; that is a normal outcome, not an error.
func (r *FollowRepository) RemoveFollow(userID, freeText string) (bool, error) {
	records, err := r.ListFollows(userID)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if titles.Match(rec.ShowTitle, freeText) {
			_, err := r.db.Exec(`DELETE FROM follows WHERE user_id = ? AND show_id = ?`,
				rec.UserID, rec.ShowID)
			if err != nil {
				return false, fmt.Errorf("failed to remove follow: %w", err)
			}
			return true, nil
		}
	}
	return false, nil
}

// ListFollows returns all of a user's subscriptions.
func (r *FollowRepository) ListFollows(userID string) ([]models.FollowRecord, error) {
	rows, err := r.db.Query(`SELECT `+followColumns+` FROM follows WHERE user_id = ? ORDER BY show_title`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()
	return scanFollows(rows)
}

// FollowersByGUID returns the user ids following the show identified by the
// given source://id GUID. An unparseable GUID matches only records that
// stored the identical raw string; an empty GUID matches nothing.
func (r *FollowRepository) FollowersByGUID(g string) ([]string, error) {
	if g == "" {
		return nil, nil
	}
	if tvdbID, ok := guid.TVDBID(g); ok {
		// show_id is the TVDB series id for follows created via search, so a
		// tvdb GUID matches either column.
		return r.queryFollowers(`SELECT user_id FROM follows WHERE tvdb_id = ? OR show_id = ?`, tvdbID, tvdbID)
	}
	if tmdbID, ok := guid.TMDBID(g); ok {
		return r.queryFollowers(`SELECT user_id FROM follows WHERE tmdb_id = ?`, tmdbID)
	}
	if imdbID, ok := guid.IMDBID(g); ok {
		return r.queryFollowers(`SELECT user_id FROM follows WHERE imdb_id = ?`, imdbID)
	}
	return r.queryFollowers(`SELECT user_id FROM follows WHERE raw_guid = ?`, g)
}

// FollowersByPlatformKey returns the user ids whose follow stored the given
// media-server rating key.
func (r *FollowRepository) FollowersByPlatformKey(key string) ([]string, error) {
	if key == "" {
		return nil, nil
	}
	return r.queryFollowers(`SELECT user_id FROM follows WHERE platform_rating_key = ?`, key)
}

// FollowersByTitle returns the user ids whose stored show title matches the
// given title under normalization variants.
func (r *FollowRepository) FollowersByTitle(title string) ([]string, error) {
	records, err := r.MatchesByTitle(title)
	if err != nil {
		return nil, err
	}
	return uniqueUserIDs(records), nil
}

// MatchesByTitle returns the full follow records whose stored title matches
// the given title under normalization variants. The resolver uses the records
// to know which rows to backfill.
func (r *FollowRepository) MatchesByTitle(title string) ([]models.FollowRecord, error) {
	if title == "" {
		return nil, nil
	}
	rows, err := r.db.Query(`SELECT ` + followColumns + ` FROM follows`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan follows: %w", err)
	}
	defer rows.Close()

	all, err := scanFollows(rows)
	if err != nil {
		return nil, err
	}
	var matched []models.FollowRecord
	for _, rec := range all {
		if titles.Match(rec.ShowTitle, title) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// BackfillIdentifiers applies a partial identifier update to every follow
// stored under the given show title. Nil patch fields leave the existing
// column values untouched; concurrent writers for the same show carry the
// same identifiers, so last-write-wins is fine.
func (r *FollowRepository) BackfillIdentifiers(showTitle string, patch models.IdentifierPatch) error {
	if patch.Empty() {
		return nil
	}
	_, err := r.db.Exec(`
		UPDATE follows SET
			platform_rating_key = COALESCE(?, platform_rating_key),
			tvdb_id  = COALESCE(?, tvdb_id),
			tmdb_id  = COALESCE(?, tmdb_id),
			imdb_id  = COALESCE(?, imdb_id),
			raw_guid = COALESCE(?, raw_guid)
		WHERE show_title = ?`,
		patch.PlatformRatingKey, patch.TVDBID, patch.TMDBID, patch.IMDBID, patch.RawGUID,
		showTitle)
	if err != nil {
		return fmt.Errorf("failed to backfill identifiers: %w", err)
	}
	return nil
}

func (r *FollowRepository) queryFollowers(query string, args ...any) ([]string, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query followers: %w", err)
	}
	defer rows.Close()

	seen := map[string]struct{}{}
	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("failed to scan follower: %w", err)
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}
		users = append(users, userID)
	}
	return users, rows.Err()
}

func scanFollows(rows *sql.Rows) ([]models.FollowRecord, error) {
	var records []models.FollowRecord
	for rows.Next() {
		var rec models.FollowRecord
		var platformKey, imdbID, rawGUID sql.NullString
		var tvdbID, tmdbID sql.NullInt64
		if err := rows.Scan(&rec.UserID, &rec.ShowID, &rec.ShowTitle,
			&platformKey, &tvdbID, &tmdbID, &imdbID, &rawGUID, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		if platformKey.Valid {
			rec.PlatformRatingKey = &platformKey.String
		}
		if tvdbID.Valid {
			rec.TVDBID = &tvdbID.Int64
		}
		if tmdbID.Valid {
			rec.TMDBID = &tmdbID.Int64
		}
		if imdbID.Valid {
			rec.IMDBID = &imdbID.String
		}
		if rawGUID.Valid {
			rec.RawGUID = &rawGUID.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func uniqueUserIDs(records []models.FollowRecord) []string {
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
