// Package guid parses provider-tagged identifier strings of the form
// "source://id" (tvdb://350665, imdb://tt0458290, ...). Malformed input is not
// an error condition; every function reports "no value" instead of failing, so
// callers can fall through to weaker matching strategies.
package guid

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	guidPattern = regexp.MustCompile(`^([A-Za-z]+)://([^/]+)$`)
	imdbPattern = regexp.MustCompile(`^tt\d+$`)
)

// Parse splits a GUID into its lower-cased source and opaque id. ok is false
// for empty or malformed input.
func Parse(guid string) (source, id string, ok bool) {
	if guid == "" {
		return "", "", false
	}
	m := guidPattern.FindStringSubmatch(guid)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), m[2], true
}

// TVDBID extracts a numeric TVDB series id from a tvdb:// GUID.
func TVDBID(guid string) (int64, bool) {
	return numericID(guid, "tvdb")
}

// TMDBID extracts a numeric TMDB series id from a tmdb:// GUID.
func TMDBID(guid string) (int64, bool) {
	return numericID(guid, "tmdb")
}

// IMDBID extracts an IMDb id (tt followed by digits) from an imdb:// GUID.
func IMDBID(guid string) (string, bool) {
	source, id, ok := Parse(guid)
	if !ok || source != "imdb" || !imdbPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

func numericID(guid, wantSource string) (int64, bool) {
	source, id, ok := Parse(guid)
	if !ok || source != wantSource {
		return 0, false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
