package guid

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantSource string
		wantID     string
		wantOK     bool
	}{
		{"tvdb", "tvdb://350665", "tvdb", "350665", true},
		{"tmdb", "tmdb://12345", "tmdb", "12345", true},
		{"imdb", "imdb://tt0458290", "imdb", "tt0458290", true},
		{"uppercase source lowered", "TVDB://350665", "tvdb", "350665", true},
		{"plex agent", "plex://show/5d9c086c46115600200aa2fe", "", "", false},
		{"empty", "", "", "", false},
		{"no scheme", "350665", "", "", false},
		{"trailing slash segment", "tvdb://350665/1", "", "", false},
		{"numeric source", "123://456", "", "", false},
		{"missing id", "tvdb://", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, id, ok := Parse(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if source != tt.wantSource || id != tt.wantID {
				t.Errorf("Parse(%q) = (%q, %q), want (%q, %q)", tt.input, source, id, tt.wantSource, tt.wantID)
			}
		})
	}
}

func TestTVDBID(t *testing.T) {
	if id, ok := TVDBID("tvdb://350665"); !ok || id != 350665 {
		t.Errorf("TVDBID(tvdb://350665) = (%d, %v), want (350665, true)", id, ok)
	}
	if _, ok := TVDBID("tmdb://350665"); ok {
		t.Error("TVDBID should reject tmdb source")
	}
	if _, ok := TVDBID("tvdb://abc"); ok {
		t.Error("TVDBID should reject non-numeric id")
	}
}

func TestTMDBID(t *testing.T) {
	if id, ok := TMDBID("tmdb://79744"); !ok || id != 79744 {
		t.Errorf("TMDBID(tmdb://79744) = (%d, %v), want (79744, true)", id, ok)
	}
	if _, ok := TMDBID("tvdb://79744"); ok {
		t.Error("TMDBID should reject tvdb source")
	}
}

func TestIMDBID(t *testing.T) {
	if id, ok := IMDBID("imdb://tt0458290"); !ok || id != "tt0458290" {
		t.Errorf("IMDBID(imdb://tt0458290) = (%q, %v), want (tt0458290, true)", id, ok)
	}
	if _, ok := IMDBID("imdb://0458290"); ok {
		t.Error("IMDBID should reject ids without tt prefix")
	}
	if _, ok := IMDBID("tvdb://tt0458290"); ok {
		t.Error("IMDBID should reject tvdb source")
	}
}

// Parse must be total: arbitrary garbage yields not-ok, never a panic, and
// every successful parse has a lowercase source and non-empty id.
func TestParseTotal(t *testing.T) {
	inputs := []string{
		"://", "a://", "://b", "a:/b", "a//b", "💥://id", "tvdb://a/b/c",
		"  tvdb://1  ", "tvdb:// ", string([]byte{0x00, 0x01}),
	}
	for _, in := range inputs {
		source, id, ok := Parse(in)
		if !ok {
			continue
		}
		if source == "" || id == "" {
			t.Errorf("Parse(%q) ok but empty component (%q, %q)", in, source, id)
		}
	}
}
