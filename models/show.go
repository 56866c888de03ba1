package models

// ShowStatus is the broadcast status of a series as reported by the metadata
// provider.
type ShowStatus string

const (
	ShowStatusContinuing ShowStatus = "continuing"
	ShowStatusEnded      ShowStatus = "ended"
	ShowStatusUpcoming   ShowStatus = "upcoming"
	ShowStatusUnknown    ShowStatus = "unknown"
)

// ParseShowStatus maps a provider status string onto a ShowStatus.
func ParseShowStatus(s string) ShowStatus {
	switch s {
	case "Continuing", "continuing", "Returning Series":
		return ShowStatusContinuing
	case "Ended", "ended", "Canceled", "cancelled":
		return ShowStatusEnded
	case "Upcoming", "upcoming":
		return ShowStatusUpcoming
	default:
		return ShowStatusUnknown
	}
}

// ShowRecord is a search result from the metadata provider.
type ShowRecord struct {
	ID        int64  `json:"id"` // TVDB series id
	Name      string `json:"name"`
	Overview  string `json:"overview,omitempty"`
	Year      int    `json:"year,omitempty"`
	PosterURL string `json:"posterUrl,omitempty"`
	IMDBID    string `json:"imdbId,omitempty"`
	TMDBID    int64  `json:"tmdbId,omitempty"`
}

// ShowDetails is the full series record used to enrich notifications.
type ShowDetails struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Overview   string     `json:"overview,omitempty"`
	Status     ShowStatus `json:"status"`
	Network    string     `json:"network,omitempty"`
	PosterURL  string     `json:"posterUrl,omitempty"`
	FirstAired string     `json:"firstAired,omitempty"` // YYYY-MM-DD
}
