package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

// Minimal TVDB v4 client (token auth, search and series endpoints we need)

const defaultTVDBBaseURL = "https://api4.thetvdb.com/v4"

type tvdbClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func newTVDBClient(apiKey, baseURL string, httpc *http.Client) *tvdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultTVDBBaseURL
	}
	return &tvdbClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
	}
}

// ensureToken returns a valid bearer token, logging in when none is cached or
// the cached one is about to expire. The token lives on the client instance,
// never in process-wide state.
func (c *tvdbClient) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-1*time.Minute)) {
		return c.token, nil
	}
	buf, _ := json.Marshal(map[string]string{"apikey": c.apiKey})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("tvdb login failed: %s", resp.Status)
	}
	var data struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	c.token = data.Data.Token
	c.tokenExpiry = time.Now().Add(23 * time.Hour)
	return c.token, nil
}

// invalidateToken drops the cached token so the next request logs in again.
func (c *tvdbClient) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

type tvdbStatusError struct {
	code   int
	status string
	body   string
}

func (e *tvdbStatusError) Error() string {
	return fmt.Sprintf("tvdb request failed: %s: %s", e.status, e.body)
}

func (c *tvdbClient) doGET(ctx context.Context, path string, q url.Values, v any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u = u + "?" + q.Encode()
	}
	return retry.Do(
		func() error {
			token, err := c.ensureToken(ctx)
			if err != nil {
				return err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+token)
			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusUnauthorized {
				// Token expired server-side; drop it and let the retry log in again.
				c.invalidateToken()
				return &tvdbStatusError{code: resp.StatusCode, status: resp.Status}
			}
			if resp.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
				statusErr := &tvdbStatusError{code: resp.StatusCode, status: resp.Status, body: strings.TrimSpace(string(body))}
				if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}
			return json.NewDecoder(resp.Body).Decode(v)
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(300*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

type tvdbSearchResult struct {
	TVDBID    string         `json:"tvdb_id"`
	Name      string         `json:"name"`
	Overview  string         `json:"overview"`
	Year      string         `json:"year"`
	ImageURL  string         `json:"image_url"`
	RemoteIDs []tvdbRemoteID `json:"remote_ids"`
}

type tvdbRemoteID struct {
	ID         string `json:"id"`
	SourceName string `json:"sourceName"`
}

func (c *tvdbClient) searchSeries(ctx context.Context, name string) ([]tvdbSearchResult, error) {
	q := url.Values{}
	q.Set("query", name)
	q.Set("type", "series")
	var resp struct {
		Data []tvdbSearchResult `json:"data"`
	}
	if err := c.doGET(ctx, "/search", q, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

type tvdbSeries struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Overview   string `json:"overview"`
	Image      string `json:"image"`
	FirstAired string `json:"firstAired"`
	Status     struct {
		Name string `json:"name"`
	} `json:"status"`
	OriginalNetwork struct {
		Name string `json:"name"`
	} `json:"originalNetwork"`
}

func (c *tvdbClient) seriesByID(ctx context.Context, id int64) (*tvdbSeries, error) {
	var resp struct {
		Data tvdbSeries `json:"data"`
	}
	if err := c.doGET(ctx, fmt.Sprintf("/series/%d/extended", id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
