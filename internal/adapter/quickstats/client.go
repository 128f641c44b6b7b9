package quickstats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agridata/quickstats-etl/internal/domain"
)

// DefaultBaseURL is the public Quick Stats endpoint.
const DefaultBaseURL = "https://quickstats.nass.usda.gov"

// Client fetches records from the USDA NASS Quick Stats API. It holds no
// mutable state, so concurrent Fetch calls are safe.
type Client struct {
	key        string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Quick Stats client. baseURL may be empty to use the
// public endpoint. The key is carried only in request query strings; it is
// never logged and never appears in returned errors.
func NewClient(key, baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("quickstats: API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		key:     key,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Fetch issues one GET against /api/api_GET/ for the given query and returns
// the flat records under the response's "data" key. No retries; transient
// failures surface as *TransportError for the caller to handle.
func (c *Client) Fetch(ctx context.Context, query domain.Query) ([]domain.RawRecord, error) {
	if query.MinYear < 1000 || query.MinYear > 9999 {
		return nil, fmt.Errorf("quickstats: min year must be a 4-digit year, got %d", query.MinYear)
	}

	params := url.Values{
		"key":            {c.key},
		"commodity_desc": {query.Commodity},
		"year__GE":       {strconv.Itoa(query.MinYear)},
	}
	if query.StateAlpha != "" {
		params.Set("state_alpha", query.StateAlpha)
	}

	fullURL := c.baseURL + "/api/api_GET/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The transport error may echo the request URL, key included.
		// Log and wrap only the sanitized form.
		return nil, &TransportError{Err: sanitizeURLError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("quickstats request failed",
			"status", resp.StatusCode,
			"commodity", query.Commodity,
			"min_year", query.MinYear,
		)
		return nil, &RequestError{StatusCode: resp.StatusCode}
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &DecodeError{Err: err}
	}

	c.logger.Debug("quickstats fetch complete",
		"commodity", query.Commodity,
		"records", len(body.Data),
		"duration", time.Since(start),
	)
	return body.Data, nil
}

// sanitizeURLError strips the query string (which carries the API key) from
// url.Error values produced by the HTTP client.
func sanitizeURLError(err error) error {
	urlErr, ok := err.(*url.Error)
	if !ok {
		return err
	}
	if u, parseErr := url.Parse(urlErr.URL); parseErr == nil {
		u.RawQuery = ""
		urlErr.URL = u.String()
	}
	return urlErr
}

// response is the Quick Stats envelope: a single "data" array of flat records.
type response struct {
	Data []domain.RawRecord `json:"data"`
}
