// Package boardapi implements the listing provider against a job-board
// aggregation HTTP API (Adzuna-compatible search endpoint).
package boardapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go-jobwatch-automation/internal/provider"
)

const (
	defaultBaseURL = "https://api.adzuna.com/v1/api/jobs"
	pageSize       = 50
	maxPages       = 3 //max 150 results per query
	httpTimeout    = 15 * time.Second
)

// Client fetches postings from the board API. If AppID or AppKey is empty,
// Search fails with a ProviderError so the run summary shows the skipped query.
type Client struct {
	baseURL string
	appID   string
	appKey  string
	country string //"us", "gb", "fr", ...
	client  *http.Client
}

// NewClient constructs a client with a shared HTTP client.
func NewClient(baseURL, appID, appKey, country string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		appID:   appID,
		appKey:  appKey,
		country: country,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

func (c *Client) Name() string {
	return "boardapi"
}

// apiResponse mirrors the top-level search response.
type apiResponse struct {
	Results []apiResult `json:"results"`
	Count   int         `json:"count"`
}

// apiResult mirrors a single listing.
type apiResult struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Company     apiCompany  `json:"company"`
	Location    apiLocation `json:"location"`
	SalaryMin   float64     `json:"salary_min"`
	SalaryMax   float64     `json:"salary_max"`
	RedirectURL string      `json:"redirect_url"`
	Created     string      `json:"created"`
	Source      string      `json:"source"`
}

type apiCompany struct {
	DisplayName string `json:"display_name"`
}

type apiLocation struct {
	DisplayName string `json:"display_name"`
}

// Search retrieves all available postings for one query, iterating through
// pages until the results run out or maxPages is reached. One attempt per
// page; any page error fails the whole query.
func (c *Client) Search(ctx context.Context, q provider.Query) ([]provider.Posting, error) {
	if c.appID == "" || c.appKey == "" {
		return nil, &provider.ProviderError{
			Provider: c.Name(),
			Query:    q.Label(),
			Err:      fmt.Errorf("BOARD_APP_ID / BOARD_APP_KEY not set"),
		}
	}

	var postings []provider.Posting
	for page := 1; page <= maxPages; page++ {
		batch, err := c.fetchPage(ctx, q, page)
		if err != nil {
			return nil, &provider.ProviderError{Provider: c.Name(), Query: q.Label(), Err: err}
		}
		if len(batch) == 0 {
			break //no more results
		}
		postings = append(postings, batch...)
		if len(batch) < pageSize {
			break //last page
		}
	}
	return postings, nil
}

func (c *Client) fetchPage(ctx context.Context, q provider.Query, page int) ([]provider.Posting, error) {
	endpoint := fmt.Sprintf("%s/%s/search/%d", c.baseURL, c.country, page)

	what := q.Term
	if q.Company != "" {
		what = q.Term + " " + q.Company
	}

	params := url.Values{}
	params.Set("app_id", c.appID)
	params.Set("app_key", c.appKey)
	params.Set("results_per_page", strconv.Itoa(pageSize))
	params.Set("what", what)
	params.Set("where", q.Location)
	params.Set("max_days_old", strconv.Itoa(maxDaysOld(q.MaxAgeHours)))
	params.Set("sort_by", "date")
	if len(q.Sites) > 0 {
		params.Set("site_name", strings.Join(q.Sites, ","))
	}
	if len(q.ExperienceLevels) > 0 {
		params.Set("experience_level", strings.Join(q.ExperienceLevels, ","))
	}

	reqURL := endpoint + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("board api returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	postings := make([]provider.Posting, 0, len(apiResp.Results))
	for _, r := range apiResp.Results {
		id := r.RedirectURL
		if id == "" {
			id = fmt.Sprintf("boardapi:%s", r.ID)
		}
		source := r.Source
		if source == "" && len(q.Sites) == 1 {
			source = q.Sites[0]
		}
		p := provider.Posting{
			ID:            id,
			Title:         r.Title,
			Company:       r.Company.DisplayName,
			Location:      r.Location.DisplayName,
			Description:   r.Description,
			Source:        source,
			SearchContext: q.Label(),
		}
		if ts, err := time.Parse(time.RFC3339, r.Created); err == nil {
			p.PostedAt = &ts
		} else if len(r.Created) >= 10 {
			if ts, err := time.Parse("2006-01-02", r.Created[:10]); err == nil {
				p.PostedAt = &ts
			}
		}
		if r.SalaryMin > 0 || r.SalaryMax > 0 {
			p.Compensation = &provider.Compensation{
				MinAmount: r.SalaryMin,
				MaxAmount: r.SalaryMax,
				Interval:  "yearly",
			}
		}
		postings = append(postings, p)
	}

	if len(postings) > 0 {
		log.Printf("  🔍 %s: page %d returned %d postings", q.Label(), page, len(postings))
	}
	return postings, nil
}

// maxDaysOld converts the query recency window to whole days, rounding up so
// a 1 hour window still asks the API for today's listings.
func maxDaysOld(hours int) int {
	if hours <= 0 {
		return 1
	}
	return (hours + 23) / 24
}
