package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/czmobin/karlancer/internal/model"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

// Client talks to the Karlancer public API. All requests share one limiter so
// consecutive calls keep a minimum gap regardless of which endpoint they hit.
type Client struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a client for the given API base URL. minGap is the minimum
// time between two requests; zero disables the limiter.
func NewClient(baseURL, bearerToken string, minGap time.Duration, httpClient *http.Client) *Client {
	limit := rate.Inf
	if minGap > 0 {
		limit = rate.Every(minGap)
	}
	return &Client{
		baseURL:     baseURL,
		bearerToken: bearerToken,
		httpClient:  httpClient,
		limiter:     rate.NewLimiter(limit, 1),
	}
}

// searchResponse is the envelope of the project search endpoint.
type searchResponse struct {
	Status string `json:"status"`
	Data   struct {
		Data []model.Project `json:"data"`
	} `json:"data"`
}

// FetchProjects retrieves the current open projects for query, newest first.
func (c *Client) FetchProjects(ctx context.Context, query string) ([]model.Project, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("order", "newest")
	params.Set("logged_in", "1")

	endpoint := c.baseURL + "/api/publics/search/projects?" + params.Encode()

	var sr searchResponse
	if err := c.getJSON(ctx, endpoint, &sr); err != nil {
		return nil, fmt.Errorf("search projects: %w", err)
	}

	if sr.Status != "success" {
		return nil, fmt.Errorf("search projects: API status %q", sr.Status)
	}

	return sr.Data.Data, nil
}

// detailResponse is the envelope of the project detail endpoint.
type detailResponse struct {
	Status string              `json:"status"`
	Data   model.ProjectDetail `json:"data"`
}

// ProjectDetail fetches the authoritative budget and duration for a project.
func (c *Client) ProjectDetail(ctx context.Context, projectID int64) (*model.ProjectDetail, error) {
	endpoint := fmt.Sprintf("%s/api/publics/projects/%d", c.baseURL, projectID)

	var dr detailResponse
	if err := c.getJSON(ctx, endpoint, &dr); err != nil {
		return nil, fmt.Errorf("project %d detail: %w", projectID, err)
	}

	if dr.Status != "success" {
		return nil, fmt.Errorf("project %d detail: API status %q", projectID, dr.Status)
	}

	return &dr.Data, nil
}

// Bid is the JSON body posted to the bids endpoint. BidID and EditCartID are
// always serialized as null; the API rejects the fields when omitted.
type Bid struct {
	ProjectID   int64       `json:"project_id"`
	BidID       *int64      `json:"bid_id"`
	IsPin       bool        `json:"is_pin"`
	IsHighlight bool        `json:"is_highlight"`
	IsMulti     bool        `json:"is_multi"`
	Description string      `json:"description"`
	EditCartID  *int64      `json:"edit_cart_id"`
	Milestones  []Milestone `json:"milestones"`
}

// Milestone carries budget and duration as strings, matching the wire format.
type Milestone struct {
	Description string `json:"description"`
	Duration    string `json:"duration"`
	Budget      string `json:"budget"`
}

// SubmitBid posts a bid. HTTP 200/201 is success; anything else returns an
// HTTPError carrying the response body.
func (c *Client) SubmitBid(ctx context.Context, bid Bid) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(bid)
	if err != nil {
		return fmt.Errorf("marshal bid: %w", err)
	}

	endpoint := c.baseURL + "/api/bids"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create bid request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post bid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       string(respBody),
		}
	}

	return nil
}

// getJSON performs a rate-limited authorized GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Body:       string(respBody),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "fa-IR,fa;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	req.Header.Set("User-Agent", userAgent)
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
