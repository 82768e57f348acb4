package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/ariata/ariata/internal/core/domain"
)

// DefaultBaseURL is the Strava API v3 endpoint.
const DefaultBaseURL = "https://www.strava.com/api/v3"

// ProactiveRate throttles requests well under Strava's 100-per-15-min
// read limit.
const ProactiveRate = 0.1

// Client is a minimal Strava API client.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client with the given bearer token.
func NewClient(token string) *Client {
	return &Client{
		baseURL:    DefaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(ProactiveRate), 5),
	}
}

// get performs a throttled GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%v: %w", err, domain.ErrTransient)
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", domain.ErrTransient)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// classifyStatus maps HTTP status codes onto the domain error taxonomy.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("strava: status %d: %w", resp.StatusCode, domain.ErrReauthRequired)
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		if seconds, err := strconv.Atoi(retryAfter); err == nil {
			return fmt.Errorf("strava: rate limited, retry in %ds: %w", seconds, domain.ErrRateLimited)
		}
		return fmt.Errorf("strava: rate limited: %w", domain.ErrRateLimited)
	case resp.StatusCode >= 500:
		return fmt.Errorf("strava: status %d: %w", resp.StatusCode, domain.ErrTransient)
	default:
		return fmt.Errorf("strava: status %d: %w", resp.StatusCode, domain.ErrPermanent)
	}
}
