package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Client represents a scrape provider API client
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new scrape provider client. The base URL and API key
// come from the environment when not supplied.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("SCRAPER_BASE_URL")
	}
	if apiKey == "" {
		apiKey = os.Getenv("SCRAPER_API_KEY")
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// HasCredentials reports whether the client is configured to reach the
// provider. A job cannot start without them.
func (c *Client) HasCredentials() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// reactionsResponse is the provider's reactions payload
type reactionsResponse struct {
	Reactions []RawReaction `json:"reactions"`
}

// commentsResponse is the provider's comments payload
type commentsResponse struct {
	Comments []RawComment `json:"comments"`
}

// enrichRequest is the batch enrichment request body
type enrichRequest struct {
	LookupKeys []string `json:"lookupKeys"`
}

// enrichResponse is the provider's batch enrichment payload
type enrichResponse struct {
	Results []ProfileDetail `json:"results"`
}

// GetPostReactions fetches all scraped reactions for one post under the given
// scrape-user scope.
func (c *Client) GetPostReactions(ctx context.Context, postURN, scopeUser string) ([]RawReaction, error) {
	endpoint := fmt.Sprintf("%s/v1/posts/%s/reactions?scopeUser=%s",
		c.baseURL, url.PathEscape(postURN), url.QueryEscape(scopeUser))

	var resp reactionsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch reactions for %s: %w", postURN, err)
	}
	return resp.Reactions, nil
}

// GetPostComments fetches all scraped comments for one post under the given
// scrape-user scope.
func (c *Client) GetPostComments(ctx context.Context, postURN, scopeUser string) ([]RawComment, error) {
	endpoint := fmt.Sprintf("%s/v1/posts/%s/comments?scopeUser=%s",
		c.baseURL, url.PathEscape(postURN), url.QueryEscape(scopeUser))

	var resp commentsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch comments for %s: %w", postURN, err)
	}
	return resp.Comments, nil
}

// EnrichProfiles resolves one batch of lookup keys to profile detail. The
// caller owns batching and concurrency; this is a single provider round trip.
func (c *Client) EnrichProfiles(ctx context.Context, lookupKeys []string) ([]ProfileDetail, error) {
	body, err := json.Marshal(enrichRequest{LookupKeys: lookupKeys})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/profiles/enrich", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrichment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment request failed: %s", resp.Status)
	}

	var parsed enrichResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode enrichment response: %w", err)
	}
	return parsed.Results, nil
}

// getJSON performs an authenticated GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
