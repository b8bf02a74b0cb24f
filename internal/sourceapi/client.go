// Package sourceapi is a typed client for the remote help-center API:
// GET .../categories.json, .../categories/{id}/sections.json, and
// .../sections/{id}/articles.json, each paginated via a next_page cursor.
//
// Requests retry transient failures (connection errors, 5xx, 429) with
// exponential backoff via hashicorp/go-retryablehttp; a listing's pages
// are still consumed strictly in order within that one listing.
package sourceapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Client talks to one locale of the remote help-center API.
type Client struct {
	baseURL    string // e.g. "https://support.example.com/api/v2/help_center/"
	locale     string
	httpClient *retryablehttp.Client
	timeout    time.Duration
}

// NewClient builds a Client. timeout bounds each individual HTTP call.
func NewClient(baseURL, locale string, timeout time.Duration) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil // the daemon's own structured logger covers this

	return &Client{
		baseURL:    baseURL,
		locale:     locale,
		httpClient: rc,
		timeout:    timeout,
	}
}

// SetRetryMax overrides the retry count set by NewClient. Exposed for
// tests that exercise failure paths without waiting out real backoff.
func (c *Client) SetRetryMax(n int) {
	c.httpClient.RetryMax = n
}

const defaultPerPage = 100

func (c *Client) listingURL(pathFmt string, id int64, page int) (string, error) {
	var path string
	if id == 0 {
		path = fmt.Sprintf(pathFmt, c.locale)
	} else {
		path = fmt.Sprintf(pathFmt, c.locale, id)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("sourceapi: invalid base url: %w", err)
	}
	u.Path = joinPath(u.Path, path)

	q := u.Query()
	q.Set("sort_by", "position")
	q.Set("sort_order", "asc")
	q.Set("per_page", strconv.Itoa(defaultPerPage))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func joinPath(base, extra string) string {
	if base == "" {
		return "/" + extra
	}
	if base[len(base)-1] == '/' {
		return base + extra
	}
	return base + "/" + extra
}

func (c *Client) get(ctx context.Context, fullURL string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("sourceapi: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sourceapi: request %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sourceapi: %s returned status %d", fullURL, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sourceapi: decode %s: %w", fullURL, err)
	}
	return nil
}

// GetAllCategories fetches every page of categories.json, following
// next_page until it is null.
func (c *Client) GetAllCategories(ctx context.Context) ([]Category, error) {
	var all []Category
	page := 1
	for {
		url, err := c.listingURL("%s/categories.json", 0, page)
		if err != nil {
			return nil, err
		}

		var resp categoriesResponse
		if err := c.get(ctx, url, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Categories...)

		if resp.NextPage == nil {
			return all, nil
		}
		page++
	}
}

// GetAllSections fetches every page of categories/{categoryID}/sections.json.
func (c *Client) GetAllSections(ctx context.Context, categoryID int64) ([]Section, error) {
	var all []Section
	page := 1
	for {
		url, err := c.listingURL("%s/categories/%d/sections.json", categoryID, page)
		if err != nil {
			return nil, err
		}

		var resp sectionsResponse
		if err := c.get(ctx, url, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Sections...)

		if resp.NextPage == nil {
			return all, nil
		}
		page++
	}
}

// GetAllArticles fetches every page of sections/{sectionID}/articles.json.
func (c *Client) GetAllArticles(ctx context.Context, sectionID int64) ([]RemoteArticle, error) {
	var all []RemoteArticle
	page := 1
	for {
		url, err := c.listingURL("%s/sections/%d/articles.json", sectionID, page)
		if err != nil {
			return nil, err
		}

		var resp articlesResponse
		if err := c.get(ctx, url, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Articles...)

		if resp.NextPage == nil {
			return all, nil
		}
		page++
	}
}
