// Package s2 provides a client for the Semantic Scholar Academic Graph API.
package s2

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/citescope/internal/cache"
	"github.com/matsen/citescope/internal/citation"
	"github.com/matsen/citescope/internal/retry"
)

const (
	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// ProfilePrefix is the public author profile URL prefix.
	ProfilePrefix = "https://www.semanticscholar.org/author/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is 1 request per second for unauthenticated access.
	RateLimit = 1.0

	// DefaultAuthorSearchLimit is the number of candidates requested.
	DefaultAuthorSearchLimit = 10

	// MaxPaperLimit is the largest paper batch a single bulk request may
	// ask for.
	MaxPaperLimit = 500

	// AuthorSearchFields are the fields requested for author search.
	AuthorSearchFields = "name,affiliations,citationCount,hIndex"

	// AuthorPaperFields are the fields requested for the bulk paper fetch,
	// including the nested citing papers' author lists.
	AuthorPaperFields = "title,year,citationCount,authors,citations.paperId,citations.authors"

	// Fixed retry delays on a 429, per endpoint class.
	SearchRetryDelay = 2 * time.Second
	PaperRetryDelay  = 5 * time.Second
)

// ProfileURL returns the public profile URL for an author ID.
func ProfileURL(id string) string {
	if id == "" {
		return ""
	}
	return ProfilePrefix + id
}

// Client is a rate-limited HTTP client for the Semantic Scholar API.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	baseURL     string
	apiKey      string
	cache       cache.Cache
	searchRetry retry.Policy
	paperRetry  retry.Policy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCache injects a response cache keyed on request signatures.
func WithCache(cc cache.Cache) ClientOption {
	return func(c *Client) {
		c.cache = cc
	}
}

// WithSearchRetry overrides the rate-limit retry policy for searches.
func WithSearchRetry(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.searchRetry = p
	}
}

// WithPaperRetry overrides the rate-limit retry policy for paper fetches.
func WithPaperRetry(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.paperRetry = p
	}
}

// NewClient creates a new Semantic Scholar API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:     BaseURL,
		searchRetry: retry.Policy{Attempts: 2, Delay: SearchRetryDelay},
		paperRetry:  retry.Policy{Attempts: 2, Delay: PaperRetryDelay},
	}

	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == 429 {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
	return nil
}

// get fetches a URL with rate limiting, caching, and a single bounded
// retry on 429.
func (c *Client) get(ctx context.Context, u string, pol retry.Policy) ([]byte, error) {
	key := cache.Key(http.MethodGet, u)
	if c.cache != nil {
		if body, ok := c.cache.Get(key); ok {
			return body, nil
		}
	}

	var body []byte
	err := pol.Do(ctx, IsRateLimited, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("x-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrNetworkError, err)
		}
		defer resp.Body.Close()

		if err := checkHTTPErrors(resp); err != nil {
			return err
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Put(key, body)
	}
	return body, nil
}

// SearchAuthors searches for authors by name, most cited first. An empty
// query yields an empty candidate list, not an error.
func (c *Client) SearchAuthors(ctx context.Context, query string) ([]citation.AuthorCandidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s/author/search?query=%s&fields=%s&limit=%d",
		c.baseURL, url.QueryEscape(query), url.QueryEscape(AuthorSearchFields), DefaultAuthorSearchLimit)
	body, err := c.get(ctx, u, c.searchRetry)
	if err != nil {
		return nil, err
	}

	var sr authorSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: parsing author search: %v", ErrInvalidResponse, err)
	}

	candidates := make([]citation.AuthorCandidate, 0, len(sr.Data))
	for _, a := range sr.Data {
		name := a.Name
		if name == "" {
			name = citation.UnknownAuthor
		}
		affiliation := citation.UnknownAuthor
		if len(a.Affiliations) > 0 && a.Affiliations[0] != "" {
			affiliation = a.Affiliations[0]
		}
		candidates = append(candidates, citation.AuthorCandidate{
			ID:            a.AuthorID,
			Name:          name,
			Affiliation:   affiliation,
			CitationCount: a.CitationCount,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CitationCount > candidates[j].CitationCount
	})
	return candidates, nil
}

// AuthorPapers fetches up to limit of an author's papers in one bulk
// request, each carrying the nested citing papers' author lists. There is
// no cursor here: the endpoint is a single bounded request, and the nested
// citation arrays may be silently truncated by the server (callers should
// compare their lengths against each paper's CitationCount).
func (c *Client) AuthorPapers(ctx context.Context, authorID string, limit int) ([]Paper, error) {
	if limit <= 0 || limit > MaxPaperLimit {
		limit = MaxPaperLimit
	}

	u := fmt.Sprintf("%s/author/%s/papers?fields=%s&limit=%d",
		c.baseURL, url.PathEscape(authorID), url.QueryEscape(AuthorPaperFields), limit)
	body, err := c.get(ctx, u, c.paperRetry)
	if err != nil {
		return nil, err
	}

	var pr authorPapersResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("%w: parsing author papers: %v", ErrInvalidResponse, err)
	}

	papers := make([]Paper, 0, len(pr.Data))
	for _, p := range pr.Data {
		papers = append(papers, p.toPaper())
	}
	return papers, nil
}
