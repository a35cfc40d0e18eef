// Package openalex provides a client for the OpenAlex REST API.
package openalex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/citescope/internal/cache"
	"github.com/matsen/citescope/internal/citation"
	"github.com/matsen/citescope/internal/ident"
	"github.com/matsen/citescope/internal/retry"
)

const (
	// BaseURL is the OpenAlex API base URL.
	BaseURL = "https://api.openalex.org"

	// IDPrefix is the URL prefix OpenAlex prepends to entity IDs.
	IDPrefix = "https://openalex.org/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is 10 requests per second for the polite pool.
	RateLimit = 10.0

	// PageSize is the per-page size for cursor-paginated listings.
	PageSize = 200

	// MaxAccumulated caps the number of items collected across pages of a
	// single listing, as defense against runaway pagination.
	MaxAccumulated = 5000

	// CiteChunkSize is the maximum number of work IDs OR-ed into a single
	// cites: filter.
	CiteChunkSize = 25

	// maxPages bounds the pagination loop even if the server keeps
	// returning fresh cursors for empty-progress pages.
	maxPages = MaxAccumulated/PageSize + 1

	// Fixed retry delays on a 429, per endpoint class.
	SearchRetryDelay = 2 * time.Second
	PagedRetryDelay  = 5 * time.Second
)

var normalizer = ident.New(IDPrefix)

// Canonical returns the canonical form of an OpenAlex ID: the URL prefix
// stripped when present.
func Canonical(id string) string {
	return normalizer.Normalize(id)
}

// ProfileURL returns the public profile URL for a canonical author ID.
func ProfileURL(id string) string {
	if id == "" {
		return ""
	}
	return IDPrefix + Canonical(id)
}

// Client is a rate-limited HTTP client for the OpenAlex API.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	baseURL     string
	mailto      string
	cache       cache.Cache
	searchRetry retry.Policy
	pagedRetry  retry.Policy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

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

// WithMailto sets the contact address sent for polite-pool access.
func WithMailto(mailto string) ClientOption {
	return func(c *Client) {
		c.mailto = mailto
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

// WithPagedRetry overrides the rate-limit retry policy for paged fetches.
func WithPagedRetry(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.pagedRetry = p
	}
}

// NewClient creates a new OpenAlex API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:     BaseURL,
		searchRetry: retry.Policy{Attempts: 2, Delay: SearchRetryDelay},
		pagedRetry:  retry.Policy{Attempts: 2, Delay: PagedRetryDelay},
	}

	if mailto := os.Getenv("OPENALEX_MAILTO"); mailto != "" {
		c.mailto = mailto
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
		if c.mailto != "" {
			req.Header.Set("User-Agent", "mailto:"+c.mailto)
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

// SearchAuthors searches for authors by name. An empty query yields an
// empty candidate list, not an error.
func (c *Client) SearchAuthors(ctx context.Context, query string) ([]citation.AuthorCandidate, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s/authors?search=%s", c.baseURL, url.QueryEscape(query))
	body, err := c.get(ctx, u, c.searchRetry)
	if err != nil {
		return nil, err
	}

	var sr authorSearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("%w: parsing author search: %v", ErrInvalidResponse, err)
	}

	candidates := make([]citation.AuthorCandidate, 0, len(sr.Results))
	for _, a := range sr.Results {
		name := a.DisplayName
		if name == "" {
			name = citation.UnknownAuthor
		}
		candidates = append(candidates, citation.AuthorCandidate{
			ID:            Canonical(a.ID),
			Name:          name,
			Affiliation:   a.affiliation(),
			CitationCount: a.CitedByCount,
		})
	}
	return candidates, nil
}

// FetchAuthorWorks fetches the full work history of an author, cursor page
// by cursor page. On a mid-pagination failure the works accumulated so far
// are returned alongside the error.
func (c *Client) FetchAuthorWorks(ctx context.Context, authorID string) ([]citation.Work, error) {
	return c.pagedWorks(ctx, "author.id:"+Canonical(authorID))
}

// FetchCitingWorks fetches every work citing any of the given work IDs.
// The cites: filter accepts a bounded number of OR-ed IDs, so the ID list
// is partitioned into chunks of CiteChunkSize and the per-chunk results
// are concatenated. A work citing targets in more than one chunk appears
// once per chunk; the aggregator counts distinct works per author.
func (c *Client) FetchCitingWorks(ctx context.Context, workIDs []string) ([]citation.Work, error) {
	var all []citation.Work
	for _, chunk := range ChunkIDs(workIDs, CiteChunkSize) {
		clean := make([]string, len(chunk))
		for i, id := range chunk {
			clean[i] = Canonical(id)
		}
		works, err := c.pagedWorks(ctx, "cites:"+strings.Join(clean, "|"))
		all = append(all, works...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// pagedWorks walks a cursor-paginated works listing for the given filter.
// Termination: an empty page, an absent next_cursor, the accumulation cap,
// or a repeated cursor (the cursor contract is not trusted blindly).
func (c *Client) pagedWorks(ctx context.Context, filter string) ([]citation.Work, error) {
	cursor := "*"
	seen := make(map[string]struct{})
	var works []citation.Work

	for page := 0; page < maxPages; page++ {
		if _, dup := seen[cursor]; dup {
			break
		}
		seen[cursor] = struct{}{}

		u := fmt.Sprintf("%s/works?filter=%s&per-page=%d&cursor=%s",
			c.baseURL, url.QueryEscape(filter), PageSize, url.QueryEscape(cursor))
		body, err := c.get(ctx, u, c.pagedRetry)
		if err != nil {
			return works, err
		}

		var lr listResponse
		if err := json.Unmarshal(body, &lr); err != nil {
			return works, fmt.Errorf("%w: parsing works page: %v", ErrInvalidResponse, err)
		}

		if len(lr.Results) == 0 {
			break
		}
		for _, w := range lr.Results {
			works = append(works, w.toWork())
		}

		if len(works) >= MaxAccumulated {
			break
		}
		if lr.Meta.NextCursor == "" {
			break
		}
		cursor = lr.Meta.NextCursor
	}

	return works, nil
}

// ChunkIDs partitions ids into batches of at most size elements, covering
// every ID exactly once.
func ChunkIDs(ids []string, size int) [][]string {
	if size <= 0 || len(ids) == 0 {
		return nil
	}
	chunks := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
