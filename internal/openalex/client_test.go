package openalex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matsen/citescope/internal/cache"
	"github.com/matsen/citescope/internal/retry"
)

// noSleep is a retry policy that retries once without real delays.
func noSleep(sleeps *int) retry.Policy {
	return retry.Policy{
		Attempts: 2,
		Delay:    time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			if sleeps != nil {
				*sleeps++
			}
			return ctx.Err()
		},
	}
}

func newTestClient(t *testing.T, handler http.Handler, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]ClientOption{
		WithBaseURL(srv.URL),
		WithSearchRetry(noSleep(nil)),
		WithPagedRetry(noSleep(nil)),
	}, opts...)
	return NewClient(opts...)
}

func TestSearchAuthorsEmptyQuery(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty query must not hit the API")
	}))

	got, err := c.SearchAuthors(context.Background(), "   ")
	if err != nil {
		t.Fatalf("SearchAuthors = %v, want nil error", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d candidates, want 0", len(got))
	}
}

func TestSearchAuthors(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "ada lovelace" {
			t.Errorf("search param = %q", got)
		}
		fmt.Fprint(w, `{"results": [
			{"id": "https://openalex.org/A1", "display_name": "Ada Lovelace",
			 "cited_by_count": 420,
			 "last_known_institution": {"display_name": "Analytical Engine Institute"}},
			{"id": "A2", "display_name": "Ada L.",
			 "cited_by_count": 7,
			 "affiliations": [{"institution": {"display_name": "Somewhere"}}]},
			{"id": "https://openalex.org/A3", "display_name": "A. Byron", "cited_by_count": 1}
		]}`)
	}))

	got, err := c.SearchAuthors(context.Background(), "ada lovelace")
	if err != nil {
		t.Fatalf("SearchAuthors: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d candidates, want 3", len(got))
	}
	if got[0].ID != "A1" {
		t.Errorf("candidate ID = %q, want canonical A1", got[0].ID)
	}
	if got[0].Affiliation != "Analytical Engine Institute" {
		t.Errorf("affiliation = %q", got[0].Affiliation)
	}
	if got[1].Affiliation != "Somewhere" {
		t.Errorf("fallback affiliation = %q", got[1].Affiliation)
	}
	if got[2].Affiliation != "Unknown" {
		t.Errorf("missing affiliation = %q, want Unknown", got[2].Affiliation)
	}
}

func TestSearchAuthorsTransportError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	got, err := c.SearchAuthors(context.Background(), "anyone")
	if err == nil {
		t.Fatal("SearchAuthors on HTTP 500 returned nil error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Errorf("error = %v, want APIError with status 500", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d candidates alongside the error, want 0", len(got))
	}
}

func TestFetchAuthorWorksPagination(t *testing.T) {
	pages := map[string]string{
		"*": `{"meta": {"next_cursor": "CUR2"}, "results": [
			{"id": "https://openalex.org/W1", "cited_by_count": 3,
			 "authorships": [{"author": {"id": "https://openalex.org/A1", "display_name": "Ada"}}]}
		]}`,
		"CUR2": `{"meta": {"next_cursor": "CUR3"}, "results": [
			{"id": "W2", "cited_by_count": 1, "authorships": []}
		]}`,
		// Last page still carries a cursor; the following empty page ends it.
		"CUR3": `{"meta": {"next_cursor": "CUR4"}, "results": [
			{"id": "W3", "cited_by_count": 0, "authorships": []}
		]}`,
		"CUR4": `{"meta": {}, "results": []}`,
	}

	var requests int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if got := r.URL.Query().Get("filter"); got != "author.id:A1" {
			t.Errorf("filter = %q", got)
		}
		body, ok := pages[r.URL.Query().Get("cursor")]
		if !ok {
			t.Fatalf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
		fmt.Fprint(w, body)
	}))

	works, err := c.FetchAuthorWorks(context.Background(), "https://openalex.org/A1")
	if err != nil {
		t.Fatalf("FetchAuthorWorks: %v", err)
	}
	if requests != 4 {
		t.Errorf("requests = %d, want 4", requests)
	}
	if len(works) != 3 {
		t.Fatalf("got %d works, want 3", len(works))
	}
	seen := make(map[string]bool)
	for _, w := range works {
		if seen[w.ID] {
			t.Errorf("duplicate work %s", w.ID)
		}
		seen[w.ID] = true
	}
	if works[0].ID != "W1" || works[0].Authors[0].ID != "A1" {
		t.Errorf("IDs not canonical: %+v", works[0])
	}
}

func TestFetchAuthorWorksRepeatedCursor(t *testing.T) {
	var requests int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		// Server misbehaves: always returns the same cursor with results.
		fmt.Fprint(w, `{"meta": {"next_cursor": "STUCK"}, "results": [{"id": "W1"}]}`)
	}))

	works, err := c.FetchAuthorWorks(context.Background(), "A1")
	if err != nil {
		t.Fatalf("FetchAuthorWorks: %v", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want 2 (initial plus one repeated cursor)", requests)
	}
	if len(works) != 2 {
		t.Errorf("got %d works, want 2", len(works))
	}
}

func TestFetchCitingWorksChunking(t *testing.T) {
	ids := make([]string, 60)
	for i := range ids {
		ids[i] = fmt.Sprintf("https://openalex.org/W%d", i)
	}

	var filters []string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filters = append(filters, r.URL.Query().Get("filter"))
		fmt.Fprint(w, `{"meta": {}, "results": [{"id": "C1", "authorships": [{"author": {"id": "A1", "display_name": "Ada"}}]}]}`)
	}))

	works, err := c.FetchCitingWorks(context.Background(), ids)
	if err != nil {
		t.Fatalf("FetchCitingWorks: %v", err)
	}
	if len(filters) != 3 {
		t.Fatalf("got %d chunk queries, want 3", len(filters))
	}
	if len(works) != 3 {
		t.Errorf("got %d works, want 3 (one per chunk, concatenated)", len(works))
	}

	var covered int
	for i, f := range filters {
		if !strings.HasPrefix(f, "cites:") {
			t.Fatalf("filter %q lacks cites: prefix", f)
		}
		chunkIDs := strings.Split(strings.TrimPrefix(f, "cites:"), "|")
		covered += len(chunkIDs)
		want := 25
		if i == 2 {
			want = 10
		}
		if len(chunkIDs) != want {
			t.Errorf("chunk %d has %d IDs, want %d", i, len(chunkIDs), want)
		}
		for _, id := range chunkIDs {
			if strings.Contains(id, "openalex.org") {
				t.Errorf("filter ID %q not canonicalized", id)
			}
		}
	}
	if covered != 60 {
		t.Errorf("chunks cover %d IDs, want 60", covered)
	}
}

func TestFetchCitingWorksEmpty(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no IDs must mean no requests")
	}))

	works, err := c.FetchCitingWorks(context.Background(), nil)
	if err != nil || len(works) != 0 {
		t.Errorf("FetchCitingWorks(nil) = %v, %v; want empty, nil", works, err)
	}
}

func TestRateLimitRetriesOnce(t *testing.T) {
	var requests, sleeps int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"results": [{"id": "A1", "display_name": "Ada"}]}`)
	})
	c := newTestClient(t, handler, WithSearchRetry(noSleep(&sleeps)))

	got, err := c.SearchAuthors(context.Background(), "ada")
	if err != nil {
		t.Fatalf("SearchAuthors after one 429: %v", err)
	}
	if requests != 2 || sleeps != 1 {
		t.Errorf("requests = %d, sleeps = %d; want 2 and 1", requests, sleeps)
	}
	if len(got) != 1 {
		t.Errorf("got %d candidates, want 1", len(got))
	}
}

func TestRateLimitSecondFailurePropagates(t *testing.T) {
	var requests int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	})
	c := newTestClient(t, handler, WithSearchRetry(noSleep(nil)))

	_, err := c.SearchAuthors(context.Background(), "ada")
	if !IsRateLimited(err) {
		t.Fatalf("error = %v, want rate-limited", err)
	}
	if requests != 2 {
		t.Errorf("requests = %d, want exactly 2 (one retry)", requests)
	}
}

func TestResponseCache(t *testing.T) {
	var requests int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"results": [{"id": "A1", "display_name": "Ada"}]}`)
	}), WithCache(cache.NewMemory(8, time.Hour)))

	ctx := context.Background()
	if _, err := c.SearchAuthors(ctx, "ada"); err != nil {
		t.Fatalf("first search: %v", err)
	}
	if _, err := c.SearchAuthors(ctx, "ada"); err != nil {
		t.Fatalf("second search: %v", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1 (second served from cache)", requests)
	}
}

func TestChunkIDs(t *testing.T) {
	tests := []struct {
		n, size   int
		wantCount int
	}{
		{0, 25, 0},
		{1, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{60, 25, 3},
		{100, 25, 4},
	}
	for _, tt := range tests {
		ids := make([]string, tt.n)
		for i := range ids {
			ids[i] = fmt.Sprintf("W%d", i)
		}
		chunks := ChunkIDs(ids, tt.size)
		if len(chunks) != tt.wantCount {
			t.Errorf("ChunkIDs(n=%d) = %d chunks, want %d", tt.n, len(chunks), tt.wantCount)
			continue
		}
		var flat []string
		for _, ch := range chunks {
			if len(ch) == 0 || len(ch) > tt.size {
				t.Errorf("ChunkIDs(n=%d): chunk size %d out of range", tt.n, len(ch))
			}
			flat = append(flat, ch...)
		}
		if len(flat) != tt.n {
			t.Errorf("ChunkIDs(n=%d) covers %d IDs", tt.n, len(flat))
		}
		for i, id := range flat {
			if id != fmt.Sprintf("W%d", i) {
				t.Errorf("ChunkIDs(n=%d): ID %d out of order: %s", tt.n, i, id)
				break
			}
		}
	}
}

func TestProfileURL(t *testing.T) {
	if got := ProfileURL("https://openalex.org/A1"); got != "https://openalex.org/A1" {
		t.Errorf("ProfileURL = %q", got)
	}
	if got := ProfileURL("A1"); got != "https://openalex.org/A1" {
		t.Errorf("ProfileURL = %q", got)
	}
	if got := ProfileURL(""); got != "" {
		t.Errorf("ProfileURL(\"\") = %q, want empty", got)
	}
}
