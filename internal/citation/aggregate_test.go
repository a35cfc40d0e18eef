package citation

import (
	"fmt"
	"testing"
)

func profileURL(id string) string { return "https://example.org/" + id }

// The canonical scenario: target authored W1; two works cite it, one by a
// collaborator, one by a stranger together with the target.
func scenarioCiting() []Work {
	return []Work{
		{ID: "W2", Authors: []Author{{ID: "alice", Name: "Alice"}}},
		{ID: "W3", Authors: []Author{{ID: "bob", Name: "Bob"}, {ID: "target", Name: "Target"}}},
	}
}

func findRow(rows []ResultRow, id string) (ResultRow, bool) {
	for _, r := range rows {
		if r.AuthorID == id {
			return r, true
		}
	}
	return ResultRow{}, false
}

func TestAggregateCategories(t *testing.T) {
	agg := Aggregator{
		TargetID:      "target",
		Collaborators: map[string]struct{}{"alice": {}},
		ProfileURL:    profileURL,
	}

	rows := agg.Aggregate(scenarioCiting())
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}

	want := map[string]struct {
		count    int
		category Category
	}{
		"alice":  {1, CategoryCoauthor},
		"bob":    {1, CategoryOther},
		"target": {1, CategorySelf},
	}
	for id, w := range want {
		row, ok := findRow(rows, id)
		if !ok {
			t.Errorf("missing row for %s", id)
			continue
		}
		if row.Citations != w.count {
			t.Errorf("%s: citations = %d, want %d", id, row.Citations, w.count)
		}
		if row.Category != w.category {
			t.Errorf("%s: category = %s, want %s", id, row.Category, w.category)
		}
		if row.ProfileURL != "https://example.org/"+id {
			t.Errorf("%s: profile URL = %q", id, row.ProfileURL)
		}
	}
}

func TestAggregateExcludeSelf(t *testing.T) {
	agg := Aggregator{
		TargetID:      "target",
		Collaborators: map[string]struct{}{"alice": {}},
		ExcludeSelf:   true,
	}

	rows := agg.Aggregate(scenarioCiting())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if _, ok := findRow(rows, "target"); ok {
		t.Error("target row present despite exclude-self")
	}
	for _, r := range rows {
		if r.Category == CategorySelf {
			t.Errorf("Self-Citation row %q in exclude-self result", r.AuthorID)
		}
	}

	alice, _ := findRow(rows, "alice")
	bob, _ := findRow(rows, "bob")
	if alice.Citations != 1 || bob.Citations != 1 {
		t.Errorf("alice = %d, bob = %d, want 1 and 1", alice.Citations, bob.Citations)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	agg := Aggregator{TargetID: "target"}
	if rows := agg.Aggregate(nil); len(rows) != 0 {
		t.Errorf("got %d rows for empty input, want 0", len(rows))
	}
}

func TestAggregateSkipsMissingIDs(t *testing.T) {
	agg := Aggregator{TargetID: "target"}
	rows := agg.Aggregate([]Work{
		{ID: "W1", Authors: []Author{{ID: "", Name: "Anonymous"}, {ID: "a1", Name: "Ada"}}},
	})
	if len(rows) != 1 || rows[0].AuthorID != "a1" {
		t.Errorf("rows = %+v, want only a1", rows)
	}
}

func TestAggregateMissingNamePlaceholder(t *testing.T) {
	agg := Aggregator{TargetID: "target"}
	rows := agg.Aggregate([]Work{
		{ID: "W1", Authors: []Author{{ID: "a1"}}},
	})
	if len(rows) != 1 || rows[0].AuthorName != UnknownAuthor {
		t.Errorf("rows = %+v, want placeholder name %q", rows, UnknownAuthor)
	}
}

func TestAggregateCountsDistinctWorks(t *testing.T) {
	agg := Aggregator{TargetID: "target"}

	// W1 appears twice (as when it cites targets from two query chunks) and
	// lists the same author twice; both must count once.
	w1 := Work{ID: "W1", Authors: []Author{{ID: "a1", Name: "Ada"}, {ID: "a1", Name: "Ada"}}}
	rows := agg.Aggregate([]Work{w1, w1, {ID: "W2", Authors: []Author{{ID: "a1", Name: "Ada"}}}})

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Citations != 2 {
		t.Errorf("citations = %d, want 2 distinct works", rows[0].Citations)
	}
}

func TestAggregateMostRecentName(t *testing.T) {
	agg := Aggregator{TargetID: "target"}
	rows := agg.Aggregate([]Work{
		{ID: "W1", Authors: []Author{{ID: "a1", Name: "A. Lovelace"}}},
		{ID: "W2", Authors: []Author{{ID: "a1", Name: "Ada Lovelace"}}},
	})
	if rows[0].AuthorName != "Ada Lovelace" {
		t.Errorf("name = %q, want most recently seen", rows[0].AuthorName)
	}
}

func TestAggregateOrderingAndTruncation(t *testing.T) {
	agg := Aggregator{TargetID: "target", Limit: 10}

	// 60 authors; author i appears on i+1 distinct citing works.
	var citing []Work
	for i := 0; i < 60; i++ {
		id := fmt.Sprintf("a%02d", i)
		for j := 0; j <= i; j++ {
			citing = append(citing, Work{
				ID:      fmt.Sprintf("%s-w%d", id, j),
				Authors: []Author{{ID: id, Name: id}},
			})
		}
	}

	rows := agg.Aggregate(citing)
	if len(rows) != 10 {
		t.Fatalf("got %d rows, want limit of 10", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Citations > rows[i-1].Citations {
			t.Fatalf("rows not ordered by count desc at %d: %d > %d", i, rows[i].Citations, rows[i-1].Citations)
		}
	}
	if rows[0].Citations != 60 {
		t.Errorf("top count = %d, want 60", rows[0].Citations)
	}
}

func TestAggregateDefaultLimit(t *testing.T) {
	agg := Aggregator{TargetID: "target"}

	var citing []Work
	for i := 0; i < 80; i++ {
		citing = append(citing, Work{
			ID:      fmt.Sprintf("W%d", i),
			Authors: []Author{{ID: fmt.Sprintf("a%d", i), Name: "x"}},
		})
	}
	if rows := agg.Aggregate(citing); len(rows) != DefaultLimit {
		t.Errorf("got %d rows, want default limit %d", len(rows), DefaultLimit)
	}
}

// Sum of counts equals the number of distinct (work, author) pairs
// processed, minus self pairs when excluding self.
func TestAggregateCountConservation(t *testing.T) {
	citing := []Work{
		{ID: "W1", Authors: []Author{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}},
		{ID: "W2", Authors: []Author{{ID: "a", Name: "A"}, {ID: "target", Name: "T"}}},
		{ID: "W3", Authors: []Author{{ID: "c", Name: "C"}}},
	}
	pairs := 5
	selfPairs := 1

	sum := func(rows []ResultRow) int {
		total := 0
		for _, r := range rows {
			total += r.Citations
		}
		return total
	}

	agg := Aggregator{TargetID: "target"}
	if got := sum(agg.Aggregate(citing)); got != pairs {
		t.Errorf("sum = %d, want %d", got, pairs)
	}

	agg.ExcludeSelf = true
	if got := sum(agg.Aggregate(citing)); got != pairs-selfPairs {
		t.Errorf("exclude-self sum = %d, want %d", got, pairs-selfPairs)
	}
}

func TestCollaborators(t *testing.T) {
	works := []Work{
		{ID: "W1", Authors: []Author{{ID: "target"}, {ID: "alice"}}},
		{ID: "W2", Authors: []Author{{ID: "target"}, {ID: "bob"}, {ID: ""}}},
		{ID: "W3", Authors: []Author{{ID: "alice"}}},
	}

	set := Collaborators(works, "target")
	if len(set) != 2 {
		t.Fatalf("got %d collaborators, want 2", len(set))
	}
	if _, ok := set["target"]; ok {
		t.Error("collaborator set contains the target")
	}
	for _, id := range []string{"alice", "bob"} {
		if _, ok := set[id]; !ok {
			t.Errorf("missing collaborator %s", id)
		}
	}
}

func TestSummarize(t *testing.T) {
	rows := []ResultRow{
		{Citations: 6, Category: CategorySelf},
		{Citations: 3, Category: CategoryCoauthor},
		{Citations: 1, Category: CategoryOther},
	}

	s := Summarize(rows, 5)
	if s.TotalCitations != 10 {
		t.Errorf("total = %d, want 10", s.TotalCitations)
	}
	if s.SelfPct != 60 {
		t.Errorf("self pct = %v, want 60", s.SelfPct)
	}
	if s.CoauthorPct != 30 {
		t.Errorf("coauthor pct = %v, want 30", s.CoauthorPct)
	}
	if s.Density != 2 {
		t.Errorf("density = %v, want 2", s.Density)
	}

	empty := Summarize(nil, 0)
	if empty.TotalCitations != 0 || empty.SelfPct != 0 || empty.Density != 0 {
		t.Errorf("empty summary = %+v, want zeros", empty)
	}
}
