package citation

import (
	"fmt"
	"sort"
)

const (
	// DefaultLimit is the maximum number of rows in a result table.
	DefaultLimit = 50

	// UnknownAuthor is the display name used when a source omits one.
	UnknownAuthor = "Unknown"
)

// Aggregator builds the ranked citing-author table for one target
// researcher. All identifiers must already be canonical.
type Aggregator struct {
	TargetID      string
	Collaborators map[string]struct{}
	ExcludeSelf   bool
	Limit         int                 // rows kept after ranking; 0 means DefaultLimit
	ProfileURL    func(string) string // source-specific profile link builder
}

// Aggregate counts, per author, the distinct citing works that include
// them. The same work appearing more than once in the input (it may cite
// targets from several query chunks) contributes at most once per author,
// as does an author repeated within one work's authorship list. Rows are
// ordered by count descending with a stable name tie-break and truncated
// to the limit. An empty input yields an empty table, not an error.
func (a Aggregator) Aggregate(citing []Work) []ResultRow {
	limit := a.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	type entry struct {
		name  string
		count int
		seen  map[string]struct{} // citing work IDs already counted
	}
	counts := make(map[string]*entry)
	var order []string // first-seen author order, for deterministic output

	for i, w := range citing {
		workID := w.ID
		if workID == "" {
			// No ID to dedup on; treat each occurrence as distinct.
			workID = fmt.Sprintf("#%d", i)
		}
		for _, au := range w.Authors {
			if au.ID == "" {
				continue
			}
			if a.ExcludeSelf && au.ID == a.TargetID {
				continue
			}
			e := counts[au.ID]
			if e == nil {
				e = &entry{seen: make(map[string]struct{})}
				counts[au.ID] = e
				order = append(order, au.ID)
			}
			if au.Name != "" {
				e.name = au.Name
			}
			if _, dup := e.seen[workID]; dup {
				continue
			}
			e.seen[workID] = struct{}{}
			e.count++
		}
	}

	rows := make([]ResultRow, 0, len(order))
	for _, id := range order {
		e := counts[id]
		name := e.name
		if name == "" {
			name = UnknownAuthor
		}
		row := ResultRow{
			AuthorName: name,
			Citations:  e.count,
			Category:   a.categorize(id),
			AuthorID:   id,
		}
		if a.ProfileURL != nil {
			row.ProfileURL = a.ProfileURL(id)
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Citations != rows[j].Citations {
			return rows[i].Citations > rows[j].Citations
		}
		return rows[i].AuthorName < rows[j].AuthorName
	})

	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// categorize assigns exactly one category, Self taking precedence over
// Co-author.
func (a Aggregator) categorize(id string) Category {
	if id == a.TargetID {
		return CategorySelf
	}
	if _, ok := a.Collaborators[id]; ok {
		return CategoryCoauthor
	}
	return CategoryOther
}

// Collaborators derives the set of canonical co-author IDs from the
// target's own work history, excluding the target itself. It should run
// over the full history, not the analyzed top-N subset, so collaboration
// detection is not truncation-sensitive.
func Collaborators(works []Work, targetID string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range works {
		for _, au := range w.Authors {
			if au.ID == "" || au.ID == targetID {
				continue
			}
			set[au.ID] = struct{}{}
		}
	}
	return set
}
