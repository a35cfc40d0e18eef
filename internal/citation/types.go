// Package citation aggregates the authors of citing works into a ranked,
// categorized frequency table for a target researcher.
package citation

// Category classifies a citing author's relationship to the target.
type Category string

const (
	CategorySelf     Category = "Self-Citation"
	CategoryCoauthor Category = "Co-author"
	CategoryOther    Category = "Other"
)

// Author identifies a single author on a work. IDs are canonical: source
// adapters normalize them before they leave the adapter boundary.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Work is a publication with its ordered authorship list, as fetched from
// a source. Works are immutable once fetched and live for one request.
type Work struct {
	ID            string   `json:"id"`
	Title         string   `json:"title,omitempty"`
	CitationCount int      `json:"citation_count"`
	Authors       []Author `json:"authors"`
}

// AuthorCandidate is a search-result projection used to disambiguate a
// researcher before a target is fixed.
type AuthorCandidate struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Affiliation   string `json:"affiliation"`
	CitationCount int    `json:"citation_count"`
}

// ResultRow is one entry of the ranked citing-author table.
type ResultRow struct {
	AuthorName string   `json:"author_name"`
	Citations  int      `json:"citations"`
	Category   Category `json:"category"`
	AuthorID   string   `json:"author_id"`
	ProfileURL string   `json:"profile_url,omitempty"`
}

// Report is the per-source output of one analysis run, consumed by
// presentation collaborators.
type Report struct {
	Source        string      `json:"source"`
	Rows          []ResultRow `json:"rows"`
	AnalyzedWorks int         `json:"analyzed_works"`

	// PossiblyTruncated is set when a source's nested citation lists may
	// have been silently capped by the server, so counts can understate
	// true citation volume.
	PossiblyTruncated bool `json:"possibly_truncated,omitempty"`

	Err string `json:"error,omitempty"`
}

// Summary holds the presentation metrics derived from a result table.
type Summary struct {
	TotalCitations int     `json:"total_citations"`
	SelfPct        float64 `json:"self_pct"`
	CoauthorPct    float64 `json:"coauthor_pct"`
	Density        float64 `json:"density"`
}

// Summarize reduces a result table to its summary metrics. analyzed is the
// number of works that were candidates for citation lookup.
func Summarize(rows []ResultRow, analyzed int) Summary {
	var s Summary
	var self, coauthor int
	for _, r := range rows {
		s.TotalCitations += r.Citations
		switch r.Category {
		case CategorySelf:
			self += r.Citations
		case CategoryCoauthor:
			coauthor += r.Citations
		}
	}
	if s.TotalCitations > 0 {
		s.SelfPct = float64(self) / float64(s.TotalCitations) * 100
		s.CoauthorPct = float64(coauthor) / float64(s.TotalCitations) * 100
	}
	if analyzed > 0 {
		s.Density = float64(s.TotalCitations) / float64(analyzed)
	}
	return s
}
