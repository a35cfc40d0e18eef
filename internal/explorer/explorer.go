// Package explorer runs the per-source citation analysis pipelines: fetch
// a researcher's work history, pick the top-cited subset, derive the
// collaborator set, collect citing works, and aggregate citing authors.
package explorer

import (
	"context"
	"sort"
	"sync"

	"github.com/matsen/citescope/internal/citation"
	"github.com/matsen/citescope/internal/openalex"
	"github.com/matsen/citescope/internal/s2"
)

const (
	// Bounds on the number of analyzed works per run.
	MinFetchLimit     = 10
	MaxFetchLimit     = 200
	DefaultFetchLimit = 100

	// s2BulkFactor oversizes the Semantic Scholar bulk fetch relative to
	// the analyzed subset so the top-by-citations slice has headroom.
	s2BulkFactor = 5
)

// Options are the user-chosen parameters of one analysis run.
type Options struct {
	FetchLimit  int  // analyzed works per source, clamped to [10, 200]
	ExcludeSelf bool // drop the target's own authorships entirely
}

func (o Options) fetchLimit() int {
	switch {
	case o.FetchLimit <= 0:
		return DefaultFetchLimit
	case o.FetchLimit < MinFetchLimit:
		return MinFetchLimit
	case o.FetchLimit > MaxFetchLimit:
		return MaxFetchLimit
	default:
		return o.FetchLimit
	}
}

// Source analyzes the citation traffic of one researcher on one
// bibliographic source.
type Source interface {
	Name() string
	Analyze(ctx context.Context, authorID string, opts Options) (citation.Report, error)
}

// OpenAlexSource runs the OpenAlex pipeline: full paginated work history,
// separate chunked citing-works lookups.
type OpenAlexSource struct {
	Client *openalex.Client
}

func (s *OpenAlexSource) Name() string { return "OpenAlex" }

func (s *OpenAlexSource) Analyze(ctx context.Context, authorID string, opts Options) (citation.Report, error) {
	report := citation.Report{Source: s.Name()}
	target := openalex.Canonical(authorID)

	works, err := s.Client.FetchAuthorWorks(ctx, target)
	if err != nil {
		return report, err
	}

	sort.SliceStable(works, func(i, j int) bool {
		return works[i].CitationCount > works[j].CitationCount
	})
	analyzed := works
	if limit := opts.fetchLimit(); len(analyzed) > limit {
		analyzed = analyzed[:limit]
	}
	report.AnalyzedWorks = len(analyzed)

	// Collaborators come from the full history, not the analyzed subset,
	// so collaboration detection is not truncation-sensitive.
	collaborators := citation.Collaborators(works, target)

	ids := make([]string, len(analyzed))
	for i, w := range analyzed {
		ids[i] = w.ID
	}
	citing, err := s.Client.FetchCitingWorks(ctx, ids)

	agg := citation.Aggregator{
		TargetID:      target,
		Collaborators: collaborators,
		ExcludeSelf:   opts.ExcludeSelf,
		ProfileURL:    openalex.ProfileURL,
	}
	report.Rows = agg.Aggregate(citing)
	return report, err
}

// S2Source runs the Semantic Scholar pipeline: one bulk paper fetch whose
// nested citation lists carry the citing authors directly.
type S2Source struct {
	Client *s2.Client
}

func (s *S2Source) Name() string { return "Semantic Scholar" }

func (s *S2Source) Analyze(ctx context.Context, authorID string, opts Options) (citation.Report, error) {
	report := citation.Report{Source: s.Name()}
	limit := opts.fetchLimit()

	bulk := limit * s2BulkFactor
	if bulk > s2.MaxPaperLimit {
		bulk = s2.MaxPaperLimit
	}
	papers, err := s.Client.AuthorPapers(ctx, authorID, bulk)
	if err != nil {
		return report, err
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].CitationCount > papers[j].CitationCount
	})
	analyzed := papers
	if len(analyzed) > limit {
		analyzed = analyzed[:limit]
	}
	report.AnalyzedWorks = len(analyzed)

	// The bulk endpoint has no full-history pagination; the fetched batch
	// is the best available collaborator basis.
	collabBasis := make([]citation.Work, len(papers))
	for i, p := range papers {
		collabBasis[i] = citation.Work{ID: p.PaperID, Authors: p.Authors}
	}
	collaborators := citation.Collaborators(collabBasis, authorID)

	var citing []citation.Work
	for _, p := range analyzed {
		// A nested list shorter than the paper's own citation count means
		// the server capped it; the aggregated counts then undercount and
		// the caller must be told rather than shown a complete-looking
		// table.
		if p.CitationCount > 0 && len(p.Citations) < p.CitationCount {
			report.PossiblyTruncated = true
		}
		citing = append(citing, p.Citations...)
	}

	agg := citation.Aggregator{
		TargetID:      authorID,
		Collaborators: collaborators,
		ExcludeSelf:   opts.ExcludeSelf,
		ProfileURL:    s2.ProfileURL,
	}
	report.Rows = agg.Aggregate(citing)
	return report, nil
}

// Request pairs a source with the researcher's ID on that source.
type Request struct {
	Source   Source
	AuthorID string
}

// RunAll executes every pipeline concurrently. The pipelines share no
// mutable state; a failing source yields a report carrying its error
// message and never disturbs its siblings.
func RunAll(ctx context.Context, reqs []Request, opts Options) []citation.Report {
	reports := make([]citation.Report, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req Request) {
			defer wg.Done()
			report, err := req.Source.Analyze(ctx, req.AuthorID, opts)
			if report.Source == "" {
				report.Source = req.Source.Name()
			}
			if err != nil {
				report.Err = err.Error()
			}
			reports[i] = report
		}(i, req)
	}
	wg.Wait()

	return reports
}
