package openalex

import (
	"github.com/matsen/citescope/internal/citation"
)

// Wire shapes of the OpenAlex REST API. Only the fields the pipeline
// consumes are decoded; everything else is dropped on the floor.

type listResponse struct {
	Meta    listMeta   `json:"meta"`
	Results []workJSON `json:"results"`
}

type listMeta struct {
	NextCursor string `json:"next_cursor"`
}

type workJSON struct {
	ID           string           `json:"id"`
	DisplayName  string           `json:"display_name"`
	CitedByCount int              `json:"cited_by_count"`
	Authorships  []authorshipJSON `json:"authorships"`
}

type authorshipJSON struct {
	Author authorJSON `json:"author"`
}

type authorJSON struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type authorSearchResponse struct {
	Results []authorResultJSON `json:"results"`
}

type authorResultJSON struct {
	ID                   string            `json:"id"`
	DisplayName          string            `json:"display_name"`
	CitedByCount         int               `json:"cited_by_count"`
	LastKnownInstitution *institutionJSON  `json:"last_known_institution"`
	Affiliations         []affiliationJSON `json:"affiliations"`
}

type affiliationJSON struct {
	Institution institutionJSON `json:"institution"`
}

type institutionJSON struct {
	DisplayName string `json:"display_name"`
}

// toWork converts a wire work into the canonical model, normalizing all
// identifiers on the way out.
func (w workJSON) toWork() citation.Work {
	authors := make([]citation.Author, 0, len(w.Authorships))
	for _, as := range w.Authorships {
		authors = append(authors, citation.Author{
			ID:   Canonical(as.Author.ID),
			Name: as.Author.DisplayName,
		})
	}
	return citation.Work{
		ID:            Canonical(w.ID),
		Title:         w.DisplayName,
		CitationCount: w.CitedByCount,
		Authors:       authors,
	}
}

// affiliation picks the author's most recent known institution.
func (a authorResultJSON) affiliation() string {
	if a.LastKnownInstitution != nil && a.LastKnownInstitution.DisplayName != "" {
		return a.LastKnownInstitution.DisplayName
	}
	if len(a.Affiliations) > 0 && a.Affiliations[0].Institution.DisplayName != "" {
		return a.Affiliations[0].Institution.DisplayName
	}
	return citation.UnknownAuthor
}
