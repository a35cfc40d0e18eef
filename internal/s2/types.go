package s2

import (
	"github.com/matsen/citescope/internal/citation"
)

// Paper is a Semantic Scholar paper with its nested citing entries.
//
// Citations carries the citing papers' author lists as served by the bulk
// author-papers endpoint. The server may silently cap this list for
// highly-cited papers without a completeness flag; callers compare its
// length against CitationCount rather than trusting it to be complete.
type Paper struct {
	PaperID       string            `json:"paperId"`
	Title         string            `json:"title"`
	Year          int               `json:"year,omitempty"`
	CitationCount int               `json:"citationCount"`
	Authors       []citation.Author `json:"authors,omitempty"`
	Citations     []citation.Work   `json:"citations,omitempty"`
}

// Wire shapes of the Semantic Scholar Graph API.

type authorSearchResponse struct {
	Data []searchAuthorJSON `json:"data"`
}

type searchAuthorJSON struct {
	AuthorID      string   `json:"authorId"`
	Name          string   `json:"name"`
	Affiliations  []string `json:"affiliations"`
	CitationCount int      `json:"citationCount"`
	HIndex        int      `json:"hIndex"`
}

type authorPapersResponse struct {
	Data []paperJSON `json:"data"`
}

type paperJSON struct {
	PaperID       string       `json:"paperId"`
	Title         string       `json:"title"`
	Year          int          `json:"year"`
	CitationCount int          `json:"citationCount"`
	Authors       []authorJSON `json:"authors"`
	Citations     []citingJSON `json:"citations"`
}

type citingJSON struct {
	PaperID string       `json:"paperId"`
	Authors []authorJSON `json:"authors"`
}

type authorJSON struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

// toPaper converts a wire paper into the model. Semantic Scholar IDs carry
// no URL prefix, so they are already canonical.
func (p paperJSON) toPaper() Paper {
	paper := Paper{
		PaperID:       p.PaperID,
		Title:         p.Title,
		Year:          p.Year,
		CitationCount: p.CitationCount,
		Authors:       toAuthors(p.Authors),
	}
	for _, c := range p.Citations {
		paper.Citations = append(paper.Citations, citation.Work{
			ID:      c.PaperID,
			Authors: toAuthors(c.Authors),
		})
	}
	return paper
}

func toAuthors(in []authorJSON) []citation.Author {
	out := make([]citation.Author, 0, len(in))
	for _, a := range in {
		out = append(out, citation.Author{ID: a.AuthorID, Name: a.Name})
	}
	return out
}
