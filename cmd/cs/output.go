package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/matsen/citescope/internal/citation"
)

const candidateNameMaxLen = 40

// ErrorResponse is the JSON shape of a fatal command error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputHuman writes a human-readable string to stdout.
func outputHuman(format string, args ...interface{}) {
	fmt.Printf(format, args...)
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		_ = outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// truncate shortens s to at most max runes, with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// formatCandidatesHuman renders one source's search candidates.
func formatCandidatesHuman(source string, candidates []citation.AuthorCandidate, errMsg string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s:\n", source))
	if errMsg != "" {
		sb.WriteString(fmt.Sprintf("  (unavailable: %s)\n", errMsg))
		return sb.String()
	}
	if len(candidates) == 0 {
		sb.WriteString("  no matches\n")
		return sb.String()
	}
	for i, c := range candidates {
		sb.WriteString(fmt.Sprintf("%3d. %s (%s) - %d citations\n",
			i+1, truncate(c.Name, candidateNameMaxLen), c.Affiliation, c.CitationCount))
		sb.WriteString(fmt.Sprintf("     id: %s\n", c.ID))
	}
	return sb.String()
}

// formatReportHuman renders one source's analysis report as a table with
// summary metrics.
func formatReportHuman(r citation.Report) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== %s ===\n", r.Source))

	if r.Err != "" {
		sb.WriteString(fmt.Sprintf("unavailable: %s\n", r.Err))
		return sb.String()
	}
	if len(r.Rows) == 0 {
		sb.WriteString(fmt.Sprintf("no citation data found (%d works analyzed)\n", r.AnalyzedWorks))
		return sb.String()
	}

	s := citation.Summarize(r.Rows, r.AnalyzedWorks)
	sb.WriteString(fmt.Sprintf("Analyzed works: %d | Total citations: %d | Density: %.1f\n",
		r.AnalyzedWorks, s.TotalCitations, s.Density))
	sb.WriteString(fmt.Sprintf("Self-citation: %.1f%% | Co-author: %.1f%%\n", s.SelfPct, s.CoauthorPct))
	if r.PossiblyTruncated {
		sb.WriteString("note: the source may have capped nested citation lists; counts can undercount\n")
	}

	sb.WriteString(fmt.Sprintf("%-40s %10s  %-13s %s\n", "Author", "Citations", "Category", "Profile"))
	for _, row := range r.Rows {
		sb.WriteString(fmt.Sprintf("%-40s %10d  %-13s %s\n",
			truncate(row.AuthorName, 40), row.Citations, row.Category, row.ProfileURL))
	}
	return sb.String()
}
