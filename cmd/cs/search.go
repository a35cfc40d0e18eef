package main

import (
	"sync"

	"github.com/spf13/cobra"

	"github.com/matsen/citescope/internal/citation"
)

var searchNoCache bool

var searchCmd = &cobra.Command{
	Use:   "search <name>",
	Short: "Search both sources for a researcher",
	Long: `Search OpenAlex and Semantic Scholar for a researcher by name.

Each source returns its own candidate list; pick the matching ID per
source and pass them to 'cs analyze'. A source that fails is reported
without affecting the other.

Examples:
  cs search "Frederick Matsen"
  cs search "Smith" --human`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchNoCache, "no-cache", false, "Bypass the response cache")
	rootCmd.AddCommand(searchCmd)
}

// SearchResult is the JSON output of the search command.
type SearchResult struct {
	Query              string                     `json:"query"`
	OpenAlex           []citation.AuthorCandidate `json:"openalex"`
	OpenAlexErr        string                     `json:"openalex_error,omitempty"`
	SemanticScholar    []citation.AuthorCandidate `json:"semantic_scholar"`
	SemanticScholarErr string                     `json:"semantic_scholar_error,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx := cmd.Context()

	cl, err := newClients(searchNoCache)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer cl.close()

	result := SearchResult{Query: query}

	// The two lookups share no state; run them side by side.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		candidates, err := cl.openalex.SearchAuthors(ctx, query)
		result.OpenAlex = candidates
		if err != nil {
			result.OpenAlexErr = err.Error()
		}
	}()
	go func() {
		defer wg.Done()
		candidates, err := cl.s2.SearchAuthors(ctx, query)
		result.SemanticScholar = candidates
		if err != nil {
			result.SemanticScholarErr = err.Error()
		}
	}()
	wg.Wait()

	if result.OpenAlexErr != "" && result.SemanticScholarErr != "" {
		exitWithError(ExitAPIError, "openalex: %s; semantic scholar: %s",
			result.OpenAlexErr, result.SemanticScholarErr)
	}

	if humanOutput {
		outputHuman("%s", formatCandidatesHuman("OpenAlex", result.OpenAlex, result.OpenAlexErr))
		outputHuman("%s", formatCandidatesHuman("Semantic Scholar", result.SemanticScholar, result.SemanticScholarErr))
		return nil
	}
	return outputJSON(result)
}
