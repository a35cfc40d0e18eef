package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/citescope/internal/citation"
	"github.com/matsen/citescope/internal/explorer"
)

var (
	analyzeOAID        string
	analyzeS2ID        string
	analyzeLimit       int
	analyzeExcludeSelf bool
	analyzeNoCache     bool
	analyzeTimeout     time.Duration
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Rank the authors citing a researcher's work",
	Long: `Analyze a researcher's citation traffic on each configured source.

Fetches the researcher's work history, selects the top-cited works up to
--limit, collects the works citing them, and ranks citing authors by how
many distinct citing works include them. Each author is categorized as
Self-Citation, Co-author, or Other.

Source IDs come from 'cs search'. At least one of --oa / --s2 is
required; sources run independently, so one failing leaves the other's
results usable.

Examples:
  cs analyze --oa A5023888391 --s2 1741101
  cs analyze --oa A5023888391 --limit 50 --exclude-self --human`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOAID, "oa", "", "OpenAlex author ID")
	analyzeCmd.Flags().StringVar(&analyzeS2ID, "s2", "", "Semantic Scholar author ID")
	analyzeCmd.Flags().IntVarP(&analyzeLimit, "limit", "n", explorer.DefaultFetchLimit,
		"Analyzed works per source (10-200)")
	analyzeCmd.Flags().BoolVar(&analyzeExcludeSelf, "exclude-self", false,
		"Drop the target's own authorships from the table")
	analyzeCmd.Flags().BoolVar(&analyzeNoCache, "no-cache", false, "Bypass the response cache")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 10*time.Minute,
		"Abort long-running fetches after this duration")
	rootCmd.AddCommand(analyzeCmd)
}

// ReportView pairs a source report with its derived summary metrics.
type ReportView struct {
	citation.Report
	Summary citation.Summary `json:"summary"`
}

// AnalyzeResult is the JSON output of the analyze command.
type AnalyzeResult struct {
	ExcludeSelf bool         `json:"exclude_self"`
	FetchLimit  int          `json:"fetch_limit"`
	Reports     []ReportView `json:"reports"`
}

// resolveFetchLimit picks the configured default analyzed-works count
// when --limit was not given on the command line. Unset or nonsensical
// configured values fall back to the built-in default.
func resolveFetchLimit(configured int) int {
	if configured > 0 {
		return configured
	}
	return explorer.DefaultFetchLimit
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeOAID == "" && analyzeS2ID == "" {
		exitWithError(ExitError, "at least one of --oa / --s2 is required")
	}

	cl, err := newClients(analyzeNoCache)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	defer cl.close()

	var reqs []explorer.Request
	if analyzeOAID != "" {
		reqs = append(reqs, explorer.Request{
			Source:   &explorer.OpenAlexSource{Client: cl.openalex},
			AuthorID: analyzeOAID,
		})
	}
	if analyzeS2ID != "" {
		reqs = append(reqs, explorer.Request{
			Source:   &explorer.S2Source{Client: cl.s2},
			AuthorID: analyzeS2ID,
		})
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), analyzeTimeout)
	defer cancel()

	limit := analyzeLimit
	if !cmd.Flags().Changed("limit") {
		limit = resolveFetchLimit(cl.cfg.FetchLimit)
	}

	opts := explorer.Options{FetchLimit: limit, ExcludeSelf: analyzeExcludeSelf}
	reports := explorer.RunAll(ctx, reqs, opts)

	failed := 0
	result := AnalyzeResult{
		ExcludeSelf: analyzeExcludeSelf,
		FetchLimit:  limit,
	}
	for _, r := range reports {
		if r.Err != "" {
			failed++
		}
		result.Reports = append(result.Reports, ReportView{
			Report:  r,
			Summary: citation.Summarize(r.Rows, r.AnalyzedWorks),
		})
	}

	if humanOutput {
		for _, rv := range result.Reports {
			outputHuman("%s\n", formatReportHuman(rv.Report))
		}
	} else if err := outputJSON(result); err != nil {
		return err
	}

	// Per-source failures are already in the reports; only a total loss
	// is fatal.
	if failed == len(reports) {
		fmt.Fprintln(os.Stderr, "error: all sources failed")
		os.Exit(ExitAPIError)
	}
	return nil
}
