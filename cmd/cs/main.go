// Package main provides the cs CLI entry point.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cs",
	Short: "Citation provenance explorer for researchers",
	Long: `cs answers: for a given researcher, who cites their work, and how
much of that citation traffic is self-citation or citation from
collaborators?

It queries OpenAlex and Semantic Scholar independently and produces one
ranked, categorized citing-author table per source. All commands output
JSON by default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Load .env file if present (for S2_API_KEY, OPENALEX_MAILTO)
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
