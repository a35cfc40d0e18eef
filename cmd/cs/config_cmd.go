package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matsen/citescope/internal/config"
	"github.com/matsen/citescope/internal/explorer"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values stored in ` + "`~/.config/cs/config.yml`" + `.

Usage:
  cs config                               # Show all config
  cs config s2-api-key                    # Get specific value
  cs config s2-api-key <key>              # Set value
  cs config openalex-mailto you@host.org  # Set contact for polite pool

Keys:
  s2-api-key       Semantic Scholar API key (S2_API_KEY env wins)
  openalex-mailto  Contact address for OpenAlex polite pool
  cache-path       Response cache location (default under user cache dir)
  cache-ttl        Response cache lifetime, e.g. 24h
  fetch-limit      Default analyzed works per source (10-200)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// ConfigResponse is the JSON shape of the full config listing.
type ConfigResponse struct {
	S2APIKey       string `json:"s2_api_key,omitempty"`
	OpenAlexMailto string `json:"openalex_mailto,omitempty"`
	CachePath      string `json:"cache_path,omitempty"`
	CacheTTL       string `json:"cache_ttl,omitempty"`
	FetchLimit     int    `json:"fetch_limit,omitempty"`
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	if len(args) == 0 {
		if humanOutput {
			fmt.Printf("s2-api-key:      %s\n", maskKey(cfg.S2APIKey))
			fmt.Printf("openalex-mailto: %s\n", cfg.OpenAlexMailto)
			fmt.Printf("cache-path:      %s\n", cfg.ResolvedCachePath())
			fmt.Printf("cache-ttl:       %s\n", cfg.ResolvedCacheTTL())
			fmt.Printf("fetch-limit:     %d\n", cfg.FetchLimit)
		} else {
			_ = outputJSON(ConfigResponse{
				S2APIKey:       maskKey(cfg.S2APIKey),
				OpenAlexMailto: cfg.OpenAlexMailto,
				CachePath:      cfg.CachePath,
				CacheTTL:       cfg.CacheTTL,
				FetchLimit:     cfg.FetchLimit,
			})
		}
		return nil
	}

	key := args[0]

	if len(args) == 1 {
		var value string
		switch key {
		case "s2-api-key":
			value = maskKey(cfg.S2APIKey)
		case "openalex-mailto":
			value = cfg.OpenAlexMailto
		case "cache-path":
			value = cfg.ResolvedCachePath()
		case "cache-ttl":
			value = cfg.ResolvedCacheTTL().String()
		case "fetch-limit":
			value = strconv.Itoa(cfg.FetchLimit)
		default:
			exitWithError(ExitError, "unknown config key: %s", key)
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			_ = outputJSON(map[string]string{key: value})
		}
		return nil
	}

	value := args[1]
	switch key {
	case "s2-api-key":
		cfg.S2APIKey = value
	case "openalex-mailto":
		cfg.OpenAlexMailto = value
	case "cache-path":
		cfg.CachePath = config.ExpandTilde(value)
	case "cache-ttl":
		cfg.CacheTTL = value
	case "fetch-limit":
		n, err := parseFetchLimit(value)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		cfg.FetchLimit = n
	default:
		exitWithError(ExitError, "unknown config key: %s", key)
	}

	if err := cfg.Save(); err != nil {
		if humanOutput {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		} else {
			_ = outputJSON(ErrorResponse{Error: err.Error()})
		}
		os.Exit(ExitConfigError)
	}

	if humanOutput {
		fmt.Printf("%s set\n", key)
	} else {
		_ = outputJSON(map[string]string{"status": "updated", "key": key})
	}
	return nil
}

// parseFetchLimit validates a fetch-limit value against the range the
// analyze pipeline accepts.
func parseFetchLimit(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("fetch-limit must be an integer: %s", value)
	}
	if n < explorer.MinFetchLimit || n > explorer.MaxFetchLimit {
		return 0, fmt.Errorf("fetch-limit must be between %d and %d",
			explorer.MinFetchLimit, explorer.MaxFetchLimit)
	}
	return n, nil
}

// maskKey hides all but the last few characters of a secret.
func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
