package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matsen/citescope/internal/cache"
	"github.com/matsen/citescope/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the API response cache",
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the response cache location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			exitWithError(ExitConfigError, "loading config: %v", err)
		}
		if humanOutput {
			fmt.Println(cfg.ResolvedCachePath())
		} else {
			_ = outputJSON(map[string]string{"path": cfg.ResolvedCachePath()})
		}
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop expired entries from the response cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			exitWithError(ExitConfigError, "loading config: %v", err)
		}
		path := cfg.ResolvedCachePath()
		if path == "" {
			exitWithError(ExitConfigError, "no cache path configured")
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if humanOutput {
				fmt.Println("no cache to purge")
			} else {
				_ = outputJSON(map[string]string{"status": "empty"})
			}
			return nil
		}

		db, err := cache.OpenDB(path, cfg.ResolvedCacheTTL())
		if err != nil {
			exitWithError(ExitError, "opening cache: %v", err)
		}
		defer db.Close()

		if err := db.Purge(); err != nil {
			exitWithError(ExitError, "purging cache: %v", err)
		}
		if humanOutput {
			fmt.Println("cache purged")
		} else {
			_ = outputJSON(map[string]string{"status": "purged", "path": path})
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePathCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
