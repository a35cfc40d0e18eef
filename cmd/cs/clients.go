package main

import (
	"fmt"
	"os"

	"github.com/matsen/citescope/internal/cache"
	"github.com/matsen/citescope/internal/config"
	"github.com/matsen/citescope/internal/openalex"
	"github.com/matsen/citescope/internal/s2"
)

// clients bundles the per-source API clients built from configuration.
type clients struct {
	openalex *openalex.Client
	s2       *s2.Client
	cfg      *config.Config
	close    func()
}

// newClients builds both source clients, wiring in the response cache
// unless noCache is set. Environment variables win over the config file.
func newClients(noCache bool) (*clients, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	mailto := os.Getenv("OPENALEX_MAILTO")
	if mailto == "" {
		mailto = cfg.OpenAlexMailto
	}
	apiKey := os.Getenv("S2_API_KEY")
	if apiKey == "" {
		apiKey = cfg.S2APIKey
	}

	var respCache cache.Cache
	closeFn := func() {}
	if !noCache {
		ttl := cfg.ResolvedCacheTTL()
		if path := cfg.ResolvedCachePath(); path != "" {
			if db, err := cache.OpenDB(path, ttl); err == nil {
				respCache = db
				closeFn = func() { _ = db.Close() }
			}
		}
		if respCache == nil {
			// No usable cache directory; keep responses for this run only.
			respCache = cache.NewMemory(0, ttl)
		}
	}

	oaOpts := []openalex.ClientOption{openalex.WithMailto(mailto)}
	s2Opts := []s2.ClientOption{s2.WithAPIKey(apiKey)}
	if respCache != nil {
		oaOpts = append(oaOpts, openalex.WithCache(respCache))
		s2Opts = append(s2Opts, s2.WithCache(respCache))
	}

	return &clients{
		openalex: openalex.NewClient(oaOpts...),
		s2:       s2.NewClient(s2Opts...),
		cfg:      cfg,
		close:    closeFn,
	}, nil
}
