package main

import (
	"fmt"

	"github.com/sourceplane/jobmap/internal/config"
	"github.com/sourceplane/jobmap/internal/gitcache"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the repository cache",
}

var cacheRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Force-refresh the definition and template repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		return refreshCache(cmd)
	},
}

func registerCacheCommand(root *cobra.Command) {
	root.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheRefreshCmd)
}

func refreshCache(cmd *cobra.Command) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}

	cache := gitcache.New(cfg.CacheDir, cfg.Staleness.Std())
	for _, ref := range []config.RepoRef{cfg.DefinitionRepo, cfg.TemplateRepo} {
		if ref.URL == "" {
			continue
		}
		fmt.Printf("□ Refreshing %s@%s...\n", ref.URL, ref.Branch)
		path, err := cache.Refresh(cmd.Context(), ref.URL, ref.Branch)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", path)
	}
	return nil
}
