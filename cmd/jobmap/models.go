package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sourceplane/jobmap/internal/allocate"
	"github.com/sourceplane/jobmap/internal/config"
	"github.com/sourceplane/jobmap/internal/extract"
	"github.com/sourceplane/jobmap/internal/gitcache"
	"github.com/sourceplane/jobmap/internal/loader"
	"github.com/sourceplane/jobmap/internal/model"
	"github.com/sourceplane/jobmap/internal/registry"
	"github.com/sourceplane/jobmap/internal/resolver"
)

// engine bundles the loaded state a command works against: configuration,
// the template registry and the extracted project blocks, plus the
// per-file diagnostics collected while loading.
type engine struct {
	cfg       *config.Config
	registry  *registry.Registry
	blocks    []model.ProjectBlock
	parseErrs []*loader.ParseError
	malformed []*extract.MalformedBlockError
	resolver  *resolver.Resolver
}

// buildEngine acquires both repositories (or uses local checkouts), loads
// the template registry once, extracts all project blocks and wires the
// resolver.
func buildEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	cache := gitcache.New(cfg.CacheDir, cfg.Staleness.Std())

	defPath, err := repositoryPath(ctx, cache, definitionsDir, cfg.DefinitionRepo, "definition")
	if err != nil {
		return nil, err
	}
	tmplPath, err := repositoryPath(ctx, cache, templatesDir, cfg.TemplateRepo, "template")
	if err != nil {
		return nil, err
	}

	store, err := registry.NewStore()
	if err != nil {
		return nil, err
	}
	reg, err := store.Load(tmplPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load template registry: %w", err)
	}

	docs, parseErrs, err := loader.LoadAll(defPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load definitions: %w", err)
	}
	blocks, malformed := extract.Blocks(docs)

	return &engine{
		cfg:       cfg,
		registry:  reg,
		blocks:    blocks,
		parseErrs: parseErrs,
		malformed: malformed,
		resolver:  resolver.New(reg, blocks, allocate.New(cfg.FuzzyThreshold), cfg.Workers),
	}, nil
}

// repositoryPath prefers a local checkout override and otherwise ensures a
// cached clone of the configured repository.
func repositoryPath(ctx context.Context, cache *gitcache.Cache, override string, ref config.RepoRef, kind string) (string, error) {
	if override != "" {
		return override, nil
	}
	if ref.URL == "" {
		return "", fmt.Errorf("no %s repository configured (set %s_repo.url or --%ss-dir)", kind, kind, kind)
	}
	path, err := cache.Ensure(ctx, ref.URL, ref.Branch)
	if err != nil {
		return "", fmt.Errorf("failed to acquire %s repository: %w", kind, err)
	}
	return path, nil
}

// printLoadDiagnostics surfaces per-file load problems. These are coverage
// gaps, not fatal errors.
func (e *engine) printLoadDiagnostics() {
	if !debugMode {
		return
	}
	for _, pe := range e.parseErrs {
		fmt.Fprintf(os.Stderr, "! %v\n", pe)
	}
	for _, mb := range e.malformed {
		fmt.Fprintf(os.Stderr, "! %v\n", mb)
	}
}

// readJobList reads observed job names from a file, one per line, skipping
// blanks and #-comments.
func readJobList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job list: %w", err)
	}
	defer f.Close()

	var jobs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line, _, _ := strings.Cut(scanner.Text(), "#")
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			jobs = append(jobs, trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read job list: %w", err)
	}
	return jobs, nil
}
