package resolver

import (
	"context"
	"sort"
	"sync"

	"github.com/sourceplane/jobmap/internal/allocate"
	"github.com/sourceplane/jobmap/internal/expand"
	"github.com/sourceplane/jobmap/internal/mapper"
	"github.com/sourceplane/jobmap/internal/model"
	"github.com/sourceplane/jobmap/internal/registry"
)

// ProjectResult is everything resolved for one project: the blocks found,
// the strategy that found them, the full expansion (resolved and unresolved
// names, for diagnostics), missing-template diagnostics, and the final
// allocation.
type ProjectResult struct {
	Project          string
	Strategy         model.MappingStrategy
	Blocks           []model.ProjectBlock
	Expansion        *model.Expansion
	MissingTemplates []*expand.TemplateNotFoundError
	Allocation       model.AllocationResult
}

// RunResult is a full fleet run: per-project results in allocation order
// plus the orphan pool, observed jobs attributable to no project.
type RunResult struct {
	Projects []ProjectResult
	Orphans  []string
}

// Resolver drives the per-project pipeline: mapper → expansion → allocation.
// The registry and extracted blocks are loaded once and shared read-only
// across projects.
type Resolver struct {
	registry  *registry.Registry
	blocks    []model.ProjectBlock
	allocator *allocate.Allocator
	workers   int
}

// New creates a resolver over an initialized registry and extracted block
// set. workers bounds the per-project parallelism; values below 1 mean
// sequential.
func New(reg *registry.Registry, blocks []model.ProjectBlock, alloc *allocate.Allocator, workers int) *Resolver {
	if workers < 1 {
		workers = 1
	}
	return &Resolver{
		registry:  reg,
		blocks:    blocks,
		allocator: alloc,
		workers:   workers,
	}
}

// ResolveProject maps one project to its definition blocks and expands
// them. No allocation happens here; a project with zero resolved names is
// not an error, it simply has no definition coverage.
func (r *Resolver) ResolveProject(projectID string) ProjectResult {
	blocks, strategy := mapper.Resolve(projectID, r.blocks)

	result := ProjectResult{
		Project:   projectID,
		Strategy:  strategy,
		Blocks:    blocks,
		Expansion: &model.Expansion{Project: projectID},
	}

	for _, block := range blocks {
		expansion, missing := expand.Expand(block, r.registry)
		result.Expansion.Merge(expansion)
		result.MissingTemplates = append(result.MissingTemplates, missing...)
	}
	return result
}

// Run resolves and allocates a whole fleet. Per-project resolution runs in
// parallel workers; allocation is then merged sequentially in alphabetical
// project order, first-match-wins over the shared observed pool, so every
// observed job is attributed to at most one project regardless of worker
// completion order.
func (r *Resolver) Run(ctx context.Context, projectIDs, observed []string) (*RunResult, error) {
	ids := dedupeSorted(projectIDs)
	results := make([]ProjectResult, len(ids))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.ResolveProject(ids[i])
			}
		}()
	}

feed:
	for i := range ids {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Exact allocation runs for every covered project before any fuzzy
	// fallback, so a job expected by one project can never be consumed by
	// another project's heuristic.
	pool := append([]string(nil), observed...)
	for i := range results {
		if expected := results[i].Expansion.Matchable(); len(expected) > 0 {
			results[i].Allocation, pool = r.allocator.Allocate(ids[i], expected, pool)
		}
	}
	for i := range results {
		if len(results[i].Expansion.Matchable()) == 0 {
			results[i].Allocation, pool = r.allocator.Allocate(ids[i], nil, pool)
		}
	}

	return &RunResult{Projects: results, Orphans: pool}, nil
}

func dedupeSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
