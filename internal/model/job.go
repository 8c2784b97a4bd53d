package model

import "strings"

// ExpandedJobName is a concrete job name derived from one
// (ProjectBlock, JobTemplate, parameter-combination) triple.
type ExpandedJobName struct {
	// Name is the substituted job name.
	Name string

	// Template is the template the name was expanded from.
	Template string

	// Unresolved marks names still containing a {placeholder} token after
	// substitution. Unresolved names are excluded from matching but kept
	// for diagnostics.
	Unresolved bool
}

// Expansion is the full expansion result for one project: every expanded
// name, resolved and unresolved, in deterministic order.
type Expansion struct {
	Project string
	Jobs    []ExpandedJobName
}

// Matchable returns the resolved job names, the set used for allocation.
func (e *Expansion) Matchable() []string {
	var names []string
	for _, j := range e.Jobs {
		if !j.Unresolved {
			names = append(names, j.Name)
		}
	}
	return names
}

// Unresolved returns the names that still carry placeholder tokens.
func (e *Expansion) Unresolved() []ExpandedJobName {
	var out []ExpandedJobName
	for _, j := range e.Jobs {
		if j.Unresolved {
			out = append(out, j)
		}
	}
	return out
}

// Merge appends another expansion's jobs, dropping duplicate names.
func (e *Expansion) Merge(other *Expansion) {
	seen := make(map[string]bool, len(e.Jobs))
	for _, j := range e.Jobs {
		seen[j.Name] = true
	}
	for _, j := range other.Jobs {
		if !seen[j.Name] {
			seen[j.Name] = true
			e.Jobs = append(e.Jobs, j)
		}
	}
}

// AllocationMethod records how observed jobs were attributed to a project.
type AllocationMethod string

const (
	// MethodExact means observed jobs matched expanded names exactly.
	MethodExact AllocationMethod = "exact"

	// MethodFuzzy means the similarity heuristic attributed the jobs.
	MethodFuzzy AllocationMethod = "fuzzy"

	// MethodNone means no observed job could be attributed.
	MethodNone AllocationMethod = "none"
)

// JobMatch is one observed job attributed to a project, with the confidence
// the allocator assigned (1.0 for exact matches).
type JobMatch struct {
	Name       string
	Confidence float64
}

// AllocationResult is the per-project outcome of a report run. Created fresh
// per run, never persisted.
type AllocationResult struct {
	Project string
	Method  AllocationMethod
	Jobs    []JobMatch
}

// JobNames returns the attributed job names.
func (r AllocationResult) JobNames() []string {
	names := make([]string, 0, len(r.Jobs))
	for _, j := range r.Jobs {
		names = append(names, j.Name)
	}
	return names
}

// MappingStrategy records which lookup strategy located a project's blocks.
type MappingStrategy string

const (
	StrategyDirectPath     MappingStrategy = "direct-path"
	StrategyNormalizedPath MappingStrategy = "normalized-path"
	StrategyScan           MappingStrategy = "scan"
	StrategyNone           MappingStrategy = "none"
)

// NormalizeProjectID lowercases a project identifier and joins its path
// segments with dashes, the form job names are built from.
func NormalizeProjectID(id string) string {
	id = strings.ToLower(strings.Trim(id, "/"))
	return strings.ReplaceAll(id, "/", "-")
}
