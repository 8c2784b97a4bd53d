package allocate

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/sourceplane/jobmap/internal/model"
)

// DefaultThreshold is the confidence at or above which a fuzzy candidate is
// accepted. It is a tunable, not a constant of the algorithm.
const DefaultThreshold = 0.6

// Allocator attributes observed CI jobs to projects. Exact matches against
// the expanded job-name set always take precedence; the similarity heuristic
// only runs for projects with no definition coverage.
type Allocator struct {
	threshold float64
}

// New creates an allocator. A non-positive threshold selects the default.
func New(threshold float64) *Allocator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Allocator{threshold: threshold}
}

// Allocate partitions the observed pool for one project and returns the
// allocation plus the jobs left unmatched (the pool handed to the next
// project, keeping first-match-wins across an ordered run).
//
// With a non-empty expected set, only exact name matches are attributed.
// With an empty expected set (no definition coverage) the similarity
// heuristic scores every pooled job against the project identifier and
// accepts candidates at or above the threshold.
func (a *Allocator) Allocate(projectID string, expected, observed []string) (model.AllocationResult, []string) {
	if len(expected) > 0 {
		return a.allocateExact(projectID, expected, observed)
	}
	return a.allocateFuzzy(projectID, observed)
}

func (a *Allocator) allocateExact(projectID string, expected, observed []string) (model.AllocationResult, []string) {
	expectedSet := make(map[string]bool, len(expected))
	for _, name := range expected {
		expectedSet[name] = true
	}

	result := model.AllocationResult{Project: projectID, Method: model.MethodNone}
	var remaining []string
	for _, job := range observed {
		if expectedSet[job] {
			result.Jobs = append(result.Jobs, model.JobMatch{Name: job, Confidence: 1.0})
			continue
		}
		remaining = append(remaining, job)
	}

	if len(result.Jobs) > 0 {
		result.Method = model.MethodExact
		sort.Slice(result.Jobs, func(i, j int) bool { return result.Jobs[i].Name < result.Jobs[j].Name })
	}
	return result, remaining
}

func (a *Allocator) allocateFuzzy(projectID string, observed []string) (model.AllocationResult, []string) {
	normID := model.NormalizeProjectID(projectID)
	idTokens := tokenize(projectID)

	result := model.AllocationResult{Project: projectID, Method: model.MethodNone}
	var remaining []string
	for _, job := range observed {
		score := a.score(normID, idTokens, job)
		if score >= a.threshold {
			result.Jobs = append(result.Jobs, model.JobMatch{Name: job, Confidence: score})
			continue
		}
		remaining = append(remaining, job)
	}

	if len(result.Jobs) > 0 {
		result.Method = model.MethodFuzzy
		sort.Slice(result.Jobs, func(i, j int) bool {
			if result.Jobs[i].Confidence != result.Jobs[j].Confidence {
				return result.Jobs[i].Confidence > result.Jobs[j].Confidence
			}
			return result.Jobs[i].Name < result.Jobs[j].Name
		})
	}
	return result, remaining
}

// score rates one observed job name against a project identifier.
// Containment of the full normalized identifier is a certain match;
// otherwise the score blends token overlap with a fuzzy subsequence rank.
func (a *Allocator) score(normID string, idTokens []string, job string) float64 {
	jobLower := strings.ToLower(job)
	if normID != "" && strings.Contains(jobLower, normID) {
		return 1.0
	}

	overlap := tokenOverlap(idTokens, tokenize(job))
	rank := fuzzyRank(normID, jobLower)
	return 0.7*overlap + 0.3*rank
}

// tokenOverlap is the share of identifier tokens present among the job-name
// tokens.
func tokenOverlap(idTokens, jobTokens []string) float64 {
	if len(idTokens) == 0 {
		return 0
	}
	jobSet := make(map[string]bool, len(jobTokens))
	for _, t := range jobTokens {
		jobSet[t] = true
	}
	hits := 0
	for _, t := range idTokens {
		if jobSet[t] {
			hits++
		}
	}
	return float64(hits) / float64(len(idTokens))
}

// fuzzyRank normalizes the subsequence match score into [0, 1]. The library
// awards adjacency and separator bonuses per matched rune, so the pattern
// length bounds the scale.
func fuzzyRank(pattern, candidate string) float64 {
	if pattern == "" {
		return 0
	}
	matches := fuzzy.Find(pattern, []string{candidate})
	if len(matches) == 0 {
		return 0
	}
	rank := float64(matches[0].Score) / float64(5*len(pattern))
	if rank < 0 {
		return 0
	}
	if rank > 1 {
		return 1
	}
	return rank
}

// tokenize splits an identifier or job name on path and word separators.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '/' || r == '-' || r == '_' || r == '.' || r == ' '
	})
	var tokens []string
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
