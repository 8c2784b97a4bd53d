package mapper

import (
	"strings"

	"github.com/sourceplane/jobmap/internal/model"
)

// strategy locates the definition blocks for a project identifier. Each
// strategy is a pure function over the extracted blocks; strategies run in a
// fixed order and the first one returning matches wins.
type strategy struct {
	name model.MappingStrategy
	fn   func(projectID string, blocks []model.ProjectBlock) []model.ProjectBlock
}

var strategies = []strategy{
	{model.StrategyDirectPath, byDirectPath},
	{model.StrategyNormalizedPath, byNormalizedPath},
	{model.StrategyScan, byIdentifierScan},
}

// Resolve returns every block describing the project, plus the strategy
// that found them. A project may have blocks in more than one file (one per
// branch/stream); all are returned. An empty result means the project has
// no definition coverage, which routes it to the fuzzy allocation fallback.
func Resolve(projectID string, blocks []model.ProjectBlock) ([]model.ProjectBlock, model.MappingStrategy) {
	for _, s := range strategies {
		if matched := s.fn(projectID, blocks); len(matched) > 0 {
			return matched, s.name
		}
	}
	return nil, model.StrategyNone
}

// byDirectPath matches blocks whose definition file path is the project
// identifier itself under the naming convention, e.g. project "aai/babel"
// defined in "aai/babel.yaml".
func byDirectPath(projectID string, blocks []model.ProjectBlock) []model.ProjectBlock {
	id := strings.ToLower(strings.Trim(projectID, "/"))
	var matched []model.ProjectBlock
	for _, b := range blocks {
		if pathKey(b.SourcePath) == id {
			matched = append(matched, b)
		}
	}
	return matched
}

// byNormalizedPath matches after flattening path separators, with and
// without the leading organizational prefix: "aai/babel" also matches
// "aai-babel.yaml" and "babel.yaml".
func byNormalizedPath(projectID string, blocks []model.ProjectBlock) []model.ProjectBlock {
	id := strings.ToLower(strings.Trim(projectID, "/"))
	candidates := map[string]bool{
		strings.ReplaceAll(id, "/", "-"): true,
	}
	if segments := strings.Split(id, "/"); len(segments) > 1 {
		candidates[strings.Join(segments[1:], "-")] = true
	}

	var matched []model.ProjectBlock
	for _, b := range blocks {
		base := pathKey(b.SourcePath)
		if idx := strings.LastIndex(base, "/"); idx >= 0 {
			base = base[idx+1:]
		}
		if candidates[base] {
			matched = append(matched, b)
		}
	}
	return matched
}

// byIdentifierScan is the linear fallback: compare declared project
// identifiers under case-insensitive separator normalization.
func byIdentifierScan(projectID string, blocks []model.ProjectBlock) []model.ProjectBlock {
	want := model.NormalizeProjectID(projectID)
	var matched []model.ProjectBlock
	for _, b := range blocks {
		if model.NormalizeProjectID(b.Project) == want {
			matched = append(matched, b)
		}
	}
	return matched
}

// pathKey lowercases a repository-relative path and strips its YAML
// extension.
func pathKey(path string) string {
	path = strings.ToLower(filepathToSlash(path))
	path = strings.TrimSuffix(path, ".yaml")
	path = strings.TrimSuffix(path, ".yml")
	return path
}

func filepathToSlash(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
