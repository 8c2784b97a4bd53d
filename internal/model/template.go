package model

import "regexp"

// placeholderPattern matches {placeholder} tokens in a job-name pattern.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_.-]+)\}`)

// JobTemplate is a named, parameterized job-name pattern with default
// parameter values. Templates are global, shared across all projects, and
// immutable after the registry finishes loading.
type JobTemplate struct {
	// Name is the template identity referenced by project blocks.
	Name string

	// Pattern is the job-name pattern containing {placeholder} tokens.
	Pattern string

	// Placeholders are the placeholder names in pattern order.
	Placeholders []string

	// Defaults supplies values for placeholders a project block omits.
	Defaults map[string]string

	// SourcePath is the template-repository-relative file the template
	// was loaded from. Used for conflict reporting.
	SourcePath string
}

// ExtractPlaceholders returns the placeholder names of a pattern in order
// of first appearance.
func ExtractPlaceholders(pattern string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(pattern, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// SubstitutePlaceholders replaces every {placeholder} token that has a value
// in params. Tokens without a value are left intact so callers can detect
// unresolved names.
func SubstitutePlaceholders(pattern string, params map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(pattern, func(tok string) string {
		name := tok[1 : len(tok)-1]
		if v, ok := params[name]; ok {
			return v
		}
		return tok
	})
}
