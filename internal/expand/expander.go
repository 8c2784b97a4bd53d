package expand

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sourceplane/jobmap/internal/model"
	"github.com/sourceplane/jobmap/internal/registry"
)

// TemplateNotFoundError reports a project block referencing a template name
// absent from the registry. Expansion for that reference is skipped; other
// references continue.
type TemplateNotFoundError struct {
	Project  string
	Template string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("project %s references unknown template %q", e.Project, e.Template)
}

// Expand produces the set of concrete job names for one project block.
//
// For each referenced template, the block's parameters are overlaid onto the
// template's defaults (block values win), the cartesian product of all
// multi-valued parameters is computed, and every placeholder in the pattern
// is substituted per combination. A name still carrying a {placeholder}
// token after substitution is flagged unresolved: it is kept for diagnostics
// but excluded from the matchable set. Unresolved placeholders are a
// data-quality condition in the source definitions, not an expansion error.
//
// The result is deterministic for a given (block, registry) pair,
// independent of map iteration order.
func Expand(block model.ProjectBlock, reg *registry.Registry) (*model.Expansion, []*TemplateNotFoundError) {
	expansion := &model.Expansion{Project: block.Project}
	var missing []*TemplateNotFoundError
	seen := make(map[string]bool)

	for _, ref := range block.Templates {
		tmpl, ok := reg.Lookup(ref)
		if !ok {
			missing = append(missing, &TemplateNotFoundError{Project: block.Project, Template: ref})
			continue
		}

		scalars, axes := effectiveParams(block, tmpl)
		for _, combo := range combinations(axes) {
			params := make(map[string]string, len(scalars)+len(combo))
			for k, v := range scalars {
				params[k] = v
			}
			for k, v := range combo {
				params[k] = v
			}

			name := model.SubstitutePlaceholders(tmpl.Pattern, params)
			if seen[name] {
				continue
			}
			seen[name] = true
			expansion.Jobs = append(expansion.Jobs, model.ExpandedJobName{
				Name:       name,
				Template:   tmpl.Name,
				Unresolved: strings.Contains(name, "{"),
			})
		}
	}

	return expansion, missing
}

// effectiveParams overlays the block's parameters onto the template's
// defaults and partitions the result into scalar values and multi-valued
// axes.
func effectiveParams(block model.ProjectBlock, tmpl model.JobTemplate) (map[string]string, []axis) {
	scalars := make(map[string]string)
	for k, v := range tmpl.Defaults {
		scalars[k] = v
	}

	var axes []axis
	for _, key := range sortedParamKeys(block.Params) {
		p := block.Params[key]
		if p.Multi {
			axes = append(axes, axis{name: key, values: p.Values})
			delete(scalars, key)
			continue
		}
		scalars[key] = p.Single()
	}
	return scalars, axes
}

// axis is one multi-valued parameter: a name and its value list. Axes are
// ordered by parameter name so iteration order never depends on map order.
type axis struct {
	name   string
	values []string
}

// combinations computes the cartesian product of the axes. With no axes it
// yields a single empty combination. Value order within an axis is the
// declaration order; axes vary odometer-style with the last axis fastest.
func combinations(axes []axis) []map[string]string {
	combos := []map[string]string{{}}
	for _, ax := range axes {
		next := make([]map[string]string, 0, len(combos)*len(ax.values))
		for _, combo := range combos {
			for _, v := range ax.values {
				extended := make(map[string]string, len(combo)+1)
				for k, cv := range combo {
					extended[k] = cv
				}
				extended[ax.name] = v
				next = append(next, extended)
			}
		}
		combos = next
	}
	return combos
}

func sortedParamKeys(params map[string]model.ParamValue) []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
