package extract

import (
	"fmt"
	"sort"

	"github.com/sourceplane/jobmap/internal/model"
)

// projectEntryKind is the top-level key marking a project block in a
// definition document.
const projectEntryKind = "project"

// reservedKeys are project-block keys that are structural rather than
// parameters.
var reservedKeys = map[string]bool{
	"name":    true,
	"project": true,
	"jobs":    true,
}

// MalformedBlockError reports a project-shaped entry that could not be
// converted. Extraction continues past the malformed block.
type MalformedBlockError struct {
	Path   string
	Reason string
}

func (e *MalformedBlockError) Error() string {
	return fmt.Sprintf("malformed project block in %s: %s", e.Path, e.Reason)
}

// Blocks converts raw definition documents into ProjectBlocks. Top-level
// entries are classified by shape: an entry is a project block when it is
// keyed "project" and carries a jobs list. Entries of other kinds
// (standalone job definitions, includes) are skipped. Blocks missing a
// project identifier are reported and skipped.
func Blocks(docs []model.RawDefinitionDocument) ([]model.ProjectBlock, []*MalformedBlockError) {
	var blocks []model.ProjectBlock
	var malformed []*MalformedBlockError

	for _, doc := range docs {
		for _, entry := range doc.Entries {
			if entry.Kind != projectEntryKind {
				continue
			}
			rawJobs, hasJobs := entry.Body["jobs"]
			if !hasJobs {
				// Not a project block shape, e.g. a project-scoped
				// include without template references.
				continue
			}

			block, err := buildBlock(doc.Path, entry.Body, rawJobs)
			if err != nil {
				malformed = append(malformed, err)
				continue
			}
			blocks = append(blocks, block)
		}
	}

	return blocks, malformed
}

func buildBlock(path string, body map[string]interface{}, rawJobs interface{}) (model.ProjectBlock, *MalformedBlockError) {
	projectID := stringValue(body["project"])
	if projectID == "" {
		projectID = stringValue(body["name"])
	}
	if projectID == "" {
		return model.ProjectBlock{}, &MalformedBlockError{
			Path:   path,
			Reason: "missing project identifier",
		}
	}

	templates := templateRefs(rawJobs)
	if templates == nil {
		return model.ProjectBlock{}, &MalformedBlockError{
			Path:   path,
			Reason: fmt.Sprintf("project %s: jobs entry is not a list of template names", projectID),
		}
	}

	params := make(map[string]model.ParamValue)
	for _, key := range sortedKeys(body) {
		if reservedKeys[key] {
			continue
		}
		params[key] = paramValue(body[key])
	}

	// The block's short name feeds the {project} placeholder, the base
	// most job-name patterns are built from.
	if name := stringValue(body["name"]); name != "" {
		params["project"] = model.Scalar(name)
	} else {
		params["project"] = model.Scalar(model.NormalizeProjectID(projectID))
	}

	return model.ProjectBlock{
		SourcePath: path,
		Project:    projectID,
		Templates:  templates,
		Params:     params,
	}, nil
}

// templateRefs extracts the referenced template names in declaration order.
// Returns nil when the jobs value is not a list of scalars.
func templateRefs(raw interface{}) []string {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	refs := make([]string, 0, len(list))
	for _, item := range list {
		name := stringValue(item)
		if name == "" {
			return nil
		}
		refs = append(refs, name)
	}
	return refs
}

// paramValue preserves YAML sequences as multi-valued parameters and
// scalars as single-valued.
func paramValue(raw interface{}) model.ParamValue {
	if list, ok := raw.([]interface{}); ok {
		values := make([]string, 0, len(list))
		for _, item := range list {
			values = append(values, scalarString(item))
		}
		return model.List(values...)
	}
	return model.Scalar(scalarString(raw))
}

// stringValue returns raw as a string identifier, or "" when it is not one.
func stringValue(raw interface{}) string {
	s, _ := raw.(string)
	return s
}

// scalarString renders any scalar parameter value as a string. Opaque tagged
// values keep their placeholder form.
func scalarString(raw interface{}) string {
	switch v := raw.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
