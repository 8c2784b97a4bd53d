package registry

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sourceplane/jobmap/internal/loader"
	"github.com/sourceplane/jobmap/internal/model"
)

// templateEntryKind is the top-level key marking a template entry in a
// template-repository document.
const templateEntryKind = "job-template"

// templateSchema validates the shape of a template entry before it is
// admitted to the registry. A malformed template would generate wrong job
// names for every project referencing it, so admission is strict.
const templateSchema = `{
  "type": "object",
  "required": ["name", "job-name"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "job-name": {"type": "string", "minLength": 1},
    "defaults": {
      "type": "object",
      "additionalProperties": {"type": ["string", "number", "boolean"]}
    }
  }
}`

// ConflictError reports two template definitions claiming the same name.
// Silent last-loaded-wins would produce wrong job names downstream, so a
// conflict is fatal at load time.
type ConflictError struct {
	Name   string
	First  string
	Second string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("template %q defined in both %s and %s", e.Name, e.First, e.Second)
}

// Registry is the immutable name → JobTemplate lookup built from one
// template repository. After Load returns, the registry is read-only and
// safe to share across concurrent expansions.
type Registry struct {
	path      string
	templates map[string]model.JobTemplate
}

// Lookup returns the template with the given name.
func (r *Registry) Lookup(name string) (model.JobTemplate, bool) {
	t, ok := r.templates[name]
	return t, ok
}

// Names returns all template names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded templates.
func (r *Registry) Len() int { return len(r.templates) }

// Path returns the template repository path the registry was loaded from.
func (r *Registry) Path() string { return r.path }

// Store caches one Registry per template repository path so templates are
// loaded exactly once per run. Invalidation is explicit via Reload.
type Store struct {
	mu         sync.Mutex
	registries map[string]*Registry
	schema     *jsonschema.Schema
}

// NewStore creates an empty registry store.
func NewStore() (*Store, error) {
	schema, err := jsonschema.CompileString("jobmap://template.schema.json", templateSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile template schema: %w", err)
	}
	return &Store{
		registries: make(map[string]*Registry),
		schema:     schema,
	}, nil
}

// Load returns the registry for a template repository path, loading it on
// first use and serving the cached copy afterwards.
func (s *Store) Load(path string) (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reg, ok := s.registries[path]; ok {
		return reg, nil
	}
	reg, err := s.load(path)
	if err != nil {
		return nil, err
	}
	s.registries[path] = reg
	return reg, nil
}

// Reload discards any cached registry for the path and loads it fresh.
func (s *Store) Reload(path string) (*Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.registries, path)
	reg, err := s.load(path)
	if err != nil {
		return nil, err
	}
	s.registries[path] = reg
	return reg, nil
}

func (s *Store) load(path string) (*Registry, error) {
	docs, parseErrs, err := loader.LoadAll(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load template repository: %w", err)
	}
	if len(parseErrs) > 0 {
		return nil, fmt.Errorf("template repository has unparsable files: %w", parseErrs[0])
	}

	reg := &Registry{
		path:      path,
		templates: make(map[string]model.JobTemplate),
	}

	for _, doc := range docs {
		for _, entry := range doc.Entries {
			if entry.Kind != templateEntryKind {
				continue
			}
			tmpl, err := s.buildTemplate(entry.Body, doc.Path)
			if err != nil {
				return nil, err
			}
			if prev, exists := reg.templates[tmpl.Name]; exists {
				return nil, &ConflictError{
					Name:   tmpl.Name,
					First:  prev.SourcePath,
					Second: doc.Path,
				}
			}
			reg.templates[tmpl.Name] = tmpl
		}
	}

	return reg, nil
}

func (s *Store) buildTemplate(body map[string]interface{}, sourcePath string) (model.JobTemplate, error) {
	if err := s.schema.Validate(jsonCompatible(body)); err != nil {
		return model.JobTemplate{}, fmt.Errorf("invalid template entry in %s: %w", sourcePath, err)
	}

	name, _ := body["name"].(string)
	pattern, _ := body["job-name"].(string)

	defaults := make(map[string]string)
	if rawDefaults, ok := body["defaults"].(map[string]interface{}); ok {
		for k, v := range rawDefaults {
			defaults[k] = fmt.Sprint(v)
		}
	}

	return model.JobTemplate{
		Name:         name,
		Pattern:      pattern,
		Placeholders: model.ExtractPlaceholders(pattern),
		Defaults:     defaults,
		SourcePath:   sourcePath,
	}, nil
}

// jsonCompatible rewrites converted YAML values into the types the schema
// validator accepts. Opaque tagged values become their string form.
func jsonCompatible(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = jsonCompatible(val)
		}
		return m
	case []interface{}:
		s := make([]interface{}, 0, len(t))
		for _, val := range t {
			s = append(s, jsonCompatible(val))
		}
		return s
	case model.OpaqueValue:
		return t.String()
	case int:
		return json.Number(fmt.Sprint(t))
	case int64:
		return json.Number(fmt.Sprint(t))
	default:
		return v
	}
}
