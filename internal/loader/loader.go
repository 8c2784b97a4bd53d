package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sourceplane/jobmap/internal/model"
	"gopkg.in/yaml.v3"
)

// ParseError reports a single definition file that failed to parse. Parse
// failures never abort the load of other files.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LoadAll walks the definition repository tree and parses every file
// matching the definition-file naming convention (*.yaml, *.yml), skipping
// dotted directories. It returns the parsed documents with repository-relative
// paths, plus one ParseError per file that could not be parsed. Re-walking is
// cheap and idempotent; callers needing a fresh view simply call again.
func LoadAll(repoPath string) ([]model.RawDefinitionDocument, []*ParseError, error) {
	var docs []model.RawDefinitionDocument
	var parseErrs []*ParseError

	err := filepath.WalkDir(repoPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != repoPath {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		relPath, relErr := filepath.Rel(repoPath, path)
		if relErr != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		doc, loadErr := LoadFile(path, relPath)
		if loadErr != nil {
			parseErrs = append(parseErrs, &ParseError{Path: relPath, Err: loadErr})
			return nil
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, parseErrs, fmt.Errorf("failed to walk definition tree %s: %w", repoPath, err)
	}

	return docs, parseErrs, nil
}

// LoadFile reads and parses one definition file into a RawDefinitionDocument
// keyed by relPath.
func LoadFile(path, relPath string) (model.RawDefinitionDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.RawDefinitionDocument{}, fmt.Errorf("failed to read definition file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return model.RawDefinitionDocument{}, fmt.Errorf("failed to parse definition YAML: %w", err)
	}

	return model.RawDefinitionDocument{
		Path:    relPath,
		Entries: documentEntries(&root),
	}, nil
}

// documentEntries extracts the top-level entries of a parsed document.
// The dialect is a sequence of single-key mappings; anything else yields no
// entries rather than an error, since not every YAML file in a definition
// tree follows the dialect.
func documentEntries(root *yaml.Node) []model.DocumentEntry {
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil
	}

	var entries []model.DocumentEntry
	for _, item := range root.Content {
		if item.Kind != yaml.MappingNode || len(item.Content) < 2 {
			continue
		}
		kind := item.Content[0].Value
		body, ok := convertNode(item.Content[1]).(map[string]interface{})
		if !ok {
			continue
		}
		entries = append(entries, model.DocumentEntry{Kind: kind, Body: body})
	}
	return entries
}

// convertNode turns a YAML node into plain Go values. Nodes carrying a local
// tag the parser does not understand degrade to an OpaqueValue placeholder
// instead of aborting the file.
func convertNode(n *yaml.Node) interface{} {
	if n.Kind == yaml.AliasNode {
		return convertNode(n.Alias)
	}
	if isOpaqueTag(n.Tag) {
		return model.OpaqueValue{Tag: n.Tag, Raw: n.Value}
	}

	switch n.Kind {
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = convertNode(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]interface{}, 0, len(n.Content))
		for _, c := range n.Content {
			s = append(s, convertNode(c))
		}
		return s
	default:
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return model.OpaqueValue{Tag: n.Tag, Raw: n.Value}
		}
		return v
	}
}

// isOpaqueTag reports whether a tag is a non-standard local tag (e.g.
// "!include") that the parser has no construction rule for. Standard tags
// are either empty or in the "!!" namespace.
func isOpaqueTag(tag string) bool {
	return strings.HasPrefix(tag, "!") && !strings.HasPrefix(tag, "!!")
}
