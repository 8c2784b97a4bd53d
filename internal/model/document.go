package model

import "fmt"

// RawDefinitionDocument is one parsed definition file: its top-level entries
// plus the repository-relative path it was read from. Immutable once loaded.
type RawDefinitionDocument struct {
	Path    string
	Entries []DocumentEntry
}

// DocumentEntry is a single top-level entry of a definition document.
// Definition files are a sequence of single-key mappings; Kind is that key
// (e.g. "project", "job-template") and Body is the converted mapping.
type DocumentEntry struct {
	Kind string
	Body map[string]interface{}
}

// OpaqueValue stands in for a YAML node whose tag the parser does not
// understand. The file is kept; only the tagged value becomes opaque.
type OpaqueValue struct {
	Tag string
	Raw string
}

func (o OpaqueValue) String() string {
	return fmt.Sprintf("%s %s", o.Tag, o.Raw)
}
