package model

// ParamValue is one project-block parameter: a single scalar or a list of
// values forming a multi-valued axis (e.g. several target branches).
type ParamValue struct {
	Values []string
	Multi  bool
}

// Scalar wraps a single-valued parameter.
func Scalar(v string) ParamValue {
	return ParamValue{Values: []string{v}}
}

// List wraps a multi-valued parameter.
func List(vs ...string) ParamValue {
	return ParamValue{Values: vs, Multi: true}
}

// Single returns the scalar value of a single-valued parameter.
func (p ParamValue) Single() string {
	if len(p.Values) == 0 {
		return ""
	}
	return p.Values[0]
}

// ProjectBlock is a declarative entry naming a project, the templates it
// references, and its parameter overrides. Identity is the pair
// (SourcePath, Project): a project may have blocks in more than one file.
type ProjectBlock struct {
	// SourcePath is the definition-repository-relative file path.
	SourcePath string

	// Project is the source-control project identifier.
	Project string

	// Templates are the referenced template names, in declaration order.
	Templates []string

	// Params maps placeholder names to supplied values.
	Params map[string]ParamValue
}
