package model

import (
	"reflect"
	"testing"
)

func TestExtractPlaceholders(t *testing.T) {
	// Arrange
	cases := []struct {
		pattern string
		want    []string
	}{
		{"{project}-maven-verify-{stream}-{mvn}-{jdk}", []string{"project", "stream", "mvn", "jdk"}},
		{"{project}-{project}-daily", []string{"project"}},
		{"static-job-name", nil},
	}

	for _, tc := range cases {
		// Act
		got := ExtractPlaceholders(tc.pattern)

		// Assert
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("ExtractPlaceholders(%q): expected %v, got %v", tc.pattern, tc.want, got)
		}
	}
}

func TestSubstitutePlaceholders_LeavesUnknownTokens(t *testing.T) {
	// Arrange
	params := map[string]string{"project": "aai-babel", "stream": "master"}

	// Act
	got := SubstitutePlaceholders("{project}-verify-{stream}-{jdk}", params)

	// Assert
	if got != "aai-babel-verify-master-{jdk}" {
		t.Errorf("unexpected substitution: %s", got)
	}
}

func TestExpansion_MatchableExcludesUnresolved(t *testing.T) {
	// Arrange
	e := &Expansion{
		Project: "aai/babel",
		Jobs: []ExpandedJobName{
			{Name: "aai-babel-verify-master", Template: "verify"},
			{Name: "aai-babel-verify-{jdk}", Template: "verify", Unresolved: true},
		},
	}

	// Act & Assert
	if got := e.Matchable(); !reflect.DeepEqual(got, []string{"aai-babel-verify-master"}) {
		t.Errorf("unexpected matchable set: %v", got)
	}
	if got := e.Unresolved(); len(got) != 1 || got[0].Name != "aai-babel-verify-{jdk}" {
		t.Errorf("unexpected unresolved set: %v", got)
	}
}

func TestExpansion_MergeDeduplicates(t *testing.T) {
	// Arrange
	a := &Expansion{Jobs: []ExpandedJobName{{Name: "x"}, {Name: "y"}}}
	b := &Expansion{Jobs: []ExpandedJobName{{Name: "y"}, {Name: "z"}}}

	// Act
	a.Merge(b)

	// Assert
	var names []string
	for _, j := range a.Jobs {
		names = append(names, j.Name)
	}
	if !reflect.DeepEqual(names, []string{"x", "y", "z"}) {
		t.Errorf("unexpected merged jobs: %v", names)
	}
}

func TestNormalizeProjectID(t *testing.T) {
	// Arrange
	cases := map[string]string{
		"aai/babel":   "aai-babel",
		"AAI/Sparky":  "aai-sparky",
		"/sdc/sdc/":   "sdc-sdc",
		"standalone":  "standalone",
	}

	for in, want := range cases {
		// Act & Assert
		if got := NormalizeProjectID(in); got != want {
			t.Errorf("NormalizeProjectID(%q): expected %q, got %q", in, want, got)
		}
	}
}
