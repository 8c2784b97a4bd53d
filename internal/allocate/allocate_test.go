package allocate

import (
	"reflect"
	"testing"

	"github.com/sourceplane/jobmap/internal/model"
)

func TestAllocate_ExactMatch(t *testing.T) {
	// Arrange: the documented aai/babel scenario, one expected job plus
	// four unrelated observed names.
	a := New(0)
	expected := []string{"aai-babel-maven-verify-master-mvn36-openjdk17"}
	observed := []string{
		"sdc-backend-docker-merge",
		"aai-babel-maven-verify-master-mvn36-openjdk17",
		"policy-api-sonar",
		"ccsdk-oran-maven-stage",
		"integration-weekly",
	}

	// Act
	result, remaining := a.Allocate("aai/babel", expected, observed)

	// Assert
	if result.Method != model.MethodExact {
		t.Fatalf("expected method exact, got %s", result.Method)
	}
	if got := result.JobNames(); !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %v, got %v", expected, got)
	}
	if len(remaining) != 4 {
		t.Errorf("expected 4 unmatched jobs, got %d: %v", len(remaining), remaining)
	}
	for _, job := range result.Jobs {
		if job.Confidence != 1.0 {
			t.Errorf("exact match should have confidence 1.0, got %f", job.Confidence)
		}
	}
}

func TestAllocate_ExactWithNoHits(t *testing.T) {
	// Arrange: coverage exists but nothing observed matches.
	a := New(0)

	// Act
	result, remaining := a.Allocate("aai/babel", []string{"aai-babel-maven-verify"}, []string{"unrelated-job"})

	// Assert
	if result.Method != model.MethodNone {
		t.Errorf("expected method none, got %s", result.Method)
	}
	if len(remaining) != 1 {
		t.Errorf("expected untouched pool, got %v", remaining)
	}
}

func TestAllocate_FuzzyFallback(t *testing.T) {
	// Arrange: no definition coverage; job names embed the normalized
	// project identifier.
	a := New(0)
	observed := []string{
		"aai-babel-release-verify",
		"totally-different-thing",
		"sdc-frontend-merge",
	}

	// Act
	result, remaining := a.Allocate("aai/babel", nil, observed)

	// Assert
	if result.Method != model.MethodFuzzy {
		t.Fatalf("expected method fuzzy, got %s", result.Method)
	}
	if got := result.JobNames(); !reflect.DeepEqual(got, []string{"aai-babel-release-verify"}) {
		t.Errorf("unexpected fuzzy matches: %v", got)
	}
	if result.Jobs[0].Confidence < a.threshold {
		t.Errorf("accepted match below threshold: %f", result.Jobs[0].Confidence)
	}
	if len(remaining) != 2 {
		t.Errorf("expected 2 jobs left in pool, got %v", remaining)
	}
}

func TestAllocate_FuzzyTokenOverlap(t *testing.T) {
	// Arrange: no exact substring, but the identifier tokens all appear.
	a := New(0)
	observed := []string{"babel-aai-daily-healthcheck"}

	// Act
	result, _ := a.Allocate("aai/babel", nil, observed)

	// Assert
	if result.Method != model.MethodFuzzy {
		t.Fatalf("expected method fuzzy, got %s", result.Method)
	}
}

func TestAllocate_NoCandidates(t *testing.T) {
	// Arrange
	a := New(0)

	// Act
	result, remaining := a.Allocate("aai/babel", nil, []string{"sdc-frontend-merge", "policy-drools-sonar"})

	// Assert
	if result.Method != model.MethodNone {
		t.Errorf("expected method none, got %s", result.Method)
	}
	if len(result.Jobs) != 0 {
		t.Errorf("expected no attributed jobs, got %v", result.Jobs)
	}
	if len(remaining) != 2 {
		t.Errorf("expected full pool back, got %v", remaining)
	}
}

func TestAllocate_ThresholdIsTunable(t *testing.T) {
	// Arrange: an impossibly high threshold rejects everything the
	// heuristic would otherwise accept, except certain substring matches.
	strict := New(0.99)
	loose := New(0.3)
	observed := []string{"babel-nightly"}

	// Act
	strictResult, _ := strict.Allocate("aai/babel", nil, observed)
	looseResult, _ := loose.Allocate("aai/babel", nil, observed)

	// Assert
	if strictResult.Method != model.MethodNone {
		t.Errorf("strict threshold should reject partial match, got %v", strictResult.Jobs)
	}
	if looseResult.Method != model.MethodFuzzy {
		t.Errorf("loose threshold should accept partial match")
	}
}

func TestTokenize(t *testing.T) {
	// Arrange
	cases := []struct {
		in   string
		want []string
	}{
		{"aai/babel", []string{"aai", "babel"}},
		{"aai-babel-maven-verify", []string{"aai", "babel", "maven", "verify"}},
		{"Policy_Drools.sonar", []string{"policy", "drools", "sonar"}},
		{"", nil},
	}

	for _, tc := range cases {
		// Act
		got := tokenize(tc.in)

		// Assert
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("tokenize(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
}
