package gitcache

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

// newOriginRepo creates a local git repository to clone from and returns
// its path and branch name.
func newOriginRepo(t *testing.T) (string, string) {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	mustGit(t, dir, "init")
	if err := os.WriteFile(filepath.Join(dir, "babel.yaml"), []byte("- project:\n    name: aai-babel\n    jobs: [verify]\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	mustGit(t, dir, "add", ".")
	mustGit(t, dir, "-c", "user.email=jobmap@test", "-c", "user.name=jobmap", "commit", "-m", "initial")

	branch, err := runGit(context.Background(), dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		t.Fatalf("failed to read branch: %v", err)
	}
	return dir, branch
}

func mustGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	if _, err := runGit(context.Background(), dir, args...); err != nil {
		t.Fatalf("git %v failed: %v", args, err)
	}
}

func TestEnsure_ClonesOnFirstUse(t *testing.T) {
	// Arrange
	origin, branch := newOriginRepo(t)
	cache := New(t.TempDir(), time.Hour)

	// Act
	path, err := cache.Ensure(context.Background(), origin, branch)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(path, "babel.yaml")); statErr != nil {
		t.Errorf("expected cloned file present: %v", statErr)
	}
}

func TestEnsure_SecondCallUsesCache(t *testing.T) {
	// Arrange
	origin, branch := newOriginRepo(t)
	cache := New(t.TempDir(), time.Hour)

	first, err := cache.Ensure(context.Background(), origin, branch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Act
	second, err := cache.Ensure(context.Background(), origin, branch)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("expected stable cache path, got %s and %s", first, second)
	}
}

func TestEnsure_StaleCopyFastForwards(t *testing.T) {
	// Arrange: zero staleness re-checks on every run.
	origin, branch := newOriginRepo(t)
	cache := New(t.TempDir(), 0)

	path, err := cache.Ensure(context.Background(), origin, branch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.WriteFile(filepath.Join(origin, "sdc.yaml"), []byte("- project:\n    name: sdc\n    jobs: [merge]\n"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	mustGit(t, origin, "add", ".")
	mustGit(t, origin, "-c", "user.email=jobmap@test", "-c", "user.name=jobmap", "commit", "-m", "add sdc")

	// Act
	updated, err := cache.Ensure(context.Background(), origin, branch)

	// Assert
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated != path {
		t.Errorf("expected same path, got %s", updated)
	}
	if _, statErr := os.Stat(filepath.Join(updated, "sdc.yaml")); statErr != nil {
		t.Errorf("expected fast-forwarded file present: %v", statErr)
	}
}

func TestEnsure_FailedUpdateKeepsLastGoodCopy(t *testing.T) {
	// Arrange: clone, then make the remote unreachable.
	origin, branch := newOriginRepo(t)
	cache := New(t.TempDir(), 0)

	path, err := cache.Ensure(context.Background(), origin, branch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.RemoveAll(origin); err != nil {
		t.Fatalf("failed to remove origin: %v", err)
	}

	// Act
	fallback, err := cache.Ensure(context.Background(), origin, branch)

	// Assert: the prior copy is served untouched.
	if err != nil {
		t.Fatalf("expected fallback to last good copy, got %v", err)
	}
	if fallback != path {
		t.Errorf("expected prior path, got %s", fallback)
	}
	if _, statErr := os.Stat(filepath.Join(fallback, "babel.yaml")); statErr != nil {
		t.Errorf("prior copy must stay intact: %v", statErr)
	}
}

func TestEnsure_UnreachableWithoutCopyFails(t *testing.T) {
	// Arrange
	cache := New(t.TempDir(), 0)

	// Act
	_, err := cache.Ensure(context.Background(), filepath.Join(t.TempDir(), "missing"), "master")

	// Assert
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestEnsure_CorruptCopyRecloned(t *testing.T) {
	// Arrange: destroy the git metadata of the cached copy.
	origin, branch := newOriginRepo(t)
	cache := New(t.TempDir(), time.Hour)

	path, err := cache.Ensure(context.Background(), origin, branch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.RemoveAll(filepath.Join(path, ".git")); err != nil {
		t.Fatalf("failed to corrupt copy: %v", err)
	}

	// Act
	recloned, err := cache.Ensure(context.Background(), origin, branch)

	// Assert
	if err != nil {
		t.Fatalf("expected transparent re-clone, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(recloned, ".git")); statErr != nil {
		t.Errorf("expected healthy repository after re-clone: %v", statErr)
	}
}

func TestEnsure_EmptyInputsRejected(t *testing.T) {
	// Arrange
	cache := New(t.TempDir(), 0)

	// Act & Assert
	if _, err := cache.Ensure(context.Background(), "", "master"); err == nil {
		t.Error("expected error for empty url")
	}
	if _, err := cache.Ensure(context.Background(), "https://example.org/repo.git", ""); err == nil {
		t.Error("expected error for empty branch")
	}
}

func TestLocalName_Distinguishes(t *testing.T) {
	// Arrange & Act
	a := localName("https://gerrit.example.org/r/ci-management.git", "master")
	b := localName("https://gerrit.example.org/r/ci-management.git", "stable")
	c := localName("https://gerrit.example.org/r/global-jjb.git", "master")

	// Assert: identity is the (url, branch) pair.
	if a == b || a == c {
		t.Errorf("cache names must be distinct: %s %s %s", a, b, c)
	}
	if filepath.Base(a) != a {
		t.Errorf("cache name must be a single path element: %s", a)
	}
}
