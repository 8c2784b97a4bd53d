package gitcache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUnavailable means the remote could not be reached and no usable
	// local copy exists.
	ErrUnavailable = errors.New("repository unavailable")

	// ErrCorrupt means the local copy was unreadable and could not be
	// restored by a re-clone.
	ErrCorrupt = errors.New("repository corrupt")
)

// lockStaleAfter is how old an advisory lock file may be before it is
// considered abandoned and taken over.
const lockStaleAfter = 10 * time.Minute

// Cache clones and updates definition repositories under a cache directory.
// It is the only component touching the network or filesystem for source
// control. The cache survives across runs and is never deleted
// automatically.
type Cache struct {
	dir       string
	staleness time.Duration
}

// New creates a cache rooted at dir. A repository older than staleness is
// fast-forwarded on the next Ensure; zero means re-check every run.
func New(dir string, staleness time.Duration) *Cache {
	return &Cache{dir: dir, staleness: staleness}
}

// Ensure returns the local path of an up-to-date copy of the repository.
//
// The first request for a (url, branch) pair performs a shallow clone; later
// requests fast-forward the copy when it is stale. A failed update never
// disturbs the existing copy: the last good state is returned instead. A
// corrupt copy triggers one transparent full re-clone. Cancellation via ctx
// kills the git subprocess and leaves the cache in its last-known-good
// state.
func (c *Cache) Ensure(ctx context.Context, url, branch string) (string, error) {
	return c.ensure(ctx, url, branch, false)
}

// Refresh is Ensure with the staleness check bypassed.
func (c *Cache) Refresh(ctx context.Context, url, branch string) (string, error) {
	return c.ensure(ctx, url, branch, true)
}

func (c *Cache) ensure(ctx context.Context, url, branch string, force bool) (string, error) {
	if url == "" {
		return "", fmt.Errorf("repository url must not be empty")
	}
	if branch == "" {
		return "", fmt.Errorf("repository branch must not be empty")
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(c.dir, localName(url, branch))

	// Two concurrent resolutions for the same (url, branch) must not race
	// a clone/update.
	lock, err := acquireLock(ctx, path+".lock")
	if err != nil {
		return "", err
	}
	defer lock.release()

	if !exists(path) {
		if err := c.cloneFresh(ctx, url, branch, path); err != nil {
			return "", fmt.Errorf("clone %s@%s: %w: %v", url, branch, ErrUnavailable, err)
		}
		c.touchStamp(path)
		return path, nil
	}

	if !c.isHealthy(ctx, path) {
		if err := c.cloneFresh(ctx, url, branch, path); err != nil {
			return "", fmt.Errorf("re-clone %s@%s: %w: %v", url, branch, ErrCorrupt, err)
		}
		c.touchStamp(path)
		return path, nil
	}

	if !force && !c.isStale(path) {
		return path, nil
	}

	if err := c.update(ctx, path, branch); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Update failed but the prior copy is intact; fall back to the
		// last good state.
		return path, nil
	}
	c.touchStamp(path)
	return path, nil
}

// cloneFresh shallow-clones into a scratch directory and swaps it into place
// so the cache path only ever holds a complete clone.
func (c *Cache) cloneFresh(ctx context.Context, url, branch, path string) error {
	scratch := path + ".cloning"
	if err := os.RemoveAll(scratch); err != nil {
		return fmt.Errorf("failed to clear scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	if _, err := runGit(ctx, "", "clone", "--depth", "1", "--single-branch", "--branch", branch, url, scratch); err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to replace old copy: %w", err)
	}
	if err := os.Rename(scratch, path); err != nil {
		return fmt.Errorf("failed to move clone into place: %w", err)
	}
	return nil
}

// update fast-forwards the copy. The fetch does all the network work, so a
// failure here leaves the worktree untouched.
func (c *Cache) update(ctx context.Context, path, branch string) error {
	if _, err := runGit(ctx, path, "fetch", "--depth", "1", "origin", branch); err != nil {
		return err
	}
	if _, err := runGit(ctx, path, "reset", "--hard", "FETCH_HEAD"); err != nil {
		return err
	}
	return nil
}

// isHealthy reports whether the local copy is a readable git repository.
func (c *Cache) isHealthy(ctx context.Context, path string) bool {
	_, err := runGit(ctx, path, "rev-parse", "--git-dir")
	return err == nil
}

func (c *Cache) isStale(path string) bool {
	if c.staleness <= 0 {
		return true
	}
	info, err := os.Stat(path + ".stamp")
	if err != nil {
		return true
	}
	return time.Since(info.ModTime()) > c.staleness
}

func (c *Cache) touchStamp(path string) {
	now := time.Now()
	stamp := path + ".stamp"
	if err := os.Chtimes(stamp, now, now); err != nil {
		_ = os.WriteFile(stamp, nil, 0o644)
	}
}

// localName derives a filesystem-safe cache entry name from a (url, branch)
// identity.
func localName(url, branch string) string {
	name := url
	if idx := strings.Index(name, "://"); idx >= 0 {
		name = name[idx+3:]
	}
	name = strings.TrimSuffix(name, ".git")
	replacer := strings.NewReplacer("/", "-", ":", "-", "@", "-", "\\", "-")
	return replacer.Replace(name) + "@" + replacer.Replace(branch)
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	if dir != "" {
		args = append([]string{"-C", dir}, args...)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %v: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

// fileLock is an advisory lock taken by exclusively creating a lock file.
// Abandoned locks older than lockStaleAfter are taken over.
type fileLock struct {
	path string
}

func acquireLock(ctx context.Context, path string) (*fileLock, error) {
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			f.Close()
			return &fileLock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to take cache lock %s: %w", path, err)
		}

		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			os.Remove(path)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (l *fileLock) release() {
	os.Remove(l.path)
}
