package vcs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DotGit is the directory that marks a repository root.
const DotGit = ".git"

// ErrRepositoryNotFound is returned when no repository root is found within the search bound.
var ErrRepositoryNotFound = errors.New("cannot find git repository that the artifacts belong to")

// FindRoot walks from start towards the filesystem root and returns the first
// directory containing a .git directory. At most maxDepth directories are probed,
// start included.
func FindRoot(start string, maxDepth int) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}

	for i := 0; i < maxDepth; i++ {
		info, err := os.Stat(filepath.Join(dir, DotGit))
		if err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	return "", fmt.Errorf("%w (searched %d levels up from %s)", ErrRepositoryNotFound, maxDepth, start)
}
