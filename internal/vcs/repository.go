package vcs

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Remote is a configured remote and the URL used to reach it.
type Remote struct {
	// Name is the remote name, e.g. "origin".
	Name string
	// URL is the first configured URL.
	URL string
}

// Signature identifies the author of the staging commit when git config has none.
type Signature struct {
	// Name is the author name.
	Name string
	// Email is the author email.
	Email string
}

// Repository is a git repository opened with go-git.
type Repository struct {
	// repo is the underlying go-git repository.
	repo *git.Repository
	// dir is the worktree root.
	dir string
}

// Open opens the repository whose worktree root is dir.
func Open(dir string) (*Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", dir, err)
	}

	return &Repository{
		repo: repo,
		dir:  dir,
	}, nil
}

// Dir returns the worktree root.
func (r *Repository) Dir() string {
	return r.dir
}

// ResetIndex resets the index to HEAD without touching the worktree.
func (r *Repository) ResetIndex() error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	if err = wt.Reset(&git.ResetOptions{Mode: git.MixedReset}); err != nil {
		return fmt.Errorf("reset index: %w", err)
	}

	return nil
}

// Add stages exactly the given slash-separated paths. Directories are added recursively.
func (r *Repository) Add(paths ...string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	for _, path := range paths {
		if _, err = wt.Add(filepath.ToSlash(path)); err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
	}

	return nil
}

// Commit records the index. The author comes from git config,
// falling back to the provided signature when none is configured.
func (r *Repository) Commit(message string, fallback Signature) (string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("open worktree: %w", err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{})
	if errors.Is(err, git.ErrMissingAuthor) {
		hash, err = wt.Commit(message, &git.CommitOptions{
			Author: &object.Signature{
				Name:  fallback.Name,
				Email: fallback.Email,
				When:  time.Now(),
			},
		})
	}

	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	return hash.String(), nil
}

// Remotes lists the configured remotes ordered by name.
func (r *Repository) Remotes() ([]Remote, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("list remotes: %w", err)
	}

	result := make([]Remote, 0, len(remotes))

	for _, remote := range remotes {
		cfg := remote.Config()
		if len(cfg.URLs) == 0 {
			continue
		}

		result = append(result, Remote{
			Name: cfg.Name,
			URL:  cfg.URLs[0],
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result, nil
}
