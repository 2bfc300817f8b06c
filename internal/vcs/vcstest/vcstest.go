// Package vcstest builds throwaway git repositories for tests.
package vcstest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// InitRepo creates a repository in dir with one commit holding README.md
// and .github/workflows/compose.yml, plus the given remotes (name -> URL).
// The local config carries a user so commits work without a global config.
func InitRepo(t *testing.T, dir string, remotes map[string]string) *git.Repository {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	cfg, err := repo.Config()
	require.NoError(t, err)

	cfg.User.Name = "Test Operator"
	cfg.User.Email = "operator@example.com"
	require.NoError(t, repo.SetConfig(cfg))

	WriteFile(t, filepath.Join(dir, "README.md"), "firmware repo\n")
	WriteFile(t, filepath.Join(dir, ".github", "workflows", "compose.yml"), "on: push\n")

	wt, err := repo.Worktree()
	require.NoError(t, err)

	_, err = wt.Add("README.md")
	require.NoError(t, err)

	_, err = wt.Add(".github")
	require.NoError(t, err)

	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test Operator", Email: "operator@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	for name, url := range remotes {
		_, err = repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{url}})
		require.NoError(t, err)
	}

	return repo
}

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t *testing.T, path, contents string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
