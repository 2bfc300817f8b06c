package vcs

import (
	"context"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/superbinary-trigger/internal/vcs/vcstest"
)

// TestRepository_StageAndCommit adds exactly the listed paths on top of HEAD.
func TestRepository_StageAndCommit(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	raw := vcstest.InitRepo(t, dir, map[string]string{
		"origin": "https://github.com/nrfconnect/sdk-nrf",
		"fork":   "git@github.com:someone/sdk-nrf.git",
	})

	vcstest.WriteFile(t, filepath.Join(dir, "stage", "app.bin"), "image")
	vcstest.WriteFile(t, filepath.Join(dir, "unrelated.txt"), "noise")

	repo, err := Open(dir)
	require.NoError(t, err)
	require.Equal(t, dir, repo.Dir())

	require.NoError(t, repo.ResetIndex())
	require.NoError(t, repo.Add("stage/app.bin"))

	hash, err := repo.Commit("TEMP: staging", Signature{Name: "fallback", Email: "fallback@localhost"})
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	head, err := raw.Head()
	require.NoError(t, err)

	commit, err := raw.CommitObject(head.Hash())
	require.NoError(t, err)
	require.Equal(t, "TEMP: staging", commit.Message)
	require.Equal(t, "Test Operator", commit.Author.Name)

	tree, err := commit.Tree()
	require.NoError(t, err)

	_, err = tree.File("stage/app.bin")
	require.NoError(t, err)

	_, err = tree.File("README.md")
	require.NoError(t, err, "files from HEAD must survive")

	_, err = tree.File("unrelated.txt")
	require.ErrorIs(t, err, object.ErrFileNotFound)

	remotes, err := repo.Remotes()
	require.NoError(t, err)
	require.Equal(t, []Remote{
		{Name: "fork", URL: "git@github.com:someone/sdk-nrf.git"},
		{Name: "origin", URL: "https://github.com/nrfconnect/sdk-nrf"},
	}, remotes)
}

// TestOpen_NotARepository surfaces the go-git error.
func TestOpen_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir())
	require.ErrorIs(t, err, git.ErrRepositoryNotExists)
}

type recordingRunner struct {
	calls [][]string
}

func (r *recordingRunner) Run(_ context.Context, dir, name string, args ...string) error {
	r.calls = append(r.calls, append([]string{dir, name}, args...))

	return nil
}

// TestPusher builds the push and delete command lines.
func TestPusher(t *testing.T) {
	t.Parallel()

	runner := new(recordingRunner)
	pusher := NewPusher(runner)

	require.NoError(t, pusher.ForcePush(context.Background(), "/scratch", "fork", "temp-compose-superbinary-now"))
	require.NoError(t, pusher.DeleteBranch(context.Background(), "/work", "origin", "temp-compose-superbinary-now"))

	require.Equal(t, [][]string{
		{"/scratch", "git", "push", "--force", "fork", "HEAD:temp-compose-superbinary-now"},
		{"/work", "git", "push", "origin", "--delete", "temp-compose-superbinary-now"},
	}, runner.calls)
}
