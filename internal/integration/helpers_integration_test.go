package integration

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/superbinary-trigger/internal/service/common"
)

// fakePackager produces the files the real packaging tool would and prints a hash line.
const fakePackager = `#!/bin/sh
printf 'uarp' > SuperBinary.uarp
printf '<plist version="1.0"><dict/></plist>' > MetaData.plist
echo "SHA256 SuperBinary.uarp deadbeef"
`

// requireTools skips the test when the external binaries the flow shells out to are missing.
func requireTools(t *testing.T, names ...string) {
	t.Helper()

	for _, name := range names {
		if _, err := exec.LookPath(name); err != nil {
			t.Skipf("%s is not available: %v", name, err)
		}
	}
}

// newBareRemote creates an empty bare repository acting as the CI-side remote.
func newBareRemote(t *testing.T) (string, *git.Repository) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "remote.git")

	repo, err := git.PlainInit(dir, true)
	require.NoError(t, err)

	return dir, repo
}

// writePackager stores the fake packaging tool outside any artifact directory.
func writePackager(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ncsfmntools.sh")
	require.NoError(t, os.WriteFile(path, []byte(fakePackager), 0o755))

	return path
}

// cloneBranch checks out branch of remote into a fresh directory, like the CI checkout step does.
func cloneBranch(ctx context.Context, t *testing.T, remote, branch string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "checkout")
	runner := common.NewExecRunner()

	require.NoError(t, runner.Run(ctx, "", "git", "clone", "--branch", branch, remote, dir))

	return dir
}
