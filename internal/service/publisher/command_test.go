package publisher

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/superbinary-trigger/internal/config"
	"github.com/oshokin/superbinary-trigger/internal/prompt"
	"github.com/oshokin/superbinary-trigger/internal/vcs"
	"github.com/oshokin/superbinary-trigger/internal/vcs/vcstest"
)

const fakeBinary = "#!/bin/sh\necho superbinary-trigger\n"

var errPushRejected = errors.New("push rejected")

// pushRecorder stands in for the git CLI and captures what would have been pushed.
type pushRecorder struct {
	t *testing.T
	// fail makes every push fail.
	fail bool
	// args is the last push command line.
	args []string
	// dir is the scratch repository the push ran in.
	dir string
	// message, files and contents describe the HEAD commit at push time.
	message  string
	files    []string
	contents map[string]string
}

func (r *pushRecorder) Run(_ context.Context, dir, _ string, args ...string) error {
	r.t.Helper()

	r.dir = dir
	r.args = args
	r.contents = make(map[string]string)

	repo, err := git.PlainOpen(dir)
	require.NoError(r.t, err)

	head, err := repo.Head()
	require.NoError(r.t, err)

	commit, err := repo.CommitObject(head.Hash())
	require.NoError(r.t, err)

	r.message = commit.Message

	files, err := commit.Files()
	require.NoError(r.t, err)

	require.NoError(r.t, files.ForEach(func(f *object.File) error {
		r.files = append(r.files, f.Name)

		contents, err := f.Contents()
		r.contents[f.Name] = contents

		return err
	}))

	sort.Strings(r.files)

	if r.fail {
		return errPushRejected
	}

	return nil
}

func (r *pushRecorder) CombinedOutput(ctx context.Context, dir, name string, args ...string) (string, error) {
	return "", r.Run(ctx, dir, name, args...)
}

// failingChooser fails the test when a prompt is shown.
type failingChooser struct {
	t *testing.T
}

func (c failingChooser) Choose(context.Context, string, []prompt.Option) (int, error) {
	c.t.Helper()
	c.t.Fatal("chooser must not be called")

	return 0, nil
}

// setupRepo creates a repository with the given remotes and an artifact
// directory at the default stage path, returning the artifact directory.
func setupRepo(t *testing.T, remotes map[string]string) string {
	t.Helper()

	root := t.TempDir()
	vcstest.InitRepo(t, root, remotes)

	dir := filepath.Join(root, filepath.FromSlash(config.DefaultStagePath))
	vcstest.WriteFile(t, filepath.Join(dir, "app_update.bin"), "image")
	vcstest.WriteFile(t, filepath.Join(dir, "mfigr2"), "tool")
	vcstest.WriteFile(t, filepath.Join(dir, "MetaData.plist"), "<plist/>")
	vcstest.WriteFile(t, filepath.Join(dir, "release_notes", "notes.md"), "fixes")
	vcstest.WriteFile(t, filepath.Join(dir, config.DefaultTemplateFile), "<plist>{bin_file}</plist>")
	vcstest.WriteFile(t, filepath.Join(dir, "README.rst"), "how to")

	return dir
}

// fakeExecutable writes a small stand-in for the tool binary outside the repository.
func fakeExecutable(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "superbinary-trigger-build")
	require.NoError(t, os.WriteFile(path, []byte(fakeBinary), 0o755))

	return path
}

// TestRun_SingleEligibleRemote stages every artifact plus the tool and pushes
// to the only allowed remote without asking.
func TestRun_SingleEligibleRemote(t *testing.T) {
	t.Parallel()

	dir := setupRepo(t, map[string]string{
		"origin": "https://github.com/nrfconnect/sdk-nrf.git",
		"fork":   "git@github.com:someone/sdk-nrf.git",
	})

	runner := &pushRecorder{t: t}

	var out bytes.Buffer

	err := Run(context.Background(), &Options{
		Dir:        dir,
		Chooser:    failingChooser{t: t},
		Runner:     runner,
		Stdout:     &out,
		Executable: fakeExecutable(t),
	})
	require.NoError(t, err)

	require.Equal(t, []string{"push", "--force", "fork", "HEAD:" + config.DefaultBranch}, runner.args)
	require.Equal(t, config.DefaultCommitMessage, strings.TrimSpace(runner.message))

	stage := config.DefaultStagePath + "/"
	require.Equal(t, []string{
		".github/workflows/compose.yml",
		"README.md",
		stage + "MetaData.plist",
		stage + config.DefaultTemplateFile,
		stage + "app_update.bin",
		stage + "mfigr2",
		stage + "release_notes/notes.md",
		stage + ExecutableName,
	}, runner.files)
	require.Equal(t, fakeBinary, runner.contents[stage+ExecutableName])

	require.Contains(t, out.String(), "app_update.bin")
	require.NoDirExists(t, runner.dir)
	require.NoFileExists(t, filepath.Join(dir, ".superbinary-trigger.pid"))
}

// TestRun_StagesLoadedSettings carries a settings file from outside the artifact
// directory to the CI side under the default name.
func TestRun_StagesLoadedSettings(t *testing.T) {
	t.Parallel()

	dir := setupRepo(t, map[string]string{
		"fork": "https://example.com/fork/fw.git",
	})

	settings := filepath.Join(t.TempDir(), "ci-settings.yaml")
	require.NoError(t, config.Save(settings, &config.Config{
		PackagerCommand: []string{"python3", "../../../ncsfmntools"},
	}))

	runner := &pushRecorder{t: t}

	err := Run(context.Background(), &Options{
		ConfigPath: settings,
		Dir:        dir,
		Runner:     runner,
		Stdout:     new(bytes.Buffer),
		Executable: fakeExecutable(t),
	})
	require.NoError(t, err)

	staged := config.DefaultStagePath + "/" + config.DefaultConfigFilename
	require.Contains(t, runner.files, staged)
	require.Contains(t, runner.contents[staged], "../../../ncsfmntools")
}

// TestRun_ChoosesAmongSeveralRemotes shows the menu when more than one remote is allowed.
func TestRun_ChoosesAmongSeveralRemotes(t *testing.T) {
	t.Parallel()

	dir := setupRepo(t, map[string]string{
		"alpha": "https://example.com/alpha/fw.git",
		"beta":  "https://example.com/beta/fw.git",
	})

	runner := &pushRecorder{t: t}

	var menu bytes.Buffer

	err := Run(context.Background(), &Options{
		Dir:        dir,
		Chooser:    prompt.NewScripted(strings.NewReader("2\n"), &menu),
		Runner:     runner,
		Stdout:     new(bytes.Buffer),
		Executable: fakeExecutable(t),
	})
	require.NoError(t, err)

	require.Equal(t, "beta", runner.args[2])
	require.Contains(t, menu.String(), ChooseRemoteTitle)
}

// TestRun_PreselectedRemote skips the menu and validates the name.
func TestRun_PreselectedRemote(t *testing.T) {
	t.Parallel()

	dir := setupRepo(t, map[string]string{
		"alpha": "https://example.com/alpha/fw.git",
		"beta":  "https://example.com/beta/fw.git",
	})
	executable := fakeExecutable(t)

	runner := &pushRecorder{t: t}

	err := Run(context.Background(), &Options{
		Dir:        dir,
		Remote:     "alpha",
		Runner:     runner,
		Stdout:     new(bytes.Buffer),
		Executable: executable,
	})
	require.NoError(t, err)
	require.Equal(t, "alpha", runner.args[2])

	err = Run(context.Background(), &Options{
		Dir:        dir,
		Remote:     "gamma",
		Runner:     &pushRecorder{t: t},
		Stdout:     new(bytes.Buffer),
		Executable: executable,
	})
	require.ErrorIs(t, err, prompt.ErrInvalidSelection)
}

// TestRun_NoEligibleRemote refuses to push when every remote is forbidden.
func TestRun_NoEligibleRemote(t *testing.T) {
	t.Parallel()

	dir := setupRepo(t, map[string]string{
		"origin": "https://github.com/nrfconnect/sdk-nrf",
	})

	err := Run(context.Background(), &Options{
		Dir:        dir,
		Chooser:    failingChooser{t: t},
		Runner:     &pushRecorder{t: t},
		Stdout:     new(bytes.Buffer),
		Executable: fakeExecutable(t),
	})
	require.ErrorIs(t, err, vcs.ErrNoEligibleRemote)
}

// TestRun_FailedPushKeepsScratch leaves the scratch repository for inspection.
func TestRun_FailedPushKeepsScratch(t *testing.T) {
	t.Parallel()

	dir := setupRepo(t, map[string]string{
		"fork": "https://example.com/fork/fw.git",
	})

	runner := &pushRecorder{t: t, fail: true}

	err := Run(context.Background(), &Options{
		Dir:        dir,
		Runner:     runner,
		Stdout:     new(bytes.Buffer),
		Executable: fakeExecutable(t),
	})
	require.ErrorIs(t, err, errPushRejected)
	require.DirExists(t, runner.dir)

	t.Cleanup(func() {
		require.NoError(t, os.RemoveAll(runner.dir))
	})
}

// TestRun_ClassificationFailure stops before anything is staged.
func TestRun_ClassificationFailure(t *testing.T) {
	t.Parallel()

	dir := setupRepo(t, map[string]string{
		"fork": "https://example.com/fork/fw.git",
	})
	vcstest.WriteFile(t, filepath.Join(dir, "unexpected.hex"), "?")

	runner := &pushRecorder{t: t}

	err := Run(context.Background(), &Options{
		Dir:        dir,
		Runner:     runner,
		Stdout:     new(bytes.Buffer),
		Executable: fakeExecutable(t),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected.hex")
	require.Nil(t, runner.args)
}
