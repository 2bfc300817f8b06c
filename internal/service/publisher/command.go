package publisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/oshokin/superbinary-trigger/internal/config"
	"github.com/oshokin/superbinary-trigger/internal/domain/artifact"
	"github.com/oshokin/superbinary-trigger/internal/logger"
	"github.com/oshokin/superbinary-trigger/internal/prompt"
	"github.com/oshokin/superbinary-trigger/internal/service/common"
	"github.com/oshokin/superbinary-trigger/internal/vcs"
	"github.com/oshokin/superbinary-trigger/internal/workspace"
)

// ChooseRemoteTitle is printed above the remote menu.
const ChooseRemoteTitle = "More than one repo available. Choose one:"

// ExecutableName is the name the tool is staged under, so the CI workflow can run it.
const ExecutableName = "superbinary-trigger"

// scratchPattern names the temporary repository copy.
const scratchPattern = "superbinary-trigger-"

// errMissingTemplate indicates that neither a manifest nor its template is available.
var errMissingTemplate = errors.New("manifest template is missing and no manifest was supplied")

// Options contains inputs for the publish entry point.
type Options struct {
	// ConfigPath is an optional path to the settings file (defaults to superbinary-trigger.yaml).
	ConfigPath string
	// Dir is the artifact directory. Defaults to the working directory.
	Dir string
	// Remote preselects a remote by name instead of asking.
	Remote string
	// Chooser asks which remote to push to. Defaults to the terminal menu.
	Chooser prompt.Chooser
	// Runner executes git. Defaults to common.NewExecRunner.
	Runner common.Runner
	// Stdout receives the artifact summary. Defaults to os.Stdout.
	Stdout io.Writer
	// Executable is the tool binary staged for the CI side. Defaults to the running executable.
	Executable string
}

// stagedFile is one file copied into the stage directory.
type stagedFile struct {
	// dir and name locate the source.
	dir  string
	name string
	// target is the name inside the stage directory.
	target string
}

// publisher holds everything a single publish run needs.
// It is unexported; callers should use Run.
type publisher struct {
	// cfg is the validated settings.
	cfg *config.Config
	// set is the classified artifact directory.
	set artifact.Set
	// chooser picks a remote when several are eligible.
	chooser prompt.Chooser
	// pusher performs the force push.
	pusher *vcs.Pusher
	// configPath is the settings file that was loaded. It may not exist.
	configPath string
	// executable is the resolved tool binary.
	executable string
}

// Run classifies the artifact directory, stages it and pushes the trigger branch.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "publisher")

	pub, err := newPublisher(ctx, opts)
	if err != nil {
		return err
	}

	marker, err := common.AcquireMarker(ctx, pub.set.Dir)
	if err != nil {
		return err
	}

	defer marker.Release(ctx)

	if err = pub.Run(ctx); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	logger.InfoKV(ctx, "Trigger branch pushed, composing will start on the CI side", "branch", pub.cfg.Branch)

	return nil
}

// newPublisher loads the settings, classifies the artifacts and prints their summary.
func newPublisher(ctx context.Context, opts *Options) (*publisher, error) {
	dir, err := filepath.Abs(valueOr(opts.Dir, "."))
	if err != nil {
		return nil, fmt.Errorf("resolve artifact directory: %w", err)
	}

	configPath := config.ResolvePath(opts.ConfigPath, dir)

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	executable, err := resolveExecutable(opts.Executable)
	if err != nil {
		return nil, err
	}

	set, err := artifact.NewClassifier(cfg.PassthroughPatterns()...).Classify(ctx, dir)
	if err != nil {
		return nil, err
	}

	out := opts.Stdout
	if out == nil {
		out = os.Stdout
	}

	if err = set.WriteSummary(out); err != nil {
		return nil, fmt.Errorf("print summary: %w", err)
	}

	runner := opts.Runner
	if runner == nil {
		runner = common.NewExecRunner()
	}

	chooser := opts.Chooser

	switch {
	case opts.Remote != "":
		chooser = prompt.NewFixed(opts.Remote)
	case chooser == nil:
		chooser = prompt.NewTerminal()
	}

	return &publisher{
		cfg:        cfg,
		set:        set,
		chooser:    chooser,
		pusher:     vcs.NewPusher(runner),
		configPath: configPath,
		executable: executable,
	}, nil
}

// resolveExecutable returns the real path of the tool binary to stage.
func resolveExecutable(name string) (string, error) {
	if name == "" {
		self, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("locate running executable: %w", err)
		}

		name = self
	}

	resolved, err := filepath.EvalSymlinks(name)
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}

	return resolved, nil
}

// Run stages the artifacts in a scratch copy of the repository and pushes it.
// The scratch copy is removed only when the push succeeded.
func (p *publisher) Run(ctx context.Context) error {
	root, err := vcs.FindRoot(p.set.Dir, p.cfg.MaxRootDepth)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Source repository found", "root", root)

	scratch, err := workspace.NewTemp(scratchPattern)
	if err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "scratch", scratch.Root())

	if err = p.stageAndPush(ctx, root, scratch); err != nil {
		logger.Warn(ctx, "Scratch repository is left in place for inspection")

		return err
	}

	if err = scratch.Remove(); err != nil {
		logger.WarnKV(ctx, "Unable to remove scratch repository", "error", err)
	}

	return nil
}

// stageAndPush copies the repository metadata and the artifacts into scratch,
// commits them and force-pushes the result to the selected remote.
func (p *publisher) stageAndPush(ctx context.Context, root string, scratch *workspace.Workspace) error {
	logger.Info(ctx, "Copying repository metadata")

	if err := scratch.Import(root, vcs.DotGit, vcs.DotGit); err != nil {
		return err
	}

	repo, err := vcs.Open(scratch.Root())
	if err != nil {
		return err
	}

	if err = repo.ResetIndex(); err != nil {
		return err
	}

	staged, err := p.stage(ctx, root, scratch)
	if err != nil {
		return err
	}

	if err = repo.Add(staged...); err != nil {
		return err
	}

	hash, err := repo.Commit(p.cfg.CommitMessage, vcs.Signature{
		Name:  p.cfg.CommitAuthorName,
		Email: p.cfg.CommitAuthorEmail,
	})
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Staging commit created", "commit", hash, "paths", len(staged))

	remote, err := p.selectRemote(ctx, repo)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Pushing trigger branch", "remote", remote.Name, "url", remote.URL, "branch", p.cfg.Branch)

	return p.pusher.ForcePush(ctx, scratch.Root(), remote.Name, p.cfg.Branch)
}

// stage copies the workflow definitions, the auxiliary files and the artifacts,
// returning the slash-separated paths to add.
func (p *publisher) stage(ctx context.Context, root string, scratch *workspace.Workspace) ([]string, error) {
	var staged []string

	workflowDir := p.cfg.WorkflowDir
	if _, err := os.Stat(filepath.Join(root, workflowDir)); err == nil {
		if err = scratch.Import(root, workflowDir, workflowDir); err != nil {
			return nil, err
		}

		staged = append(staged, filepath.ToSlash(workflowDir))
	} else {
		logger.WarnKV(ctx, "Source repository has no workflow directory, the CI side may not react",
			"path", workflowDir)
	}

	if err := scratch.MkdirAll(p.cfg.StagePath); err != nil {
		return nil, fmt.Errorf("create stage directory: %w", err)
	}

	files, err := p.auxiliaryFiles()
	if err != nil {
		return nil, err
	}

	for _, name := range p.set.Files() {
		files = append(files, stagedFile{dir: p.set.Dir, name: name, target: name})
	}

	for _, file := range files {
		target := path.Join(p.cfg.StagePath, file.target)

		logger.DebugKV(ctx, "Staging file", "source", filepath.Join(file.dir, file.name), "target", target)

		if err = scratch.Import(file.dir, file.name, target); err != nil {
			return nil, err
		}

		staged = append(staged, target)
	}

	return staged, nil
}

// auxiliaryFiles returns the files the CI side needs besides the artifacts:
// the tool itself, the manifest template and the loaded settings file.
func (p *publisher) auxiliaryFiles() ([]stagedFile, error) {
	files := []stagedFile{{
		dir:    filepath.Dir(p.executable),
		name:   filepath.Base(p.executable),
		target: ExecutableName,
	}}

	if _, err := os.Stat(filepath.Join(p.set.Dir, p.cfg.TemplateFile)); err == nil {
		files = append(files, stagedFile{dir: p.set.Dir, name: p.cfg.TemplateFile, target: p.cfg.TemplateFile})
	} else if !p.set.HasManifest() {
		return nil, fmt.Errorf("%s: %w", p.cfg.TemplateFile, errMissingTemplate)
	}

	settings, err := filepath.Abs(p.configPath)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}

	// The CI side looks for the default name next to the artifacts.
	if _, err = os.Stat(settings); err == nil {
		files = append(files, stagedFile{
			dir:    filepath.Dir(settings),
			name:   filepath.Base(settings),
			target: config.DefaultConfigFilename,
		})
	}

	return files, nil
}

// selectRemote drops forbidden remotes and picks one of the rest.
// A single eligible remote is used without asking.
func (p *publisher) selectRemote(ctx context.Context, repo *vcs.Repository) (vcs.Remote, error) {
	remotes, err := repo.Remotes()
	if err != nil {
		return vcs.Remote{}, err
	}

	eligible := vcs.EligibleRemotes(remotes, p.cfg.ForbiddenPatterns())

	logger.DebugKV(ctx, "Remotes resolved", "total", len(remotes), "eligible", len(eligible))

	switch len(eligible) {
	case 0:
		return vcs.Remote{}, vcs.ErrNoEligibleRemote
	case 1:
		if _, fixed := p.chooser.(*prompt.Fixed); !fixed {
			return eligible[0], nil
		}
	}

	options := make([]prompt.Option, 0, len(eligible))
	for _, remote := range eligible {
		options = append(options, prompt.Option{Label: remote.Name, Detail: remote.URL})
	}

	picked, err := p.chooser.Choose(ctx, ChooseRemoteTitle, options)
	if err != nil {
		return vcs.Remote{}, fmt.Errorf("choose remote: %w", err)
	}

	return eligible[picked], nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
