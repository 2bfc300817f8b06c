package composer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/superbinary-trigger/internal/config"
	"github.com/oshokin/superbinary-trigger/internal/domain/artifact"
	"github.com/oshokin/superbinary-trigger/internal/logger"
	"github.com/oshokin/superbinary-trigger/internal/manifest"
	"github.com/oshokin/superbinary-trigger/internal/service/common"
	"github.com/oshokin/superbinary-trigger/internal/vcs"
	"github.com/oshokin/superbinary-trigger/internal/workspace"
)

// ExecutableFileMode is applied to the packaging tool before it is invoked.
const ExecutableFileMode os.FileMode = 0o755

// Options are inputs accepted by the compose entry point.
type Options struct {
	// ConfigPath is the optional path to the settings file.
	ConfigPath string
	// Dir is the artifact directory. Defaults to the working directory.
	Dir string
	// KeepBranch skips deleting the trigger branch, for composing locally.
	KeepBranch bool
	// Runner executes the packaging tool and git. Defaults to common.NewExecRunner.
	Runner common.Runner
	// Stdout receives the artifact summary. Defaults to os.Stdout.
	Stdout io.Writer
}

// composer holds the state of a single compose run.
type composer struct {
	cfg        *config.Config
	set        artifact.Set
	runner     common.Runner
	pusher     *vcs.Pusher
	keepBranch bool
	// manifest and metadata are the names actually passed to the packaging tool.
	manifest string
	metadata string
}

// Run composes the SuperBinary from the artifacts in opts.Dir.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "composer")

	c, err := newComposer(ctx, opts)
	if err != nil {
		return err
	}

	if err = c.Run(ctx); err != nil {
		return fmt.Errorf("compose failed: %w", err)
	}

	logger.InfoKV(ctx, "SuperBinary composed", "output", filepath.Join(c.set.Dir, c.cfg.OutputDir))

	return nil
}

func newComposer(ctx context.Context, opts *Options) (*composer, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact directory: %w", err)
	}

	cfg, err := config.LoadForDir(opts.ConfigPath, dir)
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

	return &composer{
		cfg:        cfg,
		set:        set,
		runner:     runner,
		pusher:     vcs.NewPusher(runner),
		keepBranch: opts.KeepBranch,
	}, nil
}

// Run prepares the manifest, invokes the packaging tool, collects the output
// and deletes the trigger branch. Nothing is collected when packaging fails.
func (c *composer) Run(ctx context.Context) error {
	if err := c.prepareManifest(ctx); err != nil {
		return err
	}

	output, err := c.pack(ctx)
	if err != nil {
		return err
	}

	if err = c.collect(ctx, output); err != nil {
		return err
	}

	if c.keepBranch {
		logger.InfoKV(ctx, "Keeping trigger branch", "branch", c.cfg.Branch)

		return nil
	}

	logger.InfoKV(ctx, "Deleting trigger branch", "remote", c.cfg.CleanupRemote, "branch", c.cfg.Branch)

	return c.pusher.DeleteBranch(ctx, c.set.Dir, c.cfg.CleanupRemote, c.cfg.Branch)
}

// prepareManifest picks the supplied manifest or synthesizes one from the template.
func (c *composer) prepareManifest(ctx context.Context) error {
	c.metadata = c.set.Metadata
	if c.metadata == "" {
		c.metadata = c.cfg.MetadataFile
	}

	// Supplied manifests may be binary plists, the packaging tool judges them.
	if c.set.HasManifest() {
		c.manifest = c.set.Manifest

		logger.DebugKV(ctx, "Using supplied manifest", "manifest", c.manifest)

		return nil
	}

	c.manifest = c.cfg.ManifestFile

	logger.InfoKV(ctx, "Creating manifest from template",
		"template", c.cfg.TemplateFile, "manifest", c.manifest, "bin_file", c.set.BootImage)

	return manifest.Synthesize(
		filepath.Join(c.set.Dir, c.cfg.TemplateFile),
		filepath.Join(c.set.Dir, c.manifest),
		c.set.BootImage,
	)
}

// pack runs the packaging tool and returns its combined output.
func (c *composer) pack(ctx context.Context) (string, error) {
	tool := filepath.Join(c.set.Dir, c.set.PackagingTool)
	if err := os.Chmod(tool, ExecutableFileMode); err != nil {
		return "", fmt.Errorf("make packaging tool executable: %w", err)
	}

	name, args := c.packagerArgs()

	output, err := c.runner.CombinedOutput(ctx, c.set.Dir, name, args...)
	if err != nil {
		return "", fmt.Errorf("compose SuperBinary: %w", err)
	}

	return output, nil
}

// packagerArgs builds the packaging tool command line.
func (c *composer) packagerArgs() (string, []string) {
	command := c.cfg.PackagerCommand

	args := make([]string, 0, len(command)+12)
	args = append(args, command[1:]...)
	args = append(args,
		"SuperBinary",
		"--debug",
		"--mfigr2", "./"+c.set.PackagingTool,
		"--out-uarp", c.cfg.PackageFile,
		"--metadata", c.metadata,
	)

	if c.set.HasReleaseNotes() {
		args = append(args, "--release-notes", c.set.ReleaseNotes)
	}

	args = append(args, c.manifest)

	return command[0], args
}

// collect copies the packaging results into the output directory
// and stores the tool output as the hashes file.
func (c *composer) collect(ctx context.Context, output string) error {
	outDir := filepath.Join(c.set.Dir, c.cfg.OutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	hashes := filepath.Join(outDir, c.cfg.HashesFile)
	if err := os.WriteFile(hashes, []byte(output), manifest.DefaultFileMode); err != nil {
		return fmt.Errorf("write %s: %w", c.cfg.HashesFile, err)
	}

	notes := c.set.ReleaseNotes
	if c.set.ReleaseNotesIsDir {
		notes = c.cfg.ReleaseNotesArchive
	}

	collected := []string{c.cfg.PackageFile, c.manifest, c.metadata}
	if notes != "" {
		collected = append(collected, notes)
	}

	out := workspace.New(outDir)

	for _, name := range collected {
		logger.DebugKV(ctx, "Collecting output file", "name", name)

		if err := out.Import(c.set.Dir, name, name); err != nil {
			return err
		}
	}

	return nil
}
