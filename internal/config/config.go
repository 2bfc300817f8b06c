package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// Config holds the knobs shared by the publish and compose workflows.
// Every field has a default, so an absent settings file is a valid setup.
type Config struct {
	// Branch is the trigger branch that is force-pushed and later deleted.
	Branch string `yaml:"branch"`
	// CommitMessage is used for the temporary staging commit.
	CommitMessage string `yaml:"commit_message"`
	// CommitAuthorName is used when git config carries no user.name.
	CommitAuthorName string `yaml:"commit_author_name"`
	// CommitAuthorEmail is used when git config carries no user.email.
	CommitAuthorEmail string `yaml:"commit_author_email"`
	// ForbiddenRemotes are regular expressions for remote URLs that must never be pushed to.
	ForbiddenRemotes []string `yaml:"forbidden_remotes"`
	// StagePath is the slash-separated destination of the artifacts inside the repository.
	StagePath string `yaml:"stage_path"`
	// WorkflowDir is the CI workflow definition directory copied along with the artifacts.
	WorkflowDir string `yaml:"workflow_dir"`
	// MaxRootDepth bounds the upward search for the repository root.
	MaxRootDepth int `yaml:"max_root_depth"`
	// TemplateFile is the manifest template containing the {bin_file} placeholder.
	TemplateFile string `yaml:"template_file"`
	// ManifestFile is the name of the manifest synthesized from the template.
	ManifestFile string `yaml:"manifest_file"`
	// MetadataFile is the metadata descriptor assumed when none was supplied.
	MetadataFile string `yaml:"metadata_file"`
	// PackageFile is the archive produced by the packaging tool.
	PackageFile string `yaml:"package_file"`
	// ReleaseNotesArchive is produced by the packaging tool from a release notes directory.
	ReleaseNotesArchive string `yaml:"release_notes_archive"`
	// HashesFile receives the captured packaging tool output.
	HashesFile string `yaml:"hashes_file"`
	// OutputDir collects the composed artifacts.
	OutputDir string `yaml:"output_dir"`
	// PackagerCommand is the executable (plus leading arguments) that composes the SuperBinary.
	PackagerCommand []string `yaml:"packager_command"`
	// CleanupRemote is the remote the trigger branch is deleted from after composing.
	CleanupRemote string `yaml:"cleanup_remote"`
	// Passthrough lists glob patterns of files that are tolerated but never staged as artifacts.
	Passthrough []string `yaml:"passthrough"`

	// forbidden holds the compiled ForbiddenRemotes. It is filled by Validate.
	forbidden []*regexp.Regexp
}

const (
	// DefaultConfigFilename is the default filename for tool settings.
	DefaultConfigFilename = "superbinary-trigger.yaml"

	// DefaultBranch is the trigger branch name.
	DefaultBranch = "temp-compose-superbinary-now"

	// DefaultCommitMessage is the message of the temporary staging commit.
	DefaultCommitMessage = "TEMP: Adding files for SuperBinary composing on github."

	// DefaultStagePath is where the artifacts land inside the repository.
	DefaultStagePath = "tools/samples/SuperBinary/github_action"

	// DefaultWorkflowDir is the GitHub Actions definition directory.
	DefaultWorkflowDir = ".github"

	// DefaultMaxRootDepth is the number of directories probed while looking for the repository root.
	DefaultMaxRootDepth = 10

	// DefaultTemplateFile is the manifest template name.
	DefaultTemplateFile = "SuperBinary.plist.tmpl"

	// DefaultManifestFile is the synthesized manifest name.
	DefaultManifestFile = "SuperBinary.plist"

	// DefaultMetadataFile is the metadata descriptor used when none is supplied.
	DefaultMetadataFile = "MetaData.plist"

	// DefaultPackageFile is the composed package name.
	DefaultPackageFile = "SuperBinary.uarp"

	// DefaultReleaseNotesArchive is the archive built from a release notes directory.
	DefaultReleaseNotesArchive = "ReleaseNotes.zip"

	// DefaultHashesFile receives the packaging tool output.
	DefaultHashesFile = "hashes.txt"

	// DefaultOutputDir collects composed artifacts.
	DefaultOutputDir = "output"

	// DefaultCleanupRemote is the remote the trigger branch is removed from.
	DefaultCleanupRemote = "origin"

	// DefaultPackager is the packaging front-end executable.
	DefaultPackager = "ncsfmntools"

	// DefaultCommitAuthorName is the fallback commit author name.
	DefaultCommitAuthorName = "SuperBinary Trigger"

	// DefaultCommitAuthorEmail is the fallback commit author email.
	DefaultCommitAuthorEmail = "superbinary-trigger@localhost"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errStagePathNotRelative is returned when the stage path escapes the repository.
	errStagePathNotRelative = errors.New("stage path must be relative to the repository root")
	// errEmptyPackagerCommand is returned when packager_command is set to an empty executable.
	errEmptyPackagerCommand = errors.New("packager command must name an executable")
)

// DefaultForbiddenRemotes returns the remote URL patterns that are never pushed to.
func DefaultForbiddenRemotes() []string {
	return []string{`github\.com/nrfconnect/.*`}
}

// DefaultPassthrough returns the glob patterns of files tolerated next to the artifacts.
func DefaultPassthrough() []string {
	return []string{
		"README*.rst",
		"*.py*",
		"*.tmpl",
		"superbinary-trigger*",
	}
}

// Default returns a validated configuration made only of defaults.
func Default() *Config {
	cfg := new(Config)

	// Defaults always validate.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates it.
// A missing file at the default location yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultConfigFilename {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ResolvePath returns the settings file to read. When path is the default and the
// working directory has no settings file, the one next to the artifacts in dir is used.
// The CI action runs from the repository root while the settings travel with the artifacts.
func ResolvePath(path, dir string) string {
	if path == "" {
		path = DefaultConfigFilename
	}

	if path == DefaultConfigFilename {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			candidate := filepath.Join(dir, DefaultConfigFilename)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}

	return path
}

// LoadForDir loads the settings file chosen by ResolvePath.
func LoadForDir(path, dir string) (*Config, error) {
	return Load(ResolvePath(path, dir))
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills unset fields with defaults and checks the patterns for syntax errors.
//
//nolint:cyclop // A flat list of defaults is easier to scan than a table.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	setDefault(&cfg.Branch, DefaultBranch)
	setDefault(&cfg.CommitMessage, DefaultCommitMessage)
	setDefault(&cfg.CommitAuthorName, DefaultCommitAuthorName)
	setDefault(&cfg.CommitAuthorEmail, DefaultCommitAuthorEmail)
	setDefault(&cfg.StagePath, DefaultStagePath)
	setDefault(&cfg.WorkflowDir, DefaultWorkflowDir)
	setDefault(&cfg.TemplateFile, DefaultTemplateFile)
	setDefault(&cfg.ManifestFile, DefaultManifestFile)
	setDefault(&cfg.MetadataFile, DefaultMetadataFile)
	setDefault(&cfg.PackageFile, DefaultPackageFile)
	setDefault(&cfg.ReleaseNotesArchive, DefaultReleaseNotesArchive)
	setDefault(&cfg.HashesFile, DefaultHashesFile)
	setDefault(&cfg.OutputDir, DefaultOutputDir)
	setDefault(&cfg.CleanupRemote, DefaultCleanupRemote)

	if cfg.MaxRootDepth <= 0 {
		cfg.MaxRootDepth = DefaultMaxRootDepth
	}

	if cfg.ForbiddenRemotes == nil {
		cfg.ForbiddenRemotes = DefaultForbiddenRemotes()
	}

	if cfg.Passthrough == nil {
		cfg.Passthrough = DefaultPassthrough()
	}

	if len(cfg.PackagerCommand) == 0 {
		cfg.PackagerCommand = []string{DefaultPackager}
	}

	if strings.TrimSpace(cfg.PackagerCommand[0]) == "" {
		return errEmptyPackagerCommand
	}

	stagePath := path.Clean(filepath.ToSlash(cfg.StagePath))
	if path.IsAbs(stagePath) || stagePath == ".." || strings.HasPrefix(stagePath, "../") {
		return fmt.Errorf("%s: %w", cfg.StagePath, errStagePathNotRelative)
	}

	cfg.StagePath = stagePath

	for _, pattern := range cfg.Passthrough {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid passthrough pattern %q: %w", pattern, doublestar.ErrBadPattern)
		}
	}

	forbidden := make([]*regexp.Regexp, 0, len(cfg.ForbiddenRemotes))

	for _, pattern := range cfg.ForbiddenRemotes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("invalid forbidden remote pattern %q: %w", pattern, err)
		}

		forbidden = append(forbidden, re)
	}

	cfg.forbidden = forbidden

	return nil
}

// PassthroughPatterns returns the tolerated file patterns, including the output directory.
func (c *Config) PassthroughPatterns() []string {
	patterns := make([]string, 0, len(c.Passthrough)+1)
	patterns = append(patterns, c.Passthrough...)

	if c.OutputDir != "" {
		patterns = append(patterns, c.OutputDir)
	}

	return patterns
}

// ForbiddenPatterns returns the compiled forbidden remote patterns.
// It is empty until Validate has run.
func (c *Config) ForbiddenPatterns() []*regexp.Regexp {
	return c.forbidden
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}
