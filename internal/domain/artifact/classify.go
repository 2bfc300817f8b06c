package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-multierror"

	"github.com/oshokin/superbinary-trigger/internal/logger"
)

// Role is the meaning assigned to a directory entry.
type Role int

const (
	// RoleUnknown marks an entry nothing recognises.
	RoleUnknown Role = iota
	// RoleBootImage is the MCUboot image (*.bin).
	RoleBootImage
	// RoleMetadata is the metadata descriptor (*meta*data*.plist).
	RoleMetadata
	// RoleManifest is the SuperBinary manifest (*.plist).
	RoleManifest
	// RoleReleaseNotes is a file or directory with "notes" in its name.
	RoleReleaseNotes
	// RolePackagingTool is the mfigr2 executable.
	RolePackagingTool
	// RolePassthrough is a tolerated file that is not an artifact.
	RolePassthrough
)

// String implements fmt.Stringer.
func (r Role) String() string {
	switch r {
	case RoleBootImage:
		return "boot image"
	case RoleMetadata:
		return "metadata"
	case RoleManifest:
		return "manifest"
	case RoleReleaseNotes:
		return "release notes"
	case RolePackagingTool:
		return "packaging tool"
	case RolePassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

var (
	// ErrUnrecognizedFile is returned for entries that match no role and no passthrough pattern.
	ErrUnrecognizedFile = errors.New("don't know what to do with file")
	// ErrMissingBootImage is returned when no *.bin file was found.
	ErrMissingBootImage = errors.New("binary MCUboot image is required")
	// ErrMissingPackagingTool is returned when no mfigr2 file was found.
	ErrMissingPackagingTool = errors.New(`"mfigr2" tool is required`)
)

// Checked in order, first match wins.
//
//nolint:gochecknoglobals // Compiled once, read-only.
var rolePatterns = []struct {
	role    Role
	pattern *regexp.Regexp
}{
	{RoleBootImage, regexp.MustCompile(`(?i)\.bin$`)},
	{RoleMetadata, regexp.MustCompile(`(?i)meta.*data.*\.plist$`)},
	{RoleManifest, regexp.MustCompile(`(?i)\.plist$`)},
	{RoleReleaseNotes, regexp.MustCompile(`(?i)notes`)},
	{RolePackagingTool, regexp.MustCompile(`(?i)^mfigr2$`)},
}

// Classifier assigns roles to the entries of an artifact directory.
type Classifier struct {
	// passthrough holds lower-cased glob patterns of tolerated files.
	passthrough []string
}

// NewClassifier creates a Classifier tolerating the given glob patterns.
// Patterns are matched case-insensitively against the bare entry name.
func NewClassifier(passthrough ...string) *Classifier {
	patterns := make([]string, 0, len(passthrough))
	for _, p := range passthrough {
		patterns = append(patterns, strings.ToLower(p))
	}

	return &Classifier{passthrough: patterns}
}

// RoleOf returns the role of a single entry name.
func (c *Classifier) RoleOf(name string) Role {
	for _, rp := range rolePatterns {
		if rp.pattern.MatchString(name) {
			return rp.role
		}
	}

	lower := strings.ToLower(name)
	for _, pattern := range c.passthrough {
		if ok, _ := doublestar.Match(pattern, lower); ok {
			return RolePassthrough
		}
	}

	return RoleUnknown
}

// Classify scans dir and returns the role assignment.
// Hidden entries are skipped. All problems are reported together.
//
//nolint:cyclop // One switch arm per role.
func (c *Classifier) Classify(ctx context.Context, dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Set{}, fmt.Errorf("read artifact directory: %w", err)
	}

	var (
		set    = Set{Dir: dir}
		result *multierror.Error
	)

	assign := func(role Role, slot *string, name string) {
		if *slot != "" {
			logger.WarnKV(ctx, "More than one candidate, the last one wins",
				"role", role.String(), "dropped", *slot, "kept", name)
		}

		*slot = name
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		role := c.RoleOf(name)
		logger.DebugKV(ctx, "Classified entry", "name", name, "role", role.String())

		switch role {
		case RoleBootImage:
			assign(role, &set.BootImage, name)
		case RoleMetadata:
			assign(role, &set.Metadata, name)
		case RoleManifest:
			assign(role, &set.Manifest, name)
		case RoleReleaseNotes:
			assign(role, &set.ReleaseNotes, name)
			set.ReleaseNotesIsDir = entry.IsDir()
		case RolePackagingTool:
			assign(role, &set.PackagingTool, name)
		case RolePassthrough:
			continue
		default:
			result = multierror.Append(result, fmt.Errorf("%w: %s", ErrUnrecognizedFile, name))
		}
	}

	if set.BootImage == "" {
		result = multierror.Append(result, ErrMissingBootImage)
	}

	if set.PackagingTool == "" {
		result = multierror.Append(result, ErrMissingPackagingTool)
	}

	if err := result.ErrorOrNil(); err != nil {
		return Set{}, err
	}

	return set, nil
}
