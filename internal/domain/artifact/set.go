package artifact

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Set is the outcome of classifying one artifact directory.
// It is passed by value between the classifier, the publisher and the composer
// and never modified after Classify returns.
type Set struct {
	// Dir is the directory that was scanned.
	Dir string
	// BootImage is the MCUboot image file name. Always set.
	BootImage string
	// Manifest is the SuperBinary plist supplied by the operator, if any.
	Manifest string
	// Metadata is the metadata plist supplied by the operator, if any.
	Metadata string
	// ReleaseNotes is the release notes file or directory, if any.
	ReleaseNotes string
	// ReleaseNotesIsDir reports whether ReleaseNotes is a directory.
	ReleaseNotesIsDir bool
	// PackagingTool is the mfigr2 executable file name. Always set.
	PackagingTool string
}

// HasManifest reports whether the operator supplied a manifest.
func (s Set) HasManifest() bool {
	return s.Manifest != ""
}

// HasMetadata reports whether the operator supplied a metadata descriptor.
func (s Set) HasMetadata() bool {
	return s.Metadata != ""
}

// HasReleaseNotes reports whether release notes were found.
func (s Set) HasReleaseNotes() bool {
	return s.ReleaseNotes != ""
}

// Files returns every classified entry in staging order.
func (s Set) Files() []string {
	files := []string{s.BootImage, s.PackagingTool}

	for _, optional := range []string{s.Manifest, s.Metadata, s.ReleaseNotes} {
		if optional != "" {
			files = append(files, optional)
		}
	}

	return files
}

// WriteSummary prints the human-readable role assignment.
func (s Set) WriteSummary(w io.Writer) error {
	label := color.New(color.FgHiWhite, color.Bold).SprintFunc()
	value := color.New(color.FgHiGreen).SprintFunc()
	fallback := color.New(color.FgYellow).SprintFunc()

	optional := func(name, absent string) string {
		if name == "" {
			return fallback(absent)
		}

		return value(name)
	}

	_, err := fmt.Fprintf(w,
		"    %s   %s\n    %s %s\n    %s   %s\n    %s          %s\n    %s            %s\n",
		label("Binary MCUBoot image:"), value(s.BootImage),
		label("SuperBinary plist file:"), optional(s.Manifest, "[default will be used]"),
		label("Meta Data plist file:"), optional(s.Metadata, "[default will be used]"),
		label("Release Notes:"), optional(s.ReleaseNotes, "[none]"),
		label("mfigr2 tool:"), value(s.PackagingTool),
	)

	return err
}
