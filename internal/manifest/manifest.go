package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
)

// Placeholder is replaced with the boot image file name.
const Placeholder = "{bin_file}"

// DefaultFileMode is used for the synthesized manifest.
const DefaultFileMode os.FileMode = 0o644

var (
	// ErrMalformedManifest is returned for manifests that are not well-formed XML.
	ErrMalformedManifest = errors.New("manifest is not well-formed XML")
	// ErrNotPlist is returned when the document root is not a plist element.
	ErrNotPlist = errors.New("manifest root element is not <plist>")
)

// Render substitutes every placeholder occurrence with binFile.
// All other bytes are left untouched.
func Render(template []byte, binFile string) []byte {
	return bytes.ReplaceAll(template, []byte(Placeholder), []byte(binFile))
}

// Validate checks that data is a well-formed XML property list.
func Validate(data []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedManifest, err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "plist" {
		return ErrNotPlist
	}

	return nil
}

// Synthesize renders templatePath for binFile and writes the result to outputPath.
func Synthesize(templatePath, outputPath, binFile string) error {
	template, err := os.ReadFile(filepath.Clean(templatePath))
	if err != nil {
		return fmt.Errorf("read manifest template: %w", err)
	}

	rendered := Render(template, binFile)
	if err := Validate(rendered); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(templatePath), err)
	}

	if err := os.WriteFile(filepath.Clean(outputPath), rendered, DefaultFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
