package workspace

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// ownerWritable keeps copied directories writable so their contents can be filled and removed.
const ownerWritable os.FileMode = 0o700

// ErrUnsupportedFileType is returned for sockets, devices and other special files.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// Workspace is a directory tree that artifacts are copied into.
type Workspace struct {
	// root is the absolute path of the tree.
	root string
	// fs is rooted at root, so all workspace paths are relative.
	fs billy.Filesystem
}

// New wraps an existing directory.
func New(root string) *Workspace {
	return &Workspace{
		root: root,
		fs:   osfs.New(root),
	}
}

// NewTemp creates a fresh scratch directory under the system temp dir.
func NewTemp(pattern string) (*Workspace, error) {
	root, err := os.MkdirTemp("", pattern)
	if err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}

	return New(root), nil
}

// Root returns the absolute path of the workspace.
func (w *Workspace) Root() string {
	return w.root
}

// MkdirAll creates rel and its parents.
func (w *Workspace) MkdirAll(rel string) error {
	return w.fs.MkdirAll(filepath.FromSlash(rel), 0o755)
}

// Import copies srcDir/name (file or directory tree) to dstRel inside the workspace.
func (w *Workspace) Import(srcDir, name, dstRel string) error {
	src := osfs.New(srcDir)

	if err := copyPath(src, name, w.fs, filepath.FromSlash(dstRel)); err != nil {
		return fmt.Errorf("copy %s: %w", filepath.Join(srcDir, name), err)
	}

	return nil
}

// Remove deletes the whole workspace from disk.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.root)
}

// copyPath copies a file, symlink or directory tree between two billy filesystems.
func copyPath(src billy.Filesystem, srcPath string, dst billy.Filesystem, dstPath string) error {
	info, err := src.Lstat(srcPath)
	if err != nil {
		return err
	}

	mode := info.Mode()

	switch {
	case mode&os.ModeSymlink != 0:
		target, err := src.Readlink(srcPath)
		if err != nil {
			return err
		}

		return dst.Symlink(target, dstPath)
	case mode.IsDir():
		if err := dst.MkdirAll(dstPath, mode.Perm()|ownerWritable); err != nil {
			return err
		}

		entries, err := src.ReadDir(srcPath)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			name := entry.Name()
			if err := copyPath(src, src.Join(srcPath, name), dst, dst.Join(dstPath, name)); err != nil {
				return err
			}
		}

		return nil
	case mode.IsRegular():
		return copyFile(src, srcPath, dst, dstPath, mode.Perm())
	default:
		return fmt.Errorf("%s: %w", srcPath, ErrUnsupportedFileType)
	}
}

func copyFile(src billy.Filesystem, srcPath string, dst billy.Filesystem, dstPath string, perm os.FileMode) error {
	if err := dst.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return err
	}

	in, err := src.Open(srcPath)
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	out, err := dst.OpenFile(dstPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}
