// Package workspace copies files and directory trees into a scratch
// directory on top of go-billy filesystems. File modes are preserved, so the
// packaging tool stays executable after staging.
package workspace
