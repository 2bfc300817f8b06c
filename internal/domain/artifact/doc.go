// Package artifact classifies the contents of a SuperBinary artifact
// directory into roles: boot image, manifest, metadata, release notes and
// the mfigr2 packaging tool.
//
// Classification is a strict partition by file name; anything that is not
// an artifact and not on the passthrough list fails the run.
package artifact
