// Package version exposes build metadata for superbinary-trigger.
//
// Version, Commit and BuildTime are injected via ldflags.
package version
