// Package common holds helpers shared by the publish and compose services.
//
// It provides the subprocess Runner used for git and the packaging tool,
// and a PID marker that keeps two publish runs from racing on one
// artifact directory.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
