// Package config defines the settings shared by the publish and compose
// workflows and provides helpers to load, validate and save them in YAML.
//
// Every field has a default, so running without a settings file is the
// common case. Validate compiles the forbidden remote patterns and checks
// the passthrough globs.
package config
