// Package prompt lets the operator pick one of several options.
//
// Terminal prints a numbered menu and reads the answer; Fixed answers with
// a preset label. Services depend on the Chooser interface only.
package prompt
