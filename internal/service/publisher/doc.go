// Package publisher stages classified artifacts into a detached copy of the
// enclosing git repository and force-pushes it to the trigger branch, which
// starts the SuperBinary composing workflow on the CI side.
package publisher
