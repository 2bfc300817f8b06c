// Package composer runs on the CI side after the trigger branch was pushed.
// It turns the staged artifacts into a SuperBinary with the packaging tool,
// collects the results into the output directory and removes the trigger branch.
package composer
