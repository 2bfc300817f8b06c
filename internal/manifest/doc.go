// Package manifest synthesizes the default SuperBinary manifest from its
// template and checks the result for XML well-formedness before it is
// handed to the packaging tool. Manifests supplied by the operator are
// passed through as they are.
package manifest
