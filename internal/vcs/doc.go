// Package vcs wraps the git operations of the trigger workflow.
//
// Local work (index reset, staging, committing, listing remotes) goes
// through go-git. Talking to remotes goes through the git CLI so that the
// operator's credentials are used. Remote URLs are normalised with
// git-urls before they are checked against the forbidden patterns.
package vcs
