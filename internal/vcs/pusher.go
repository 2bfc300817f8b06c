package vcs

import (
	"context"
)

// CommandRunner executes a command to completion in dir.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) error
}

// Pusher talks to remotes through the git CLI, so the operator's
// credential helpers and SSH agent apply.
type Pusher struct {
	// runner executes git.
	runner CommandRunner
	// git is the git executable.
	git string
}

// NewPusher creates a Pusher that runs the git found in PATH.
func NewPusher(runner CommandRunner) *Pusher {
	return &Pusher{
		runner: runner,
		git:    "git",
	}
}

// ForcePush overwrites branch on remote with the current HEAD of the repository in dir.
func (p *Pusher) ForcePush(ctx context.Context, dir, remote, branch string) error {
	return p.runner.Run(ctx, dir, p.git, "push", "--force", remote, "HEAD:"+branch)
}

// DeleteBranch removes branch from remote.
func (p *Pusher) DeleteBranch(ctx context.Context, dir, remote, branch string) error {
	return p.runner.Run(ctx, dir, p.git, "push", remote, "--delete", branch)
}
