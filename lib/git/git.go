// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package git provides typed access to the git CLI for repository
// operations. Rulekit uses git for the side effects the installer and
// the subtree migration produce: staging installed files, creating
// commits with fixed message templates, and vendoring the upstream
// rules repository as a subtree. All commands target a specific
// repository directory via the -C flag, which is automatically
// injected by all Repository methods.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Repository represents a git repository at a specific directory. All
// operations target this directory via "git -C <dir>". There is no
// default directory — callers must always specify which repository
// they mean.
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting the given directory.
// The directory should be inside a working tree.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command targeting this repository and returns
// stdout. Stderr is captured separately and included in error messages
// on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", r.dir}, args...)
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, "git", fullArgs...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Command returns an *exec.Cmd for a git command without running it.
// The caller gets full control over Stdin, Stdout, Stderr, and
// SysProcAttr before starting the process. The -C flag targeting
// this repository is automatically prepended.
func (r *Repository) Command(ctx context.Context, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-C", r.dir}, args...)
	return exec.CommandContext(ctx, "git", fullArgs...)
}

// IsWorkTree reports whether the repository directory is inside a git
// working tree. Returns false (not an error) when git itself reports
// the directory is outside any repository.
func (r *Repository) IsWorkTree(ctx context.Context) bool {
	output, err := r.Run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(output) == "true"
}

// TopLevel returns the absolute path of the working tree root.
func (r *Repository) TopLevel(ctx context.Context) (string, error) {
	output, err := r.Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// Head returns the full SHA of the current HEAD commit.
func (r *Repository) Head(ctx context.Context) (string, error) {
	output, err := r.Run(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(output), nil
}

// HasChanges reports whether the working tree or index differs from
// HEAD, including untracked files. This is the Go equivalent of
// checking that "git status --porcelain" produces output.
func (r *Repository) HasChanges(ctx context.Context) (bool, error) {
	output, err := r.Run(ctx, "status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(output) != "", nil
}

// Add stages the given paths. Paths are relative to the repository
// directory.
func (r *Repository) Add(ctx context.Context, paths ...string) error {
	args := append([]string{"add", "--"}, paths...)
	_, err := r.Run(ctx, args...)
	return err
}

// Commit creates a commit with the given message. Staged changes only;
// callers stage explicitly via Add so the commit content is auditable.
func (r *Repository) Commit(ctx context.Context, message string) error {
	_, err := r.Run(ctx, "commit", "-m", message)
	return err
}

// Remove removes the given paths from both the index and the working
// tree, recursively.
func (r *Repository) Remove(ctx context.Context, paths ...string) error {
	args := append([]string{"rm", "-r", "--quiet", "--"}, paths...)
	_, err := r.Run(ctx, args...)
	return err
}

// Move renames a tracked path, updating the index.
func (r *Repository) Move(ctx context.Context, from, to string) error {
	_, err := r.Run(ctx, "mv", from, to)
	return err
}

// SubtreeAdd vendors remote@ref into prefix using "git subtree add".
// The prefix must not exist in the working tree. Squash collapses the
// imported history into a single commit, which is what the migration
// wants: the upstream rules history is noise in the consuming project.
func (r *Repository) SubtreeAdd(ctx context.Context, prefix, remote, ref string, squash bool) error {
	args := []string{"subtree", "add", "--prefix", prefix, remote, ref}
	if squash {
		args = append(args, "--squash")
	}
	_, err := r.Run(ctx, args...)
	return err
}

// StashPush stashes working tree changes, including untracked files,
// under the given message. Returns false when there was nothing to
// stash (git exits 0 with "No local changes to save").
func (r *Repository) StashPush(ctx context.Context, message string) (bool, error) {
	output, err := r.Run(ctx, "stash", "push", "--include-untracked", "-m", message)
	if err != nil {
		return false, err
	}
	return !strings.Contains(output, "No local changes to save"), nil
}

// StashPop restores the most recent stash entry.
func (r *Repository) StashPop(ctx context.Context) error {
	_, err := r.Run(ctx, "stash", "pop")
	return err
}

// ResetHard resets the working tree and index to the given ref,
// discarding everything after it. Used by the migration rollback path.
func (r *Repository) ResetHard(ctx context.Context, ref string) error {
	_, err := r.Run(ctx, "reset", "--hard", ref)
	return err
}
