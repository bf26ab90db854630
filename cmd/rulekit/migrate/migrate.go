// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package migrate converts a copied-in rules tree into a git subtree
// vendored from the upstream rules repository. The conversion is a
// sequence of git operations with an explicit rollback: the starting
// HEAD is recorded and a directory backup of the rules tree is taken
// before anything destructive runs, so a failed subtree add leaves the
// repository exactly as it was — no net commit, rules tree intact.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
	"github.com/rulekit-dev/rulekit/lib/backup"
	"github.com/rulekit-dev/rulekit/lib/config"
	"github.com/rulekit-dev/rulekit/lib/git"
)

// Options controls a migration run. Remote, Branch, and Prefix are
// resolved from config and flags by the caller and are never empty.
type Options struct {
	Remote string
	Branch string
	Prefix string

	// Message is the commit message for the removal commit.
	Message string

	// Now stamps the pre-migration backup. Zero means time.Now.
	Now time.Time
}

// Summary reports what a migration did.
type Summary struct {
	Target     string `json:"target"`
	Remote     string `json:"remote"`
	Branch     string `json:"branch"`
	Prefix     string `json:"prefix"`
	BackupPath string `json:"backup_path,omitempty"`
	Stashed    bool   `json:"stashed"`
	HeadBefore string `json:"head_before"`
}

// Run converts the rules tree at opts.Prefix into a subtree of
// opts.Remote. On failure after the removal commit, the repository is
// reset to the recorded HEAD and the rules tree is restored from the
// backup before the error is returned.
func Run(ctx context.Context, targetDir string, opts Options, status *cli.Status, logger *slog.Logger) (*Summary, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	repo := git.NewRepository(targetDir)
	if !repo.IsWorkTree(ctx) {
		return nil, fmt.Errorf("target %s is not a git work tree", targetDir)
	}

	rulesDir := filepath.Join(targetDir, filepath.FromSlash(opts.Prefix))
	if _, err := os.Stat(rulesDir); err != nil {
		return nil, fmt.Errorf("nothing to migrate: %s: %w", opts.Prefix, err)
	}

	head, err := repo.Head(ctx)
	if err != nil {
		return nil, err
	}
	summary := &Summary{
		Target:     targetDir,
		Remote:     opts.Remote,
		Branch:     opts.Branch,
		Prefix:     opts.Prefix,
		HeadBefore: head,
	}

	// Stash unrelated dirty state so the removal commit contains only
	// the migration. This runs before the backup so the backup
	// directory (untracked) is never swept into the stash.
	stashed, err := repo.StashPush(ctx, "rulekit migrate")
	if err != nil {
		return nil, err
	}
	summary.Stashed = stashed
	if stashed {
		status.Detail("stashed uncommitted changes")
	}

	// Backup the committed rules tree before anything touches it.
	// Directory format: Restore needs to put files back without
	// unpacking.
	status.Step("backing up %s", opts.Prefix)
	backupResult, err := backup.Create(targetDir, []string{opts.Prefix}, backup.FormatDir, now)
	if err != nil {
		if stashed {
			if popErr := repo.StashPop(ctx); popErr != nil {
				logger.Warn("restoring stashed changes", "error", popErr)
			}
		}
		return nil, err
	}
	if backupResult != nil {
		summary.BackupPath = backupResult.Path
		status.Detail("%d file(s) saved to %s", backupResult.Files, backupResult.Path)
	}

	// From here on, failures roll back to the recorded HEAD.
	if err := convert(ctx, repo, targetDir, opts, status); err != nil {
		status.Error("migration failed, rolling back")
		rollback(ctx, repo, targetDir, head, summary.BackupPath, logger)
		if stashed {
			if popErr := repo.StashPop(ctx); popErr != nil {
				logger.Warn("restoring stashed changes", "error", popErr)
			}
		}
		return summary, fmt.Errorf("migrate: %w", err)
	}

	if stashed {
		status.Step("restoring stashed changes")
		if err := repo.StashPop(ctx); err != nil {
			return summary, fmt.Errorf("migration succeeded but the stash did not apply cleanly: %w", err)
		}
	}

	status.Success("%s is now a subtree of %s (%s)", opts.Prefix, opts.Remote, opts.Branch)
	return summary, nil
}

// convert performs the destructive part: remove the copied tree,
// commit, vendor the subtree, and normalize its layout.
func convert(ctx context.Context, repo *git.Repository, targetDir string, opts Options, status *cli.Status) error {
	status.Step("removing copied rules tree")
	if err := repo.Remove(ctx, opts.Prefix); err != nil {
		return err
	}
	if err := repo.Commit(ctx, opts.Message); err != nil {
		return err
	}

	status.Step("adding subtree from %s", opts.Remote)
	if err := repo.SubtreeAdd(ctx, opts.Prefix, opts.Remote, opts.Branch, true); err != nil {
		return err
	}

	return normalizeLayout(ctx, repo, targetDir, opts.Prefix, status)
}

// normalizeLayout flattens the upstream repository's own rules/
// directory into the prefix. Upstream keeps its rule files under
// rules/ so its repo root can carry a README; after subtree add they
// land at <prefix>/rules and need one more move.
func normalizeLayout(ctx context.Context, repo *git.Repository, targetDir, prefix string, status *cli.Status) error {
	nestedDir := filepath.Join(targetDir, filepath.FromSlash(prefix), "rules")
	info, err := os.Stat(nestedDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	status.Step("moving rules into place")
	entries, err := os.ReadDir(nestedDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		from := prefix + "/rules/" + entry.Name()
		to := prefix + "/" + entry.Name()
		if err := repo.Move(ctx, from, to); err != nil {
			return err
		}
	}
	// git mv leaves the emptied directory behind on some platforms.
	_ = os.Remove(nestedDir)

	return repo.Commit(ctx, "chore: move rules into place")
}

// rollback resets to the pre-migration HEAD and restores the rules
// tree from the backup. Rollback errors are logged, not returned — the
// original failure is the one the user needs to see.
func rollback(ctx context.Context, repo *git.Repository, targetDir, head, backupPath string, logger *slog.Logger) {
	if err := repo.ResetHard(ctx, head); err != nil {
		logger.Error("rollback: reset to recorded HEAD", "head", head, "error", err)
	}
	if backupPath != "" {
		if err := backup.Restore(targetDir, backupPath); err != nil {
			logger.Error("rollback: restoring backup", "backup", backupPath, "error", err)
		}
	}
}

// ResolveOptions builds Options from config with flag overrides.
func ResolveOptions(cfg *config.Config, remote, branch, prefix string) Options {
	resolved := Options{
		Remote:  cfg.Subtree.Remote,
		Branch:  cfg.Subtree.Branch,
		Prefix:  cfg.Subtree.Prefix,
		Message: cfg.Git.MigrateMessage,
	}
	if remote != "" {
		resolved.Remote = remote
	}
	if branch != "" {
		resolved.Branch = branch
	}
	if prefix != "" {
		resolved.Prefix = prefix
	}
	return resolved
}
