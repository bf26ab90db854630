// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package uninstall removes an installed kit. Removal is
// manifest-driven: only files the install recorded are touched, and
// files the user modified since install are preserved unless --force.
package uninstall

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
	"github.com/rulekit-dev/rulekit/cmd/rulekit/install"
	"github.com/rulekit-dev/rulekit/lib/manifest"
)

// Options controls an uninstall run.
type Options struct {
	// Force removes locally modified files and settings.local.json.
	Force bool

	// PruneGitignore removes the standard ignore entries from the
	// target's .gitignore.
	PruneGitignore bool
}

// Summary reports what an uninstall did.
type Summary struct {
	Target          string   `json:"target"`
	Removed         []string `json:"removed"`
	Preserved       []string `json:"preserved"`
	GitignorePruned bool     `json:"gitignore_pruned"`
}

// Run removes the kit from targetDir. Files recorded in the manifest
// are removed if unmodified; modified files are preserved (reported in
// Summary.Preserved) unless opts.Force. Emptied kit directories are
// pruned afterwards.
func Run(ctx context.Context, targetDir string, opts Options, status *cli.Status, logger *slog.Logger) (*Summary, error) {
	loaded, err := manifest.Load(targetDir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("no install manifest in %s (nothing to uninstall)", targetDir)
	}
	if err != nil {
		return nil, err
	}

	report, err := loaded.Verify(targetDir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Target: targetDir}

	status.Step("removing kit files")
	for _, drift := range report {
		fullPath := filepath.Join(targetDir, filepath.FromSlash(drift.Entry.Path))
		switch drift.State {
		case manifest.StateMissing:
			// Already gone; nothing to do.
		case manifest.StateModified:
			if !opts.Force {
				summary.Preserved = append(summary.Preserved, drift.Entry.Path)
				continue
			}
			fallthrough
		case manifest.StateOK:
			if err := os.Remove(fullPath); err != nil {
				return nil, fmt.Errorf("removing %s: %w", drift.Entry.Path, err)
			}
			summary.Removed = append(summary.Removed, drift.Entry.Path)
		}
	}
	status.Detail("%d removed, %d preserved", len(summary.Removed), len(summary.Preserved))
	for _, preserved := range summary.Preserved {
		status.Detail("preserved (modified): %s", preserved)
	}

	// settings.local.json is user-owned after install; only --force
	// takes it along.
	localPath := filepath.Join(targetDir, ".claude", "settings.local.json")
	if _, err := os.Stat(localPath); err == nil {
		if opts.Force {
			if err := os.Remove(localPath); err != nil {
				return nil, fmt.Errorf("removing settings.local.json: %w", err)
			}
			summary.Removed = append(summary.Removed, ".claude/settings.local.json")
		} else {
			summary.Preserved = append(summary.Preserved, ".claude/settings.local.json")
		}
	}

	if err := os.Remove(manifest.Path(targetDir)); err != nil {
		return nil, fmt.Errorf("removing manifest: %w", err)
	}

	status.Step("pruning empty directories")
	pruneEmptyDirs(filepath.Join(targetDir, ".claude"))

	if opts.PruneGitignore {
		status.Step("pruning .gitignore entries")
		pruned, err := removeIgnoreLines(filepath.Join(targetDir, ".gitignore"), install.StandardIgnoreEntries)
		if err != nil {
			return nil, err
		}
		summary.GitignorePruned = pruned
	}

	sort.Strings(summary.Removed)
	status.Success("kit removed from %s", targetDir)
	return summary, nil
}

// pruneEmptyDirs removes dir and its subdirectories bottom-up where
// empty. Errors are ignored: a non-empty directory simply stays.
func pruneEmptyDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			pruneEmptyDirs(filepath.Join(dir, entry.Name()))
		}
	}
	_ = os.Remove(dir)
}

// removeIgnoreLines deletes exact-match lines from the .gitignore at
// path. Returns true if the file changed.
func removeIgnoreLines(path string, entries []string) (bool, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	drop := make(map[string]bool, len(entries))
	for _, entry := range entries {
		drop[entry] = true
	}

	var kept []string
	changed := false
	for _, line := range strings.Split(strings.TrimRight(string(content), "\n"), "\n") {
		if drop[strings.TrimSpace(line)] {
			changed = true
			continue
		}
		kept = append(kept, line)
	}
	if !changed {
		return false, nil
	}

	out := strings.Join(kept, "\n")
	if out != "" {
		out += "\n"
	}
	return true, os.WriteFile(path, []byte(out), 0644)
}
