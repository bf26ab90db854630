// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package install deploys the embedded kit into a target project. The
// procedure is a fixed sequence of stages: preflight, backup, payload
// copy, settings, gitignore, manifest, validation, and an optional git
// commit. Every stage that destroys existing state is preceded by a
// backup, and a failed validation exits non-zero so scripts can rely
// on the exit code.
package install

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
	"github.com/rulekit-dev/rulekit/lib/backup"
	"github.com/rulekit-dev/rulekit/lib/config"
	"github.com/rulekit-dev/rulekit/lib/git"
	"github.com/rulekit-dev/rulekit/lib/manifest"
	"github.com/rulekit-dev/rulekit/lib/settings"
	"github.com/rulekit-dev/rulekit/lib/version"
	"github.com/rulekit-dev/rulekit/payload"
)

// Options controls a single install run. Zero values mean "use the
// target's config defaults".
type Options struct {
	// Force overwrites locally modified kit files and rewrites
	// settings.local.json even when it exists.
	Force bool

	// Commit runs git add + commit after a successful install.
	Commit bool

	// NoBackup skips the pre-overwrite backup.
	NoBackup bool

	// BackupFormat overrides the configured backup format when
	// non-empty ("dir", "lz4", or "zstd").
	BackupFormat string

	// Now is the install timestamp. Zero means time.Now. Tests pin it
	// for deterministic backup names.
	Now time.Time
}

// Summary reports what an install did, for both the styled text output
// and --json.
type Summary struct {
	Target         string   `json:"target"`
	Installed      []string `json:"installed"`
	BackupPath     string   `json:"backup_path,omitempty"`
	GitignoreAdded []string `json:"gitignore_added"`
	Committed      bool     `json:"committed"`
	KitVersion     string   `json:"kit_version"`
}

// Run installs the kit into targetDir according to cfg and opts,
// reporting progress through status. A validation failure prints the
// missing files and returns *cli.ExitError{Code: 1}.
func Run(ctx context.Context, targetDir string, cfg *config.Config, opts Options, status *cli.Status, logger *slog.Logger) (*Summary, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	// Preflight: the target must exist; the kit skeleton is created
	// under it.
	info, err := os.Stat(targetDir)
	if err != nil {
		return nil, fmt.Errorf("target %s: %w", targetDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("target %s is not a directory", targetDir)
	}

	files, err := payload.Files()
	if err != nil {
		return nil, err
	}
	files = filterComponents(files, cfg)

	summary := &Summary{Target: targetDir, KitVersion: version.Short()}

	// Backup before overwriting an existing kit.
	claudeDir := filepath.Join(targetDir, ".claude")
	if _, err := os.Stat(claudeDir); err == nil && !opts.NoBackup {
		status.Step("backing up existing kit")
		result, err := createBackup(targetDir, cfg, opts, now)
		if err != nil {
			return nil, err
		}
		if result != nil {
			summary.BackupPath = result.Path
			status.Detail("%d file(s) saved to %s", result.Files, result.Path)
			if cfg.Backup.Keep > 0 {
				if _, err := backup.Prune(targetDir, cfg.Backup.Keep); err != nil {
					logger.Warn("pruning old backups", "error", err)
				}
			}
		}
	}

	// Copy the payload into place.
	status.Step("installing kit files")
	for _, file := range files {
		destination := filepath.Join(claudeDir, filepath.FromSlash(file.Path))
		if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", filepath.Dir(destination), err)
		}
		if err := os.WriteFile(destination, file.Data, file.Mode); err != nil {
			return nil, fmt.Errorf("writing %s: %w", destination, err)
		}
		summary.Installed = append(summary.Installed, ".claude/"+file.Path)
	}
	status.Detail("%d file(s)", len(files))

	// Settings: merge existing user keys over the template so a
	// reinstall never discards customizations. The local settings
	// file is user-owned after first install; only --force rewrites
	// it.
	status.Step("writing settings")
	if err := writeSettings(claudeDir, opts.Force); err != nil {
		return nil, err
	}
	summary.Installed = append(summary.Installed,
		".claude/settings.json", ".claude/settings.local.json")

	// Gitignore maintenance: each entry appended at most once.
	status.Step("updating .gitignore")
	entries := append(append([]string{}, StandardIgnoreEntries...), cfg.Gitignore.Extra...)
	added, err := EnsureIgnoreLines(filepath.Join(targetDir, ".gitignore"), entries)
	if err != nil {
		return nil, err
	}
	summary.GitignoreAdded = added
	if len(added) > 0 {
		status.Detail("added %d entr(ies)", len(added))
	} else {
		status.Detail("already up to date")
	}

	// Manifest: record what this install owns. settings.local.json is
	// deliberately excluded — it is user-local from here on and must
	// survive uninstall.
	status.Step("writing install manifest")
	manifestPaths := make([]string, 0, len(files)+1)
	for _, file := range files {
		manifestPaths = append(manifestPaths, ".claude/"+file.Path)
	}
	manifestPaths = append(manifestPaths, ".claude/settings.json")
	built, err := manifest.Build(targetDir, version.Short(), manifestPaths, now)
	if err != nil {
		return nil, err
	}
	if err := built.Write(targetDir); err != nil {
		return nil, err
	}

	// Validate the result. A missing required file means the install
	// is unusable; report every gap and exit 1.
	status.Step("validating installation")
	missing := missingRequired(targetDir, files)
	if len(missing) > 0 {
		for _, path := range missing {
			status.Error("missing %s", path)
		}
		return summary, &cli.ExitError{Code: 1}
	}
	status.Detail("all required files present")

	// Optional commit.
	if opts.Commit || cfg.Git.Commit {
		committed, err := commitInstall(ctx, targetDir, cfg, status)
		if err != nil {
			return nil, err
		}
		summary.Committed = committed
	}

	status.Success("kit %s installed into %s", version.Short(), targetDir)
	return summary, nil
}

// missingRequired returns the target-relative paths of required files
// that do not exist: every installed payload file plus both settings
// files.
func missingRequired(targetDir string, files []payload.File) []string {
	required := make([]string, 0, len(files)+2)
	for _, file := range files {
		required = append(required, ".claude/"+file.Path)
	}
	required = append(required, ".claude/settings.json", ".claude/settings.local.json")

	var missing []string
	for _, relPath := range required {
		if _, err := os.Stat(filepath.Join(targetDir, filepath.FromSlash(relPath))); err != nil {
			missing = append(missing, relPath)
		}
	}
	return missing
}

// filterComponents drops docs and hooks when the config disables them.
// Rules are always installed.
func filterComponents(files []payload.File, cfg *config.Config) []payload.File {
	kept := files[:0]
	for _, file := range files {
		switch {
		case strings.HasPrefix(file.Path, "docs/") && !cfg.Install.Docs:
		case strings.HasPrefix(file.Path, "hooks/") && !cfg.Install.Hooks:
		default:
			kept = append(kept, file)
		}
	}
	return kept
}

func createBackup(targetDir string, cfg *config.Config, opts Options, now time.Time) (*backup.Result, error) {
	formatName := cfg.Backup.Format
	if opts.BackupFormat != "" {
		formatName = opts.BackupFormat
	}
	format, err := backup.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	relPaths := []string{
		".claude/rules",
		".claude/docs",
		".claude/hooks",
		".claude/settings.json",
		".claude/settings.local.json",
	}
	return backup.Create(targetDir, relPaths, format, now)
}

func writeSettings(claudeDir string, force bool) error {
	template, err := payload.SettingsTemplate()
	if err != nil {
		return err
	}
	defaults, err := settings.Parse(template)
	if err != nil {
		return fmt.Errorf("settings template: %w", err)
	}

	settingsPath := filepath.Join(claudeDir, "settings.json")
	merged := defaults
	if existing, err := settings.ReadFile(settingsPath); err == nil {
		merged = settings.Merge(defaults, existing)
	} else if !os.IsNotExist(err) {
		return err
	}
	if err := settings.WriteFile(settingsPath, merged); err != nil {
		return err
	}

	localPath := filepath.Join(claudeDir, "settings.local.json")
	if _, err := os.Stat(localPath); err == nil && !force {
		return nil
	}
	localTemplate, err := payload.LocalSettingsTemplate()
	if err != nil {
		return err
	}
	local, err := settings.Parse(localTemplate)
	if err != nil {
		return fmt.Errorf("local settings template: %w", err)
	}
	return settings.WriteFile(localPath, local)
}

func commitInstall(ctx context.Context, targetDir string, cfg *config.Config, status *cli.Status) (bool, error) {
	repo := git.NewRepository(targetDir)
	if !repo.IsWorkTree(ctx) {
		status.Warn("target is not a git work tree, skipping commit")
		return false, nil
	}

	if err := repo.Add(ctx, ".claude", ".gitignore"); err != nil {
		return false, err
	}
	changed, err := repo.HasChanges(ctx)
	if err != nil {
		return false, err
	}
	if !changed {
		status.Detail("nothing to commit")
		return false, nil
	}
	if err := repo.Commit(ctx, cfg.Git.InstallMessage); err != nil {
		return false, err
	}
	status.Detail("committed: %s", cfg.Git.InstallMessage)
	return true, nil
}
