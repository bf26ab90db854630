// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package install

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
	"github.com/rulekit-dev/rulekit/lib/backup"
	"github.com/rulekit-dev/rulekit/lib/config"
	"github.com/rulekit-dev/rulekit/lib/manifest"
	"github.com/rulekit-dev/rulekit/lib/settings"
	"github.com/rulekit-dev/rulekit/payload"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runInstall(t *testing.T, targetDir string, cfg *config.Config, opts Options) *Summary {
	t.Helper()
	var out strings.Builder
	summary, err := Run(context.Background(), targetDir, cfg, opts, cli.NewStatus(&out), testLogger())
	if err != nil {
		t.Fatalf("install: %v\noutput:\n%s", err, out.String())
	}
	return summary
}

func TestInstallFreshLayout(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	runInstall(t, target, config.Default(), Options{})

	// The kit skeleton exists and is populated.
	for _, dir := range []string{".claude/rules", ".claude/docs", ".claude/hooks"} {
		entries, err := os.ReadDir(filepath.Join(target, dir))
		if err != nil {
			t.Fatalf("reading %s: %v", dir, err)
		}
		if len(entries) == 0 {
			t.Errorf("%s is empty", dir)
		}
	}

	// Hook scripts are executable.
	hooks, err := os.ReadDir(filepath.Join(target, ".claude/hooks"))
	if err != nil {
		t.Fatal(err)
	}
	for _, hook := range hooks {
		info, err := os.Stat(filepath.Join(target, ".claude/hooks", hook.Name()))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0111 == 0 {
			t.Errorf("hook %s not executable: %v", hook.Name(), info.Mode())
		}
	}

	// Both settings files parse as strict JSON.
	for _, name := range []string{"settings.json", "settings.local.json"} {
		parsed, err := settings.ReadFile(filepath.Join(target, ".claude", name))
		if err != nil {
			t.Errorf("reading %s: %v", name, err)
		}
		if len(parsed) == 0 {
			t.Errorf("%s is empty", name)
		}
	}

	// The standard gitignore entries are present.
	gitignore, err := os.ReadFile(filepath.Join(target, ".gitignore"))
	if err != nil {
		t.Fatalf("reading .gitignore: %v", err)
	}
	for _, entry := range StandardIgnoreEntries {
		if !strings.Contains(string(gitignore), entry+"\n") {
			t.Errorf(".gitignore missing %q", entry)
		}
	}

	// The manifest verifies clean.
	loaded, err := manifest.Load(target)
	if err != nil {
		t.Fatalf("loading manifest: %v", err)
	}
	report, err := loaded.Verify(target)
	if err != nil {
		t.Fatalf("verifying manifest: %v", err)
	}
	for _, drift := range report {
		if drift.State != manifest.StateOK {
			t.Errorf("%s: state %s after fresh install", drift.Entry.Path, drift.State)
		}
	}
}

func TestInstallSecondRunBacksUpAndKeepsGitignoreUnique(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	first := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	runInstall(t, target, config.Default(), Options{Now: first})

	summary := runInstall(t, target, config.Default(), Options{Now: first.Add(time.Minute)})

	if summary.BackupPath == "" {
		t.Error("second install did not create a backup")
	}
	if _, err := os.Stat(summary.BackupPath); err != nil {
		t.Errorf("backup path %s: %v", summary.BackupPath, err)
	}
	entries, err := os.ReadDir(backup.Dir(target))
	if err != nil || len(entries) == 0 {
		t.Errorf("backups directory empty (err=%v)", err)
	}

	gitignore, err := os.ReadFile(filepath.Join(target, ".gitignore"))
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range StandardIgnoreEntries {
		if got := strings.Count(string(gitignore), entry+"\n"); got != 1 {
			t.Errorf("entry %q appears %d times after reinstall, want 1", entry, got)
		}
	}
	if len(summary.GitignoreAdded) != 0 {
		t.Errorf("second install reported gitignore additions: %v", summary.GitignoreAdded)
	}
}

func TestInstallNoBackup(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	runInstall(t, target, config.Default(), Options{})
	summary := runInstall(t, target, config.Default(), Options{NoBackup: true})

	if summary.BackupPath != "" {
		t.Errorf("backup created despite NoBackup: %s", summary.BackupPath)
	}
}

func TestInstallPreservesUserSettingsKeys(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	claudeDir := filepath.Join(target, ".claude")
	if err := os.MkdirAll(claudeDir, 0755); err != nil {
		t.Fatal(err)
	}
	err := settings.WriteFile(filepath.Join(claudeDir, "settings.json"), map[string]any{
		"model": "custom-model",
	})
	if err != nil {
		t.Fatal(err)
	}

	runInstall(t, target, config.Default(), Options{})

	merged, err := settings.ReadFile(filepath.Join(claudeDir, "settings.json"))
	if err != nil {
		t.Fatal(err)
	}
	if merged["model"] != "custom-model" {
		t.Errorf("user settings key lost: model = %v", merged["model"])
	}
	// Template keys are still there alongside the user's.
	if _, ok := merged["hooks"]; !ok {
		t.Error("template hooks key missing after merge")
	}
}

func TestInstallLocalSettingsOnlyRewrittenWithForce(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	runInstall(t, target, config.Default(), Options{})

	localPath := filepath.Join(target, ".claude", "settings.local.json")
	err := settings.WriteFile(localPath, map[string]any{"marker": "user-owned"})
	if err != nil {
		t.Fatal(err)
	}

	runInstall(t, target, config.Default(), Options{})
	kept, err := settings.ReadFile(localPath)
	if err != nil {
		t.Fatal(err)
	}
	if kept["marker"] != "user-owned" {
		t.Error("settings.local.json rewritten without --force")
	}

	runInstall(t, target, config.Default(), Options{Force: true})
	rewritten, err := settings.ReadFile(localPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rewritten["marker"]; ok {
		t.Error("settings.local.json not rewritten with --force")
	}
}

func TestInstallMinimalProfileSkipsDocsAndHooks(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	cfg := config.Default()
	cfg.Install = config.InstallConfig{Docs: false, Hooks: false}
	runInstall(t, target, cfg, Options{})

	for _, dir := range []string{".claude/docs", ".claude/hooks"} {
		if _, err := os.Stat(filepath.Join(target, dir)); !os.IsNotExist(err) {
			t.Errorf("%s exists in minimal install (err=%v)", dir, err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(target, ".claude/rules"))
	if err != nil || len(entries) == 0 {
		t.Errorf("rules missing in minimal install (err=%v)", err)
	}
}

func TestMissingRequiredDetectsRemovedFile(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	runInstall(t, target, config.Default(), Options{})

	rules, err := os.ReadDir(filepath.Join(target, ".claude/rules"))
	if err != nil || len(rules) == 0 {
		t.Fatalf("no rules installed (err=%v)", err)
	}
	removed := ".claude/rules/" + rules[0].Name()
	if err := os.Remove(filepath.Join(target, filepath.FromSlash(removed))); err != nil {
		t.Fatal(err)
	}

	files, err := payload.Files()
	if err != nil {
		t.Fatal(err)
	}
	missing := missingRequired(target, files)
	found := false
	for _, path := range missing {
		if path == removed {
			found = true
		}
	}
	if !found {
		t.Errorf("missingRequired = %v, want to include %s", missing, removed)
	}
}

func TestInstallCommit(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	gitRun(t, target, "init", "--initial-branch=main")
	gitRun(t, target, "config", "user.email", "test@example.com")
	gitRun(t, target, "config", "user.name", "Test")
	if err := os.WriteFile(filepath.Join(target, "README.md"), []byte("hi\n"), 0644); err != nil {
		t.Fatal(err)
	}
	gitRun(t, target, "add", ".")
	gitRun(t, target, "commit", "-m", "initial")

	cfg := config.Default()
	summary := runInstall(t, target, cfg, Options{Commit: true})
	if !summary.Committed {
		t.Fatal("install did not commit")
	}

	message := gitRun(t, target, "log", "-1", "--format=%s")
	if strings.TrimSpace(message) != cfg.Git.InstallMessage {
		t.Errorf("commit message = %q, want %q", strings.TrimSpace(message), cfg.Git.InstallMessage)
	}
}

func TestInstallCommitSkippedOutsideWorkTree(t *testing.T) {
	t.Parallel()

	target := t.TempDir()
	summary := runInstall(t, target, config.Default(), Options{Commit: true})
	if summary.Committed {
		t.Error("commit reported outside a git work tree")
	}
}

func gitRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	command := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := command.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, output)
	}
	return string(output)
}
