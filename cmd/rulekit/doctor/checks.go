// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package doctor implements the "rulekit doctor" command: an
// end-to-end verification of an installed kit. Checks cover the
// directory layout, required files, manifest drift, hook permissions,
// gitignore entries, and settings validity. Fixable failures repair
// from the embedded payload.
package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	clidoctor "github.com/rulekit-dev/rulekit/cmd/rulekit/cli/doctor"
	"github.com/rulekit-dev/rulekit/cmd/rulekit/install"
	"github.com/rulekit-dev/rulekit/lib/git"
	"github.com/rulekit-dev/rulekit/lib/manifest"
	"github.com/rulekit-dev/rulekit/lib/settings"
	"github.com/rulekit-dev/rulekit/lib/version"
	"github.com/rulekit-dev/rulekit/payload"
)

// CheckOptions controls which fixes the checks attach.
type CheckOptions struct {
	// FixModified attaches restore fixes to locally modified kit
	// files. Without it, modified files are reported but never
	// clobbered.
	FixModified bool
}

// Checks runs every health check against targetDir and returns the
// results in display order.
func Checks(ctx context.Context, targetDir string, opts CheckOptions) ([]clidoctor.Result, error) {
	files, err := payload.Files()
	if err != nil {
		return nil, err
	}
	byPath := make(map[string]payload.File, len(files))
	for _, file := range files {
		byPath[".claude/"+file.Path] = file
	}

	var results []clidoctor.Result

	// Layout: without a .claude directory there is nothing to check.
	claudeDir := filepath.Join(targetDir, ".claude")
	if _, err := os.Stat(claudeDir); err != nil {
		results = append(results, clidoctor.Fail("layout", "no .claude directory (run rulekit install)"))
		return results, nil
	}
	results = append(results, clidoctor.Pass("layout", ".claude directory present"))

	results = append(results, manifestChecks(targetDir, byPath, opts)...)
	results = append(results, hookChecks(targetDir)...)
	results = append(results, gitignoreCheck(targetDir))
	results = append(results, settingsChecks(targetDir)...)
	results = append(results, gitCheck(ctx, targetDir))

	return results, nil
}

// restoreFix writes the payload file back into the target.
func restoreFix(targetDir, relPath string, file payload.File) clidoctor.FixAction {
	return func(ctx context.Context) error {
		destination := filepath.Join(targetDir, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
			return err
		}
		return os.WriteFile(destination, file.Data, file.Mode)
	}
}

// manifestChecks verifies the install manifest and every file it
// records. A missing manifest downgrades per-file verification to a
// payload presence check.
func manifestChecks(targetDir string, byPath map[string]payload.File, opts CheckOptions) []clidoctor.Result {
	var results []clidoctor.Result

	loaded, err := manifest.Load(targetDir)
	if os.IsNotExist(err) {
		// The presence restores come first: ExecuteFixes runs fixes
		// in slice order, and the rebuilt manifest must record the
		// files the restores just put back.
		results = append(results, presenceChecks(targetDir, byPath)...)
		results = append(results, clidoctor.FailWithFix("manifest",
			"no install manifest",
			"rebuild manifest from current files",
			func(ctx context.Context) error {
				return rebuildManifest(targetDir, byPath)
			}))
		return results
	}
	if err != nil {
		results = append(results, clidoctor.Fail("manifest", err.Error()))
		return results
	}
	results = append(results, clidoctor.Pass("manifest",
		fmt.Sprintf("%d file(s) recorded by kit %s", len(loaded.Entries), loaded.KitVersion)))

	report, err := loaded.Verify(targetDir)
	if err != nil {
		results = append(results, clidoctor.Fail("files", err.Error()))
		return results
	}

	clean := 0
	for _, drift := range report {
		file, inPayload := byPath[drift.Entry.Path]
		name := "file:" + drift.Entry.Path

		switch drift.State {
		case manifest.StateOK:
			clean++
		case manifest.StateMissing:
			if inPayload {
				results = append(results, clidoctor.FailWithFix(name,
					"missing since install",
					"restore from embedded kit",
					restoreFix(targetDir, drift.Entry.Path, file)))
			} else {
				results = append(results, clidoctor.Fail(name, "missing since install"))
			}
		case manifest.StateModified:
			// settings.json drift is expected: users own that file
			// after install.
			if drift.Entry.Path == ".claude/settings.json" {
				results = append(results, clidoctor.Warn(name, "modified since install (user customization)"))
				continue
			}
			if inPayload && opts.FixModified {
				results = append(results, clidoctor.FailWithFix(name,
					"locally modified",
					"overwrite with embedded kit version",
					restoreFix(targetDir, drift.Entry.Path, file)))
			} else {
				results = append(results, clidoctor.Fail(name,
					"locally modified (use --fix-modified to overwrite)"))
			}
		}
	}
	if clean == len(report) {
		results = append(results, clidoctor.Pass("files",
			fmt.Sprintf("all %d recorded file(s) match their install hashes", clean)))
	}

	return results
}

// presenceChecks is the manifest-less fallback: each payload file must
// at least exist.
func presenceChecks(targetDir string, byPath map[string]payload.File) []clidoctor.Result {
	relPaths := make([]string, 0, len(byPath))
	for relPath := range byPath {
		relPaths = append(relPaths, relPath)
	}
	sort.Strings(relPaths)

	var results []clidoctor.Result
	missing := 0
	for _, relPath := range relPaths {
		if _, err := os.Stat(filepath.Join(targetDir, filepath.FromSlash(relPath))); err != nil {
			missing++
			results = append(results, clidoctor.FailWithFix("file:"+relPath,
				"missing",
				"restore from embedded kit",
				restoreFix(targetDir, relPath, byPath[relPath])))
		}
	}
	if missing == 0 {
		results = append(results, clidoctor.Pass("files",
			fmt.Sprintf("all %d kit file(s) present", len(byPath))))
	}
	return results
}

// rebuildManifest records the current on-disk kit state. Files that do
// not exist are simply not recorded.
func rebuildManifest(targetDir string, byPath map[string]payload.File) error {
	var relPaths []string
	for relPath := range byPath {
		if _, err := os.Stat(filepath.Join(targetDir, filepath.FromSlash(relPath))); err == nil {
			relPaths = append(relPaths, relPath)
		}
	}
	settingsPath := ".claude/settings.json"
	if _, err := os.Stat(filepath.Join(targetDir, filepath.FromSlash(settingsPath))); err == nil {
		relPaths = append(relPaths, settingsPath)
	}

	sort.Strings(relPaths)
	built, err := manifest.Build(targetDir, version.Short(), relPaths, time.Now())
	if err != nil {
		return err
	}
	return built.Write(targetDir)
}

// hookChecks verifies every hook script carries the executable bit.
func hookChecks(targetDir string) []clidoctor.Result {
	hooksDir := filepath.Join(targetDir, ".claude", "hooks")
	entries, err := os.ReadDir(hooksDir)
	if os.IsNotExist(err) {
		return []clidoctor.Result{clidoctor.Skip("hooks", "no hooks directory (minimal profile)")}
	}
	if err != nil {
		return []clidoctor.Result{clidoctor.Fail("hooks", err.Error())}
	}

	broken := 0
	var results []clidoctor.Result
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sh") {
			continue
		}
		hookPath := filepath.Join(hooksDir, entry.Name())
		info, err := os.Stat(hookPath)
		if err != nil {
			results = append(results, clidoctor.Fail("hook:"+entry.Name(), err.Error()))
			broken++
			continue
		}
		if info.Mode().Perm()&0111 == 0 {
			broken++
			results = append(results, clidoctor.FailWithFix("hook:"+entry.Name(),
				"not executable",
				"chmod 755",
				func(ctx context.Context) error {
					return os.Chmod(hookPath, 0755)
				}))
		}
	}
	if broken == 0 {
		results = append(results, clidoctor.Pass("hooks", "all hook scripts executable"))
	}
	return results
}

// gitignoreCheck verifies the standard ignore entries are present.
func gitignoreCheck(targetDir string) clidoctor.Result {
	gitignorePath := filepath.Join(targetDir, ".gitignore")
	content, err := os.ReadFile(gitignorePath)
	if err != nil && !os.IsNotExist(err) {
		return clidoctor.Fail("gitignore", err.Error())
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}
	var missing []string
	for _, entry := range install.StandardIgnoreEntries {
		if !present[entry] {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return clidoctor.Pass("gitignore", "standard entries present")
	}
	return clidoctor.FailWithFix("gitignore",
		fmt.Sprintf("missing %d entr(ies): %s", len(missing), strings.Join(missing, ", ")),
		"append missing entries",
		func(ctx context.Context) error {
			_, err := install.EnsureIgnoreLines(gitignorePath, install.StandardIgnoreEntries)
			return err
		})
}

// settingsChecks verifies both settings files parse. settings.json is
// required; the local file is the user's and only warns.
func settingsChecks(targetDir string) []clidoctor.Result {
	var results []clidoctor.Result

	settingsPath := filepath.Join(targetDir, ".claude", "settings.json")
	if _, err := settings.ReadFile(settingsPath); err != nil {
		if os.IsNotExist(err) {
			results = append(results, clidoctor.FailWithFix("settings",
				"settings.json missing",
				"write from embedded template",
				writeTemplateFix(settingsPath, payload.SettingsTemplate)))
		} else {
			results = append(results, clidoctor.Fail("settings",
				fmt.Sprintf("settings.json: %v", err)))
		}
	} else {
		results = append(results, clidoctor.Pass("settings", "settings.json parses"))
	}

	localPath := filepath.Join(targetDir, ".claude", "settings.local.json")
	if _, err := settings.ReadFile(localPath); err != nil {
		if os.IsNotExist(err) {
			results = append(results, clidoctor.FailWithFix("settings.local",
				"settings.local.json missing",
				"write from embedded template",
				writeTemplateFix(localPath, payload.LocalSettingsTemplate)))
		} else {
			results = append(results, clidoctor.Warn("settings.local",
				fmt.Sprintf("settings.local.json: %v", err)))
		}
	} else {
		results = append(results, clidoctor.Pass("settings.local", "settings.local.json parses"))
	}

	return results
}

func writeTemplateFix(path string, template func() ([]byte, error)) clidoctor.FixAction {
	return func(ctx context.Context) error {
		data, err := template()
		if err != nil {
			return err
		}
		parsed, err := settings.Parse(data)
		if err != nil {
			return err
		}
		return settings.WriteFile(path, parsed)
	}
}

// gitCheck reports whether the target is under version control. Not
// being a repository is legitimate, so this never fails.
func gitCheck(ctx context.Context, targetDir string) clidoctor.Result {
	repo := git.NewRepository(targetDir)
	if !repo.IsWorkTree(ctx) {
		return clidoctor.Warn("git", "target is not a git work tree")
	}
	head, err := repo.Head(ctx)
	if err != nil {
		return clidoctor.Warn("git", fmt.Sprintf("work tree with unreadable HEAD: %v", err))
	}
	return clidoctor.Pass("git", "work tree at "+head[:12])
}
