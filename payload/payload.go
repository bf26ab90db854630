// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package payload provides the embedded kit content the installer
// deploys: rule files, docs, hook scripts, and the settings templates.
// Settings templates are JSONC (JSON with comments and trailing
// commas) so they can document their own fields; the installer writes
// normalized strict JSON into targets.
//
// Files are embedded at compile time via go:embed. Embedded rules are
// parsed and validated by [Rules], so a malformed rule fails the
// payload's own tests rather than surfacing during someone's install.
package payload

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/rulekit-dev/rulekit/lib/ruleset"
)

//go:embed kit
var kitFS embed.FS

// File is one deployable kit file.
type File struct {
	// Path is the install path relative to the .claude directory,
	// with forward slashes (e.g., "rules/plan-first.md").
	Path string

	// Mode is the file mode to install with. Hook scripts are 0755,
	// everything else 0644.
	Mode fs.FileMode

	// Data is the file content.
	Data []byte
}

// settings template names inside the embedded tree. The .jsonc
// extension is payload-internal; targets receive settings.json and
// settings.local.json.
const (
	settingsTemplateName      = "kit/settings.jsonc"
	localSettingsTemplateName = "kit/settings.local.jsonc"
)

// Files returns the deployable content files (rules, docs, hooks),
// sorted by path. Settings templates are not included — they go
// through the settings package so user keys survive reinstalls.
func Files() ([]File, error) {
	var files []File

	for _, subdir := range []string{"rules", "docs", "hooks"} {
		entries, err := kitFS.ReadDir(path.Join("kit", subdir))
		if err != nil {
			return nil, fmt.Errorf("payload: reading embedded %s: %w", subdir, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			relPath := path.Join(subdir, entry.Name())
			data, err := kitFS.ReadFile(path.Join("kit", relPath))
			if err != nil {
				return nil, fmt.Errorf("payload: reading embedded %s: %w", relPath, err)
			}
			mode := fs.FileMode(0644)
			if subdir == "hooks" {
				mode = 0755
			}
			files = append(files, File{Path: relPath, Mode: mode, Data: data})
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// SettingsTemplate returns the JSONC template for .claude/settings.json.
func SettingsTemplate() ([]byte, error) {
	return kitFS.ReadFile(settingsTemplateName)
}

// LocalSettingsTemplate returns the JSONC template for
// .claude/settings.local.json.
func LocalSettingsTemplate() ([]byte, error) {
	return kitFS.ReadFile(localSettingsTemplateName)
}

// Rules returns the embedded rule files parsed and validated. An error
// here indicates a bug in the embedded content, not a runtime
// condition.
func Rules() ([]ruleset.Rule, error) {
	entries, err := kitFS.ReadDir("kit/rules")
	if err != nil {
		return nil, fmt.Errorf("payload: reading embedded rules: %w", err)
	}

	var rules []ruleset.Rule
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".md" {
			continue
		}
		data, err := kitFS.ReadFile(path.Join("kit/rules", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("payload: reading embedded rule %s: %w", entry.Name(), err)
		}
		rule, err := ruleset.Parse(strings.TrimSuffix(entry.Name(), ".md"), data)
		if err != nil {
			return nil, fmt.Errorf("payload: %w", err)
		}
		rules = append(rules, *rule)
	}

	if issues := ruleset.Validate(rules); len(issues) > 0 {
		return nil, fmt.Errorf("payload: invalid embedded rules: %s", strings.Join(issues, "; "))
	}
	return rules, nil
}
