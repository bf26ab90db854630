// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides project-level configuration for rulekit.
//
// Configuration is read from a single optional file, .rulekit.yaml in
// the target directory (or a path given via --config). There is no
// search path and no home-directory fallback: what a target gets is
// determined by the target itself, so installs are reproducible across
// machines.
//
// The file may contain profile sections (minimal, full) that override
// base values when the matching profile is selected. Command-line
// flags override everything.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Profile selects which parts of the kit an install deploys.
type Profile string

const (
	// ProfileFull installs rules, docs, and hooks.
	ProfileFull Profile = "full"
	// ProfileMinimal installs rules only.
	ProfileMinimal Profile = "minimal"
)

// FileName is the per-target configuration filename.
const FileName = ".rulekit.yaml"

// Config is the rulekit configuration for one target project.
type Config struct {
	// Profile names the default install profile.
	Profile Profile `yaml:"profile"`

	// Install configures which kit components are deployed.
	Install InstallConfig `yaml:"install"`

	// Backup configures pre-destructive-operation backups.
	Backup BackupConfig `yaml:"backup"`

	// Git configures commit behavior and messages.
	Git GitConfig `yaml:"git"`

	// Subtree configures the "migrate subtree" source.
	Subtree SubtreeConfig `yaml:"subtree"`

	// Gitignore configures extra ignore entries beyond the standard
	// set the installer always maintains.
	Gitignore GitignoreConfig `yaml:"gitignore"`

	// Profile overrides, applied over the base values when the
	// matching profile is selected.
	Minimal *Overrides `yaml:"minimal,omitempty"`
	Full    *Overrides `yaml:"full,omitempty"`
}

// Overrides contains the fields a profile section may override.
type Overrides struct {
	Install *InstallConfig `yaml:"install,omitempty"`
	Backup  *BackupConfig  `yaml:"backup,omitempty"`
	Git     *GitConfig     `yaml:"git,omitempty"`
}

// InstallConfig selects kit components.
type InstallConfig struct {
	// Docs installs .claude/docs.
	Docs bool `yaml:"docs"`

	// Hooks installs .claude/hooks.
	Hooks bool `yaml:"hooks"`
}

// BackupConfig configures backups.
type BackupConfig struct {
	// Format is the backup storage format: dir, lz4, or zstd.
	Format string `yaml:"format"`

	// Keep is how many backups to retain after a new one is created.
	// 0 keeps everything.
	Keep int `yaml:"keep"`
}

// GitConfig configures git side effects.
type GitConfig struct {
	// Commit enables "git add + commit" after a successful install
	// without requiring the --commit flag.
	Commit bool `yaml:"commit"`

	// InstallMessage is the commit message template for installs.
	InstallMessage string `yaml:"install_message"`

	// MigrateMessage is the commit message for the subtree removal
	// commit during migration.
	MigrateMessage string `yaml:"migrate_message"`
}

// SubtreeConfig configures the upstream rules repository for
// "rulekit migrate subtree".
type SubtreeConfig struct {
	// Remote is the repository URL to vendor.
	Remote string `yaml:"remote"`

	// Branch is the ref to vendor.
	Branch string `yaml:"branch"`

	// Prefix is the in-repo path the subtree is added at.
	Prefix string `yaml:"prefix"`
}

// GitignoreConfig configures .gitignore maintenance.
type GitignoreConfig struct {
	// Extra entries appended (exactly once each) in addition to the
	// standard set.
	Extra []string `yaml:"extra"`
}

// Default returns the default configuration. These are complete,
// usable values — the config file is optional and most targets never
// have one.
func Default() *Config {
	return &Config{
		Profile: ProfileFull,
		Install: InstallConfig{
			Docs:  true,
			Hooks: true,
		},
		Backup: BackupConfig{
			Format: "dir",
			Keep:   5,
		},
		Git: GitConfig{
			Commit:         false,
			InstallMessage: "chore: install claude code rules kit",
			MigrateMessage: "chore: convert claude code rules to git subtree",
		},
		Subtree: SubtreeConfig{
			Remote: "https://github.com/rulekit-dev/claude-rules.git",
			Branch: "main",
			Prefix: ".claude/rules",
		},
	}
}

// Load reads a config file and applies the selected profile's
// overrides. Unknown fields are an error so typos surface instead of
// silently meaning nothing.
func Load(path string, profile Profile) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	loaded := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(loaded); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if profile == "" {
		profile = loaded.Profile
	}
	if err := loaded.applyProfile(profile); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return loaded, nil
}

// LoadFromTarget loads .rulekit.yaml from the target directory when it
// exists, otherwise returns defaults with the profile applied.
func LoadFromTarget(targetDir string, profile Profile) (*Config, error) {
	loaded, err := Load(filepath.Join(targetDir, FileName), profile)
	if errors.Is(err, os.ErrNotExist) {
		loaded = Default()
		if profile == "" {
			profile = loaded.Profile
		}
		if err := loaded.applyProfile(profile); err != nil {
			return nil, err
		}
		return loaded, nil
	}
	return loaded, err
}

// applyProfile applies the overrides for the named profile.
func (c *Config) applyProfile(profile Profile) error {
	var overrides *Overrides
	switch profile {
	case ProfileFull:
		overrides = c.Full
	case ProfileMinimal:
		overrides = c.Minimal
		// The minimal profile's meaning is fixed even without an
		// explicit override section: rules only.
		if overrides == nil || overrides.Install == nil {
			c.Install = InstallConfig{Docs: false, Hooks: false}
		}
	default:
		return fmt.Errorf("unknown profile %q (expected %s or %s)", profile, ProfileFull, ProfileMinimal)
	}
	c.Profile = profile

	if overrides == nil {
		return nil
	}
	if overrides.Install != nil {
		c.Install = *overrides.Install
	}
	if overrides.Backup != nil {
		c.Backup = *overrides.Backup
	}
	if overrides.Git != nil {
		c.Git = *overrides.Git
	}
	return nil
}
