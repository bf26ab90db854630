// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package manifest records what an install put into a target, so that
// doctor and uninstall can tell rulekit-owned files from user files
// and detect local modification. The manifest lives inside the kit at
// .claude/.rulekit-manifest.json and stores a BLAKE3 keyed hash per
// file.
package manifest

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zeebo/blake3"
)

// FileName is the manifest filename, relative to the .claude directory.
// The leading dot keeps it out of the way of the kit's own content.
const FileName = ".rulekit-manifest.json"

// fileDomainKey is the 32-byte BLAKE3 key for manifest file hashes.
// Domain separation means a rulekit manifest hash can never collide
// with a hash of the same bytes computed for another purpose. The key
// is the ASCII domain name, zero-padded to 32 bytes, so it is readable
// in hex dumps. Changing it invalidates every existing manifest.
var fileDomainKey = [32]byte{
	'r', 'u', 'l', 'e', 'k', 'i', 't', '.',
	'm', 'a', 'n', 'i', 'f', 'e', 's', 't', '.',
	'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

// Entry describes one installed file.
type Entry struct {
	// Path is the file path relative to the target directory, using
	// forward slashes (e.g., ".claude/rules/plan-first.md").
	Path string `json:"path"`

	// Size is the file size in bytes at install time.
	Size int64 `json:"size"`

	// Hash is the hex BLAKE3 keyed hash of the file content at
	// install time.
	Hash string `json:"hash"`
}

// Manifest is the full install record.
type Manifest struct {
	// Version is the manifest format version.
	Version int `json:"version"`

	// KitVersion is the rulekit version that performed the install.
	KitVersion string `json:"kit_version"`

	// InstalledAt is the UTC install timestamp.
	InstalledAt time.Time `json:"installed_at"`

	// Entries lists every installed file, sorted by path.
	Entries []Entry `json:"entries"`
}

// FormatVersion is the current manifest format version.
const FormatVersion = 1

// HashBytes computes the manifest-domain BLAKE3 keyed hash of data.
func HashBytes(data []byte) string {
	hasher, err := blake3.NewKeyed(fileDomainKey[:])
	if err != nil {
		// NewKeyed only fails on a wrong key length, which is a
		// compile-time constant here.
		panic(fmt.Sprintf("blake3.NewKeyed: %v", err))
	}
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

// HashFile computes the manifest-domain hash of the file at path.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// Build hashes the given target-relative paths and assembles a
// manifest stamped with kitVersion and now.
func Build(targetDir, kitVersion string, relPaths []string, now time.Time) (*Manifest, error) {
	built := &Manifest{
		Version:     FormatVersion,
		KitVersion:  kitVersion,
		InstalledAt: now.UTC(),
	}

	for _, relPath := range relPaths {
		fullPath := filepath.Join(targetDir, filepath.FromSlash(relPath))
		info, err := os.Stat(fullPath)
		if err != nil {
			return nil, fmt.Errorf("manifest: stat %s: %w", relPath, err)
		}
		hash, err := HashFile(fullPath)
		if err != nil {
			return nil, fmt.Errorf("manifest: hash %s: %w", relPath, err)
		}
		built.Entries = append(built.Entries, Entry{
			Path: relPath,
			Size: info.Size(),
			Hash: hash,
		})
	}

	sort.Slice(built.Entries, func(i, j int) bool {
		return built.Entries[i].Path < built.Entries[j].Path
	})
	return built, nil
}

// Path returns the manifest location for a target directory.
func Path(targetDir string) string {
	return filepath.Join(targetDir, ".claude", FileName)
}

// Write stores the manifest in the target's .claude directory.
func (m *Manifest) Write(targetDir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshal: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(Path(targetDir), data, 0644); err != nil {
		return fmt.Errorf("manifest: write: %w", err)
	}
	return nil
}

// Load reads the manifest from a target directory. Returns
// os.ErrNotExist (wrapped) when the target has no manifest.
func Load(targetDir string) (*Manifest, error) {
	data, err := os.ReadFile(Path(targetDir))
	if err != nil {
		return nil, err
	}
	var loaded Manifest
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", Path(targetDir), err)
	}
	if loaded.Version != FormatVersion {
		return nil, fmt.Errorf("manifest: unsupported format version %d", loaded.Version)
	}
	return &loaded, nil
}

// FileState classifies an installed file against its manifest entry.
type FileState int

const (
	// StateOK means the file exists with its install-time content.
	StateOK FileState = iota

	// StateModified means the file exists but its content changed
	// since install.
	StateModified

	// StateMissing means the file no longer exists.
	StateMissing
)

// String returns the lowercase state name.
func (s FileState) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateModified:
		return "modified"
	case StateMissing:
		return "missing"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Drift pairs a manifest entry with its current on-disk state.
type Drift struct {
	Entry Entry
	State FileState
}

// Verify checks every entry against the target and returns the full
// per-file report, sorted like Entries. Hash errors other than
// not-exist are returned as errors rather than classified.
func (m *Manifest) Verify(targetDir string) ([]Drift, error) {
	report := make([]Drift, 0, len(m.Entries))

	for _, entry := range m.Entries {
		fullPath := filepath.Join(targetDir, filepath.FromSlash(entry.Path))
		hash, err := HashFile(fullPath)
		switch {
		case os.IsNotExist(err):
			report = append(report, Drift{Entry: entry, State: StateMissing})
		case err != nil:
			return nil, fmt.Errorf("manifest: verify %s: %w", entry.Path, err)
		case hash != entry.Hash:
			report = append(report, Drift{Entry: entry, State: StateModified})
		default:
			report = append(report, Drift{Entry: entry, State: StateOK})
		}
	}

	return report, nil
}
