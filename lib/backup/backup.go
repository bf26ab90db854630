// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package backup creates timestamped backups of an installed kit
// before destructive operations (reinstall, subtree migration,
// uninstall). A backup is either a plain directory copy or a single
// compressed tar archive; both live under .claude/backups in the
// target.
package backup

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format identifies how a backup is stored on disk.
type Format uint8

const (
	// FormatDir stores the backup as a plain directory copy. Easiest
	// to restore by hand, largest on disk.
	FormatDir Format = 0

	// FormatLZ4 stores the backup as a tar archive with LZ4 frame
	// compression. Fast default when archives are wanted.
	FormatLZ4 Format = 1

	// FormatZstd stores the backup as a tar archive with zstd
	// compression. Better ratios for the kit's markdown and JSON
	// content at slightly more CPU cost.
	FormatZstd Format = 2
)

// String returns the human-readable name of a format.
func (f Format) String() string {
	switch f {
	case FormatDir:
		return "dir"
	case FormatLZ4:
		return "lz4"
	case FormatZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// ParseFormat parses a format from its string representation.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "dir":
		return FormatDir, nil
	case "lz4":
		return FormatLZ4, nil
	case "zstd":
		return FormatZstd, nil
	default:
		return 0, fmt.Errorf("unknown backup format: %q", name)
	}
}

// extension returns the archive filename extension for a format.
func (f Format) extension() string {
	switch f {
	case FormatLZ4:
		return ".tar.lz4"
	case FormatZstd:
		return ".tar.zst"
	default:
		return ""
	}
}

// Result describes a created backup.
type Result struct {
	// Path is the backup directory or archive file.
	Path string

	// Format is how the backup is stored.
	Format Format

	// Files is the number of files captured.
	Files int
}

// Dir returns the backups directory for a target.
func Dir(targetDir string) string {
	return filepath.Join(targetDir, ".claude", "backups")
}

// stampFormat produces names that sort chronologically, which Prune
// relies on.
const stampFormat = "20060102-150405"

// Create backs up the given target-relative paths (files or
// directories; missing ones are skipped) into a new timestamped backup.
// Returns nil when nothing existed to back up.
func Create(targetDir string, relPaths []string, format Format, now time.Time) (*Result, error) {
	files, err := collectFiles(targetDir, relPaths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(Dir(targetDir), 0755); err != nil {
		return nil, fmt.Errorf("backup: create backups directory: %w", err)
	}

	destination, err := reserveName(Dir(targetDir), now.Format(stampFormat), format)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatDir:
		err = writeDirectoryBackup(targetDir, destination, files)
	case FormatLZ4, FormatZstd:
		err = writeArchiveBackup(targetDir, destination, files, format)
	default:
		err = fmt.Errorf("backup: unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}

	return &Result{Path: destination, Format: format, Files: len(files)}, nil
}

// collectFiles expands relPaths into the list of regular files under
// them, relative to targetDir.
func collectFiles(targetDir string, relPaths []string) ([]string, error) {
	var files []string
	for _, relPath := range relPaths {
		fullPath := filepath.Join(targetDir, filepath.FromSlash(relPath))
		info, err := os.Stat(fullPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("backup: stat %s: %w", relPath, err)
		}

		if !info.IsDir() {
			files = append(files, relPath)
			continue
		}

		walkErr := filepath.WalkDir(fullPath, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if entry.IsDir() {
				return nil
			}
			relative, err := filepath.Rel(targetDir, path)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(relative))
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("backup: walk %s: %w", relPath, walkErr)
		}
	}
	sort.Strings(files)
	return files, nil
}

// reserveName finds an unused backup name for the given stamp,
// suffixing -2, -3, ... when backups land within the same second.
func reserveName(backupsDir, stamp string, format Format) (string, error) {
	for attempt := 1; attempt <= 100; attempt++ {
		name := stamp
		if attempt > 1 {
			name = fmt.Sprintf("%s-%d", stamp, attempt)
		}
		candidate := filepath.Join(backupsDir, name+format.extension())
		if _, err := os.Lstat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil {
			return "", fmt.Errorf("backup: stat %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("backup: could not reserve a name for stamp %s", stamp)
}

func writeDirectoryBackup(targetDir, destination string, files []string) error {
	for _, relPath := range files {
		sourcePath := filepath.Join(targetDir, filepath.FromSlash(relPath))
		destinationPath := filepath.Join(destination, filepath.FromSlash(relPath))
		if err := copyFile(sourcePath, destinationPath); err != nil {
			return fmt.Errorf("backup: copy %s: %w", relPath, err)
		}
	}
	return nil
}

// copyFile copies a regular file, preserving its mode bits.
func copyFile(sourcePath, destinationPath string) error {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(destinationPath, data, info.Mode().Perm())
}

func writeArchiveBackup(targetDir, destination string, files []string, format Format) error {
	archiveFile, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("backup: create archive: %w", err)
	}
	defer archiveFile.Close()

	var compressor io.WriteCloser
	switch format {
	case FormatLZ4:
		compressor = lz4.NewWriter(archiveFile)
	case FormatZstd:
		compressor, err = zstd.NewWriter(archiveFile)
		if err != nil {
			return fmt.Errorf("backup: init zstd: %w", err)
		}
	}

	tarWriter := tar.NewWriter(compressor)
	for _, relPath := range files {
		if err := addToArchive(tarWriter, targetDir, relPath); err != nil {
			return fmt.Errorf("backup: archive %s: %w", relPath, err)
		}
	}
	if err := tarWriter.Close(); err != nil {
		return fmt.Errorf("backup: finalize tar: %w", err)
	}
	if err := compressor.Close(); err != nil {
		return fmt.Errorf("backup: finalize compressor: %w", err)
	}
	return archiveFile.Close()
}

func addToArchive(tarWriter *tar.Writer, targetDir, relPath string) error {
	fullPath := filepath.Join(targetDir, filepath.FromSlash(relPath))
	info, err := os.Stat(fullPath)
	if err != nil {
		return err
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = relPath

	if err := tarWriter.WriteHeader(header); err != nil {
		return err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return err
	}
	_, err = tarWriter.Write(data)
	return err
}

// Prune removes the oldest backups, keeping the most recent keep
// entries. Returns the number removed. keep < 1 means keep everything.
func Prune(targetDir string, keep int) (int, error) {
	if keep < 1 {
		return 0, nil
	}

	entries, err := os.ReadDir(Dir(targetDir))
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("backup: read backups directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	// Timestamped names sort chronologically.
	sort.Strings(names)

	if len(names) <= keep {
		return 0, nil
	}

	removed := 0
	for _, name := range names[:len(names)-keep] {
		if err := os.RemoveAll(filepath.Join(Dir(targetDir), name)); err != nil {
			return removed, fmt.Errorf("backup: prune %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// Restore copies a directory-format backup's files back into the
// target, overwriting whatever is there. Archive backups are restored
// manually; the migration rollback only ever creates directory
// backups for exactly this reason.
func Restore(targetDir, backupPath string) error {
	if strings.Contains(backupPath, ".tar.") {
		return fmt.Errorf("backup: %s is an archive; extract it manually", backupPath)
	}

	return filepath.WalkDir(backupPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		relative, err := filepath.Rel(backupPath, path)
		if err != nil {
			return err
		}
		destinationPath := filepath.Join(targetDir, relative)
		if err := copyFile(path, destinationPath); err != nil {
			return fmt.Errorf("backup: restore %s: %w", relative, err)
		}
		return nil
	})
}
