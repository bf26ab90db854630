// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package backup

import (
	"archive/tar"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// seedKit writes a small kit into a temp target and returns its path.
func seedKit(t *testing.T) string {
	t.Helper()

	target := t.TempDir()
	files := map[string]string{
		".claude/rules/plan-first.md": "# Plan First\n",
		".claude/rules/tdd.md":        "# TDD\n",
		".claude/settings.json":       "{}\n",
	}
	for relPath, content := range files {
		fullPath := filepath.Join(target, filepath.FromSlash(relPath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", relPath, err)
		}
	}
	return target
}

var kitPaths = []string{".claude/rules", ".claude/settings.json", ".claude/docs"}

func TestCreate_Dir(t *testing.T) {
	t.Parallel()

	target := seedKit(t)
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	result, err := Create(target, kitPaths, FormatDir, now)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if result == nil {
		t.Fatal("Create returned nil result for a populated kit")
	}
	if result.Files != 3 {
		t.Errorf("Files = %d, want 3", result.Files)
	}
	if filepath.Base(result.Path) != "20260301-103000" {
		t.Errorf("backup name = %s, want timestamp", filepath.Base(result.Path))
	}

	copied, err := os.ReadFile(filepath.Join(result.Path, ".claude", "rules", "plan-first.md"))
	if err != nil {
		t.Fatalf("read backed-up rule: %v", err)
	}
	if string(copied) != "# Plan First\n" {
		t.Errorf("backed-up content = %q", copied)
	}
}

func TestCreate_NothingToBackUp(t *testing.T) {
	t.Parallel()

	result, err := Create(t.TempDir(), kitPaths, FormatDir, time.Now())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if result != nil {
		t.Errorf("Create = %+v, want nil for an empty target", result)
	}
}

func TestCreate_SameSecondCollision(t *testing.T) {
	t.Parallel()

	target := seedKit(t)
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	first, err := Create(target, kitPaths, FormatDir, now)
	if err != nil {
		t.Fatalf("first Create: %v", err)
	}
	second, err := Create(target, kitPaths, FormatDir, now)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if first.Path == second.Path {
		t.Errorf("second backup reused path %s", first.Path)
	}
}

func TestCreate_Archives(t *testing.T) {
	t.Parallel()

	cases := []struct {
		format Format
		open   func(io.Reader) (io.Reader, error)
	}{
		{FormatLZ4, func(r io.Reader) (io.Reader, error) { return lz4.NewReader(r), nil }},
		{FormatZstd, func(r io.Reader) (io.Reader, error) {
			decoder, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return decoder.IOReadCloser(), nil
		}},
	}

	for _, testCase := range cases {
		t.Run(testCase.format.String(), func(t *testing.T) {
			t.Parallel()

			target := seedKit(t)
			result, err := Create(target, kitPaths, testCase.format, time.Now())
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if filepath.Ext(result.Path) == "" {
				t.Errorf("archive path %s has no extension", result.Path)
			}

			archiveFile, err := os.Open(result.Path)
			if err != nil {
				t.Fatalf("open archive: %v", err)
			}
			defer archiveFile.Close()

			decompressed, err := testCase.open(archiveFile)
			if err != nil {
				t.Fatalf("open decompressor: %v", err)
			}

			names := make(map[string]bool)
			tarReader := tar.NewReader(decompressed)
			for {
				header, err := tarReader.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("tar next: %v", err)
				}
				names[header.Name] = true
			}

			for _, want := range []string{
				".claude/rules/plan-first.md",
				".claude/rules/tdd.md",
				".claude/settings.json",
			} {
				if !names[want] {
					t.Errorf("archive missing %s (got %v)", want, names)
				}
			}
		})
	}
}

func TestParseFormat_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, format := range []Format{FormatDir, FormatLZ4, FormatZstd} {
		parsed, err := ParseFormat(format.String())
		if err != nil {
			t.Errorf("ParseFormat(%s): %v", format, err)
		}
		if parsed != format {
			t.Errorf("ParseFormat(%s) = %s", format, parsed)
		}
	}
	if _, err := ParseFormat("gzip"); err == nil {
		t.Error("ParseFormat accepted an unknown format")
	}
}

func TestPrune(t *testing.T) {
	t.Parallel()

	target := seedKit(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := range 5 {
		if _, err := Create(target, kitPaths, FormatDir, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	removed, err := Prune(target, 2)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 3 {
		t.Errorf("Prune removed %d, want 3", removed)
	}

	entries, err := os.ReadDir(Dir(target))
	if err != nil {
		t.Fatalf("read backups dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("%d backups remain, want 2", len(entries))
	}
	// The newest two survive.
	if entries[0].Name() != "20260301-100300" || entries[1].Name() != "20260301-100400" {
		t.Errorf("surviving backups = %s, %s", entries[0].Name(), entries[1].Name())
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()

	target := seedKit(t)
	result, err := Create(target, kitPaths, FormatDir, time.Now())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rulePath := filepath.Join(target, ".claude", "rules", "plan-first.md")
	if err := os.WriteFile(rulePath, []byte("clobbered\n"), 0644); err != nil {
		t.Fatalf("clobber: %v", err)
	}

	if err := Restore(target, result.Path); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	restored, err := os.ReadFile(rulePath)
	if err != nil {
		t.Fatalf("read restored: %v", err)
	}
	if string(restored) != "# Plan First\n" {
		t.Errorf("restored content = %q", restored)
	}
}

func TestRestore_RejectsArchive(t *testing.T) {
	t.Parallel()

	if err := Restore(t.TempDir(), "/tmp/whatever.tar.lz4"); err == nil {
		t.Fatal("Restore accepted an archive path")
	}
}
