// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package install

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnsureIgnoreLinesCreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".gitignore")
	added, err := EnsureIgnoreLines(path, StandardIgnoreEntries)
	if err != nil {
		t.Fatalf("EnsureIgnoreLines: %v", err)
	}
	if len(added) != len(StandardIgnoreEntries) {
		t.Errorf("added %d entries, want %d", len(added), len(StandardIgnoreEntries))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading result: %v", err)
	}
	for _, entry := range StandardIgnoreEntries {
		if !strings.Contains(string(content), entry+"\n") {
			t.Errorf("missing entry %q", entry)
		}
	}
}

func TestEnsureIgnoreLinesIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".gitignore")
	if _, err := EnsureIgnoreLines(path, StandardIgnoreEntries); err != nil {
		t.Fatalf("first run: %v", err)
	}
	added, err := EnsureIgnoreLines(path, StandardIgnoreEntries)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if added != nil {
		t.Errorf("second run added %v, want nothing", added)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading result: %v", err)
	}
	for _, entry := range StandardIgnoreEntries {
		if got := strings.Count(string(content), entry+"\n"); got != 1 {
			t.Errorf("entry %q appears %d times, want 1", entry, got)
		}
	}
}

func TestEnsureIgnoreLinesPreservesExisting(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".gitignore")
	// No trailing newline: the append must add one before the entries.
	if err := os.WriteFile(path, []byte("node_modules/\n*.o"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := EnsureIgnoreLines(path, []string{".claude/session/"}); err != nil {
		t.Fatalf("EnsureIgnoreLines: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := "node_modules/\n*.o\n.claude/session/\n"
	if string(content) != want {
		t.Errorf("content = %q, want %q", content, want)
	}
}

func TestEnsureIgnoreLinesSkipsPresent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".gitignore")
	if err := os.WriteFile(path, []byte(".claude/session/\n"), 0644); err != nil {
		t.Fatal(err)
	}

	added, err := EnsureIgnoreLines(path, []string{".claude/session/", ".claude/*.log"})
	if err != nil {
		t.Fatalf("EnsureIgnoreLines: %v", err)
	}
	if len(added) != 1 || added[0] != ".claude/*.log" {
		t.Errorf("added = %v, want [.claude/*.log]", added)
	}
}
