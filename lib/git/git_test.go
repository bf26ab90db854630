// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// initRepo creates a git repository with one initial commit in a temp
// directory and returns its path. Identity is configured locally so
// commits work on machines with no global git config.
func initRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	commands := [][]string{
		{"init", "--initial-branch=main", dir},
		{"-C", dir, "config", "user.name", "Test"},
		{"-C", dir, "config", "user.email", "test@test.local"},
	}
	for _, args := range commands {
		command := exec.Command("git", args...)
		if output, err := command.CombinedOutput(); err != nil {
			t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, output)
		}
	}

	readmePath := filepath.Join(dir, "README")
	if err := os.WriteFile(readmePath, []byte("test\n"), 0644); err != nil {
		t.Fatalf("write README: %v", err)
	}
	for _, args := range [][]string{
		{"-C", dir, "add", "README"},
		{"-C", dir, "commit", "-m", "initial"},
	} {
		command := exec.Command("git", args...)
		if output, err := command.CombinedOutput(); err != nil {
			t.Fatalf("git %s: %v\n%s", strings.Join(args, " "), err, output)
		}
	}

	return dir
}

func TestRepository_Run(t *testing.T) {
	t.Parallel()

	repo := NewRepository(initRepo(t))

	output, err := repo.Run(context.Background(), "log", "--oneline")
	if err != nil {
		t.Fatalf("Run(log --oneline): %v", err)
	}
	if !strings.Contains(output, "initial") {
		t.Errorf("log output = %q, want to contain 'initial'", output)
	}
}

func TestRepository_Run_InvalidSubcommand(t *testing.T) {
	t.Parallel()

	repo := NewRepository(initRepo(t))

	_, err := repo.Run(context.Background(), "definitely-not-a-subcommand")
	if err == nil {
		t.Fatal("expected error for invalid subcommand")
	}
	if !strings.Contains(err.Error(), "definitely-not-a-subcommand") {
		t.Errorf("error = %v, want to mention the failing subcommand", err)
	}
}

func TestRepository_IsWorkTree(t *testing.T) {
	t.Parallel()

	repo := NewRepository(initRepo(t))
	if !repo.IsWorkTree(context.Background()) {
		t.Error("IsWorkTree = false for a fresh repository")
	}

	plain := NewRepository(t.TempDir())
	if plain.IsWorkTree(context.Background()) {
		t.Error("IsWorkTree = true for a plain directory")
	}
}

func TestRepository_AddCommitHasChanges(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	changed, err := repo.HasChanges(ctx)
	if err != nil {
		t.Fatalf("HasChanges: %v", err)
	}
	if changed {
		t.Error("HasChanges = true immediately after initial commit")
	}

	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hello\n"), 0644); err != nil {
		t.Fatalf("write new.txt: %v", err)
	}

	changed, err = repo.HasChanges(ctx)
	if err != nil {
		t.Fatalf("HasChanges: %v", err)
	}
	if !changed {
		t.Error("HasChanges = false with an untracked file present")
	}

	if err := repo.Add(ctx, "new.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Commit(ctx, "add new.txt"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	changed, err = repo.HasChanges(ctx)
	if err != nil {
		t.Fatalf("HasChanges: %v", err)
	}
	if changed {
		t.Error("HasChanges = true after committing everything")
	}
}

func TestRepository_HeadAndResetHard(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	before, err := repo.Head(ctx)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "extra.txt"), []byte("x\n"), 0644); err != nil {
		t.Fatalf("write extra.txt: %v", err)
	}
	if err := repo.Add(ctx, "extra.txt"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := repo.Commit(ctx, "extra"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	after, err := repo.Head(ctx)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if before == after {
		t.Fatal("HEAD unchanged after commit")
	}

	if err := repo.ResetHard(ctx, before); err != nil {
		t.Fatalf("ResetHard: %v", err)
	}
	restored, err := repo.Head(ctx)
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if restored != before {
		t.Errorf("HEAD after reset = %s, want %s", restored, before)
	}
	if _, err := os.Stat(filepath.Join(dir, "extra.txt")); !os.IsNotExist(err) {
		t.Error("extra.txt still present after hard reset")
	}
}

func TestRepository_StashPush_NothingToStash(t *testing.T) {
	t.Parallel()

	repo := NewRepository(initRepo(t))

	stashed, err := repo.StashPush(context.Background(), "rulekit migrate")
	if err != nil {
		t.Fatalf("StashPush: %v", err)
	}
	if stashed {
		t.Error("StashPush reported a stash entry for a clean tree")
	}
}

func TestRepository_StashPushPop(t *testing.T) {
	t.Parallel()

	dir := initRepo(t)
	repo := NewRepository(dir)
	ctx := context.Background()

	path := filepath.Join(dir, "dirty.txt")
	if err := os.WriteFile(path, []byte("uncommitted\n"), 0644); err != nil {
		t.Fatalf("write dirty.txt: %v", err)
	}

	stashed, err := repo.StashPush(ctx, "rulekit migrate")
	if err != nil {
		t.Fatalf("StashPush: %v", err)
	}
	if !stashed {
		t.Fatal("StashPush did not stash a dirty tree")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("dirty.txt still present after stash")
	}

	if err := repo.StashPop(ctx); err != nil {
		t.Fatalf("StashPop: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("dirty.txt missing after stash pop: %v", err)
	}
}
