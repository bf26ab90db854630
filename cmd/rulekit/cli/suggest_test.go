// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"install", "install", 0},
		{"instal", "install", 1},
		{"isntall", "install", 2},
		{"doctor", "docter", 1},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
	}

	for _, tc := range cases {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	t.Parallel()

	commands := []*Command{
		{Name: "install"},
		{Name: "migrate"},
		{Name: "doctor"},
		{Name: "uninstall"},
	}

	cases := []struct {
		input string
		want  string
	}{
		{"instal", "install"},
		{"doctro", "doctor"},
		{"migarte", "migrate"},
		{"frobnicate", ""},
	}

	for _, tc := range cases {
		if got := suggestCommand(tc.input, commands); got != tc.want {
			t.Errorf("suggestCommand(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSuggestFlag(t *testing.T) {
	t.Parallel()

	newFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("", pflag.ContinueOnError)
		fs.Bool("force", false, "")
		fs.String("backup-format", "dir", "")
		fs.Bool("json", false, "")
		return fs
	}

	cases := []struct {
		name string
		args []string
		want string
	}{
		{"typo", []string{"--forse"}, "--force"},
		{"typo with value", []string{"--backup-fromat=lz4"}, "--backup-format"},
		{"known flag skipped", []string{"--force", "--jsno"}, "--json"},
		{"no match", []string{"--completely-unrelated"}, ""},
		{"no flags in args", []string{"target"}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := suggestFlag(tc.args, newFlags()); got != tc.want {
				t.Errorf("suggestFlag(%v) = %q, want %q", tc.args, got, tc.want)
			}
		})
	}
}
