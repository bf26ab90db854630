// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package rules implements "rulekit rules": enumeration of installed
// rule files with their front-matter metadata. It is a listing tool
// only — nothing here loads rules into a session or evaluates their
// keywords.
package rules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
	"github.com/rulekit-dev/rulekit/lib/ruleset"
	"github.com/rulekit-dev/rulekit/payload"
)

type listParams struct {
	cli.JSONOutput
	Embedded bool `flag:"embedded" desc:"list the rules embedded in this binary instead of installed ones"`
}

type showParams struct {
	cli.JSONOutput
}

// Command returns the "rulekit rules" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "rules",
		Summary: "Inspect rule files",
		Subcommands: []*cli.Command{
			listCommand(),
			showCommand(),
		},
	}
}

// ruleListing is the JSON shape for a listed rule (body omitted).
type ruleListing struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Paths       []string `json:"paths,omitempty"`
}

// ruleDetail is the JSON shape for a single shown rule.
type ruleDetail struct {
	ruleListing
	Body string `json:"body"`
}

func toListing(rules []ruleset.Rule) []ruleListing {
	listings := make([]ruleListing, 0, len(rules))
	for _, rule := range rules {
		listings = append(listings, ruleListing{
			Name:        rule.Name,
			Title:       rule.Title,
			Description: rule.Description,
			Keywords:    rule.Keywords,
			Paths:       rule.Paths,
		})
	}
	return listings
}

func loadRules(targetDir string, embedded bool) ([]ruleset.Rule, error) {
	if embedded {
		return payload.Rules()
	}
	loaded, err := ruleset.Load(rulesDir(targetDir))
	// ruleset.Load wraps the underlying *PathError, so unwrap with
	// errors.Is rather than os.IsNotExist.
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("no rules installed in %s (run rulekit install)", targetDir)
	}
	return loaded, err
}

func rulesDir(targetDir string) string {
	return filepath.Join(targetDir, ".claude", "rules")
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List rules with their metadata",
		Usage:   "rulekit rules list [target] [flags]",
		Flags:   cli.FlagsFromParams(&params),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("rules list takes at most one target argument, got %d", len(args))
			}
			targetDir := "."
			if len(args) == 1 {
				targetDir = args[0]
			}

			loaded, err := loadRules(targetDir, params.Embedded)
			if err != nil {
				return err
			}

			if done, jsonErr := params.EmitJSON(toListing(loaded)); done {
				return jsonErr
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(writer, "NAME\tTITLE\tKEYWORDS")
			for _, rule := range loaded {
				fmt.Fprintf(writer, "%s\t%s\t%s\n",
					rule.Name, rule.Title, strings.Join(rule.Keywords, ", "))
			}
			return writer.Flush()
		},
	}
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show one rule in full",
		Usage:   "rulekit rules show <name> [target] [flags]",
		Flags:   cli.FlagsFromParams(&params),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) < 1 || len(args) > 2 {
				return cli.Validation("rules show takes a rule name and an optional target, got %d argument(s)", len(args))
			}
			name := args[0]
			targetDir := "."
			if len(args) == 2 {
				targetDir = args[1]
			}

			loaded, err := loadRules(targetDir, false)
			if err != nil {
				return err
			}
			rule := findRule(loaded, name)
			if rule == nil {
				return fmt.Errorf("no rule named %q in %s", name, rulesDir(targetDir))
			}

			if done, jsonErr := params.EmitJSON(ruleDetail{
				ruleListing: toListing([]ruleset.Rule{*rule})[0],
				Body:        rule.Body,
			}); done {
				return jsonErr
			}

			fmt.Printf("Name:        %s\n", rule.Name)
			fmt.Printf("Title:       %s\n", rule.Title)
			if rule.Description != "" {
				fmt.Printf("Description: %s\n", rule.Description)
			}
			if len(rule.Keywords) > 0 {
				fmt.Printf("Keywords:    %s\n", strings.Join(rule.Keywords, ", "))
			}
			if len(rule.Paths) > 0 {
				fmt.Printf("Paths:       %s\n", strings.Join(rule.Paths, ", "))
			}
			fmt.Println()
			fmt.Println(strings.TrimRight(rule.Body, "\n"))
			return nil
		},
	}
}

func findRule(rules []ruleset.Rule, name string) *ruleset.Rule {
	for i := range rules {
		if rules[i].Name == name {
			return &rules[i]
		}
	}
	return nil
}
