// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the rulekit command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
	"github.com/rulekit-dev/rulekit/cmd/rulekit/doctor"
	"github.com/rulekit-dev/rulekit/cmd/rulekit/install"
	"github.com/rulekit-dev/rulekit/cmd/rulekit/migrate"
	"github.com/rulekit-dev/rulekit/cmd/rulekit/rules"
	"github.com/rulekit-dev/rulekit/cmd/rulekit/uninstall"
	"github.com/rulekit-dev/rulekit/lib/version"
)

// Root returns the root of the rulekit command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "rulekit",
		Summary: "Manage the Claude Code rules kit in a project",
		Description: "rulekit installs, verifies, and maintains the Claude Code\n" +
			"rules kit: rule files, docs, hook scripts, and settings under a\n" +
			"project's .claude directory.",
		Subcommands: []*cli.Command{
			install.Command(),
			migrate.Command(),
			doctor.Command(),
			uninstall.Command(),
			rules.Command(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "rulekit version",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}
