// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package migrate

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
	"github.com/rulekit-dev/rulekit/lib/config"
)

type subtreeParams struct {
	cli.JSONOutput
	Remote string `flag:"remote" desc:"rules repository URL to vendor"`
	Branch string `flag:"branch" desc:"ref to vendor"`
	Prefix string `flag:"prefix" desc:"in-repo path for the subtree"`
}

// Command returns the "rulekit migrate" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Summary: "Convert kit layouts between management schemes",
		Subcommands: []*cli.Command{
			subtreeCommand(),
		},
	}
}

func subtreeCommand() *cli.Command {
	var params subtreeParams

	return &cli.Command{
		Name:    "subtree",
		Summary: "Convert a copied-in rules tree to a git subtree",
		Description: "Replace the copied .claude/rules tree with a git subtree\n" +
			"vendored from the upstream rules repository. The existing tree\n" +
			"is backed up first; a failed conversion rolls back to the\n" +
			"starting commit and restores the tree.",
		Usage: "rulekit migrate subtree [target] [flags]",
		Examples: []cli.Example{
			{Description: "Convert using the configured remote", Command: "rulekit migrate subtree"},
			{Description: "Vendor from a fork", Command: "rulekit migrate subtree --remote https://github.com/me/claude-rules.git --branch main"},
		},
		Flags: cli.FlagsFromParams(&params),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("migrate subtree takes at most one target argument, got %d", len(args))
			}
			targetDir := "."
			if len(args) == 1 {
				targetDir = args[0]
			}

			cfg, err := config.LoadFromTarget(targetDir, "")
			if err != nil {
				return err
			}
			opts := ResolveOptions(cfg, params.Remote, params.Branch, params.Prefix)

			status := cli.NewStatus(os.Stdout)
			summary, err := Run(ctx, targetDir, opts, status, logger)

			var exitErr *cli.ExitError
			if err != nil && !errors.As(err, &exitErr) {
				return err
			}
			if done, jsonErr := params.EmitJSON(summary); done && jsonErr != nil {
				return jsonErr
			}
			return err
		},
	}
}
