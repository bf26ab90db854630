// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package uninstall

import (
	"context"
	"log/slog"
	"os"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
)

type uninstallParams struct {
	cli.JSONOutput
	Force          bool `flag:"force" desc:"also remove locally modified files and settings.local.json"`
	PruneGitignore bool `flag:"prune-gitignore" desc:"remove the standard entries from .gitignore"`
}

// Command returns the "rulekit uninstall" command.
func Command() *cli.Command {
	var params uninstallParams

	return &cli.Command{
		Name:    "uninstall",
		Summary: "Remove an installed kit",
		Description: "Remove the files recorded by the install manifest. Files\n" +
			"modified since install are preserved unless --force.",
		Usage: "rulekit uninstall [target] [flags]",
		Examples: []cli.Example{
			{Description: "Remove the kit, keeping modified files", Command: "rulekit uninstall"},
			{Description: "Remove everything the install created", Command: "rulekit uninstall --force --prune-gitignore"},
		},
		Flags: cli.FlagsFromParams(&params),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("uninstall takes at most one target argument, got %d", len(args))
			}
			targetDir := "."
			if len(args) == 1 {
				targetDir = args[0]
			}

			status := cli.NewStatus(os.Stdout)
			summary, err := Run(ctx, targetDir, Options{
				Force:          params.Force,
				PruneGitignore: params.PruneGitignore,
			}, status, logger)
			if err != nil {
				return err
			}
			if done, jsonErr := params.EmitJSON(summary); done {
				return jsonErr
			}
			return nil
		},
	}
}
