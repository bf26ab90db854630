// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package install

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
	"github.com/rulekit-dev/rulekit/lib/config"
)

type installParams struct {
	cli.JSONOutput
	Force        bool   `flag:"force" desc:"overwrite local modifications, including settings.local.json"`
	Commit       bool   `flag:"commit" desc:"git add and commit the installed kit"`
	NoBackup     bool   `flag:"no-backup" desc:"skip the pre-overwrite backup"`
	BackupFormat string `flag:"backup-format" desc:"backup format: dir, lz4, or zstd"`
	Profile      string `flag:"profile" desc:"install profile: full or minimal"`
}

// Command returns the "rulekit install" command.
func Command() *cli.Command {
	var params installParams

	return &cli.Command{
		Name:    "install",
		Summary: "Install the rules kit into a project",
		Description: "Install the embedded rules kit into a target project:\n" +
			".claude/rules, .claude/docs, .claude/hooks, both settings\n" +
			"files, and the standard .gitignore entries. An existing kit\n" +
			"is backed up before being overwritten.",
		Usage: "rulekit install [target] [flags]",
		Examples: []cli.Example{
			{Description: "Install into the current directory", Command: "rulekit install"},
			{Description: "Install and commit the result", Command: "rulekit install ~/src/myproject --commit"},
			{Description: "Minimal profile, compressed backup", Command: "rulekit install --profile minimal --backup-format zstd"},
		},
		Flags: cli.FlagsFromParams(&params),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("install takes at most one target argument, got %d", len(args))
			}
			targetDir := "."
			if len(args) == 1 {
				targetDir = args[0]
			}

			cfg, err := config.LoadFromTarget(targetDir, config.Profile(params.Profile))
			if err != nil {
				return err
			}

			status := cli.NewStatus(os.Stdout)
			summary, err := Run(ctx, targetDir, cfg, Options{
				Force:        params.Force,
				Commit:       params.Commit,
				NoBackup:     params.NoBackup,
				BackupFormat: params.BackupFormat,
			}, status, logger)

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
