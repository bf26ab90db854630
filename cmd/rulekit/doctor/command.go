// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"context"
	"log/slog"
	"os"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/cli"
	clidoctor "github.com/rulekit-dev/rulekit/cmd/rulekit/cli/doctor"
)

type doctorParams struct {
	Fix         bool `flag:"fix" desc:"repair fixable failures from the embedded kit"`
	FixModified bool `flag:"fix-modified" desc:"also overwrite locally modified kit files"`
	DryRun      bool `flag:"dry-run" desc:"show what --fix would do without changing anything"`
	JSON        bool `flag:"json" desc:"output as JSON"`
}

// Command returns the "rulekit doctor" command.
func Command() *cli.Command {
	var params doctorParams

	return &cli.Command{
		Name:    "doctor",
		Summary: "Verify an installed kit and optionally repair it",
		Description: "Check the kit installation end-to-end: directory layout,\n" +
			"required files, manifest drift, hook permissions, gitignore\n" +
			"entries, and settings validity. With --fix, fixable failures\n" +
			"are repaired from the embedded kit. Locally modified files are\n" +
			"reported but never overwritten unless --fix-modified is given.",
		Usage: "rulekit doctor [target] [flags]",
		Examples: []cli.Example{
			{Description: "Check the current directory", Command: "rulekit doctor"},
			{Description: "Repair what can be repaired", Command: "rulekit doctor --fix"},
			{Description: "Preview repairs", Command: "rulekit doctor --fix --dry-run"},
		},
		Flags: cli.FlagsFromParams(&params),
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return cli.Validation("doctor takes at most one target argument, got %d", len(args))
			}
			targetDir := "."
			if len(args) == 1 {
				targetDir = args[0]
			}

			results, err := Checks(ctx, targetDir, CheckOptions{FixModified: params.FixModified})
			if err != nil {
				return err
			}

			var outcome clidoctor.Outcome
			if params.Fix {
				outcome = clidoctor.ExecuteFixes(ctx, results, params.DryRun)
			}

			if params.JSON {
				output := clidoctor.BuildJSON(results, params.DryRun, outcome)
				if err := cli.WriteJSON(output); err != nil {
					return err
				}
				if !output.OK {
					return &cli.ExitError{Code: 1}
				}
				return nil
			}

			return clidoctor.PrintChecklist(os.Stdout, results, params.Fix, params.DryRun, outcome)
		},
	}
}
