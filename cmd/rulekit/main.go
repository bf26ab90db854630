// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rulekit-dev/rulekit/cmd/rulekit/commands"
)

func main() {
	if err := commands.Root().Execute(os.Args[1:]); err != nil {
		// Handled exits (doctor failures, install validation) have
		// already printed their report; everything else gets an
		// error line.
		var coded interface{ ExitCode() int }
		if errors.As(err, &coded) {
			os.Exit(coded.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
