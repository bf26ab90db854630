// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package install

import (
	"fmt"
	"os"
	"strings"
)

// StandardIgnoreEntries are the .gitignore entries every install
// maintains: session-local state, metrics scratch, the user's local
// settings, kit log files, and pre-overwrite backups. None of these
// belong in version control.
var StandardIgnoreEntries = []string{
	".claude/session/",
	".claude/metrics/",
	".claude/settings.local.json",
	".claude/*.log",
	".claude/backups/",
}

// EnsureIgnoreLines appends each entry to the .gitignore at path,
// skipping entries already present as an exact line. Repeated installs
// therefore never duplicate entries. The file is created if absent.
// Returns the entries that were actually added.
func EnsureIgnoreLines(path string, entries []string) ([]string, error) {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(existing), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, entry := range entries {
		if !present[entry] {
			missing = append(missing, entry)
			// Guard against duplicate entries in the input.
			present[entry] = true
		}
	}
	if len(missing) == 0 {
		return nil, nil
	}

	var out strings.Builder
	out.Write(existing)
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		out.WriteByte('\n')
	}
	for _, entry := range missing {
		out.WriteString(entry)
		out.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(out.String()), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return missing, nil
}
