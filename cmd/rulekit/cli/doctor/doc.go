// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package doctor provides the health-check framework used by the
// doctor command: check results, automatic fix execution, and
// checklist output in both human-readable and JSON form.
//
// Checks are plain functions returning [Result] values. Fixable
// failures carry a [FixAction] closure that captures its dependencies
// (target directory, payload files) at construction time, so the
// framework itself stays free of installation knowledge.
package doctor
