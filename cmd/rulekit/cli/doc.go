// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the rulekit command framework: a tree of
// [Command] values dispatched by name, pflag-based flag parsing with
// struct-tag binding, typo suggestions, structured command loggers,
// styled status output, and JSON output support.
//
// The framework is deliberately small. Commands declare what they
// need (flags, subcommands, a Run function); dispatch, help
// rendering, and error formatting live here so every command behaves
// the same way.
package cli
