// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package settings handles the two settings files the kit installs:
// .claude/settings.json (shared, committed) and
// .claude/settings.local.json (per-developer, gitignored).
//
// Authored templates are JSONC — JSON extended with // line comments,
// /* block comments */, and trailing commas — so the embedded payload
// can document its own fields. What rulekit writes into a target is
// always strict, normalized JSON, because the consuming tool expects
// plain JSON.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a generic object.
func Parse(data []byte) (map[string]any, error) {
	stripped := jsonc.ToJSON(data)

	var value map[string]any
	if err := json.Unmarshal(stripped, &value); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	return value, nil
}

// ReadFile reads and parses a settings file from disk.
func ReadFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	value, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return value, nil
}

// WriteFile writes value as indented JSON with a trailing newline.
func WriteFile(path string, value map[string]any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Merge deep-merges overlay into base and returns the result. Overlay
// values win; nested objects merge recursively; arrays and scalars are
// replaced wholesale. Neither input is modified.
//
// Install uses this to preserve a user's existing settings.json keys
// when reinstalling over them: existing values overlay the template
// defaults, so new template fields appear without clobbering local
// customization.
func Merge(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for key, value := range base {
		merged[key] = value
	}
	for key, overlayValue := range overlay {
		baseValue, exists := merged[key]
		baseMap, baseIsMap := baseValue.(map[string]any)
		overlayMap, overlayIsMap := overlayValue.(map[string]any)
		if exists && baseIsMap && overlayIsMap {
			merged[key] = Merge(baseMap, overlayMap)
			continue
		}
		merged[key] = overlayValue
	}
	return merged
}
