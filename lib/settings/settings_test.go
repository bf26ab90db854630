// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse_JSONCTolerant(t *testing.T) {
	t.Parallel()

	input := `{
  // hook registrations
  "hooks": {
    "Stop": "auto-commit.sh", /* runs last */
  },
  "permissions": ["read", "write",],
}`

	value, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	hooks, ok := value["hooks"].(map[string]any)
	if !ok {
		t.Fatalf("hooks = %T, want object", value["hooks"])
	}
	if hooks["Stop"] != "auto-commit.sh" {
		t.Errorf("hooks.Stop = %v", hooks["Stop"])
	}
	permissions, ok := value["permissions"].([]any)
	if !ok || len(permissions) != 2 {
		t.Errorf("permissions = %v, want 2 entries", value["permissions"])
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := Parse([]byte(`{"unterminated": `)); err == nil {
		t.Fatal("expected error for malformed input")
	}
}

func TestWriteFile_StrictJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	if err := WriteFile(path, map[string]any{"version": "1", "hooks": map[string]any{}}); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.HasSuffix(string(data), "}\n") {
		t.Error("written settings missing trailing newline")
	}
	if strings.Contains(string(data), "//") {
		t.Error("written settings contain comments")
	}

	roundTrip, err := Parse(data)
	if err != nil {
		t.Fatalf("re-parse written file: %v", err)
	}
	if roundTrip["version"] != "1" {
		t.Errorf("version = %v after round trip", roundTrip["version"])
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := map[string]any{
		"version": "2",
		"hooks": map[string]any{
			"Stop":       "stop.sh",
			"PreToolUse": "pre-tool-use.sh",
		},
		"ignore": []any{"a"},
	}
	overlay := map[string]any{
		"hooks": map[string]any{
			"Stop": "custom-stop.sh",
		},
		"ignore": []any{"b"},
		"extra":  true,
	}

	merged := Merge(base, overlay)

	hooks := merged["hooks"].(map[string]any)
	if hooks["Stop"] != "custom-stop.sh" {
		t.Errorf("hooks.Stop = %v, want overlay value", hooks["Stop"])
	}
	if hooks["PreToolUse"] != "pre-tool-use.sh" {
		t.Errorf("hooks.PreToolUse = %v, want base value preserved", hooks["PreToolUse"])
	}
	if merged["version"] != "2" {
		t.Errorf("version = %v, want base value", merged["version"])
	}
	if !reflect.DeepEqual(merged["ignore"], []any{"b"}) {
		t.Errorf("ignore = %v, want arrays replaced wholesale", merged["ignore"])
	}
	if merged["extra"] != true {
		t.Errorf("extra = %v, want overlay-only key present", merged["extra"])
	}

	// Inputs untouched.
	if base["hooks"].(map[string]any)["Stop"] != "stop.sh" {
		t.Error("Merge modified base")
	}
}
