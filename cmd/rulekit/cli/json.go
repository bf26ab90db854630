// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"os"
	"reflect"
)

// JSONOutput is an embeddable struct that adds --json output support to
// a command's parameter struct. Embedding it provides the --json flag
// (via struct tag processing in [BindFlags]) and the [EmitJSON] method
// for conditional JSON output.
//
// Usage:
//
//	type installParams struct {
//	    cli.JSONOutput
//	    Force bool `flag:"force" desc:"overwrite local modifications"`
//	}
//
//	// In Run:
//	if done, err := params.EmitJSON(summary); done {
//	    return err
//	}
//	// ... text formatting ...
type JSONOutput struct {
	OutputJSON bool `json:"-" flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result as indented JSON to stdout if --json is set.
// Returns (true, nil) on success, (true, err) on write failure, or
// (false, nil) when --json is not set and the caller should proceed
// with text formatting.
//
// Nil slices are normalized to empty slices before serialization, so
// callers never need to guard against null JSON output.
func (j *JSONOutput) EmitJSON(result any) (bool, error) {
	if !j.OutputJSON {
		return false, nil
	}
	return true, WriteJSON(normalizeNilSlice(result))
}

// WriteJSON marshals value as indented JSON and writes it to stdout.
// This is the low-level output function. Most commands should use
// [JSONOutput.EmitJSON] instead, which handles the --json flag check
// and nil-slice normalization automatically.
func WriteJSON(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// normalizeNilSlice replaces nil slices with empty ones so that JSON
// serialization produces [] instead of null. A top-level nil slice is
// replaced directly; for structs (and pointers to structs) every
// exported slice field is normalized, recursing into nested structs.
// Summary types with never-populated slice fields therefore serialize
// as [] too.
func normalizeNilSlice(value any) any {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0).Interface()
		}
	case reflect.Pointer:
		if !v.IsNil() && v.Elem().Kind() == reflect.Struct {
			normalizeStructSlices(v.Elem())
		}
	case reflect.Struct:
		// Work on an addressable copy so the caller's value is
		// untouched.
		normalized := reflect.New(v.Type()).Elem()
		normalized.Set(v)
		normalizeStructSlices(normalized)
		return normalized.Interface()
	}
	return value
}

func normalizeStructSlices(structValue reflect.Value) {
	for i := 0; i < structValue.NumField(); i++ {
		field := structValue.Field(i)
		if !field.CanSet() {
			continue
		}
		switch field.Kind() {
		case reflect.Slice:
			if field.IsNil() {
				field.Set(reflect.MakeSlice(field.Type(), 0, 0))
			}
		case reflect.Struct:
			normalizeStructSlices(field)
		case reflect.Pointer:
			if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
				normalizeStructSlices(field.Elem())
			}
		}
	}
}
