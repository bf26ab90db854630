// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/spf13/pflag"
)

// FlagsFromParams returns a Flags function for a Command, binding
// flags to the fields of params via struct tags. params must be a
// pointer to a struct whose flag-bound fields carry a `flag:"name"`
// tag, an optional `desc:"help text"` tag, and an optional
// `default:"value"` tag.
//
// Supported field types: string, bool, int, []string. Embedded structs
// (like [JSONOutput]) are traversed recursively.
//
//	type params struct {
//	    cli.JSONOutput
//	    Force  bool   `flag:"force" desc:"overwrite local modifications"`
//	    Format string `flag:"backup-format" desc:"backup format" default:"dir"`
//	}
//	var p params
//	cmd := &cli.Command{
//	    Flags: cli.FlagsFromParams(&p),
//	    ...
//	}
func FlagsFromParams(params any) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		flagSet := pflag.NewFlagSet("", pflag.ContinueOnError)
		if err := BindFlags(flagSet, params); err != nil {
			panic(fmt.Sprintf("binding flags: %v", err))
		}
		return flagSet
	}
}

// BindFlags registers a flag on flagSet for each tagged field of the
// struct pointed to by params. Flag values are written directly into
// the struct fields during parsing.
func BindFlags(flagSet *pflag.FlagSet, params any) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Pointer || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStructFlags(flagSet, value.Elem())
}

func bindStructFlags(flagSet *pflag.FlagSet, structValue reflect.Value) error {
	structType := structValue.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		// Recurse into embedded structs so JSONOutput and similar
		// mixins contribute their flags.
		if field.Anonymous && fieldValue.Kind() == reflect.Struct {
			if err := bindStructFlags(flagSet, fieldValue); err != nil {
				return err
			}
			continue
		}

		name, ok := field.Tag.Lookup("flag")
		if !ok || name == "" {
			continue
		}
		desc := field.Tag.Get("desc")
		defaultValue := field.Tag.Get("default")

		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}

		switch fieldValue.Kind() {
		case reflect.String:
			flagSet.StringVar(fieldValue.Addr().Interface().(*string), name, defaultValue, desc)
		case reflect.Bool:
			def := false
			if defaultValue != "" {
				parsed, err := strconv.ParseBool(defaultValue)
				if err != nil {
					return fmt.Errorf("field %s: invalid bool default %q: %w", field.Name, defaultValue, err)
				}
				def = parsed
			}
			flagSet.BoolVar(fieldValue.Addr().Interface().(*bool), name, def, desc)
		case reflect.Int:
			def := 0
			if defaultValue != "" {
				parsed, err := strconv.Atoi(defaultValue)
				if err != nil {
					return fmt.Errorf("field %s: invalid int default %q: %w", field.Name, defaultValue, err)
				}
				def = parsed
			}
			flagSet.IntVar(fieldValue.Addr().Interface().(*int), name, def, desc)
		case reflect.Slice:
			if field.Type.Elem().Kind() != reflect.String {
				return fmt.Errorf("field %s: unsupported slice type %s", field.Name, field.Type)
			}
			flagSet.StringSliceVar(fieldValue.Addr().Interface().(*[]string), name, nil, desc)
		default:
			return fmt.Errorf("field %s: unsupported flag type %s", field.Name, field.Type)
		}
	}

	return nil
}
