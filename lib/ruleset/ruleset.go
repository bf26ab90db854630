// Copyright 2026 The Rulekit Authors
// SPDX-License-Identifier: Apache-2.0

// Package ruleset models the rule files the kit installs under
// .claude/rules. A rule is a markdown document with an optional YAML
// front matter block carrying metadata (title, description, keywords,
// path hints). Rules are prose guidance — rulekit parses them only to
// list, validate, and display them; it never executes or "loads" them
// into anything.
package ruleset

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

// Rule is a parsed rule file.
type Rule struct {
	// Name is the rule name, derived from the filename without the
	// .md extension (e.g., "plan-first").
	Name string

	// Path is the path the rule was read from. Empty for rules parsed
	// from embedded payload bytes.
	Path string

	// Title is the front matter title, falling back to the first
	// heading in the body when the front matter has none.
	Title string

	// Description is a one-line summary from the front matter.
	Description string

	// Keywords are the front matter trigger keywords. Rulekit reports
	// them verbatim; matching prompts against them is the job of
	// whatever tool consumes the installed kit.
	Keywords []string

	// Paths are glob hints for the file areas the rule applies to.
	Paths []string

	// Body is the markdown content after the front matter block.
	Body string
}

// frontMatter is the YAML block at the top of a rule file.
type frontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
	Paths       []string `yaml:"paths"`
}

var frontMatterDelimiter = []byte("---")

// Parse parses rule file content. name should be the filename without
// extension. A missing front matter block is not an error — the rule
// falls back to its first heading for a title.
func Parse(name string, data []byte) (*Rule, error) {
	front, body := splitFrontMatter(data)

	rule := &Rule{
		Name: name,
		Body: string(body),
	}

	if len(front) > 0 {
		var meta frontMatter
		if err := yaml.Unmarshal(front, &meta); err != nil {
			return nil, fmt.Errorf("rule %s: parsing front matter: %w", name, err)
		}
		rule.Title = meta.Title
		rule.Description = meta.Description
		rule.Keywords = meta.Keywords
		rule.Paths = meta.Paths
	}

	if rule.Title == "" {
		rule.Title = firstHeading(body)
	}

	return rule, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block from
// the markdown body. Returns (nil, data) when there is no front matter.
func splitFrontMatter(data []byte) (front, body []byte) {
	trimmed := bytes.TrimLeft(data, "\n")
	if !bytes.HasPrefix(trimmed, frontMatterDelimiter) {
		return nil, data
	}

	rest := trimmed[len(frontMatterDelimiter):]
	if len(rest) > 0 && rest[0] != '\n' && rest[0] != '\r' {
		// "---something" is a thematic break or junk, not front matter.
		return nil, data
	}

	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return nil, data
	}

	front = rest[:end]
	body = rest[end+len("\n---"):]
	body = bytes.TrimLeft(body, "\r\n")
	return front, body
}

// markdownParser is initialized once and reused. The parser holds no
// per-call state; Parse creates its own reader each time.
var markdownParser = goldmark.New()

// firstHeading returns the text of the first heading in the markdown
// body, or "" when the body has none.
func firstHeading(body []byte) string {
	reader := text.NewReader(body)
	document := markdownParser.Parser().Parse(reader)

	var title string
	ast.Walk(document, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := node.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		var buffer bytes.Buffer
		for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
			if textNode, ok := child.(*ast.Text); ok {
				buffer.Write(textNode.Segment.Value(body))
			}
		}
		title = strings.TrimSpace(buffer.String())
		return ast.WalkStop, nil
	})

	return title
}

// Load reads and parses every .md file directly under dir, sorted by
// name. Subdirectories are ignored: the kit installs rules as a flat
// directory and anything nested was not put there by rulekit.
func Load(dir string) ([]Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules directory %s: %w", dir, err)
	}

	var rules []Rule
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading rule %s: %w", path, err)
		}
		rule, err := Parse(strings.TrimSuffix(entry.Name(), ".md"), data)
		if err != nil {
			return nil, err
		}
		rule.Path = path
		rules = append(rules, *rule)
	}

	sort.Slice(rules, func(i, j int) bool { return rules[i].Name < rules[j].Name })
	return rules, nil
}

// Validate returns human-readable issues with the given rules. An
// empty slice means all rules are well-formed.
func Validate(rules []Rule) []string {
	var issues []string
	seen := make(map[string]bool)

	for _, rule := range rules {
		if seen[rule.Name] {
			issues = append(issues, fmt.Sprintf("rule %s: duplicate name", rule.Name))
		}
		seen[rule.Name] = true

		if rule.Title == "" {
			issues = append(issues, fmt.Sprintf("rule %s: no title in front matter and no heading in body", rule.Name))
		}
		if strings.TrimSpace(rule.Body) == "" {
			issues = append(issues, fmt.Sprintf("rule %s: empty body", rule.Name))
		}
		for _, keyword := range rule.Keywords {
			if strings.TrimSpace(keyword) == "" {
				issues = append(issues, fmt.Sprintf("rule %s: blank keyword", rule.Name))
				break
			}
		}
	}

	return issues
}
