// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var headerRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*):\s*(.*)$`)

// splitMetadata separates metadata from the body of a Markdown document.
func splitMetadata(src []byte) (meta map[string]string, body []byte, err error) {
	src = bytes.TrimPrefix(src, []byte("\ufeff"))
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))

	switch {
	case bytes.HasPrefix(src, []byte("---\n")):
		return splitYAML(src)
	case hasJSONFrontmatter(src):
		return splitJSON(src)
	}
	meta, body = splitHeader(src)
	return meta, body, nil
}

func splitYAML(src []byte) (map[string]string, []byte, error) {
	rest := src[len("---\n"):]
	var (
		fm    []byte
		off   int
		found bool
	)
	for line := range bytes.Lines(rest) {
		off += len(line)
		if l := strings.TrimRight(string(line), "\n"); l == "---" || l == "..." {
			found = true
			break
		}
		fm = append(fm, line...)
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: unterminated YAML front matter", errMetadataParse)
	}

	// Scalars keep their source text, so dates without an offset are read in
	// TIMEZONE like header dates instead of being decoded as UTC.
	var doc yaml.Node
	if err := yaml.Unmarshal(fm, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errMetadataParse, err)
	}
	meta, err := yamlMetadata(&doc)
	if err != nil {
		return nil, nil, err
	}
	return meta, rest[off:], nil
}

func yamlMetadata(doc *yaml.Node) (map[string]string, error) {
	meta := make(map[string]string)
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case 0, yaml.DocumentNode:
		return meta, nil // empty front matter
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("%w: YAML front matter is not a mapping", errMetadataParse)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		meta[strings.ToLower(root.Content[i].Value)] = yamlString(root.Content[i+1])
	}
	return meta, nil
}

func yamlString(n *yaml.Node) string {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	case yaml.SequenceNode:
		parts := make([]string, 0, len(n.Content))
		for _, e := range n.Content {
			parts = append(parts, yamlString(e))
		}
		return strings.Join(parts, ", ")
	case yaml.AliasNode:
		return yamlString(n.Alias)
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return ""
	}
	return stringify(v)
}

// hasJSONFrontmatter reports whether the document starts with JSON front
// matter, possibly after HTML comments such as editor modelines.
func hasJSONFrontmatter(src []byte) bool {
	for line := range bytes.Lines(src) {
		l := bytes.TrimSpace(line)
		switch {
		case len(l) == 0, bytes.HasPrefix(l, []byte("<!--")) && bytes.HasSuffix(l, []byte("-->")):
			continue
		case string(l) == "{":
			return true
		}
		return false
	}
	return false
}

func splitJSON(src []byte) (map[string]string, []byte, error) {
	const (
		leftDelim  = "{\n"
		rightDelim = "}\n"
	)

	var (
		frontmatter, contents []byte
		reachedFrontmatter    bool
		reachedContents       bool
	)
	for l := range bytes.Lines(src) {
		line := string(l)
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}

		if !reachedContents {
			if line == leftDelim {
				reachedFrontmatter = true
			}
			if line == rightDelim && reachedFrontmatter {
				reachedFrontmatter = false
				frontmatter = append(frontmatter, line...)
				reachedContents = true
				continue
			}
		}

		if reachedFrontmatter {
			frontmatter = append(frontmatter, line...)
			continue
		}
		if reachedContents {
			contents = append(contents, line...)
		}
	}
	if !reachedContents {
		return nil, nil, fmt.Errorf("%w: unterminated JSON front matter", errMetadataParse)
	}

	var raw map[string]any
	if err := json.Unmarshal(frontmatter, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errMetadataParse, err)
	}
	return normalizeMetadata(raw), contents, nil
}

// splitHeader parses "Key: value" lines at the top of a document. The header
// ends at the first blank line or the first line that is not a header.
func splitHeader(src []byte) (map[string]string, []byte) {
	meta := make(map[string]string)
	off := 0
	for line := range bytes.Lines(src) {
		l := strings.TrimRight(string(line), "\n")
		if strings.TrimSpace(l) == "" {
			if len(meta) > 0 {
				off += len(line)
			}
			break
		}
		m := headerRe.FindStringSubmatch(l)
		if m == nil {
			break
		}
		meta[strings.ToLower(m[1])] = strings.TrimSpace(m[2])
		off += len(line)
	}
	return meta, src[off:]
}

// normalizeMetadata lowercases keys and turns values into strings. Lists are
// joined with commas, so "tags: [a, b]" reads like "Tags: a, b".
func normalizeMetadata(raw map[string]any) map[string]string {
	meta := make(map[string]string, len(raw))
	for k, v := range raw {
		meta[strings.ToLower(k)] = stringify(v)
	}
	return meta
}

func stringify(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprint(v)
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
}

// parseDate parses a metadata date. Dates without an offset are in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", errDateParse, s)
}

// splitList splits a comma separated metadata value. Empty items and
// duplicates are dropped.
func splitList(s string, seps string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range strings.FieldsFunc(s, func(r rune) bool { return strings.ContainsRune(seps, r) }) {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
