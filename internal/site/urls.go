// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/trackmaven/engineroom/internal/content"

	"github.com/ncruces/go-strftime"
)

// lookupFunc returns the value of a placeholder key, formatted with format
// when it has one.
type lookupFunc func(key, format string) (string, bool)

// expand substitutes {key} and {key:format} placeholders in tmpl.
func expand(tmpl string, lookup lookupFunc) (string, error) {
	var sb strings.Builder
	for i := 0; i < len(tmpl); {
		switch {
		case strings.HasPrefix(tmpl[i:], "{{"):
			sb.WriteByte('{')
			i += 2
		case strings.HasPrefix(tmpl[i:], "}}"):
			sb.WriteByte('}')
			i += 2
		case tmpl[i] == '{':
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: %q: unclosed {", errURLTemplate, tmpl)
			}
			key, format, _ := strings.Cut(tmpl[i+1:i+end], ":")
			v, ok := lookup(key, format)
			if !ok {
				return "", fmt.Errorf("%w: %q: unknown key %q", errURLTemplate, tmpl, key)
			}
			sb.WriteString(v)
			i += end + 1
		case tmpl[i] == '}':
			return "", fmt.Errorf("%w: %q: unmatched }", errURLTemplate, tmpl)
		default:
			sb.WriteByte(tmpl[i])
			i++
		}
	}
	return sb.String(), nil
}

func (b *builder) documentVars(it *Item) lookupFunc {
	return func(key, format string) (string, bool) {
		switch key {
		case "slug":
			return it.Slug, true
		case "lang":
			return it.Lang, true
		case "category":
			return content.Slugify(it.Category), true
		case "author":
			if len(it.Authors) == 0 {
				return "", true
			}
			return content.Slugify(it.Authors[0]), true
		case "date":
			return formatTime(format, it.Date), true
		case "modified":
			return formatTime(format, it.Modified), true
		}
		v, ok := it.Metadata[strings.ToLower(key)]
		return v, ok
	}
}

func taxonVars(t *Taxon) lookupFunc {
	return func(key, _ string) (string, bool) {
		switch key {
		case "slug":
			return t.Slug, true
		case "name":
			return t.Name, true
		}
		return "", false
	}
}

func formatTime(format string, t time.Time) string {
	if format == "" {
		format = "%Y-%m-%d"
	}
	return strftime.Format(format, t)
}

// paginatedPath returns the path of page n: index.html, index2.html and so on.
func paginatedPath(p string, n int) string {
	if n <= 1 {
		return p
	}
	ext := path.Ext(p)
	return strings.TrimSuffix(p, ext) + strconv.Itoa(n) + ext
}

// siteURLFor returns the link prefix for the page written at output: SITEURL,
// or the relative path to the site root when RELATIVE_URLS is on.
func (b *builder) siteURLFor(output string) string {
	if !b.s.RelativeURLs {
		return b.s.SiteURL
	}
	depth := strings.Count(path.Clean(output), "/")
	if depth == 0 {
		return "."
	}
	return strings.TrimSuffix(strings.Repeat("../", depth), "/")
}

// absURL returns the absolute URL of rel under base.
func absURL(base, rel string) string {
	return base + "/" + strings.TrimPrefix(rel, "/")
}
