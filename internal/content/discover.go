// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package content

import (
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Source is a document file found in the content directory.
type Source struct {
	// Path is the file path on disk.
	Path string
	// Rel is the slash-separated path relative to the content directory.
	Rel  string
	Kind Kind
}

// Discover walks the content directory dir and returns document sources in
// lexical order. Files under PAGE_PATHS are pages, files under ARTICLE_PATHS
// but not ARTICLE_EXCLUDES are articles. STATIC_PATHS and files no reader
// supports are skipped.
func (r *Reader) Discover(dir string) ([]Source, error) {
	var sources []Source
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") || under(rel, r.s.StaticPaths) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsIgnorable(rel) || under(rel, r.s.StaticPaths) || !r.Supports(rel) {
			return nil
		}

		switch {
		case under(rel, r.s.PagePaths):
			sources = append(sources, Source{Path: p, Rel: rel, Kind: Page})
		case under(rel, r.s.ArticlePaths) && !under(rel, r.s.ArticleExcludes):
			sources = append(sources, Source{Path: p, Rel: rel, Kind: Article})
		}
		return nil
	})
	return sources, err
}

// under reports whether rel is one of prefixes or inside one of them. An
// empty prefix matches everything.
func under(rel string, prefixes []string) bool {
	return slices.ContainsFunc(prefixes, func(prefix string) bool {
		prefix = strings.Trim(path.Clean("/"+prefix), "/")
		return prefix == "" || rel == prefix || strings.HasPrefix(rel, prefix+"/")
	})
}

// IsIgnorable reports whether the file at path should never be read: hidden
// files, Vim backups and .gitignore files.
func IsIgnorable(p string) bool {
	base := path.Base(filepath.ToSlash(p))
	if strings.HasSuffix(base, "~") {
		return true
	}
	if base == ".gitignore" {
		return true
	}
	return strings.HasPrefix(base, ".")
}
