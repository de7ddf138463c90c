// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/trackmaven/engineroom/internal/content"
	"github.com/trackmaven/engineroom/themes"

	"github.com/ncruces/go-strftime"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	mjson "github.com/tdewolff/minify/v2/json"
)

type theme struct {
	// pages maps template names without extension to template sets, each
	// holding base.html with the page template parsed over it.
	pages  map[string]*template.Template
	static fs.FS
}

// loadTheme parses the templates of fsys. Templates and the static directory
// missing from fsys are taken from the bundled theme. A nil fsys is the
// bundled theme.
func loadTheme(fsys fs.FS, funcs template.FuncMap) (*theme, error) {
	bundled := themes.Basic()
	if fsys == nil {
		fsys = bundled
	}

	read := func(name string) ([]byte, error) {
		b, err := fs.ReadFile(fsys, path.Join("templates", name))
		if errors.Is(err, fs.ErrNotExist) {
			b, err = fs.ReadFile(bundled, path.Join("templates", name))
		}
		return b, err
	}

	names := make(map[string]bool)
	for _, f := range []fs.FS{fsys, bundled} {
		matches, err := fs.Glob(f, "templates/*.html")
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			names[path.Base(m)] = true
		}
	}

	src, err := read("base.html")
	if err != nil {
		return nil, err
	}
	root, err := template.New("base.html").Funcs(funcs).Parse(string(src))
	if err != nil {
		return nil, err
	}

	th := &theme{pages: make(map[string]*template.Template)}
	for name := range names {
		if name == "base.html" {
			continue
		}
		src, err := read(name)
		if err != nil {
			return nil, err
		}
		t, err := root.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.New(name).Parse(string(src)); err != nil {
			return nil, err
		}
		th.pages[strings.TrimSuffix(name, ".html")] = t
	}

	th.static = bundled
	if fi, err := fs.Stat(fsys, "static"); err == nil && fi.IsDir() {
		th.static = fsys
	}
	if th.static, err = fs.Sub(th.static, "static"); err != nil {
		return nil, err
	}
	return th, nil
}

func (th *theme) lookup(name string) (*template.Template, error) {
	t, ok := th.pages[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", errTemplateMissing, name)
	}
	return t, nil
}

func (b *builder) funcs() template.FuncMap {
	return template.FuncMap{
		"date": func(format string, t time.Time) string {
			return strftime.Format(format, t)
		},
		"setting": func(name string) any {
			v, _ := b.s.Lookup(name)
			return v
		},
		"slugify": content.Slugify,
	}
}

func newMin() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.Add("text/html", &html.Minifier{
		KeepDocumentTags:    true,
		KeepDefaultAttrVals: true,
		KeepEndTags:         true,
	})
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("application/json", mjson.Minify)
	return m
}

var mediaTypes = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
}
