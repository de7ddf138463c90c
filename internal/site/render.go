// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/trackmaven/engineroom/internal/content"
	"github.com/trackmaven/engineroom/internal/settings"

	"golang.org/x/sync/errgroup"
)

// pageData is passed to templates.
type pageData struct {
	Settings *settings.Settings
	// SiteURL prefixes links: SITEURL, or the relative path to the site root
	// with RELATIVE_URLS.
	SiteURL string
	// Output is the output path of the page being rendered.
	Output string

	Articles   []*Item
	Pages      []*Item
	Categories []*Taxon
	Tags       []*Taxon
	Authors    []*Taxon
	Dates      []*Item

	Article   *Item
	Page      *Item
	Category  *Taxon
	Tag       *Taxon
	Author    *Taxon
	Paginator *Paginator
}

// Paginator is one page of a paginated listing.
type Paginator struct {
	// Number starts at 1.
	Number   int
	NumPages int
	Items    []*Item
	URL      string
	PrevURL  string
	NextURL  string
}

func (p *Paginator) HasPrev() bool { return p.Number > 1 }
func (p *Paginator) HasNext() bool { return p.Number < p.NumPages }

// output is a file of the generated site.
type output struct {
	path   string // slash-separated, relative to the output directory
	source string // what produces the file, for errors
	render func() ([]byte, error)
}

// outputPath normalizes an output path. Paths are relative to the output
// directory even with a leading slash; a trailing slash means index.html.
func outputPath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index.html"
	}
	return p
}

// add registers an output file.
func (b *builder) add(p, source string, render func() ([]byte, error)) error {
	p = outputPath(p)
	if !filepath.IsLocal(filepath.FromSlash(p)) {
		return fmt.Errorf("%s: %w: %q", source, errPathEscapes, p)
	}
	p = path.Clean(p)
	if prev, ok := b.claimed[p]; ok {
		return fmt.Errorf("%s: %w: %q is also written by %s", source, errPathCollision, p, prev)
	}
	b.claimed[p] = source
	b.outputs = append(b.outputs, output{path: p, source: source, render: render})
	return nil
}

func (b *builder) data() *pageData {
	return &pageData{
		Settings:   b.s,
		Articles:   b.articles,
		Pages:      b.menuPages(),
		Categories: b.categories,
		Tags:       b.tags,
		Authors:    b.authors,
		Dates:      b.articles,
	}
}

// addPage registers a page rendered with the template name.
func (b *builder) addPage(saveAs, source, name string, d *pageData) error {
	t, err := b.theme.lookup(name)
	if err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}
	d.Output = path.Clean(outputPath(saveAs))
	d.SiteURL = b.siteURLFor(d.Output)
	return b.add(saveAs, source, func() ([]byte, error) {
		return execute(t, d)
	})
}

func execute(t *template.Template, d *pageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// addPaginated registers the pages of a listing. The first page is saved at
// saveAs, the rest get a page number before the extension.
func (b *builder) addPaginated(saveAs, url, source, name string, items []*Item, fill func(*pageData)) error {
	per := int(b.s.DefaultPagination)
	if per <= 0 || len(items) == 0 {
		per = max(len(items), 1)
	}
	numPages := (len(items) + per - 1) / per
	numPages = max(numPages, 1)

	// Later pages are written and linked by the output path of the first, so
	// directory URLs like "tag/go/" still work: the second page is
	// tag/go/index2.html.
	first := outputPath(saveAs)
	pageURL := func(n int) string {
		if n == 1 {
			return url
		}
		return paginatedPath(first, n)
	}
	for n := 1; n <= numPages; n++ {
		p := &Paginator{
			Number:   n,
			NumPages: numPages,
			Items:    items[min((n-1)*per, len(items)):min(n*per, len(items))],
			URL:      pageURL(n),
		}
		if p.HasPrev() {
			p.PrevURL = pageURL(n - 1)
		}
		if p.HasNext() {
			p.NextURL = pageURL(n + 1)
		}
		d := b.data()
		d.Paginator = p
		if fill != nil {
			fill(d)
		}
		if err := b.addPage(paginatedPath(first, n), source, name, d); err != nil {
			return err
		}
	}
	return nil
}

// plan registers every output file of the site.
func (b *builder) plan(ctx context.Context) error {
	for _, it := range b.articles {
		d := b.data()
		d.Article = it
		if err := b.addPage(it.SaveAs, it.Source, it.Template, d); err != nil {
			return err
		}
	}
	for _, it := range b.drafts {
		d := b.data()
		if it.Kind == content.Page {
			d.Page = it
		} else {
			d.Article = it
		}
		if err := b.addPage(it.SaveAs, it.Source, it.Template, d); err != nil {
			return err
		}
	}
	for _, it := range b.pages {
		d := b.data()
		d.Page = it
		if err := b.addPage(it.SaveAs, it.Source, it.Template, d); err != nil {
			return err
		}
	}

	if b.s.IndexSaveAs != "" {
		if err := b.addPaginated(b.s.IndexSaveAs, b.s.IndexSaveAs, "INDEX_SAVE_AS", "index", b.articles, nil); err != nil {
			return err
		}
	}
	for _, tc := range []struct {
		taxa []*Taxon
		name string
		set  func(d *pageData, t *Taxon)
	}{
		{b.categories, "category", func(d *pageData, t *Taxon) { d.Category = t }},
		{b.tags, "tag", func(d *pageData, t *Taxon) { d.Tag = t }},
		{b.authors, "author", func(d *pageData, t *Taxon) { d.Author = t }},
	} {
		for _, t := range tc.taxa {
			source := tc.name + " " + t.Name
			if err := b.addPaginated(t.SaveAs, t.URL, source, tc.name, t.Articles, func(d *pageData) { tc.set(d, t) }); err != nil {
				return err
			}
		}
	}

	for _, direct := range []struct{ saveAs, name string }{
		{b.s.ArchivesSaveAs, "archives"},
		{b.s.CategoriesSaveAs, "categories"},
		{b.s.TagsSaveAs, "tags"},
		{b.s.AuthorsSaveAs, "authors"},
	} {
		if direct.saveAs == "" {
			continue
		}
		if err := b.addPage(direct.saveAs, strings.ToUpper(direct.name)+"_SAVE_AS", direct.name, b.data()); err != nil {
			return err
		}
	}

	if err := b.planFeeds(); err != nil {
		return err
	}
	if err := b.planSitemap(); err != nil {
		return err
	}
	return b.planStatic(ctx)
}

// write renders and writes all outputs concurrently.
func (b *builder) write(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism())
	for _, o := range b.outputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			buf, err := o.render()
			if err != nil {
				return fmt.Errorf("%s: %w", o.source, err)
			}
			if buf, err = b.minify(o.path, buf); err != nil {
				return fmt.Errorf("%s: %w", o.source, err)
			}
			dst := filepath.Join(b.c.Dst, filepath.FromSlash(o.path))
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return err
			}
			return os.WriteFile(dst, buf, 0o644)
		})
	}
	return g.Wait()
}

func (b *builder) minify(p string, buf []byte) ([]byte, error) {
	if b.min == nil {
		return buf, nil
	}
	mediaType, ok := mediaTypes[strings.ToLower(path.Ext(p))]
	if !ok {
		return buf, nil
	}
	return b.min.Bytes(mediaType, buf)
}

func parallelism() int {
	return runtime.GOMAXPROCS(0)
}
