// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"fmt"
	"slices"
	"strings"

	"github.com/trackmaven/engineroom/internal/content"
	"github.com/trackmaven/engineroom/internal/settings"

	"github.com/ncruces/go-strftime"
)

// Item is a document as seen by templates.
type Item struct {
	*content.Document

	// URL is the document URL relative to the site root.
	URL string
	// SaveAs is the output path relative to the output directory.
	SaveAs string
	// LocaleDate is Date formatted with DEFAULT_DATE_FORMAT.
	LocaleDate string

	CategoryTaxon *Taxon
	TagTaxa       []*Taxon
	AuthorTaxa    []*Taxon
}

// Taxon is a category, tag or author.
type Taxon struct {
	Name string
	Slug string
	// URL is relative to the site root.
	URL    string
	SaveAs string
	// Articles are the published articles of the taxon, newest first.
	Articles []*Item
}

// taxonomy collects taxa of one kind by slug, in order of appearance.
type taxonomy struct {
	bySlug map[string]*Taxon
	order  []*Taxon
}

func newTaxonomy() *taxonomy {
	return &taxonomy{bySlug: make(map[string]*Taxon)}
}

func (tx *taxonomy) add(name string, it *Item) *Taxon {
	slug := content.Slugify(name)
	t, ok := tx.bySlug[slug]
	if !ok {
		t = &Taxon{Name: name, Slug: slug}
		tx.bySlug[slug] = t
		tx.order = append(tx.order, t)
	}
	t.Articles = append(t.Articles, it)
	return t
}

// sorted returns taxa sorted by name.
func (tx *taxonomy) sorted() []*Taxon {
	taxa := slices.Clone(tx.order)
	slices.SortFunc(taxa, func(a, b *Taxon) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return taxa
}

// link builds taxonomies and fills URLs of documents and taxa.
func (b *builder) link() error {
	categories, tags, authors := newTaxonomy(), newTaxonomy(), newTaxonomy()
	for _, it := range b.articles {
		if it.Category != "" {
			it.CategoryTaxon = categories.add(it.Category, it)
		}
		for _, tag := range it.Tags {
			it.TagTaxa = append(it.TagTaxa, tags.add(tag, it))
		}
		for _, author := range it.Authors {
			it.AuthorTaxa = append(it.AuthorTaxa, authors.add(author, it))
		}
	}
	b.categories = categories.sorted()
	b.tags = tags.sorted()
	b.authors = authors.sorted()

	for _, tc := range []struct {
		taxa        []*Taxon
		url, saveAs string
	}{
		{b.categories, b.s.CategoryURL, b.s.CategorySaveAs},
		{b.tags, b.s.TagURL, b.s.TagSaveAs},
		{b.authors, b.s.AuthorURL, b.s.AuthorSaveAs},
	} {
		for _, t := range tc.taxa {
			var err error
			if t.URL, err = expand(tc.url, taxonVars(t)); err != nil {
				return err
			}
			if t.SaveAs, err = expand(tc.saveAs, taxonVars(t)); err != nil {
				return err
			}
		}
	}

	// Drafts get taxa for rendering but are never listed on them.
	for _, it := range b.drafts {
		if it.Kind == content.Article && it.Category != "" {
			it.CategoryTaxon = categories.bySlug[content.Slugify(it.Category)]
		}
	}

	for _, it := range b.articles {
		if err := b.linkItem(it, b.s.ArticleURL, b.s.ArticleSaveAs); err != nil {
			return err
		}
	}
	for _, it := range b.pages {
		if err := b.linkItem(it, b.s.PageURL, b.s.PageSaveAs); err != nil {
			return err
		}
	}
	for _, it := range b.drafts {
		if err := b.linkItem(it, b.s.DraftURL, b.s.DraftSaveAs); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) linkItem(it *Item, urlTmpl, saveAsTmpl string) error {
	it.LocaleDate = formatDate(b.s, it)
	vars := b.documentVars(it)

	var err error
	it.URL = it.Document.URL
	if it.URL == "" {
		if it.URL, err = expand(urlTmpl, vars); err != nil {
			return fmt.Errorf("%s: %w", it.Source, err)
		}
	}
	it.SaveAs = it.Document.SaveAs
	if it.SaveAs == "" {
		if it.SaveAs, err = expand(saveAsTmpl, vars); err != nil {
			return fmt.Errorf("%s: %w", it.Source, err)
		}
	}
	return nil
}

func formatDate(s *settings.Settings, it *Item) string {
	if it.Date.IsZero() {
		return ""
	}
	return strftime.Format(s.DateFormat(it.Lang), it.Date)
}

// menuPages returns pages shown on the menu.
func (b *builder) menuPages() []*Item {
	var pages []*Item
	for _, p := range b.pages {
		if !p.IsHidden() {
			pages = append(pages, p)
		}
	}
	return pages
}
