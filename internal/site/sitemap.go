// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"bytes"
	"encoding/xml"
	"time"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// planSitemap registers sitemap.xml. Sitemaps need absolute URLs, so nothing
// is written without SITEURL.
func (b *builder) planSitemap() error {
	if b.s.SiteURL == "" || b.s.SitemapSaveAs == "" {
		return nil
	}
	return b.add(b.s.SitemapSaveAs, "SITEMAP_SAVE_AS", func() ([]byte, error) {
		var buf bytes.Buffer
		buf.WriteString(xml.Header)
		enc := xml.NewEncoder(&buf)
		enc.Indent("", "  ")
		if err := enc.Encode(b.sitemap()); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	})
}

func (b *builder) sitemap() sitemapURLSet {
	base := b.s.SiteURL
	urls := []sitemapURL{{Loc: absURL(base, "")}}
	for _, it := range b.articles {
		urls = append(urls, sitemapURL{
			Loc:     absURL(base, it.URL),
			LastMod: lastMod(it.Modified),
		})
	}
	for _, it := range b.pages {
		if it.IsHidden() {
			continue
		}
		urls = append(urls, sitemapURL{
			Loc:     absURL(base, it.URL),
			LastMod: lastMod(it.Modified),
		})
	}
	for _, taxa := range [][]*Taxon{b.categories, b.tags, b.authors} {
		for _, t := range taxa {
			urls = append(urls, sitemapURL{Loc: absURL(base, t.URL)})
		}
	}
	return sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
}

func lastMod(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
