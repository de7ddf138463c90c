// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package site

import (
	"strings"

	"github.com/gorilla/feeds"
)

type feedFormat int

const (
	atom feedFormat = iota
	rss
)

// planFeeds registers the feeds enabled in settings. A feed setting set to
// None disables the feed.
func (b *builder) planFeeds() error {
	if err := b.addFeed(b.s.FeedAllAtom, "FEED_ALL_ATOM", b.s.SiteName, b.articles, atom); err != nil {
		return err
	}
	if err := b.addFeed(b.s.FeedAllRSS, "FEED_ALL_RSS", b.s.SiteName, b.articles, rss); err != nil {
		return err
	}
	for _, tc := range []struct {
		tmpl    string
		setting string
		taxa    []*Taxon
	}{
		{b.s.CategoryFeedAtom, "CATEGORY_FEED_ATOM", b.categories},
		{b.s.TagFeedAtom, "TAG_FEED_ATOM", b.tags},
		{b.s.AuthorFeedAtom, "AUTHOR_FEED_ATOM", b.authors},
	} {
		if tc.tmpl == "" {
			continue
		}
		for _, t := range tc.taxa {
			p, err := expand(tc.tmpl, taxonVars(t))
			if err != nil {
				return err
			}
			if err := b.addFeed(p, tc.setting, b.s.SiteName+" - "+t.Name, t.Articles, atom); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *builder) addFeed(p, source, title string, items []*Item, format feedFormat) error {
	if p == "" {
		return nil
	}
	return b.add(p, source, func() ([]byte, error) {
		feed := b.feed(p, title, items)
		var (
			s   string
			err error
		)
		switch format {
		case rss:
			s, err = feed.ToRss()
		default:
			s, err = feed.ToAtom()
		}
		return []byte(s), err
	})
}

func (b *builder) feed(p, title string, items []*Item) *feeds.Feed {
	domain := b.s.FeedDomain
	feed := &feeds.Feed{
		Title:  title,
		Link:   &feeds.Link{Href: domain + "/"},
		Id:     absURL(domain, p),
		Author: &feeds.Author{Name: b.s.Author},
	}
	if len(items) > 0 {
		// Items are newest first.
		feed.Created = items[0].Date
		feed.Updated = items[0].Modified
	}

	if limit := b.s.FeedMaxItems; limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	for _, it := range items {
		link := absURL(domain, it.URL)
		feed.Items = append(feed.Items, &feeds.Item{
			Title:       it.Title,
			Link:        &feeds.Link{Href: link},
			Id:          link,
			Author:      &feeds.Author{Name: strings.Join(it.Authors, ", ")},
			Description: string(it.Summary),
			Content:     string(it.Content),
			Created:     it.Date,
			Updated:     it.Modified,
		})
	}
	return feed
}
