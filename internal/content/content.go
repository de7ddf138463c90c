// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package content reads blog articles and pages.

# Document Layout

Documents live in the content directory (PATH). Files under PAGE_PATHS are
pages, everything else under ARTICLE_PATHS is an article. Markdown documents
start with metadata in one of three formats.

A header of "Key: value" lines, ended by a blank line:

	Title: Hello, world!
	Date: 2014-05-20 10:00
	Category: Python
	Tags: django, testing

	Content goes here.

YAML front matter:

	---
	title: Hello, world!
	date: 2014-05-20
	tags: [django, testing]
	---

Or JSON front matter:

	{
	  "title": "Hello, world!",
	  "date": "2014-05-20"
	}

HTML documents take their metadata from <title> and <meta> elements, and their
content from <body>.
*/
package content

import (
	"errors"
	"html/template"
	"time"
)

// Possible errors, used in tests.
var (
	errMetadataMissing   = errors.New("missing required metadata")
	errMetadataParse     = errors.New("failed to parse metadata")
	errDateParse         = errors.New("failed to parse date")
	errStatusInvalid     = errors.New("invalid status")
	errFormatUnsupported = errors.New("format unsupported")
)

// Kind distinguishes articles from pages.
type Kind int

// Document kinds.
const (
	Article Kind = iota
	Page
)

func (k Kind) String() string {
	if k == Page {
		return "page"
	}
	return "article"
}

// Status is the publication status of a document.
type Status string

// Document statuses.
const (
	// Published documents are listed and rendered.
	Published Status = "published"
	// Draft documents are rendered to the drafts location and never listed.
	Draft Status = "draft"
	// Hidden pages are rendered but not shown on the menu.
	Hidden Status = "hidden"
)

// Document is an article or a page.
type Document struct {
	Kind     Kind
	Title    string
	Slug     string
	Lang     string
	Date     time.Time
	Modified time.Time
	Category string
	Tags     []string
	Authors  []string
	Summary  template.HTML
	Content  template.HTML
	Status   Status
	// Template is the theme template name without extension.
	Template string
	// SaveAs and URL override the URL templates when set in metadata.
	SaveAs string
	URL    string
	// Metadata holds all metadata with lowercased keys, including the ones
	// mapped to fields.
	Metadata map[string]string
	// Source is the slash-separated path relative to the content directory.
	Source string
}

// IsDraft reports whether the document is a draft.
func (d *Document) IsDraft() bool { return d.Status == Draft }

// IsHidden reports whether the document is hidden.
func (d *Document) IsHidden() bool { return d.Status == Hidden }
