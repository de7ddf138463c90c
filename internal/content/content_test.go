// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package content

import (
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/trackmaven/engineroom/internal/settings"

	"go.astrophena.name/base/testutil"

	"github.com/google/go-cmp/cmp"
)

func testSettings() *settings.Settings {
	s := settings.Default()
	s.Author = "Maven"
	return s
}

func loadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

func TestParse(t *testing.T) {
	cases := map[string]struct {
		rel      string
		kind     Kind
		content  string
		wantErr  error
		check    func(t *testing.T, d *Document)
		settings func(s *settings.Settings)
	}{
		"pelican header": {
			rel: "python/testing-django.md",
			content: `Title: Testing Django: the hard parts
Date: 2014-05-20 10:20
Tags: django, testing, django
Slug: testing-django
Summary: How we test.

Some *content*.
`,
			check: func(t *testing.T, d *Document) {
				testutil.AssertEqual(t, d.Title, "Testing Django: the hard parts")
				testutil.AssertEqual(t, d.Slug, "testing-django")
				testutil.AssertEqual(t, d.Category, "python")
				testutil.AssertEqual(t, d.Tags, []string{"django", "testing"})
				testutil.AssertEqual(t, d.Authors, []string{"Maven"})
				testutil.AssertEqual(t, d.Summary, template.HTML("How we test."))
				testutil.AssertEqual(t, d.Date.Equal(time.Date(2014, time.May, 20, 10, 20, 0, 0, time.UTC)), true)
				testutil.AssertEqual(t, d.Modified.Equal(d.Date), true)
				testutil.AssertEqual(t, d.Template, "article")
				testutil.AssertEqual(t, strings.TrimSpace(string(d.Content)), "<p>Some <em>content</em>.</p>")
			},
		},
		"yaml front matter": {
			rel: "yaml.md",
			content: `---
title: YAML post
date: 2015-01-02
modified: 2015-01-03 08:00
tags: [go, yaml]
authors: Alice; Bob
category: Ops
---

Hello.
`,
			check: func(t *testing.T, d *Document) {
				testutil.AssertEqual(t, d.Title, "YAML post")
				testutil.AssertEqual(t, d.Slug, "yaml-post")
				testutil.AssertEqual(t, d.Category, "Ops")
				testutil.AssertEqual(t, d.Tags, []string{"go", "yaml"})
				testutil.AssertEqual(t, d.Authors, []string{"Alice", "Bob"})
				testutil.AssertEqual(t, d.Modified.Equal(time.Date(2015, time.January, 3, 8, 0, 0, 0, time.UTC)), true)
				testutil.AssertEqual(t, strings.TrimSpace(string(d.Content)), "<p>Hello.</p>")
			},
		},
		"yaml date in timezone": {
			rel: "paris.md",
			content: `---
title: Paris
date: 2014-05-20 10:00:00
modified: 2014-05-21T10:00:00+00:00
---

Bonjour.
`,
			settings: func(s *settings.Settings) { s.Timezone = "Europe/Paris" },
			check: func(t *testing.T, d *Document) {
				paris := loadLocation(t, "Europe/Paris")
				testutil.AssertEqual(t, d.Date.Equal(time.Date(2014, time.May, 20, 10, 0, 0, 0, paris)), true)
				// An explicit offset wins over TIMEZONE.
				testutil.AssertEqual(t, d.Modified.Equal(time.Date(2014, time.May, 21, 10, 0, 0, 0, time.UTC)), true)
			},
		},
		"header date in timezone": {
			rel:      "paris.md",
			content:  "Title: Paris\nDate: 2014-05-20 10:00:00\n\nBonjour.\n",
			settings: func(s *settings.Settings) { s.Timezone = "Europe/Paris" },
			check: func(t *testing.T, d *Document) {
				paris := loadLocation(t, "Europe/Paris")
				testutil.AssertEqual(t, d.Date.Equal(time.Date(2014, time.May, 20, 10, 0, 0, 0, paris)), true)
			},
		},
		"json front matter with modeline": {
			rel: "json.md",
			content: `<!-- vim: set ft=markdown: -->
{
  "title": "JSON post",
  "date": "2016-03-04",
  "author": "Carol"
}

Test.
`,
			check: func(t *testing.T, d *Document) {
				testutil.AssertEqual(t, d.Title, "JSON post")
				testutil.AssertEqual(t, d.Authors, []string{"Carol"})
				testutil.AssertEqual(t, d.Category, "misc")
				testutil.AssertEqual(t, strings.TrimSpace(string(d.Content)), "<p>Test.</p>")
			},
		},
		"page": {
			rel:  "pages/about.md",
			kind: Page,
			content: `Title: About
Status: hidden

About us.
`,
			check: func(t *testing.T, d *Document) {
				testutil.AssertEqual(t, d.Kind, Page)
				testutil.AssertEqual(t, d.IsHidden(), true)
				testutil.AssertEqual(t, d.Category, "")
				testutil.AssertEqual(t, d.Template, "page")
			},
		},
		"draft without date": {
			rel: "draft.md",
			content: `Title: Work in progress
Status: draft

Soon.
`,
			check: func(t *testing.T, d *Document) {
				testutil.AssertEqual(t, d.IsDraft(), true)
				testutil.AssertEqual(t, d.Date.IsZero(), true)
			},
		},
		"html document": {
			rel: "legacy.html",
			content: `<html>
<head>
  <title>Legacy post</title>
  <meta name="date" content="2013-12-01 09:00">
  <meta name="keywords" content="html, legacy">
  <meta name="Category" content="Archive">
</head>
<body>
  <p>Old content.</p>
</body>
</html>
`,
			check: func(t *testing.T, d *Document) {
				testutil.AssertEqual(t, d.Title, "Legacy post")
				testutil.AssertEqual(t, d.Category, "Archive")
				testutil.AssertEqual(t, d.Tags, []string{"html", "legacy"})
				testutil.AssertEqual(t, string(d.Content), "<p>Old content.</p>")
			},
		},
		"comments are stripped": {
			rel: "comments.md",
			content: `Title: Comments
Date: 2014-01-01

Foo.

<!-- Some comment. -->
<!--
multi
line
-->
`,
			check: func(t *testing.T, d *Document) {
				testutil.AssertEqual(t, strings.TrimSpace(string(d.Content)), "<p>Foo.</p>")
			},
		},
		"automatic summary": {
			rel: "long.md",
			content: `Title: Long
Date: 2014-01-01

One two three four five.
`,
			settings: func(s *settings.Settings) { s.SummaryMaxLength = 3 },
			check: func(t *testing.T, d *Document) {
				testutil.AssertEqual(t, d.Summary, template.HTML("One two three …"))
			},
		},
		"short summary keeps markup": {
			rel: "short.md",
			content: `Title: Short
Date: 2014-01-01

Some *content*.
`,
			check: func(t *testing.T, d *Document) {
				testutil.AssertEqual(t, d.Summary, d.Content)
				testutil.AssertEqual(t, strings.Contains(string(d.Summary), "<em>content</em>"), true)
			},
		},
		"no metadata": {
			rel:     "bare.md",
			content: "Hello, world!\n",
			wantErr: errMetadataMissing,
		},
		"missing date": {
			rel:     "nodate.md",
			content: "Title: No date\n\nText.\n",
			wantErr: errMetadataMissing,
		},
		"bad date": {
			rel:     "baddate.md",
			content: "Title: Bad date\nDate: yesterday\n\nText.\n",
			wantErr: errDateParse,
		},
		"hidden article": {
			rel:     "hidden.md",
			content: "Title: Hidden\nDate: 2014-01-01\nStatus: hidden\n\nText.\n",
			wantErr: errStatusInvalid,
		},
		"unknown status": {
			rel:     "status.md",
			content: "Title: Status\nDate: 2014-01-01\nStatus: archived\n\nText.\n",
			wantErr: errStatusInvalid,
		},
		"unterminated yaml": {
			rel:     "yaml.md",
			content: "---\ntitle: Oops\n",
			wantErr: errMetadataParse,
		},
		"invalid json": {
			rel:     "json.md",
			content: "{\n  \"title\": \n}\n\nText.\n",
			wantErr: errMetadataParse,
		},
		"unsupported format": {
			rel:     "notes.rst",
			content: "Sample text.",
			wantErr: errFormatUnsupported,
		},
		"disabled reader": {
			rel:      "page.html",
			content:  "<html><head><title>X</title></head></html>",
			settings: func(s *settings.Settings) { s.Readers = map[string]*string{"html": nil} },
			wantErr:  errFormatUnsupported,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := testSettings()
			if tc.settings != nil {
				tc.settings(s)
			}
			d, err := NewReader(s).Parse(tc.rel, tc.kind, []byte(tc.content))

			// Don't use && because we want to trap all cases where err is
			// nil.
			if err == nil {
				if tc.wantErr != nil {
					t.Fatalf("must fail with error: %v", tc.wantErr)
				}
			}
			if err != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("got error: %v", err)
			}
			if err == nil && tc.check != nil {
				tc.check(t, d)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello, world!":                  "hello-world",
		"Testing Django: the hard parts": "testing-django-the-hard-parts",
		"  leading and trailing  ":       "leading-and-trailing",
		"Don't panic":                    "dont-panic",
		"C++ & Go":                       "c-and-go",
		"Ünïcödé":                        "unicode",
		"Café au lait":                   "cafe-au-lait",
		"Über Go":                        "uber-go",
		"snake_case stays":               "snake_case-stays",
		"!!!":                            "",
	}
	for in, want := range cases {
		testutil.AssertEqual(t, Slugify(in), want)
	}
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"first.md",
		"python/second.md",
		"pages/about.md",
		"images/diagram.md",
		"demos/widget.md",
		"extra/CNAME",
		"notes.txt",
		"legacy.html",
		"draft.md~",
		".hidden.md",
	} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("Title: x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	s := testSettings()
	s.StaticPaths = []string{"images", "extra/CNAME"}
	s.ArticleExcludes = []string{"demos"}
	s.Readers = map[string]*string{"html": nil}

	sources, err := NewReader(s).Discover(dir)
	if err != nil {
		t.Fatal(err)
	}

	type found struct {
		Rel  string
		Kind Kind
	}
	var got []found
	for _, src := range sources {
		got = append(got, found{src.Rel, src.Kind})
	}
	want := []found{
		{"first.md", Article},
		{"pages/about.md", Page},
		{"python/second.md", Article},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Discover mismatch (-want +got):\n%s", diff)
	}
}
