// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package settings loads blog settings from Starlark files.

Settings files are plain Starlark. Every UPPERCASE global becomes a setting;
everything else (helper functions, loop variables) is ignored:

	AUTHOR = "Maven"
	SITENAME = "The Engine Room"
	STATIC_PATHS = ["images", "extra/CNAME"]
	EXTRA_PATH_METADATA = {
	    "extra/CNAME": {"path": "CNAME"},
	}
	READERS = {"html": None}

Several files can be loaded at once. Globals of each file are visible in the
next one, so a publish file can build on the development one:

	SITEURL = "https://engineroom.trackmaven.com"
	FEED_ALL_ATOM = "feeds/all.atom.xml"
	DELETE_OUTPUT_DIRECTORY = True

Files may also load helpers with load("other.star", "NAME") and read the
environment with env("NAME", "default").
*/
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	_ "time/tzdata" // TIMEZONE must work on hosts without a tz database
)

// Possible errors, used in tests.
var (
	errSettingType  = errors.New("unsupported setting type")
	errSettingValue = errors.New("invalid setting value")
	errLoadCycle    = errors.New("cycle in load graph")
)

// Settings represents the blog settings. Field tags carry the names used in
// settings files.
type Settings struct {
	Author   string `json:"AUTHOR"`
	SiteName string `json:"SITENAME"`
	// SiteURL is the absolute URL of the published site without a trailing
	// slash. Empty in development.
	SiteURL     string `json:"SITEURL"`
	About       string `json:"ABOUT"`
	Timezone    string `json:"TIMEZONE"`
	DefaultLang string `json:"DEFAULT_LANG"`

	// Path is the content directory, relative to the repository root.
	Path            string   `json:"PATH"`
	ArticlePaths    []string `json:"ARTICLE_PATHS"`
	ArticleExcludes []string `json:"ARTICLE_EXCLUDES"`
	PagePaths       []string `json:"PAGE_PATHS"`
	StaticPaths     []string `json:"STATIC_PATHS"`
	// OutputPath is the deploy path, relative to the repository root.
	OutputPath            string `json:"OUTPUT_PATH"`
	DeleteOutputDirectory bool   `json:"DELETE_OUTPUT_DIRECTORY"`
	// Theme is a theme directory relative to the repository root. Empty means
	// the bundled theme.
	Theme          string `json:"THEME"`
	ThemeStaticDir string `json:"THEME_STATIC_DIR"`

	RelativeURLs            bool        `json:"RELATIVE_URLS"`
	DefaultPagination       Pagination  `json:"DEFAULT_PAGINATION"`
	DefaultCategory         string      `json:"DEFAULT_CATEGORY"`
	UseFolderAsCategory     bool        `json:"USE_FOLDER_AS_CATEGORY"`
	DefaultDateFormat       string      `json:"DEFAULT_DATE_FORMAT"`
	DateFormats             DateFormats `json:"DATE_FORMATS"`
	SummaryMaxLength        int         `json:"SUMMARY_MAX_LENGTH"`
	Minify                  bool        `json:"MINIFY"`
	Links                   Links       `json:"LINKS"`
	Social                  Links       `json:"SOCIAL"`
	MenuItems               Links       `json:"MENUITEMS"`
	DisplayPagesOnMenu      bool        `json:"DISPLAY_PAGES_ON_MENU"`
	DisplayCategoriesOnMenu bool        `json:"DISPLAY_CATEGORIES_ON_MENU"`

	ExtraPathMetadata map[string]PathMetadata `json:"EXTRA_PATH_METADATA"`
	// Readers maps a file extension (without dot) to a reader name. A nil
	// value disables the reader for that extension.
	Readers map[string]*string `json:"READERS"`

	FeedDomain          string `json:"FEED_DOMAIN"`
	FeedAllAtom         string `json:"FEED_ALL_ATOM"`
	FeedAllRSS          string `json:"FEED_ALL_RSS"`
	CategoryFeedAtom    string `json:"CATEGORY_FEED_ATOM"`
	TagFeedAtom         string `json:"TAG_FEED_ATOM"`
	AuthorFeedAtom      string `json:"AUTHOR_FEED_ATOM"`
	TranslationFeedAtom string `json:"TRANSLATION_FEED_ATOM"`
	FeedMaxItems        int    `json:"FEED_MAX_ITEMS"`

	ArticleURL       string `json:"ARTICLE_URL"`
	ArticleSaveAs    string `json:"ARTICLE_SAVE_AS"`
	DraftURL         string `json:"DRAFT_URL"`
	DraftSaveAs      string `json:"DRAFT_SAVE_AS"`
	PageURL          string `json:"PAGE_URL"`
	PageSaveAs       string `json:"PAGE_SAVE_AS"`
	CategoryURL      string `json:"CATEGORY_URL"`
	CategorySaveAs   string `json:"CATEGORY_SAVE_AS"`
	TagURL           string `json:"TAG_URL"`
	TagSaveAs        string `json:"TAG_SAVE_AS"`
	AuthorURL        string `json:"AUTHOR_URL"`
	AuthorSaveAs     string `json:"AUTHOR_SAVE_AS"`
	IndexSaveAs      string `json:"INDEX_SAVE_AS"`
	ArchivesSaveAs   string `json:"ARCHIVES_SAVE_AS"`
	CategoriesSaveAs string `json:"CATEGORIES_SAVE_AS"`
	TagsSaveAs       string `json:"TAGS_SAVE_AS"`
	AuthorsSaveAs    string `json:"AUTHORS_SAVE_AS"`
	SitemapSaveAs    string `json:"SITEMAP_SAVE_AS"`

	// CNAME is the custom domain written to the deploy path by the build
	// tasks.
	CNAME               string `json:"CNAME"`
	DeployRemote        string `json:"DEPLOY_REMOTE"`
	SourceBranch        string `json:"SOURCE_BRANCH"`
	GitHubPagesBranch   string `json:"GITHUB_PAGES_BRANCH"`
	DeployBranch        string `json:"DEPLOY_BRANCH"`
	GitHubPagesNoJekyll bool   `json:"GITHUB_PAGES_NOJEKYLL"`
	GitHubPagesMessage  string `json:"GITHUB_PAGES_MESSAGE"`

	// Raw holds every UPPERCASE global, including ones not mapped to a field.
	Raw map[string]any `json:"-"`
	// Files lists the loaded settings files in order.
	Files []string `json:"-"`

	loc *time.Location
}

// PathMetadata is the per-file metadata of EXTRA_PATH_METADATA.
type PathMetadata struct {
	// Path is the output path of a static file, relative to the output
	// directory.
	Path string `json:"path"`
}

// Link is a (title, url) pair, as used by LINKS, SOCIAL and MENUITEMS.
type Link struct {
	Title string
	URL   string
}

// Links is a list of (title, url) pairs.
type Links []Link

// UnmarshalJSON implements json.Unmarshaler.
func (l *Links) UnmarshalJSON(b []byte) error {
	var pairs [][]any
	if err := json.Unmarshal(b, &pairs); err != nil {
		return fmt.Errorf("%w: want a list of (title, url) pairs", errSettingValue)
	}
	*l = nil
	for _, p := range pairs {
		if len(p) != 2 {
			return fmt.Errorf("%w: want a (title, url) pair, got %d items", errSettingValue, len(p))
		}
		title, ok1 := p[0].(string)
		url, ok2 := p[1].(string)
		if !ok1 || !ok2 {
			return fmt.Errorf("%w: (title, url) pair must contain strings", errSettingValue)
		}
		*l = append(*l, Link{Title: title, URL: url})
	}
	return nil
}

// DateFormats maps a language to the strftime format of its dates. In
// settings files a value can also be a (locale, format) tuple; the locale is
// ignored.
type DateFormats map[string]string

// UnmarshalJSON implements json.Unmarshaler.
func (f *DateFormats) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: DATE_FORMATS must be a dict", errSettingValue)
	}
	*f = make(DateFormats, len(raw))
	for lang, v := range raw {
		switch v := v.(type) {
		case string:
			(*f)[lang] = v
		case []any:
			if len(v) != 2 {
				return fmt.Errorf("%w: DATE_FORMATS[%q] must be a format or a (locale, format) pair", errSettingValue, lang)
			}
			format, ok := v[1].(string)
			if !ok {
				return fmt.Errorf("%w: DATE_FORMATS[%q] format must be a string", errSettingValue, lang)
			}
			(*f)[lang] = format
		default:
			return fmt.Errorf("%w: DATE_FORMATS[%q] must be a format or a (locale, format) pair", errSettingValue, lang)
		}
	}
	return nil
}

// DateFormat returns the date format for lang: its DATE_FORMATS entry, or
// DEFAULT_DATE_FORMAT.
func (s *Settings) DateFormat(lang string) string {
	if f, ok := s.DateFormats[lang]; ok {
		return f
	}
	return s.DefaultDateFormat
}

// Pagination is the number of articles per listing page. Zero disables
// pagination. In settings files it can be an int or False.
type Pagination int

// UnmarshalJSON implements json.Unmarshaler.
func (p *Pagination) UnmarshalJSON(b []byte) error {
	switch s := string(b); s {
	case "null", "false":
		*p = 0
		return nil
	case "true":
		return fmt.Errorf("%w: DEFAULT_PAGINATION must be False or a number", errSettingValue)
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: DEFAULT_PAGINATION must be False or a number", errSettingValue)
	}
	if n < 0 {
		return fmt.Errorf("%w: DEFAULT_PAGINATION must not be negative", errSettingValue)
	}
	*p = Pagination(n)
	return nil
}

// Default returns settings with default values.
func Default() *Settings {
	return &Settings{
		Timezone:                "UTC",
		DefaultLang:             "en",
		Path:                    "content",
		ArticlePaths:            []string{""},
		PagePaths:               []string{"pages"},
		StaticPaths:             []string{"images"},
		OutputPath:              "output",
		ThemeStaticDir:          "theme",
		DefaultCategory:         "misc",
		UseFolderAsCategory:     true,
		DefaultDateFormat:       "%a %d %B %Y",
		SummaryMaxLength:        50,
		DisplayPagesOnMenu:      true,
		DisplayCategoriesOnMenu: true,
		ArticleURL:              "{slug}.html",
		ArticleSaveAs:           "{slug}.html",
		DraftURL:                "drafts/{slug}.html",
		DraftSaveAs:             "drafts/{slug}.html",
		PageURL:                 "pages/{slug}.html",
		PageSaveAs:              "pages/{slug}.html",
		CategoryURL:             "category/{slug}.html",
		CategorySaveAs:          "category/{slug}.html",
		TagURL:                  "tag/{slug}.html",
		TagSaveAs:               "tag/{slug}.html",
		AuthorURL:               "author/{slug}.html",
		AuthorSaveAs:            "author/{slug}.html",
		IndexSaveAs:             "index.html",
		ArchivesSaveAs:          "archives.html",
		CategoriesSaveAs:        "categories.html",
		TagsSaveAs:              "tags.html",
		AuthorsSaveAs:           "authors.html",
		SitemapSaveAs:           "sitemap.xml",
		DeployRemote:            "origin",
		SourceBranch:            "source",
		GitHubPagesBranch:       "gh-pages",
		DeployBranch:            "master",
		GitHubPagesMessage:      "Update site",
		Raw:                     make(map[string]any),
		loc:                     time.UTC,
	}
}

// fromGlobals builds settings from converted UPPERCASE globals.
func fromGlobals(globals map[string]any) (*Settings, error) {
	s := Default()
	// FEED_DOMAIN defaults to SITEURL, so track whether it was set.
	_, feedDomainSet := globals["FEED_DOMAIN"]

	b, err := json.Marshal(globals)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(b, s); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: %s must be %s, got %s", errSettingType, typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return nil, err
	}
	for k, v := range globals {
		s.Raw[k] = v
		if v == nil {
			s.clear(k)
		}
	}

	if !feedDomainSet {
		s.FeedDomain = s.SiteURL
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return s, nil
}

// clear resets the field of the setting name to its zero value. None in a
// settings file means "off", even where the default is not.
func (s *Settings) clear(name string) {
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	for i := range t.NumField() {
		if tag, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ","); tag == name {
			f := v.Field(i)
			f.Set(reflect.Zero(f.Type()))
			return
		}
	}
}

func (s *Settings) normalize() error {
	s.SiteURL = strings.TrimSuffix(s.SiteURL, "/")
	s.FeedDomain = strings.TrimSuffix(s.FeedDomain, "/")

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return fmt.Errorf("%w: TIMEZONE: %v", errSettingValue, err)
	}
	s.loc = loc

	if s.Path == "" {
		return fmt.Errorf("%w: PATH must not be empty", errSettingValue)
	}
	if s.OutputPath == "" {
		return fmt.Errorf("%w: OUTPUT_PATH must not be empty", errSettingValue)
	}
	if s.SummaryMaxLength < 0 {
		return fmt.Errorf("%w: SUMMARY_MAX_LENGTH must not be negative", errSettingValue)
	}
	if s.FeedMaxItems < 0 {
		return fmt.Errorf("%w: FEED_MAX_ITEMS must not be negative", errSettingValue)
	}
	for src, md := range s.ExtraPathMetadata {
		if md.Path == "" {
			return fmt.Errorf("%w: EXTRA_PATH_METADATA[%q] has no path", errSettingValue, src)
		}
	}
	return nil
}

// Location returns the location of TIMEZONE, or UTC if it is invalid.
func (s *Settings) Location() *time.Location {
	if s.loc != nil {
		return s.loc
	}
	if loc, err := time.LoadLocation(s.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// ReaderEnabled reports whether files with the extension ext (with or without
// the leading dot) should be read.
func (s *Settings) ReaderEnabled(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	r, ok := s.Readers[ext]
	return !ok || r != nil
}

// Lookup returns the raw value of the setting name.
func (s *Settings) Lookup(name string) (any, bool) {
	v, ok := s.Raw[name]
	return v, ok
}
