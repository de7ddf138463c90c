// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package site builds The Engine Room blog.

# Directory Structure

Paths are taken from settings and resolved against the repository root:

	PATH         Articles and pages. Files under PAGE_PATHS are pages,
	             everything else under ARTICLE_PATHS is an article.
	STATIC_PATHS Files copied verbatim, relative to PATH. EXTRA_PATH_METADATA
	             relocates them, so extra/CNAME can become CNAME.
	THEME        Theme directory with templates and static subdirectories.
	             Missing templates are taken from the bundled theme.
	OUTPUT_PATH  This is where the generated site will be placed.

# Output

For every published article and page the site has a file at ARTICLE_SAVE_AS
or PAGE_SAVE_AS. Drafts are written to DRAFT_SAVE_AS in development builds
only. Index, category, tag and author pages are paginated with
DEFAULT_PAGINATION: the second page of index.html is index2.html.

URL and save-as settings are templates:

	{slug}           document or taxonomy slug
	{name}           taxonomy name
	{lang}           document language
	{category}       slug of the article category
	{author}         slug of the first author
	{date:%Y/%m}     publication date formatted with strftime directives
	{anything}       metadata value

Use {{ and }} for literal braces.

# Templates

Templates are Go html/template files. base.html defines a "base" template; page
templates (index, article, page, category, tag, author, archives, categories,
tags, authors) override its "title" and "content" blocks. Besides the builtin
functions templates may call:

	date FORMAT TIME   format time with strftime directives
	setting NAME       raw value of any UPPERCASE setting, nil if unset
	slugify STRING     turn a string into a slug
*/
package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/trackmaven/engineroom/internal/content"
	"github.com/trackmaven/engineroom/internal/env"
	"github.com/trackmaven/engineroom/internal/settings"

	"go.astrophena.name/base/logger"

	"github.com/tdewolff/minify/v2"
	"golang.org/x/sync/errgroup"
)

// Possible errors, used in tests.
var (
	errURLTemplate     = errors.New("invalid URL template")
	errPathCollision   = errors.New("output path written twice")
	errPathEscapes     = errors.New("output path escapes the output directory")
	errTemplateMissing = errors.New("no such template")
)

// Config represents a build configuration.
type Config struct {
	// Settings are the site settings. If nil, uses settings.Default().
	Settings *settings.Settings
	// Root is the directory relative paths in settings are resolved against.
	// If empty, uses the current directory.
	Root string
	// Dst is the directory where to write files. If empty, uses OUTPUT_PATH.
	Dst string
	// Env is the build environment. Production builds skip drafts. If empty,
	// uses env.Dev.
	Env env.Env
	// Theme overrides THEME.
	Theme fs.FS
}

func (c *Config) setDefaults() {
	if c.Settings == nil {
		c.Settings = settings.Default()
	}
	if c.Root == "" {
		c.Root = "."
	}
	if c.Dst == "" {
		c.Dst = c.resolve(c.Settings.OutputPath)
	}
	if c.Env == "" {
		c.Env = env.Dev
	}
}

// resolve returns p relative to the repository root, unless it's absolute.
func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, filepath.FromSlash(p))
}

// Build builds a site based on the provided [Config].
func Build(ctx context.Context, c *Config) error {
	c.setDefaults()
	start := time.Now()

	b, err := newBuilder(c)
	if err != nil {
		return err
	}
	if err := b.read(ctx); err != nil {
		return err
	}
	if err := b.link(); err != nil {
		return err
	}
	if err := b.plan(ctx); err != nil {
		return err
	}

	if c.Settings.DeleteOutputDirectory {
		if err := os.RemoveAll(c.Dst); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(c.Dst, 0o755); err != nil {
		return err
	}
	if err := b.write(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "built site",
		slog.String("env", c.Env.String()),
		slog.String("dst", c.Dst),
		slog.Int("articles", len(b.articles)),
		slog.Int("drafts", len(b.drafts)),
		slog.Int("pages", len(b.pages)),
		slog.Int("files", len(b.outputs)),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

type builder struct {
	c     *Config
	s     *settings.Settings
	r     *content.Reader
	theme *theme
	min   *minify.M // nil when MINIFY is off

	articles []*Item // published, newest first
	drafts   []*Item
	pages    []*Item

	categories []*Taxon
	tags       []*Taxon
	authors    []*Taxon

	outputs []output
	claimed map[string]string // output path -> source
}

func newBuilder(c *Config) (*builder, error) {
	b := &builder{
		c:       c,
		s:       c.Settings,
		r:       content.NewReader(c.Settings),
		claimed: make(map[string]string),
	}
	if b.s.Minify {
		b.min = newMin()
	}

	fsys := c.Theme
	if fsys == nil && b.s.Theme != "" {
		dir := c.resolve(b.s.Theme)
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("THEME: %w", err)
		}
		fsys = os.DirFS(dir)
	}
	th, err := loadTheme(fsys, b.funcs())
	if err != nil {
		return nil, err
	}
	b.theme = th
	return b, nil
}

// read discovers and parses all documents.
func (b *builder) read(ctx context.Context) error {
	sources, err := b.r.Discover(b.c.resolve(b.s.Path))
	if err != nil {
		return err
	}

	docs := make([]*content.Document, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism())
	for i, src := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, err := b.r.ReadFile(src.Path, src.Rel, src.Kind)
			if err != nil {
				return err
			}
			docs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, d := range docs {
		it := &Item{Document: d}
		switch {
		case d.IsDraft():
			if !b.c.Env.IsProd() {
				b.drafts = append(b.drafts, it)
			}
		case d.Kind == content.Page:
			b.pages = append(b.pages, it)
		default:
			b.articles = append(b.articles, it)
		}
	}

	// Newest articles first; the source path breaks ties so output doesn't
	// depend on read order.
	slices.SortStableFunc(b.articles, func(x, y *Item) int {
		if c := y.Date.Compare(x.Date); c != 0 {
			return c
		}
		return strings.Compare(x.Source, y.Source)
	})
	slices.SortFunc(b.pages, func(x, y *Item) int { return strings.Compare(x.Source, y.Source) })
	slices.SortFunc(b.drafts, func(x, y *Item) int { return strings.Compare(x.Source, y.Source) })
	return nil
}
