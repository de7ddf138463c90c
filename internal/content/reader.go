// © 2026 TrackMaven. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package content

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/trackmaven/engineroom/internal/settings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gosimple/slug"
	"rsc.io/markdown"
)

// format is a document format, chosen by file extension.
type format int

const (
	formatUnknown format = iota
	formatMarkdown
	formatHTML
)

var formats = map[string]format{
	".md":       formatMarkdown,
	".markdown": formatMarkdown,
	".mkd":      formatMarkdown,
	".mdown":    formatMarkdown,
	".html":     formatHTML,
	".htm":      formatHTML,
}

// Reader reads documents according to settings.
type Reader struct {
	s *settings.Settings
}

// NewReader returns a Reader for settings s.
func NewReader(s *settings.Settings) *Reader {
	return &Reader{s: s}
}

// Supports reports whether the reader can read the file at path: the
// extension is known and its reader is not disabled with READERS.
func (r *Reader) Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return formats[ext] != formatUnknown && r.s.ReaderEnabled(ext)
}

// ReadFile reads the document at path. rel is the slash-separated path
// relative to the content directory.
func (r *Reader) ReadFile(path, rel string, kind Kind) (*Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.Parse(rel, kind, src)
}

// Parse parses a document from src. rel is the slash-separated path relative
// to the content directory and determines the format.
func (r *Reader) Parse(rel string, kind Kind, src []byte) (*Document, error) {
	if !r.Supports(rel) {
		return nil, fmt.Errorf("%s: %w", rel, errFormatUnsupported)
	}

	var (
		meta    map[string]string
		content []byte
		err     error
	)
	switch formats[strings.ToLower(path.Ext(rel))] {
	case formatMarkdown:
		meta, content, err = readMarkdown(src)
	case formatHTML:
		meta, content, err = readHTML(src)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}

	d := &Document{
		Kind:     kind,
		Source:   rel,
		Metadata: meta,
		Content:  template.HTML(stripComments(content)),
	}
	if err := r.apply(d); err != nil {
		return nil, fmt.Errorf("%s: %w", rel, err)
	}
	return d, nil
}

var mdParser = markdown.Parser{
	HeadingID:          true,
	Strikethrough:      true,
	TaskList:           true,
	AutoLinkText:       true,
	AutoLinkAssumeHTTP: true,
	Table:              true,
	Emoji:              true,
	SmartDot:           true,
	SmartDash:          true,
	SmartQuote:         true,
	Footnote:           true,
}

func readMarkdown(src []byte) (map[string]string, []byte, error) {
	meta, body, err := splitMetadata(src)
	if err != nil {
		return nil, nil, err
	}
	p := mdParser
	doc := p.Parse(string(body))
	return meta, []byte(markdown.ToHTML(doc)), nil
}

// readHTML takes metadata from <title> and <meta name content> elements.
func readHTML(src []byte) (map[string]string, []byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(src))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errMetadataParse, err)
	}

	meta := make(map[string]string)
	if title := strings.TrimSpace(doc.Find("head title").First().Text()); title != "" {
		meta["title"] = title
	}
	doc.Find("head meta").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok {
			return
		}
		content, _ := s.Attr("content")
		name = strings.ToLower(name)
		if name == "keywords" {
			name = "tags"
		}
		meta[name] = content
	})

	body, err := doc.Find("body").Html()
	if err != nil {
		return nil, nil, err
	}
	return meta, []byte(strings.TrimSpace(body)), nil
}

var htmlCommentRe = regexp.MustCompile(`(?s)<!--(.*?)-->`)

func stripComments(b []byte) []byte {
	return htmlCommentRe.ReplaceAll(b, []byte{})
}

// apply fills document fields from metadata.
func (r *Reader) apply(d *Document) error {
	meta := d.Metadata

	d.Title = meta["title"]
	if d.Title == "" {
		return fmt.Errorf("%w: title", errMetadataMissing)
	}

	d.Status = Published
	if st := strings.ToLower(meta["status"]); st != "" {
		d.Status = Status(st)
	}
	switch d.Status {
	case Published, Draft:
	case Hidden:
		if d.Kind != Page {
			return fmt.Errorf("%w: %q is only valid for pages", errStatusInvalid, d.Status)
		}
	default:
		return fmt.Errorf("%w: %q", errStatusInvalid, d.Status)
	}

	loc := r.s.Location()
	if v := meta["date"]; v != "" {
		t, err := parseDate(v, loc)
		if err != nil {
			return err
		}
		d.Date = t
	} else if d.Kind == Article && !d.IsDraft() {
		return fmt.Errorf("%w: date", errMetadataMissing)
	}
	d.Modified = d.Date
	if v := meta["modified"]; v != "" {
		t, err := parseDate(v, loc)
		if err != nil {
			return err
		}
		d.Modified = t
	}

	d.Slug = meta["slug"]
	if d.Slug == "" {
		d.Slug = Slugify(d.Title)
	}
	if d.Slug == "" {
		base := path.Base(d.Source)
		d.Slug = Slugify(strings.TrimSuffix(base, path.Ext(base)))
	}

	d.Lang = meta["lang"]
	if d.Lang == "" {
		d.Lang = r.s.DefaultLang
	}

	if d.Kind == Article {
		d.Category = meta["category"]
		if d.Category == "" {
			d.Category = r.s.DefaultCategory
			if dir := path.Dir(d.Source); r.s.UseFolderAsCategory && dir != "." {
				d.Category = path.Base(dir)
			}
		}
		d.Tags = splitList(meta["tags"], ",")
	}

	switch {
	case meta["authors"] != "":
		d.Authors = splitList(meta["authors"], ",;")
	case meta["author"] != "":
		d.Authors = []string{strings.TrimSpace(meta["author"])}
	case r.s.Author != "":
		d.Authors = []string{r.s.Author}
	}

	d.Template = meta["template"]
	if d.Template == "" {
		d.Template = d.Kind.String()
	}
	d.SaveAs = meta["save_as"]
	d.URL = meta["url"]

	if s, ok := meta["summary"]; ok {
		d.Summary = template.HTML(s)
	} else {
		summary, err := summarize(d.Content, r.s.SummaryMaxLength)
		if err != nil {
			return err
		}
		d.Summary = summary
	}
	return nil
}

// summarize returns the first maxWords words of the content text. A zero
// maxWords returns the content unchanged.
func summarize(content template.HTML, maxWords int) (template.HTML, error) {
	if maxWords == 0 {
		return content, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(content)))
	if err != nil {
		return "", err
	}
	words := strings.Fields(doc.Text())
	if len(words) <= maxWords {
		return content, nil
	}
	text := strings.Join(words[:maxWords], " ") + " …"
	return template.HTML(template.HTMLEscapeString(text)), nil
}

// Slugify turns s into a URL path segment: lowercase ASCII letters and digits
// separated by single dashes. Other scripts are transliterated.
func Slugify(s string) string {
	// Apostrophes join words: "Don't" becomes "dont".
	s = strings.NewReplacer("'", "", "’", "").Replace(s)
	return slug.Make(s)
}
