// Package content serves the informational pages: markdown files with
// YAML front matter rendered to sanitized HTML.
package content

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru"
	"github.com/microcosm-cc/bluemonday"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/port"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

var _ port.InfoPages = (*Pages)(nil)

//go:embed pages/*.md
var embedded embed.FS

var ErrNotFound = port.ErrNotFound

const (
	pagesDir         = "pages"
	defaultCacheSize = 32
	FAQSlug          = "faq"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

type frontMatter struct {
	Title    string               `yaml:"title"`
	Subtitle string               `yaml:"subtitle"`
	FAQ      []domain.FAQCategory `yaml:"faq"`
}

type Pages struct {
	fsys   fs.FS
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache
}

type Option func(*Pages)

// FSOpt reads the pages from fsys instead of the embedded set. fsys must
// hold a "pages" directory.
func FSOpt(fsys fs.FS) Option {
	return func(p *Pages) {
		p.fsys = fsys
	}
}

func New(cacheSize int, opts ...Option) (*Pages, error) {
	const op = "content.New"

	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := &Pages{
		fsys: embedded,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		policy: bluemonday.UGCPolicy(),
		cache:  cache,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Slugs lists the available pages.
func (p *Pages) Slugs() ([]string, error) {
	const op = "Pages.Slugs"

	names, err := fs.Glob(p.fsys, path.Join(pagesDir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	slugs := make([]string, len(names))
	for i, n := range names {
		slugs[i] = strings.TrimSuffix(path.Base(n), ".md")
	}
	sort.Strings(slugs)
	return slugs, nil
}

// Page returns the rendered page. Rendered pages are cached.
func (p *Pages) Page(slug string) (domain.InfoPage, error) {
	const op = "Pages.Page"

	slug = strings.ToLower(strings.TrimSpace(slug))
	if !slugRe.MatchString(slug) {
		return domain.InfoPage{}, fmt.Errorf("%s: %q: %w", op, slug, ErrNotFound)
	}

	if v, ok := p.cache.Get(slug); ok {
		return v.(domain.InfoPage), nil
	}

	page, err := p.load(slug)
	if err != nil {
		return domain.InfoPage{}, fmt.Errorf("%s: %w", op, err)
	}
	p.cache.Add(slug, page)
	return page, nil
}

// SearchFAQ returns the FAQ page with only the items whose question or
// answer contains query, ignoring case. Categories left empty are
// dropped. An empty query returns every item.
func (p *Pages) SearchFAQ(query string) (domain.InfoPage, error) {
	const op = "Pages.SearchFAQ"

	page, err := p.Page(FAQSlug)
	if err != nil {
		return domain.InfoPage{}, fmt.Errorf("%s: %w", op, err)
	}

	query = strings.TrimSpace(query)
	page.Query = query
	if query == "" {
		return page, nil
	}

	q := strings.ToLower(query)
	var cats []domain.FAQCategory
	for _, c := range page.FAQ {
		var items []domain.FAQItem
		for _, it := range c.Items {
			if strings.Contains(strings.ToLower(it.Question), q) ||
				strings.Contains(strings.ToLower(it.Answer), q) {
				items = append(items, it)
			}
		}
		if len(items) != 0 {
			cats = append(cats, domain.FAQCategory{Name: c.Name, Items: items})
		}
	}
	page.FAQ = cats
	return page, nil
}

func (p *Pages) load(slug string) (domain.InfoPage, error) {
	const op = "Pages.load"

	data, err := fs.ReadFile(p.fsys, path.Join(pagesDir, slug+".md"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.InfoPage{}, fmt.Errorf("%s: %q: %w", op, slug, ErrNotFound)
		}
		return domain.InfoPage{}, fmt.Errorf("%s: %w", op, err)
	}

	fm, body := splitFrontMatter(string(data))
	var front frontMatter
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return domain.InfoPage{}, fmt.Errorf(
				"%s: parse front matter %s: %w", op, slug, err,
			)
		}
	}

	var buf bytes.Buffer
	if err := p.md.Convert([]byte(body), &buf); err != nil {
		return domain.InfoPage{}, fmt.Errorf("%s: render %s: %w", op, slug, err)
	}

	title := front.Title
	if title == "" {
		title = slug
	}
	slog.Debug("page rendered", "op", op, "slug", slug, "bytes", buf.Len())
	return domain.InfoPage{
		Slug:     slug,
		Title:    title,
		Subtitle: front.Subtitle,
		Body:     p.policy.Sanitize(buf.String()),
		FAQ:      front.FAQ,
	}, nil
}

// splitFrontMatter separates a leading "---" delimited block from the
// markdown body.
func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.Join(lines[i+1:], "\n")
		}
	}
	return "", input
}
