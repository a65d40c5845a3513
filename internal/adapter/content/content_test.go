package content_test

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/niksmo/kiksniks/internal/adapter/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedPages(t *testing.T) {
	p, err := content.New(0)
	require.NoError(t, err)

	slugs, err := p.Slugs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"accessibility", "faq", "privacy", "returns",
		"shipping", "size-guide", "story", "terms",
	}, slugs)

	for _, slug := range slugs {
		page, err := p.Page(slug)
		require.NoError(t, err, slug)
		assert.NotEmpty(t, page.Title, slug)
		assert.NotEmpty(t, page.Body, slug)
	}

	faq, err := p.Page("faq")
	require.NoError(t, err)
	assert.Len(t, faq.FAQ, 6)
}

func TestPage(t *testing.T) {
	fsys := fstest.MapFS{
		"pages/story.md": {Data: []byte(
			"---\ntitle: Our Story\nsubtitle: Since 2020\n---\n" +
				"## Mission\n\n| A | B |\n|---|---|\n| 1 | 2 |\n\n" +
				"<script>alert(1)</script>\n",
		)},
		"pages/plain.md": {Data: []byte("Just text.\n")},
		"pages/broken.md": {Data: []byte("---\ntitle: [oops\n---\nbody\n")},
	}
	p, err := content.New(2, content.FSOpt(fsys))
	require.NoError(t, err)

	t.Run("FrontMatter", func(t *testing.T) {
		page, err := p.Page("Story")
		require.NoError(t, err)
		assert.Equal(t, "story", page.Slug)
		assert.Equal(t, "Our Story", page.Title)
		assert.Equal(t, "Since 2020", page.Subtitle)
		assert.Contains(t, page.Body, "<h2")
		assert.Contains(t, page.Body, "<table>")
		assert.NotContains(t, page.Body, "<script>")
	})

	t.Run("NoFrontMatter", func(t *testing.T) {
		page, err := p.Page("plain")
		require.NoError(t, err)
		assert.Equal(t, "plain", page.Title)
		assert.Equal(t, "<p>Just text.</p>", strings.TrimSpace(page.Body))
	})

	t.Run("NotFound", func(t *testing.T) {
		for _, slug := range []string{"missing", "../etc/passwd", "", "a b"} {
			_, err := p.Page(slug)
			assert.ErrorIs(t, err, content.ErrNotFound, slug)
		}
	})

	t.Run("BrokenFrontMatter", func(t *testing.T) {
		_, err := p.Page("broken")
		require.Error(t, err)
		assert.NotErrorIs(t, err, content.ErrNotFound)
	})
}

func TestSearchFAQ(t *testing.T) {
	p, err := content.New(0)
	require.NoError(t, err)

	t.Run("Empty", func(t *testing.T) {
		page, err := p.SearchFAQ("  ")
		require.NoError(t, err)
		assert.Len(t, page.FAQ, 6)
		assert.Empty(t, page.Query)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		page, err := p.SearchFAQ("GCASH")
		require.NoError(t, err)
		assert.Equal(t, "GCASH", page.Query)
		require.Len(t, page.FAQ, 1)
		assert.Equal(t, "Ordering", page.FAQ[0].Name)
		require.Len(t, page.FAQ[0].Items, 1)
		assert.Equal(t, "What payment methods do you accept?", page.FAQ[0].Items[0].Question)
	})

	t.Run("HidesEmptyCategories", func(t *testing.T) {
		page, err := p.SearchFAQ("size")
		require.NoError(t, err)
		var names []string
		for _, c := range page.FAQ {
			names = append(names, c.Name)
			assert.NotEmpty(t, c.Items)
		}
		assert.Contains(t, names, "Sizing & Fit")
		assert.NotContains(t, names, "Product Authenticity")
	})

	t.Run("NoMatch", func(t *testing.T) {
		page, err := p.SearchFAQ("helicopter")
		require.NoError(t, err)
		assert.Empty(t, page.FAQ)
	})

	t.Run("CacheUntouched", func(t *testing.T) {
		_, err := p.SearchFAQ("gcash")
		require.NoError(t, err)
		page, err := p.Page("faq")
		require.NoError(t, err)
		assert.Len(t, page.FAQ, 6)
	})
}
