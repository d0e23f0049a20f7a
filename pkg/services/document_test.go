package services

import (
	"errors"
	"testing"
	"time"

	"article-cms/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArticle(t *testing.T) {
	raw := []byte("---\ntitle: \"Configuring CORS in AWS HTTP API\"\ndate: \"Jan 19 2023\"\n---\n\nAPI Gateway HTTP APIs have CORS built in.\n")

	article, err := ParseArticle("posts/aws-http-api-cors.md", raw)
	require.NoError(t, err)
	assert.Equal(t, "Configuring CORS in AWS HTTP API", article.Title)
	assert.Equal(t, time.Date(2023, 1, 19, 0, 0, 0, 0, time.UTC), article.Date)
	assert.Equal(t, "/posts/aws-http-api-cors", article.Slug)
	assert.Equal(t, "yaml", article.Format)
	assert.Empty(t, article.Description)
	assert.Equal(t, "API Gateway HTTP APIs have CORS built in.", article.Body)
}

func TestParseArticleMetadataMissing(t *testing.T) {
	raw := []byte("---\ndescription: no title and no date\n---\nBody\n")

	article, err := ParseArticle("posts/untitled.md", raw)
	require.Error(t, err)
	require.NotNil(t, article)
	assert.True(t, errors.Is(err, ErrMetadataMissing))
	assert.False(t, errors.Is(err, ErrMalformedContent))

	var cerr *ContentError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, models.KindMetadataMissing, cerr.Kind)
	assert.Equal(t, []string{"date", "title"}, cerr.Fields)
	assert.Equal(t, "Body", article.Body)
}

func TestParseArticleBlankTitle(t *testing.T) {
	raw := []byte("---\ntitle: \"   \"\ndate: 2023-01-19\n---\n")

	_, err := ParseArticle("posts/blank.md", raw)
	var cerr *ContentError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"title"}, cerr.Fields)
}

func TestParseArticleInvalidDate(t *testing.T) {
	raw := []byte("---\ntitle: Preflight\ndate: sometime in spring\n---\nBody\n")

	article, err := ParseArticle("posts/preflight.md", raw)
	require.Error(t, err)
	require.NotNil(t, article)
	assert.True(t, errors.Is(err, ErrInvalidDate))
	assert.True(t, errors.Is(err, ErrDateFormat))
	assert.False(t, errors.Is(err, ErrMetadataMissing))
}

func TestParseArticleUnterminatedFence(t *testing.T) {
	raw := []byte("---\ntitle: Flask\ndate: \"Jan 19 2023\"\n---\n\nInstall the extension:\n\n```python\nfrom flask_cors import CORS\n")

	article, err := ParseArticle("posts/flask.md", raw)
	require.Error(t, err)
	require.NotNil(t, article)
	assert.True(t, errors.Is(err, ErrMalformedContent))

	var cerr *ContentError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 8, cerr.Line)
	assert.Contains(t, cerr.Error(), "posts/flask.md:8")
}

func TestParseArticleMalformedFrontMatter(t *testing.T) {
	article, err := ParseArticle("posts/broken.md", []byte("---\ntitle: never closed\n\nBody\n"))
	assert.Nil(t, article)
	assert.True(t, errors.Is(err, ErrMalformedFrontMatter))
	assert.True(t, errors.Is(err, ErrUnterminatedFrontMatter))

	var cerr *ContentError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, 1, cerr.Line)
}

func TestParseArticleWithoutFrontMatter(t *testing.T) {
	article, err := ParseArticle("drafts/cors.md", []byte("# CORS\n\nSome text\n"))
	require.NotNil(t, article)
	assert.True(t, errors.Is(err, ErrMetadataMissing))
	assert.False(t, errors.Is(err, ErrMalformedFrontMatter))
	assert.Equal(t, "# CORS\n\nSome text", article.Body)
	assert.Empty(t, article.FrontMatter)

	var cerr *ContentError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, []string{"date", "title"}, cerr.Fields)
}

func TestParseArticleListTitle(t *testing.T) {
	article, err := ParseArticle("posts/list.md", []byte("---\ntitle: [a]\ndate: 2023-01-19\n---\nBody\n"))
	require.NotNil(t, article)
	assert.Empty(t, article.Title)

	var cerr *ContentError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, models.KindMetadataMissing, cerr.Kind)
	assert.Equal(t, []string{"title"}, cerr.Fields)
}

func TestParseArticleBOM(t *testing.T) {
	raw := []byte("\ufeff---\ntitle: BOM\ndate: 2023-01-19\n---\n\n```\nx\n")

	_, err := ParseArticle("bom.md", raw)
	var cerr *ContentError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, models.KindMalformedContent, cerr.Kind)
	assert.Equal(t, 6, cerr.Line)
}

func TestSlugForPath(t *testing.T) {
	tests := map[string]string{
		"posts/cors.md":         "/posts/cors",
		"/posts/cors.md":        "/posts/cors",
		"posts/index.md":        "/posts",
		"posts/_index.md":       "/posts",
		"_index.md":             "/",
		"index.md":              "/",
		"guides/flask.markdown": "/guides/flask",
		"about.html":            "/about",
		"notes.txt":             "/notes.txt",
		"a/../b.md":             "/b",
	}
	for in, want := range tests {
		assert.Equal(t, want, SlugForPath(in), in)
	}
}
