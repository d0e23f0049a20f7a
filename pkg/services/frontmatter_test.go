package services

import (
	"errors"
	"testing"
	"time"

	"article-cms/pkg/models"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrontMatterYAML(t *testing.T) {
	raw := "---\ntitle: \"Configuring CORS in AWS HTTP API\"\ndescription: Enable CORS on an HTTP API\ndate: \"Jan 19 2023\"\n---\n\n# Heading\n\nBody text.\n"

	fm, body, format, err := ParseFrontMatter([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "yaml", format)
	assert.Equal(t, "Configuring CORS in AWS HTTP API", fm["title"])
	assert.Equal(t, "Jan 19 2023", fm["date"])
	assert.Equal(t, "# Heading\n\nBody text.", body)
}

func TestParseFrontMatterCRLF(t *testing.T) {
	raw := "---\r\ntitle: Windows\r\n---\r\nline one\r\nline two\r\n"

	fm, body, format, err := ParseFrontMatter([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "yaml", format)
	assert.Equal(t, "Windows", fm["title"])
	assert.Equal(t, "line one\nline two", body)
}

func TestParseFrontMatterKeepsThematicBreaks(t *testing.T) {
	raw := "---\ntitle: Breaks\n---\nintro\n\n---\n\nmore\n"

	_, body, _, err := ParseFrontMatter([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "intro\n\n---\n\nmore", body)
}

func TestParseFrontMatterTOML(t *testing.T) {
	raw := "+++\ntitle = \"Preflight requests\"\ndate = 2023-01-19\n+++\nBody\n"

	fm, body, format, err := ParseFrontMatter([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "toml", format)
	assert.Equal(t, "Preflight requests", fm["title"])
	assert.Equal(t, toml.LocalDate{Year: 2023, Month: 1, Day: 19}, fm["date"])
	assert.Equal(t, "Body", body)
}

func TestParseFrontMatterJSON(t *testing.T) {
	raw := "{\n  \"title\": \"Flask CORS\",\n  \"date\": \"2023-01-19\"\n}\n\nBody after JSON.\n"

	fm, body, format, err := ParseFrontMatter([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "json", format)
	assert.Equal(t, "Flask CORS", fm["title"])
	assert.Equal(t, "Body after JSON.", body)
}

func TestParseFrontMatterErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "unterminated yaml", raw: "---\ntitle: open\nbody", want: ErrUnterminatedFrontMatter},
		{name: "unterminated toml", raw: "+++\ntitle = \"open\"\n", want: ErrUnterminatedFrontMatter},
		{name: "no front matter", raw: "# Just markdown\n", want: ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := ParseFrontMatter([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, _, format, err := ParseFrontMatter([]byte("---\ntitle: [unclosed\n---\n"))
	require.Error(t, err)
	assert.Equal(t, "yaml", format)
}

func TestConstructFileContent(t *testing.T) {
	out, err := ConstructFileContent(map[string]interface{}{"title": "T"}, "Body", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "---\ntitle: T\n---\n\nBody\n", string(out))

	_, err = ConstructFileContent(nil, "", "xml")
	assert.Error(t, err)
}

func TestConstructFileContentRoundTrip(t *testing.T) {
	fm := map[string]interface{}{
		"title":       "Round trip",
		"description": "Same header after encoding",
		"tags":        []interface{}{"cors", "aws"},
	}
	for _, format := range []string{"yaml", "toml", "json"} {
		t.Run(format, func(t *testing.T) {
			out, err := ConstructFileContent(fm, "Some *body*.", format)
			require.NoError(t, err)

			parsed, body, gotFormat, err := ParseFrontMatter(out)
			require.NoError(t, err)
			assert.Equal(t, format, gotFormat)
			assert.Equal(t, "Round trip", parsed["title"])
			assert.Equal(t, "Some *body*.", body)
		})
	}
}

func TestNormalizeContentAppliesDefaults(t *testing.T) {
	collection := &models.Collection{
		Fields: []models.Field{
			{Name: "title", Widget: "string"},
			{Name: "draft", Widget: "boolean", Default: false},
		},
	}
	out := NormalizeContent([]byte("---\ntitle: T\n---\nBody"), collection)

	fm, body, _, err := ParseFrontMatter(out)
	require.NoError(t, err)
	assert.Equal(t, false, fm["draft"])
	assert.Equal(t, "Body", body)
	assert.Equal(t, byte('\n'), out[len(out)-1])

	assert.Equal(t, "plain text\n", string(NormalizeContent([]byte("  plain text  "), nil)))
}

func TestGenerateContentFromCollection(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2023, 1, 19, 8, 30, 0, 0, time.UTC) }
	defer func() { now = orig }()

	collection := models.Collection{
		Name: "posts",
		Fields: []models.Field{
			{Name: "title", Widget: "string"},
			{Name: "date", Widget: "datetime"},
			{Name: "draft", Widget: "boolean"},
			{Name: "body", Widget: "markdown", Default: "Write here."},
		},
	}
	out, err := GenerateContentFromCollection(collection, map[string]interface{}{
		"title":       "CORS in Flask",
		"description": "extra field",
	})
	require.NoError(t, err)

	article, err := ParseArticle("posts/flask.md", out)
	require.NoError(t, err)
	assert.Equal(t, "CORS in Flask", article.Title)
	assert.Equal(t, "extra field", article.Description)
	assert.Equal(t, time.Date(2023, 1, 19, 0, 0, 0, 0, time.UTC), article.Date)
	assert.Equal(t, false, article.FrontMatter["draft"])
	assert.Equal(t, "Write here.", article.Body)
	assert.Equal(t, "yaml", article.Format)
}

func TestGenerateContentFromCollectionTOML(t *testing.T) {
	collection := models.Collection{
		Format: "toml-frontmatter",
		Fields: []models.Field{{Name: "title", Widget: "string"}},
	}
	out, err := GenerateContentFromCollection(collection, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "+++")
}

func TestSameContent(t *testing.T) {
	yamlDoc := []byte("---\ntitle: Same\ntags: []\n---\nBody\n")
	jsonDoc := []byte("{\"title\": \"Same\"}\n\nBody")
	changed := []byte("---\ntitle: Different\n---\nBody\n")

	assert.True(t, SameContent(yamlDoc, jsonDoc, nil))
	assert.False(t, SameContent(yamlDoc, changed, nil))
	assert.True(t, SameContent([]byte("no header"), []byte("no header\n"), nil))
}
