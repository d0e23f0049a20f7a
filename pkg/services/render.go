package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"article-cms/pkg/models"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer turns article bodies into sanitised HTML. It is safe for
// concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	cache  *lru.Cache[string, models.RenderedArticle]
}

func NewRenderer(cacheSize int) (*Renderer, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.New[string, models.RenderedArticle](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("render cache: %w", err)
	}
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		policy: articlePolicy(),
		cache:  cache,
	}, nil
}

func articlePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^language-[\w.+#-]+$`)).OnElements("code")
	p.AllowAttrs("id").Matching(regexp.MustCompile(`^[\w-]+$`)).OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return p
}

// RenderBody converts Markdown to sanitised HTML without consulting the cache.
func (r *Renderer) RenderBody(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}
	return r.policy.SanitizeBytes(buf.Bytes()), nil
}

// Render produces the presentational record for a.
func (r *Renderer) Render(a *models.Article) (models.RenderedArticle, error) {
	key := renderKey(a)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	html, err := r.RenderBody([]byte(a.Body))
	if err != nil {
		return models.RenderedArticle{}, fmt.Errorf("%s: %w", a.Path, err)
	}
	sum := sha256.Sum256(html)
	out := models.RenderedArticle{
		Path:         a.Path,
		Slug:         a.Slug,
		Title:        a.Title,
		Description:  a.Description,
		Date:         FormatDate(a.Date),
		RenderedBody: string(html),
		Checksum:     hex.EncodeToString(sum[:]),
	}
	r.cache.Add(key, out)
	return out, nil
}

// Purge drops every cached rendering.
func (r *Renderer) Purge() {
	r.cache.Purge()
}

func renderKey(a *models.Article) string {
	h := sha256.New()
	for _, part := range []string{a.Path, a.Title, a.Description, FormatDate(a.Date), a.Body} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
