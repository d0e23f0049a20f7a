package services

import (
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Link is an inline link found in an article body.
type Link struct {
	Target string
	Text   string
}

var linkParser = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ExtractLinks returns every inline and reference link in body, in document
// order. Links inside code spans and code blocks are not links and are skipped.
func ExtractLinks(body []byte) []Link {
	doc := linkParser.Parser().Parse(text.NewReader(body))

	var links []Link
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if l, ok := n.(*ast.Link); ok {
			links = append(links, Link{
				Target: string(l.Destination),
				Text:   nodeText(l, body),
			})
		}
		return ast.WalkContinue, nil
	})
	return links
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(nodeText(c, source))
	}
	return b.String()
}

// IsInternalLink reports whether target points at another document of the
// collection rather than an external site, an in-page anchor or an asset.
func IsInternalLink(target string) bool {
	target = strings.TrimSpace(target)
	if target == "" || strings.HasPrefix(target, "#") {
		return false
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return false
	}
	switch path.Ext(u.Path) {
	case "", ".md", ".markdown", ".html":
		return true
	default:
		return false
	}
}

// ResolveLink maps an internal link found in the document at fromPath to the
// slug it targets. Relative links resolve against the document's directory.
func ResolveLink(fromPath, target string) (string, bool) {
	if !IsInternalLink(target) {
		return "", false
	}
	u, err := url.Parse(strings.TrimSpace(target))
	if err != nil {
		return "", false
	}
	p := u.Path
	if !strings.HasPrefix(p, "/") {
		p = path.Join(path.Dir("/"+strings.TrimPrefix(fromPath, "/")), p)
	}
	return normalizeSlug(SlugForPath(p)), true
}

func normalizeSlug(slug string) string {
	if slug != "/" {
		slug = strings.TrimSuffix(slug, "/")
	}
	return slug
}
