package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLinks(t *testing.T) {
	body := []byte("See [the **preflight** post](/posts/preflight/) and [Flask][flask].\n\n" +
		"Inline `[not](/a-link)` code.\n\n" +
		"```md\n[also not](/in-a-block)\n```\n\n" +
		"[flask]: ../guides/flask.md \"Flask\"\n")

	links := ExtractLinks(body)
	assert.Equal(t, []Link{
		{Target: "/posts/preflight/", Text: "the preflight post"},
		{Target: "../guides/flask.md", Text: "Flask"},
	}, links)
}

func TestExtractLinksNone(t *testing.T) {
	assert.Empty(t, ExtractLinks([]byte("Just text and https://example.com.")))
}

func TestIsInternalLink(t *testing.T) {
	tests := map[string]bool{
		"/posts/cors/":             true,
		"preflight.md":             true,
		"../about":                 true,
		"/posts/cors.html#headers": true,
		"/":                        true,
		"":                         false,
		"#anchor":                  false,
		"https://aws.amazon.com":   false,
		"//cdn.example.com/x":      false,
		"mailto:dev@example.com":   false,
		"/images/diagram.png":      false,
		"?page=2":                  false,
	}
	for target, want := range tests {
		assert.Equal(t, want, IsInternalLink(target), target)
	}
}

func TestResolveLink(t *testing.T) {
	tests := []struct {
		from   string
		target string
		want   string
		ok     bool
	}{
		{from: "posts/a.md", target: "b.md", want: "/posts/b", ok: true},
		{from: "posts/a.md", target: "./b/", want: "/posts/b", ok: true},
		{from: "posts/a.md", target: "../about/", want: "/about", ok: true},
		{from: "posts/a.md", target: "/posts/cors-preflight/", want: "/posts/cors-preflight", ok: true},
		{from: "posts/a.md", target: "/posts/b.md#section", want: "/posts/b", ok: true},
		{from: "posts/a.md", target: "/posts/", want: "/posts", ok: true},
		{from: "a.md", target: "/", want: "/", ok: true},
		{from: "posts/a.md", target: "https://example.com/posts/b", ok: false},
		{from: "posts/a.md", target: "#top", ok: false},
	}
	for _, tt := range tests {
		got, ok := ResolveLink(tt.from, tt.target)
		assert.Equal(t, tt.ok, ok, tt.target)
		assert.Equal(t, tt.want, got, tt.target)
	}
}
