package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanBodyBlocks(t *testing.T) {
	body := "Intro\n\n```yaml title=template.yml\nResources: {}\n```\n\n~~~\nplain\n~~~\n\n```{.python}\nprint('hi')\n```"

	scan := ScanBody(body)
	require.Nil(t, scan.Unterminated)
	require.Len(t, scan.Blocks, 3)
	assert.Equal(t, CodeBlock{Language: "yaml", Marker: "```", StartLine: 3, EndLine: 5}, scan.Blocks[0])
	assert.Equal(t, CodeBlock{Language: "", Marker: "~~~", StartLine: 7, EndLine: 9}, scan.Blocks[1])
	assert.Equal(t, "python", scan.Blocks[2].Language)
}

func TestScanBodyUnterminated(t *testing.T) {
	body := "# Preflight\n\n```bash\ncurl -X OPTIONS https://api.example.com\n\nMore prose that never gets out."

	scan := ScanBody(body)
	assert.Empty(t, scan.Blocks)
	require.NotNil(t, scan.Unterminated)
	assert.Equal(t, 3, scan.Unterminated.StartLine)
	assert.Equal(t, "bash", scan.Unterminated.Language)
}

func TestScanBodyClosingRules(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		blocks       int
		unterminated bool
	}{
		{name: "longer closer", body: "```\ncode\n`````", blocks: 1},
		{name: "shorter closer", body: "````\ncode\n```", unterminated: true},
		{name: "other character", body: "```\ncode\n~~~", unterminated: true},
		{name: "closer with info", body: "```\ncode\n``` js", unterminated: true},
		{name: "closer trailing space", body: "```\ncode\n```   ", blocks: 1},
		{name: "nested shorter fence", body: "````md\n```go\nx\n```\n````", blocks: 1},
		{name: "indented in list", body: "- step\n\n  ```go\n  x := 1\n  ```", blocks: 1},
		{name: "deep in ordered list", body: "1. step\n\n     ```go\n     x := 1\n     ```", blocks: 1},
		{name: "inside indented code", body: "Write a fence like this:\n\n    ```js\n    foo()\n\nDone.", blocks: 0},
		{name: "list ended by paragraph", body: "- item\n\nProse.\n\n    ```js\n    foo()", blocks: 0},
		{name: "two backticks", body: "``not a fence``", blocks: 0},
		{name: "inline code span", body: "```inline``` code", blocks: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scan := ScanBody(tt.body)
			assert.Len(t, scan.Blocks, tt.blocks)
			assert.Equal(t, tt.unterminated, scan.Unterminated != nil)
		})
	}
}

func TestScanBodyHeadings(t *testing.T) {
	body := "# Good heading\n#Missing space\n####### Too deep\n    #indented code\n#\n```sh\n#comment in code\n```\n## Also good"

	scan := ScanBody(body)
	require.Len(t, scan.Headings, 2)
	assert.Equal(t, HeadingIssue{Line: 2, Text: "missing space after '#' in heading"}, scan.Headings[0])
	assert.Equal(t, HeadingIssue{Line: 3, Text: "heading has more than six '#' characters"}, scan.Headings[1])
}

func TestScanBodyCRLF(t *testing.T) {
	scan := ScanBody("```go\r\nx\r\n```\r\n")
	require.Len(t, scan.Blocks, 1)
	assert.Equal(t, "go", scan.Blocks[0].Language)
	assert.Equal(t, 3, scan.Blocks[0].EndLine)
}
