package services

import (
	"strings"
)

// CodeBlock is a fenced code block found in an article body. Lines are
// 1-based and relative to the body.
type CodeBlock struct {
	Language  string
	Marker    string
	StartLine int
	EndLine   int
}

// HeadingIssue is an ATX heading line a renderer would not treat as a heading.
type HeadingIssue struct {
	Line int
	Text string
}

type BodyScan struct {
	Blocks []CodeBlock
	// Unterminated is the fence still open at the end of the body. An open
	// fence swallows the rest of the document, so there is at most one.
	Unterminated *CodeBlock
	Headings     []HeadingIssue
}

// ScanBody walks the body line by line tracking fenced code blocks.
// A fence may be indented by up to three spaces, or deeper inside a list
// item. Elsewhere a deeper line is indented code and opens nothing.
func ScanBody(body string) BodyScan {
	var scan BodyScan
	var open *CodeBlock
	var openChar byte
	var openLen int
	inList := false

	lines := strings.Split(normalizeLineEndings(body), "\n")
	for i, line := range lines {
		lineNo := i + 1
		trimmed := strings.TrimLeft(line, " \t")
		indent := indentWidth(line)

		if open != nil {
			if isClosingFence(trimmed, openChar, openLen) {
				open.EndLine = lineNo
				scan.Blocks = append(scan.Blocks, *open)
				open = nil
			}
			continue
		}

		if trimmed != "" {
			switch {
			case isListItem(trimmed):
				inList = true
			case indent == 0:
				inList = false
			}
		}
		if indent > 3 && !inList {
			continue
		}

		if char, n, info, ok := openingFence(trimmed); ok {
			open = &CodeBlock{
				Language:  fenceLanguage(info),
				Marker:    strings.Repeat(string(char), n),
				StartLine: lineNo,
			}
			openChar, openLen = char, n
			continue
		}

		if issue, ok := headingIssue(line); ok {
			scan.Headings = append(scan.Headings, HeadingIssue{Line: lineNo, Text: issue})
		}
	}

	if open != nil {
		scan.Unterminated = open
	}
	return scan
}

// indentWidth counts leading columns with tabs stopping at multiples of four.
func indentWidth(line string) int {
	w := 0
	for _, r := range line {
		switch r {
		case ' ':
			w++
		case '\t':
			w += 4 - w%4
		default:
			return w
		}
	}
	return w
}

// isListItem reports whether trimmed starts a bullet or ordered list item.
func isListItem(trimmed string) bool {
	if len(trimmed) >= 2 && strings.ContainsRune("-*+", rune(trimmed[0])) && (trimmed[1] == ' ' || trimmed[1] == '\t') {
		return true
	}
	digits := 0
	for digits < len(trimmed) && digits < 9 && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits+1 >= len(trimmed) {
		return false
	}
	marker, next := trimmed[digits], trimmed[digits+1]
	return (marker == '.' || marker == ')') && (next == ' ' || next == '\t')
}

func fenceRun(s string, char byte) int {
	n := 0
	for n < len(s) && s[n] == char {
		n++
	}
	return n
}

func openingFence(trimmed string) (byte, int, string, bool) {
	if trimmed == "" || (trimmed[0] != '`' && trimmed[0] != '~') {
		return 0, 0, "", false
	}
	char := trimmed[0]
	n := fenceRun(trimmed, char)
	if n < 3 {
		return 0, 0, "", false
	}
	info := strings.TrimSpace(trimmed[n:])
	// A backtick in a backtick info string makes the line an inline code span.
	if char == '`' && strings.Contains(info, "`") {
		return 0, 0, "", false
	}
	return char, n, info, true
}

func isClosingFence(trimmed string, char byte, minLen int) bool {
	n := fenceRun(trimmed, char)
	if n < minLen {
		return false
	}
	return strings.TrimSpace(trimmed[n:]) == ""
}

// fenceLanguage extracts the language hint from an info string such as
// "yaml title=template.yml" or "{.python}".
func fenceLanguage(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return ""
	}
	lang := strings.Trim(fields[0], "{}")
	return strings.TrimPrefix(lang, ".")
}

func headingIssue(line string) (string, bool) {
	indent := len(line) - len(strings.TrimLeft(line, " "))
	if indent > 3 {
		return "", false
	}
	trimmed := line[indent:]
	n := fenceRun(trimmed, '#')
	if n == 0 {
		return "", false
	}
	if n > 6 {
		return "heading has more than six '#' characters", true
	}
	rest := trimmed[n:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return "missing space after '#' in heading", true
	}
	return "", false
}
