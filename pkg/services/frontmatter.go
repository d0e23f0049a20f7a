package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"article-cms/pkg/models"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownFormat           = errors.New("unknown front matter format")
	ErrUnterminatedFrontMatter = errors.New("front matter has no closing delimiter")
)

// now is swapped in tests.
var now = time.Now

// fmCodec reads and writes one front matter syntax. JSON headers have no
// marker line; the object itself is the delimiter.
type fmCodec struct {
	format string
	marker string
	decode func([]byte, interface{}) error
	encode func(io.Writer, map[string]interface{}) error
}

var fmCodecs = []fmCodec{
	{format: "yaml", marker: "---", decode: yaml.Unmarshal, encode: encodeYAML},
	{format: "toml", marker: "+++", decode: toml.Unmarshal, encode: encodeTOML},
	{format: "json", decode: json.Unmarshal, encode: encodeJSON},
}

func encodeYAML(w io.Writer, fm map[string]interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fm); err != nil {
		return err
	}
	return enc.Close()
}

func encodeTOML(w io.Writer, fm map[string]interface{}) error {
	return toml.NewEncoder(w).Encode(fm)
}

func encodeJSON(w io.Writer, fm map[string]interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(fm)
}

func codecFor(format string) (fmCodec, bool) {
	for _, c := range fmCodecs {
		if c.format == format {
			return c, true
		}
	}
	return fmCodec{}, false
}

// ParseFrontMatter splits raw file content into its metadata block and body.
// It returns the decoded front matter, the trimmed body and the format name.
func ParseFrontMatter(content []byte) (map[string]interface{}, string, string, error) {
	str := strings.TrimPrefix(normalizeLineEndings(string(content)), "\ufeff")

	for _, c := range fmCodecs {
		if c.marker == "" || !strings.HasPrefix(str, c.marker+"\n") {
			continue
		}
		header, body, ok := cutAtDelimiter(str[len(c.marker)+1:], c.marker)
		if !ok {
			return nil, "", c.format, fmt.Errorf("%s front matter: %w", c.format, ErrUnterminatedFrontMatter)
		}
		fm := map[string]interface{}{}
		if err := c.decode([]byte(header), &fm); err != nil {
			return nil, "", c.format, fmt.Errorf("%s front matter: %w", c.format, err)
		}
		return fm, strings.TrimSpace(body), c.format, nil
	}

	// JSON front matter is a leading object; anything after it is the body.
	trimmed := strings.TrimSpace(str)
	if strings.HasPrefix(trimmed, "{") {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		var fm map[string]interface{}
		if err := dec.Decode(&fm); err != nil {
			return nil, "", "json", fmt.Errorf("json front matter: %w", err)
		}
		return fm, strings.TrimSpace(trimmed[dec.InputOffset():]), "json", nil
	}

	return nil, "", "", ErrUnknownFormat
}

// cutAtDelimiter finds the first line consisting of marker and returns the
// text before and after that line.
func cutAtDelimiter(s, marker string) (string, string, bool) {
	offset := 0
	for {
		end := strings.IndexByte(s[offset:], '\n')
		line := s[offset:]
		next := len(s)
		if end >= 0 {
			line = s[offset : offset+end]
			next = offset + end + 1
		}
		if strings.TrimRight(line, " \t") == marker {
			return s[:offset], s[next:], true
		}
		if end < 0 {
			return "", "", false
		}
		offset = next
	}
}

// ConstructFileContent writes fm in the given format followed by body.
func ConstructFileContent(fm map[string]interface{}, body string, format string) ([]byte, error) {
	codec, ok := codecFor(format)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	var buf bytes.Buffer
	if codec.marker != "" {
		buf.WriteString(codec.marker + "\n")
	}
	if err := codec.encode(&buf, cleanFrontMatter(fm)); err != nil {
		return nil, fmt.Errorf("encode %s front matter: %w", format, err)
	}
	if codec.marker != "" {
		buf.WriteString(codec.marker + "\n")
	}

	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// collectionFormat maps Decap-style format names onto front matter formats.
func collectionFormat(collection models.Collection) string {
	switch strings.TrimSuffix(strings.ToLower(collection.Format), "-frontmatter") {
	case "toml":
		return "toml"
	case "json":
		return "json"
	default:
		return "yaml"
	}
}

// fieldDefault is the initial value of a collection field in a new article.
func fieldDefault(field models.Field) interface{} {
	if field.Default != nil {
		return field.Default
	}
	switch field.Widget {
	case "datetime", "date":
		return now().UTC().Format(DateLayout)
	case "boolean":
		return false
	case "list":
		return []interface{}{}
	default:
		return ""
	}
}

// GenerateContentFromCollection builds the file of a new article from the
// collection's field list. overrides win over defaults and may add keys the
// collection does not declare; the "body" key sets the body.
func GenerateContentFromCollection(collection models.Collection, overrides map[string]interface{}) ([]byte, error) {
	fm := make(map[string]interface{}, len(collection.Fields)+len(overrides))
	var body string
	for _, field := range collection.Fields {
		if field.Name == "body" {
			body, _ = field.Default.(string)
			continue
		}
		fm[field.Name] = fieldDefault(field)
	}

	for key, val := range overrides {
		if key == "body" {
			if s, ok := val.(string); ok {
				body = s
			}
			continue
		}
		fm[key] = val
	}

	return ConstructFileContent(fm, body, collectionFormat(collection))
}

// NormalizeContent re-encodes a document so that saved files share one
// layout. Content without parseable front matter is only trimmed.
func NormalizeContent(content []byte, collection *models.Collection) []byte {
	if len(content) == 0 {
		return content
	}
	if fm, body, format, err := ParseFrontMatter(content); err == nil {
		header := cleanFrontMatter(fm)
		withCollectionDefaults(header, collection)
		if out, err := ConstructFileContent(header, body, format); err == nil {
			content = out
		}
	}
	return append(bytes.Clone(bytes.TrimSpace(content)), '\n')
}

// cleanValue turns decoded front matter into string-keyed maps and
// []interface{} slices whatever decoder produced it.
func cleanValue(v interface{}) interface{} {
	switch v := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[k] = cleanValue(inner)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			out[fmt.Sprint(k)] = cleanValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = cleanValue(inner)
		}
		return out
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

func cleanFrontMatter(fm map[string]interface{}) map[string]interface{} {
	if fm == nil {
		return map[string]interface{}{}
	}
	return cleanValue(fm).(map[string]interface{})
}

func withCollectionDefaults(fm map[string]interface{}, collection *models.Collection) {
	if collection == nil {
		return
	}
	for _, field := range collection.Fields {
		if field.Name == "body" || field.Default == nil {
			continue
		}
		if _, ok := fm[field.Name]; !ok {
			fm[field.Name] = field.Default
		}
	}
}

// wrapListFields treats a scalar in a list field as a one element list.
func wrapListFields(fm map[string]interface{}, collection *models.Collection) {
	if collection == nil {
		return
	}
	for _, field := range collection.Fields {
		if field.Widget != "list" {
			continue
		}
		switch val := fm[field.Name].(type) {
		case nil, []interface{}:
		default:
			fm[field.Name] = []interface{}{val}
		}
	}
}

// canonicalValue reduces a front matter value to a JSON comparable form.
// Empty strings, empty lists and nulls report false and are dropped.
func canonicalValue(v interface{}) (interface{}, bool) {
	switch v := v.(type) {
	case nil:
		return nil, false
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, inner := range v {
			if c, ok := canonicalValue(inner); ok {
				out[k] = c
			}
		}
		return out, true
	case []interface{}:
		if len(v) == 0 {
			return nil, false
		}
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i], _ = canonicalValue(inner)
		}
		return out, true
	case string:
		return v, v != ""
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano), true
	case fmt.Stringer:
		// toml local dates and times
		return v.String(), true
	default:
		return v, true
	}
}

func normalizeLineEndings(input string) string {
	return strings.ReplaceAll(input, "\r\n", "\n")
}

// canonicalContent reduces a document to a JSON header and a body that do
// not depend on front matter syntax, key order or line endings.
func canonicalContent(content []byte, collection *models.Collection) ([]byte, string, error) {
	fm, body, _, err := ParseFrontMatter(content)
	if err != nil {
		return nil, "", err
	}
	header := cleanFrontMatter(fm)
	withCollectionDefaults(header, collection)
	wrapListFields(header, collection)

	canonical, _ := canonicalValue(header)
	raw, err := json.Marshal(canonical)
	if err != nil {
		return nil, "", err
	}
	return raw, body, nil
}

// SameContent reports whether two documents are equal once canonicalized.
func SameContent(a, b []byte, collection *models.Collection) bool {
	headerA, bodyA, errA := canonicalContent(a, collection)
	headerB, bodyB, errB := canonicalContent(b, collection)
	if errA != nil || errB != nil {
		return normalizeLineEndings(strings.TrimSpace(string(a))) == normalizeLineEndings(strings.TrimSpace(string(b)))
	}
	return bytes.Equal(headerA, headerB) && bodyA == bodyB
}
