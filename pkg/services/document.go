package services

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"

	"article-cms/pkg/models"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMetadataMissing      = errors.New("metadata missing")
	ErrMalformedContent     = errors.New("malformed content")
	ErrInvalidDate          = errors.New("invalid date")
	ErrMalformedFrontMatter = errors.New("malformed front matter")
)

var kindSentinels = map[models.FindingKind]error{
	models.KindMetadataMissing:      ErrMetadataMissing,
	models.KindMalformedContent:     ErrMalformedContent,
	models.KindInvalidDate:          ErrInvalidDate,
	models.KindMalformedFrontMatter: ErrMalformedFrontMatter,
}

// ContentError describes why a document could not be turned into a valid
// article. It matches the package sentinels with errors.Is.
type ContentError struct {
	Kind   models.FindingKind
	Path   string
	Fields []string
	Line   int
	Err    error
}

func (e *ContentError) Error() string {
	var b strings.Builder
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, ":%d", e.Line)
	}
	b.WriteString(": ")
	b.WriteString(string(e.Kind))
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Fields, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ContentError) Unwrap() error { return e.Err }

func (e *ContentError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// metadata is what the front matter says about an article.
type metadata struct {
	Title       string
	Description string
	Date        time.Time
	// Missing lists required keys that are absent or empty.
	Missing []string
	// DateErr is set when a date is present but cannot be parsed.
	DateErr error
	// NonScalar lists text keys holding a list or a map.
	NonScalar []string
}

func inspectMetadata(fm map[string]interface{}) metadata {
	var meta metadata
	var ok bool
	if meta.Title, ok = stringField(fm, "title"); !ok {
		meta.NonScalar = append(meta.NonScalar, "title")
	}
	if meta.Description, ok = stringField(fm, "description"); !ok {
		meta.NonScalar = append(meta.NonScalar, "description")
	}
	if raw, ok := fm["date"]; ok && !isBlank(raw) {
		meta.Date, meta.DateErr = ParseDate(raw)
	}

	probe := models.Article{Title: meta.Title, Date: meta.Date}
	if err := validate.Struct(probe); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "date" && meta.DateErr != nil {
					continue
				}
				meta.Missing = append(meta.Missing, fe.Field())
			}
		}
	}
	sort.Strings(meta.Missing)
	return meta
}

// stringField reads a text key. Lists and maps are not text and report false.
func stringField(fm map[string]interface{}, key string) (string, bool) {
	switch v := fm[key].(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(v), true
	case []interface{}, map[string]interface{}, map[interface{}]interface{}:
		return "", false
	default:
		return strings.TrimSpace(fmt.Sprint(v)), true
	}
}

func (m metadata) nonScalar(field string) bool {
	for _, f := range m.NonScalar {
		if f == field {
			return true
		}
	}
	return false
}

func isBlank(v interface{}) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// ParseArticle turns one raw document into an Article. When the front matter
// decodes but the article is incomplete the partially filled article is
// returned together with a *ContentError.
func ParseArticle(p string, raw []byte) (*models.Article, error) {
	p = filepath.ToSlash(p)
	fm, body, format, err := splitDocument(raw)
	if err != nil {
		return nil, &ContentError{Kind: models.KindMalformedFrontMatter, Path: p, Line: 1, Err: err}
	}

	meta := inspectMetadata(fm)
	article := &models.Article{
		Path:        p,
		Slug:        SlugForPath(p),
		Title:       meta.Title,
		Description: meta.Description,
		Date:        meta.Date,
		FrontMatter: cleanFrontMatter(fm),
		Body:        body,
		Format:      format,
	}

	if len(meta.Missing) > 0 {
		return article, &ContentError{Kind: models.KindMetadataMissing, Path: p, Fields: meta.Missing}
	}
	if meta.DateErr != nil {
		return article, &ContentError{Kind: models.KindInvalidDate, Path: p, Fields: []string{"date"}, Err: meta.DateErr}
	}

	scan := ScanBody(body)
	if scan.Unterminated != nil {
		return article, &ContentError{
			Kind: models.KindMalformedContent,
			Path: p,
			Line: bodyLineOffset(raw, body) + scan.Unterminated.StartLine,
			Err:  fmt.Errorf("code fence %q is never closed", scan.Unterminated.Marker),
		}
	}
	return article, nil
}

// splitDocument is ParseFrontMatter for whole files: a file that starts
// without any front matter is all body with empty metadata.
func splitDocument(raw []byte) (map[string]interface{}, string, string, error) {
	fm, body, format, err := ParseFrontMatter(raw)
	if errors.Is(err, ErrUnknownFormat) {
		str := strings.TrimPrefix(normalizeLineEndings(string(raw)), "\ufeff")
		return map[string]interface{}{}, strings.TrimSpace(str), "", nil
	}
	return fm, body, format, err
}

// SlugForPath maps a content path to the URL it is served at.
func SlugForPath(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
	if ext := path.Ext(p); ext == ".md" || ext == ".markdown" || ext == ".html" {
		p = strings.TrimSuffix(p, ext)
	}
	if base := path.Base(p); base == "index" || base == "_index" {
		p = path.Dir(p)
		if p == "." {
			p = ""
		}
	}
	return "/" + p
}

// bodyLineOffset is the number of lines preceding body in raw.
func bodyLineOffset(raw []byte, body string) int {
	if body == "" {
		return 0
	}
	normalized := strings.TrimPrefix(normalizeLineEndings(string(raw)), "\ufeff")
	end := len(strings.TrimRightFunc(normalized, unicode.IsSpace))
	start := end - len(body)
	if start < 0 || normalized[start:end] != body {
		return 0
	}
	return strings.Count(normalized[:start], "\n")
}
