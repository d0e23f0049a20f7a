package services

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"article-cms/pkg/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report is the outcome of checking a set of documents.
type Report struct {
	Checked  int              `json:"checked"`
	Findings []models.Finding `json:"findings"`
}

func (r *Report) filter(sev models.Severity) []models.Finding {
	var out []models.Finding
	for _, f := range r.Findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

func (r *Report) Errors() []models.Finding   { return r.filter(models.SeverityError) }
func (r *Report) Warnings() []models.Finding { return r.filter(models.SeverityWarning) }
func (r *Report) HasErrors() bool            { return len(r.Errors()) > 0 }

// Count returns how many findings of kind the report holds.
func (r *Report) Count(kind models.FindingKind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Narrow keeps the findings of the documents named by paths. A path may be
// relative to the content directory or carry contentDir as its prefix; one
// that names no document in docs is an fs.ErrNotExist error.
func (r *Report) Narrow(docs []Document, paths []string, contentDir string) (*Report, error) {
	known := make(map[string]bool, len(docs))
	for _, d := range docs {
		known[d.Path] = true
	}
	prefix := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(contentDir)), "/") + "/"

	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		rel := strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
		if !known[rel] && prefix != "/" {
			rel = strings.TrimPrefix(rel, prefix)
		}
		if !known[rel] {
			return nil, fmt.Errorf("%s is not an article of the collection: %w", p, fs.ErrNotExist)
		}
		wanted[rel] = true
	}

	narrowed := &Report{Checked: len(wanted), Findings: []models.Finding{}}
	for _, f := range r.Findings {
		if wanted[f.Path] {
			narrowed.Findings = append(narrowed.Findings, f)
		}
	}
	return narrowed, nil
}

// Checker applies the structural checks to documents of the collection.
type Checker struct {
	// renderBody is nil when the idempotence check is off.
	renderBody  func([]byte) ([]byte, error)
	concurrency int
	logger      *zap.Logger
}

// NewChecker builds a Checker. A nil renderer disables the render
// idempotence check.
func NewChecker(renderer *Renderer, concurrency int, logger *zap.Logger) *Checker {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Checker{concurrency: concurrency, logger: logger}
	if renderer != nil {
		c.renderBody = renderer.RenderBody
	}
	return c
}

// CheckCollection checks docs against each other: links must point at a
// document in docs.
func (c *Checker) CheckCollection(ctx context.Context, docs []Document) (*Report, error) {
	slugs := make(map[string]bool, len(docs))
	for _, d := range docs {
		slugs[normalizeSlug(SlugForPath(d.Path))] = true
	}

	results := make([][]models.Finding, len(docs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = c.CheckDocument(doc, slugs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Checked: len(docs), Findings: []models.Finding{}}
	for _, fs := range results {
		report.Findings = append(report.Findings, fs...)
	}
	sortFindings(report.Findings)

	c.logger.Debug("collection checked",
		zap.Int("documents", report.Checked),
		zap.Int("errors", len(report.Errors())),
		zap.Int("warnings", len(report.Warnings())),
	)
	return report, nil
}

// CheckDocument runs every check on one document. slugs is the set of known
// article slugs; a nil set skips link checking.
func (c *Checker) CheckDocument(doc Document, slugs map[string]bool) []models.Finding {
	var findings []models.Finding
	add := func(kind models.FindingKind, sev models.Severity, line int, format string, args ...interface{}) {
		findings = append(findings, models.Finding{
			Path:     doc.Path,
			Kind:     kind,
			Severity: sev,
			Line:     line,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	fm, body, _, err := splitDocument(doc.Source)
	if err != nil {
		add(models.KindMalformedFrontMatter, models.SeverityError, 1, "%v", err)
		return findings
	}

	meta := inspectMetadata(fm)
	for _, field := range meta.Missing {
		if meta.nonScalar(field) {
			add(models.KindMetadataMissing, models.SeverityError, 0, "required field %q must be text, not a list or map", field)
			continue
		}
		add(models.KindMetadataMissing, models.SeverityError, 0, "required field %q is missing or empty", field)
	}
	switch {
	case meta.nonScalar("description"):
		add(models.KindMetadataMissing, models.SeverityWarning, 0, "field %q must be text, not a list or map", "description")
	case meta.Description == "":
		add(models.KindMetadataMissing, models.SeverityWarning, 0, "field %q is missing or empty", "description")
	}
	if meta.DateErr != nil {
		add(models.KindInvalidDate, models.SeverityError, 0, "%v", meta.DateErr)
	}

	offset := bodyLineOffset(doc.Source, body)
	scan := ScanBody(body)
	if open := scan.Unterminated; open != nil {
		add(models.KindMalformedContent, models.SeverityError, offset+open.StartLine,
			"code fence %q opened here is never closed", open.Marker)
	}
	for _, block := range scan.Blocks {
		if block.Language == "" {
			add(models.KindMissingLanguage, models.SeverityWarning, offset+block.StartLine,
				"code block has no language tag")
		}
	}
	if open := scan.Unterminated; open != nil && open.Language == "" {
		add(models.KindMissingLanguage, models.SeverityWarning, offset+open.StartLine,
			"code block has no language tag")
	}
	for _, h := range scan.Headings {
		add(models.KindMalformedHeading, models.SeverityWarning, offset+h.Line, "%s", h.Text)
	}

	if slugs != nil {
		for _, link := range ExtractLinks([]byte(body)) {
			slug, ok := ResolveLink(doc.Path, link.Target)
			if !ok || slugs[slug] {
				continue
			}
			add(models.KindBrokenLink, models.SeverityError, 0, "link %q points at %s which does not exist", link.Target, slug)
		}
	}

	if c.renderBody != nil {
		first, err1 := c.renderBody([]byte(body))
		second, err2 := c.renderBody([]byte(body))
		switch {
		case err1 != nil || err2 != nil:
			add(models.KindMalformedContent, models.SeverityError, 0, "body cannot be rendered: %v", firstErr(err1, err2))
		case !bytes.Equal(first, second):
			add(models.KindNonIdempotentRender, models.SeverityError, 0, "rendering the body twice produced different output")
		}
	}

	return findings
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func sortFindings(findings []models.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return strings.Compare(a.Message, b.Message) < 0
	})
}
