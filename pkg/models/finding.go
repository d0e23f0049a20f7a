package models

// FindingKind names a structural problem in an article.
type FindingKind string

const (
	KindMetadataMissing      FindingKind = "MetadataMissing"
	KindInvalidDate          FindingKind = "InvalidDate"
	KindMalformedFrontMatter FindingKind = "MalformedFrontMatter"
	KindMalformedContent     FindingKind = "MalformedContent"
	KindMalformedHeading     FindingKind = "MalformedHeading"
	KindMissingLanguage      FindingKind = "MissingLanguage"
	KindBrokenLink           FindingKind = "BrokenLink"
	KindNonIdempotentRender  FindingKind = "NonIdempotentRender"
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one result of a structural check. Line is 1-based, 0 when the
// finding is not tied to a line.
type Finding struct {
	Path     string      `json:"path"`
	Kind     FindingKind `json:"kind"`
	Severity Severity    `json:"severity"`
	Line     int         `json:"line,omitempty"`
	Message  string      `json:"message"`
}
